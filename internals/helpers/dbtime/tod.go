package dbtime

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tod is a wall-clock time of day with the date and zone stripped.
type Tod struct{ time.Time }

// From keeps only HH:mm:ss of t.
func From(t time.Time) Tod {
	return Tod{Time: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// ParseClock accepts "HH:mm", "HH:mm:ss" or a bare hour "H" / "HH" (24-hour).
func ParseClock(s string) (Tod, error) {
	var t Tod
	return t, t.parse(s)
}

func (t *Tod) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("tod: empty time")
	}
	if !strings.Contains(s, ":") {
		h, err := strconv.Atoi(s)
		if err != nil || h < 0 || h > 23 {
			return fmt.Errorf("tod: invalid hour %q", s)
		}
		t.Time = time.Date(0, 1, 1, h, 0, 0, 0, time.UTC)
		return nil
	}
	layout := "15:04:05"
	if strings.Count(s, ":") == 1 {
		layout = "15:04"
	}
	tt, err := time.Parse(layout, s)
	if err != nil {
		return fmt.Errorf("tod: invalid time %q: %w", s, err)
	}
	t.Time = time.Date(0, 1, 1, tt.Hour(), tt.Minute(), tt.Second(), 0, time.UTC)
	return nil
}

// Minutes since midnight.
func (t Tod) Minutes() int { return t.Hour()*60 + t.Minute() }

func (t Tod) Equal(o Tod) bool { return t.Minutes() == o.Minutes() && t.Second() == o.Second() }

func (t Tod) Before(o Tod) bool { return t.Time.Before(o.Time) }

// On places the time of day on the calendar date of day, in day's location.
func (t Tod) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, day.Location())
}

func (t Tod) String() string { return t.Format("15:04") }

func (t *Tod) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*t = From(x)
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("tod: unsupported Scan type %T", v)
	}
}

func (t Tod) Value() (driver.Value, error) {
	return t.Format("15:04:05"), nil
}

func (t Tod) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}
