package dbtime

import (
	"strings"
	"time"

	"campusku_backend/internals/configs"

	"github.com/gofiber/fiber/v2"
)

const (
	DateLayout = "2006-01-02"

	LocCampusLoc = "campus_loc"
)

// GetCampusLocation returns the cached location from locals or CAMPUS_TIMEZONE.
func GetCampusLocation(c *fiber.Ctx) *time.Location {
	if c != nil {
		if loc, ok := c.Locals(LocCampusLoc).(*time.Location); ok && loc != nil {
			return loc
		}
	}
	loc := configs.CampusLocation()
	if c != nil {
		c.Locals(LocCampusLoc, loc)
	}
	return loc
}

// ParseDate reads "YYYY-MM-DD" as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// ParseDateTime accepts RFC3339, "YYYY-MM-DDTHH:mm[:ss]" or a bare date.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	var lastErr error
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", DateLayout} {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthRange returns [first day, first day of next month).
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// DayIn re-anchors t's calendar day (as seen in t's own location) at midnight in loc.
// DATE columns come back at UTC midnight, so this keeps the Y-M-D intact.
func DayIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
