package service

import (
	"math"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	"campusku_backend/internals/helpers/dbtime"
)

// Aggregate is the count split of a session. LATE is counted as present.
type Aggregate struct {
	Total      int     `json:"total_students"`
	Present    int     `json:"present_count"`
	Absent     int     `json:"absent_count"`
	Late       int     `json:"late_count"`
	Percentage float64 `json:"attendance_percentage"`
}

func Summarize(rows []attModel.AttendanceModel) Aggregate {
	var agg Aggregate
	agg.Total = len(rows)
	for _, r := range rows {
		switch r.Status {
		case attModel.StatusPresent:
			agg.Present++
		case attModel.StatusLate:
			agg.Present++
			agg.Late++
		}
	}
	agg.Absent = agg.Total - agg.Present
	agg.Percentage = Percentage(agg.Present, agg.Total)
	return agg
}

// Percentage is part*100/total rounded to 2 places, 0 when total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)*100.0/float64(total)*100) / 100
}

// RollingPercentage is (total - absences) * 100 / total.
func RollingPercentage(c AttendanceCount) float64 {
	return Percentage(c.Total-c.Absences, c.Total)
}

// ClassifySubmission is LATE when the wall clock of now is past the slot end,
// whatever date the session is recorded for.
// An unparseable end time yields ON_TIME together with the parse error.
func ClassifySubmission(endTime string, now time.Time) (attModel.SubmissionStatus, error) {
	end, err := dbtime.ParseClock(endTime)
	if err != nil {
		return attModel.SubmissionOnTime, err
	}
	endAt := end.On(dbtime.DayIn(now, now.Location()))
	if now.After(endAt) {
		return attModel.SubmissionLate, nil
	}
	return attModel.SubmissionOnTime, nil
}

func (a Aggregate) apply(s *attModel.AttendanceSessionModel) {
	s.TotalStudents = a.Total
	s.PresentCount = a.Present
	s.AbsentCount = a.Absent
	s.LateCount = a.Late
	s.AttendancePercentage = a.Percentage
}
