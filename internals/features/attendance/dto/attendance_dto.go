package dto

import (
	"strings"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	"campusku_backend/internals/features/attendance/service"
	"campusku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
)

/* ===============================
   Submit / override
=================================*/

type LateStudentRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Feedback  string    `json:"feedback"`
}

type SubmitAttendanceRequest struct {
	TimeSlotID       uint                 `json:"time_slot_id" validate:"required,gt=0"`
	DateTime         string               `json:"date_time"`
	SectionID        *uuid.UUID           `json:"section_id"`
	ScheduleID       *uuid.UUID           `json:"schedule_id"`
	TopicTaught      *string              `json:"topic_taught" validate:"omitempty,max=255"`
	AbsentStudentIDs []uuid.UUID          `json:"absent_student_ids"`
	LateStudents     []LateStudentRequest `json:"late_students" validate:"dive"`
}

func (r *SubmitAttendanceRequest) Normalize() {
	r.DateTime = strings.TrimSpace(r.DateTime)
	if r.TopicTaught != nil {
		t := strings.TrimSpace(*r.TopicTaught)
		r.TopicTaught = &t
	}
	if r.SectionID != nil && *r.SectionID == uuid.Nil {
		r.SectionID = nil
	}
	if r.ScheduleID != nil && *r.ScheduleID == uuid.Nil {
		r.ScheduleID = nil
	}
}

// ToInput parses date_time in loc; an empty value means now.
func (r SubmitAttendanceRequest) ToInput(loc *time.Location) (service.SubmitInput, error) {
	in := service.SubmitInput{
		TimeSlotID:       r.TimeSlotID,
		SectionID:        r.SectionID,
		ScheduleID:       r.ScheduleID,
		TopicTaught:      r.TopicTaught,
		AbsentStudentIDs: r.AbsentStudentIDs,
	}
	if r.DateTime != "" {
		t, err := dbtime.ParseDateTime(r.DateTime, loc)
		if err != nil {
			return in, err
		}
		in.DateTime = t
	}
	for _, l := range r.LateStudents {
		in.LateStudents = append(in.LateStudents, service.LateStudent{StudentID: l.StudentID, Feedback: l.Feedback})
	}
	return in, nil
}

type OverrideAttendanceRequest struct {
	SubmitAttendanceRequest
	OverrideReason string     `json:"override_reason" validate:"required,min=3"`
	OverriddenBy   *uuid.UUID `json:"overridden_by"`
}

func (r OverrideAttendanceRequest) ToInput(loc *time.Location) (service.OverrideInput, error) {
	in, err := r.SubmitAttendanceRequest.ToInput(loc)
	if err != nil {
		return service.OverrideInput{}, err
	}
	return service.OverrideInput{
		SubmitInput:    in,
		OverrideReason: strings.TrimSpace(r.OverrideReason),
		OverriddenBy:   r.OverriddenBy,
	}, nil
}

/* ===============================
   Bulk mark
=================================*/

type BulkRecordRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Status    string    `json:"status" validate:"required"`
	Feedback  string    `json:"feedback"`
}

type BulkMarkRequest struct {
	TimeSlotID  uint                `json:"time_slot_id" validate:"required,gt=0"`
	Date        string              `json:"date"`
	TopicTaught *string             `json:"topic_taught" validate:"omitempty,max=255"`
	Records     []BulkRecordRequest `json:"records" validate:"required,min=1,dive"`
}

func (r BulkMarkRequest) ToInput(loc *time.Location) (service.BulkMarkInput, error) {
	in := service.BulkMarkInput{TimeSlotID: r.TimeSlotID, TopicTaught: r.TopicTaught}
	if d := strings.TrimSpace(r.Date); d != "" {
		t, err := dbtime.ParseDate(d, loc)
		if err != nil {
			return in, err
		}
		in.Date = t
	}
	for _, rec := range r.Records {
		in.Records = append(in.Records, service.BulkRecord{
			StudentID: rec.StudentID,
			Status:    attModel.Status(strings.ToUpper(strings.TrimSpace(rec.Status))),
			Feedback:  rec.Feedback,
		})
	}
	return in, nil
}

/* ===============================
   Batch
=================================*/

type BatchRecordRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Present   bool      `json:"present"`
	Late      bool      `json:"late"`
	Feedback  string    `json:"feedback"`
}

type BatchSubmitRequest struct {
	SectionID         uuid.UUID            `json:"section_id" validate:"required"`
	Date              string               `json:"date"`
	TopicTaught       *string              `json:"topic_taught" validate:"omitempty,max=255"`
	TimeSlotIDs       []uint               `json:"time_slot_ids" validate:"required,min=1"`
	AttendanceRecords []BatchRecordRequest `json:"attendance_records" validate:"dive"`
}

func (r BatchSubmitRequest) ToInput(loc *time.Location) (service.BatchInput, error) {
	in := service.BatchInput{SectionID: r.SectionID, TopicTaught: r.TopicTaught, TimeSlotIDs: r.TimeSlotIDs}
	if d := strings.TrimSpace(r.Date); d != "" {
		t, err := dbtime.ParseDate(d, loc)
		if err != nil {
			return in, err
		}
		in.Date = t
	}
	for _, rec := range r.AttendanceRecords {
		in.Records = append(in.Records, service.BatchRecord{
			StudentID: rec.StudentID,
			Present:   rec.Present,
			Late:      rec.Late,
			Feedback:  rec.Feedback,
		})
	}
	return in, nil
}

type ValidateBatchRequest struct {
	SectionID   *uuid.UUID `json:"section_id"`
	TimeSlotIDs []uint     `json:"time_slot_ids" validate:"required,min=1"`
}

type ValidateBatchResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

/* ===============================
   Misc
=================================*/

type LateReasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ArchiveRequest struct {
	Year  int `json:"year" validate:"required"`
	Month int `json:"month" validate:"required"`
}
