package service

import (
	"testing"

	"campusku_backend/internals/features/campus/schedules/model"
	"campusku_backend/internals/helpers/apperror"

	"github.com/stretchr/testify/assert"
)

func TestValidateSlots(t *testing.T) {
	slot := func(start, end string) model.TimeSlotModel {
		return model.TimeSlotModel{StartTime: start, EndTime: end}
	}

	cases := []struct {
		name  string
		slots []model.TimeSlotModel
		ok    bool
		msg   string
	}{
		{"adjacent", []model.TimeSlotModel{slot("9", "10"), slot("10:00", "11:00"), slot("11:15", "12:15")}, true, ""},
		{"unordered input", []model.TimeSlotModel{slot("11:00", "12:00"), slot("09:00", "10:00")}, true, ""},
		{"overlap", []model.TimeSlotModel{slot("09:00", "10:30"), slot("10:00", "11:00")}, false, "overlaps"},
		{"inverted", []model.TimeSlotModel{slot("10:00", "09:00")}, false, "must be before"},
		{"zero length", []model.TimeSlotModel{slot("10:00", "10")}, false, "must be before"},
		{"garbage", []model.TimeSlotModel{slot("ten", "11:00")}, false, "invalid start_time"},
		{"empty", nil, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSlots(tc.slots)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.Is(err, apperror.KindValidation))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestNormalizeClock(t *testing.T) {
	got, err := NormalizeClock("9")
	assert.NoError(t, err)
	assert.Equal(t, "09:00", got)

	got, err = NormalizeClock("13:45:00")
	assert.NoError(t, err)
	assert.Equal(t, "13:45", got)

	_, err = NormalizeClock("25")
	assert.Error(t, err)
}
