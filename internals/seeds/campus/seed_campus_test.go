package campus

import (
	"os"
	"testing"

	scheduleService "campusku_backend/internals/features/campus/schedules/service"
	studentService "campusku_backend/internals/features/campus/students/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampusFixturesAreConsistent(t *testing.T) {
	seed, err := LoadCampusSeed("data_campus.json")
	require.NoError(t, err)
	require.NotEmpty(t, seed.Sections)

	trainers := map[string]bool{}
	for _, tr := range seed.Trainers {
		trainers[tr.Name] = true
	}
	rooms := map[string]bool{}
	for _, r := range seed.Rooms {
		rooms[r.Name] = true
	}

	for _, s := range seed.Sections {
		t.Run(s.Name, func(t *testing.T) {
			assert.True(t, trainers[s.Trainer], "unknown trainer %q", s.Trainer)
			assert.NoError(t, scheduleService.ValidateSlots(s.SlotModels()))
			for _, sl := range s.Slots {
				if sl.Room != "" {
					assert.True(t, rooms[sl.Room], "unknown room %q", sl.Room)
				}
				if !sl.IsBreak {
					assert.NotEmpty(t, sl.Faculty, "teaching slot %s-%s has no faculty", sl.Start, sl.End)
				}
			}

			f, err := os.Open(s.RosterFile)
			require.NoError(t, err)
			defer f.Close()
			rows, err := studentService.ParseRosterCSV(f)
			require.NoError(t, err)
			valid, errs := studentService.PlanRoster(rows)
			assert.Empty(t, errs)
			assert.Len(t, valid, len(rows))
		})
	}
}

func TestLoadCampusSeedMissingFile(t *testing.T) {
	_, err := LoadCampusSeed("does_not_exist.json")
	assert.Error(t, err)
}
