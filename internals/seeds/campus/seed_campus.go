package campus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"campusku_backend/internals/configs"
	roomModel "campusku_backend/internals/features/campus/rooms/model"
	scheduleModel "campusku_backend/internals/features/campus/schedules/model"
	scheduleService "campusku_backend/internals/features/campus/schedules/service"
	sectionModel "campusku_backend/internals/features/campus/sections/model"
	studentService "campusku_backend/internals/features/campus/students/service"
	trainerModel "campusku_backend/internals/features/campus/trainers/model"
	userModel "campusku_backend/internals/features/users/user/model"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainerSeed struct {
	Name           string  `json:"name"`
	Email          *string `json:"email"`
	Specialization *string `json:"specialization"`
}

type RoomSeed struct {
	Name     string  `json:"name"`
	Block    *string `json:"block"`
	Capacity int     `json:"capacity"`
	IsLab    bool    `json:"is_lab"`
}

type SlotSeed struct {
	Start   string  `json:"start"`
	End     string  `json:"end"`
	IsBreak bool    `json:"is_break"`
	Faculty string  `json:"faculty"` // user_name
	Room    string  `json:"room"`    // room name
	Label   *string `json:"label"`
}

type SectionSeed struct {
	Name       string     `json:"name"`
	Trainer    string     `json:"trainer"`     // trainer name
	RosterFile string     `json:"roster_file"` // CSV next to the seed file
	Schedule   string     `json:"schedule"`
	Slots      []SlotSeed `json:"slots"`
}

type CampusSeed struct {
	Trainers []TrainerSeed `json:"trainers"`
	Rooms    []RoomSeed    `json:"rooms"`
	Sections []SectionSeed `json:"sections"`
}

func LoadCampusSeed(filePath string) (*CampusSeed, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	var seed CampusSeed
	if err := sonic.Unmarshal(file, &seed); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return &seed, nil
}

// SlotModels converts the seed slots so they can be checked before touching the DB.
func (s SectionSeed) SlotModels() []scheduleModel.TimeSlotModel {
	out := make([]scheduleModel.TimeSlotModel, 0, len(s.Slots))
	for i, sl := range s.Slots {
		out = append(out, scheduleModel.TimeSlotModel{ID: uint(i + 1), StartTime: sl.Start, EndTime: sl.End, IsBreak: sl.IsBreak, Label: sl.Label})
	}
	return out
}

func SeedCampusFromJSON(ctx context.Context, db *gorm.DB, filePath string) error {
	log := configs.GetLogger()
	log.WithField("file", filePath).Info("📥 reading campus fixtures")

	seed, err := LoadCampusSeed(filePath)
	if err != nil {
		return err
	}
	db = db.WithContext(ctx)

	trainers := map[string]uuid.UUID{}
	for _, t := range seed.Trainers {
		row := trainerModel.TrainerModel{Name: t.Name, Email: t.Email, Specialization: t.Specialization}
		if err := db.Where(trainerModel.TrainerModel{Name: t.Name}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("trainer %s: %w", t.Name, err)
		}
		trainers[t.Name] = row.ID
	}

	rooms := map[string]uuid.UUID{}
	for _, r := range seed.Rooms {
		row := roomModel.RoomModel{Name: r.Name, Block: r.Block, Capacity: r.Capacity, IsLab: r.IsLab}
		if err := db.Where(roomModel.RoomModel{Name: r.Name}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("room %s: %w", r.Name, err)
		}
		rooms[r.Name] = row.ID
	}

	for _, s := range seed.Sections {
		if err := seedSection(ctx, db, filepath.Dir(filePath), s, trainers, rooms); err != nil {
			return fmt.Errorf("section %s: %w", s.Name, err)
		}
		log.WithField("section", s.Name).Info("✅ section seeded")
	}
	return nil
}

func seedSection(ctx context.Context, db *gorm.DB, dir string, s SectionSeed, trainers, rooms map[string]uuid.UUID) error {
	name := strings.ToUpper(strings.TrimSpace(s.Name))

	var section sectionModel.SectionModel
	err := db.Where("name = ?", name).First(&section).Error
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	section = sectionModel.SectionModel{Name: name}
	if id, ok := trainers[s.Trainer]; ok {
		section.TrainerID = &id
	}
	if err := db.Create(&section).Error; err != nil {
		return err
	}

	if s.RosterFile != "" {
		f, err := os.Open(filepath.Join(dir, s.RosterFile))
		if err != nil {
			return err
		}
		defer f.Close()
		rows, err := studentService.ParseRosterCSV(f)
		if err != nil {
			return err
		}
		res, err := studentService.ImportRoster(ctx, db, section.ID, rows)
		if err != nil {
			return err
		}
		if res.Failure > 0 {
			configs.GetLogger().WithField("errors", res.Errors).Warn("some roster rows were skipped")
		}
	}

	if len(s.Slots) == 0 {
		return nil
	}
	if err := scheduleService.ValidateSlots(s.SlotModels()); err != nil {
		return err
	}

	title := s.Schedule
	if title == "" {
		title = name + " timetable"
	}
	schedule := scheduleModel.SectionScheduleModel{SectionID: section.ID, Title: title, IsActive: true}
	for _, sl := range s.Slots {
		start, err := scheduleService.NormalizeClock(sl.Start)
		if err != nil {
			return err
		}
		end, err := scheduleService.NormalizeClock(sl.End)
		if err != nil {
			return err
		}
		slot := scheduleModel.TimeSlotModel{
			StartTime: start,
			EndTime:   end,
			IsBreak:   sl.IsBreak,
			SectionID: section.ID,
			Label:     sl.Label,
		}
		if sl.Faculty != "" {
			var u userModel.UserModel
			if err := db.Select("id").Where("user_name = ?", sl.Faculty).First(&u).Error; err != nil {
				return fmt.Errorf("faculty %s: %w", sl.Faculty, err)
			}
			slot.InchargeFacultyID = &u.ID
		}
		if id, ok := rooms[sl.Room]; ok {
			slot.RoomID = &id
		}
		schedule.TimeSlots = append(schedule.TimeSlots, slot)
	}
	return db.Create(&schedule).Error
}
