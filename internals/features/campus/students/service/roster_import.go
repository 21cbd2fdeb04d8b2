package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	sectionModel "campusku_backend/internals/features/campus/sections/model"
	sectionService "campusku_backend/internals/features/campus/sections/service"
	"campusku_backend/internals/features/campus/students/model"
	"campusku_backend/internals/helpers/apperror"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// RosterRow is one student line of an uploaded roster. Line is 1-based in the source.
type RosterRow struct {
	Line   int    `json:"-"`
	RegNum string `json:"reg_num" validate:"required,max=50"`
	Name   string `json:"name" validate:"required,max=150"`
	Email  string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone  string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

type RowError struct {
	Line   int    `json:"line"`
	RegNum string `json:"reg_num,omitempty"`
	Error  string `json:"error"`
}

type BulkResult struct {
	Total    int        `json:"total"`
	Success  int        `json:"success"`
	Failure  int        `json:"failure"`
	Errors   []RowError `json:"errors"`
	Strength int        `json:"strength"`
}

var headerAliases = map[string]string{
	"reg_num":         "reg_num",
	"regnum":          "reg_num",
	"reg_no":          "reg_num",
	"register_number": "reg_num",
	"registration":    "reg_num",
	"name":            "name",
	"student_name":    "name",
	"email":           "email",
	"phone":           "phone",
	"mobile":          "phone",
}

/* ====================== PARSERS ====================== */

// ParseRosterJSON accepts a bare array or {"students": [...]}.
func ParseRosterJSON(body []byte) ([]RosterRow, error) {
	var rows []RosterRow
	if err := sonic.Unmarshal(body, &rows); err != nil {
		var wrapped struct {
			Students []RosterRow `json:"students"`
		}
		if err2 := sonic.Unmarshal(body, &wrapped); err2 != nil {
			return nil, apperror.Validation("invalid JSON roster")
		}
		rows = wrapped.Students
	}
	for i := range rows {
		rows[i].Line = i + 1
	}
	return rows, nil
}

func ParseRosterCSV(r io.Reader) ([]RosterRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, apperror.Validation("invalid CSV roster: %s", err.Error())
	}
	return parseTable(records)
}

// ParseRosterXLSX reads the first sheet of the workbook.
func ParseRosterXLSX(r io.Reader) ([]RosterRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.Validation("invalid XLSX roster: %s", err.Error())
	}
	defer f.Close()

	records, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperror.Validation("invalid XLSX roster: %s", err.Error())
	}
	return parseTable(records)
}

// parseTable maps the header row onto RosterRow fields; blank lines are skipped.
func parseTable(records [][]string) ([]RosterRow, error) {
	if len(records) == 0 {
		return nil, apperror.Validation("roster is empty")
	}
	cols := map[string]int{}
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if field, ok := headerAliases[key]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	if _, ok := cols["reg_num"]; !ok {
		return nil, apperror.Validation("roster header must contain reg_num")
	}
	if _, ok := cols["name"]; !ok {
		return nil, apperror.Validation("roster header must contain name")
	}

	cell := func(rec []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	rows := make([]RosterRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		rows = append(rows, RosterRow{
			Line:   n + 2,
			RegNum: cell(rec, "reg_num"),
			Name:   cell(rec, "name"),
			Email:  cell(rec, "email"),
			Phone:  cell(rec, "phone"),
		})
	}
	return rows, nil
}

/* ====================== IMPORT ====================== */

// PlanRoster validates rows and drops repeated reg_num values within the upload.
func PlanRoster(rows []RosterRow) ([]RosterRow, []RowError) {
	valid := make([]RosterRow, 0, len(rows))
	var errs []RowError
	seen := map[string]int{}
	for _, r := range rows {
		r.RegNum = strings.ToUpper(strings.TrimSpace(r.RegNum))
		r.Name = strings.TrimSpace(r.Name)
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		r.Phone = strings.TrimSpace(r.Phone)

		if err := validate.Struct(r); err != nil {
			errs = append(errs, RowError{Line: r.Line, RegNum: r.RegNum, Error: describe(err)})
			continue
		}
		if first, ok := seen[r.RegNum]; ok {
			errs = append(errs, RowError{Line: r.Line, RegNum: r.RegNum, Error: fmt.Sprintf("duplicate reg_num, first seen on line %d", first)})
			continue
		}
		seen[r.RegNum] = r.Line
		valid = append(valid, r)
	}
	return valid, errs
}

// ImportRoster inserts each valid row on its own so one bad row does not sink
// the upload, then refreshes the section strength.
func ImportRoster(ctx context.Context, db *gorm.DB, sectionID uuid.UUID, rows []RosterRow) (*BulkResult, error) {
	db = db.WithContext(ctx)

	var section sectionModel.SectionModel
	if err := db.First(&section, "id = ?", sectionID).Error; err != nil {
		return nil, apperror.FromDB(err, "section")
	}
	if len(rows) == 0 {
		return nil, apperror.Validation("roster has no rows")
	}

	valid, errs := PlanRoster(rows)
	res := &BulkResult{Total: len(rows), Errors: errs}

	for _, r := range valid {
		st := model.StudentModel{
			RegNum:    r.RegNum,
			Name:      r.Name,
			Email:     optional(r.Email),
			Phone:     optional(r.Phone),
			SectionID: sectionID,
		}
		if err := db.Create(&st).Error; err != nil {
			msg := "could not be saved"
			if apperror.IsUniqueViolation(err) {
				msg = "reg_num already registered"
			}
			res.Errors = append(res.Errors, RowError{Line: r.Line, RegNum: r.RegNum, Error: msg})
			continue
		}
		res.Success++
	}
	res.Failure = res.Total - res.Success

	if err := sectionService.RecomputeStrength(db, sectionID); err != nil {
		return res, err
	}
	if err := db.Model(&sectionModel.SectionModel{}).Select("strength").
		Where("id = ?", sectionID).Scan(&res.Strength).Error; err != nil {
		return res, apperror.FromDB(err, "section")
	}
	if res.Errors == nil {
		res.Errors = []RowError{}
	}
	return res, nil
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		if fe.Field() == "RegNum" {
			field = "reg_num"
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, "invalid email")
		case "max":
			parts = append(parts, field+" is too long")
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
