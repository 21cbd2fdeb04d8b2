package controller

import (
	"bytes"
	"strings"

	"campusku_backend/internals/features/attendance/service"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportSheet     = "Sheet1"
)

var reportHeader = []interface{}{"Reg. No", "Name", "Total Classes", "Absences", "Late", "Attendance %"}

// BuildSectionReportXLSX renders one header row, a title row and one row per student.
func BuildSectionReportXLSX(rep *service.SectionReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	title := []interface{}{rep.SectionName, rep.From + " - " + rep.To}
	if err := f.SetSheetRow(reportSheet, "A1", &title); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(reportSheet, "A2", &reportHeader); err != nil {
		return nil, err
	}
	for i, row := range rep.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		values := []interface{}{row.RegNum, row.Name, row.TotalClasses, row.Absences, row.Late, row.Percentage}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(reportSheet, "A", "B", 24); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "section"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
