package service

import (
	"strings"
	"testing"

	"campusku_backend/internals/helpers/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseRosterCSV(t *testing.T) {
	in := "\ufeffReg No,Name,Email,Mobile\n" +
		"cse001, Asha Rao ,asha@campus.edu,98450\n" +
		",,,\n" +
		"CSE002,Ravi,,\n"

	rows, err := ParseRosterCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, RosterRow{Line: 2, RegNum: "cse001", Name: "Asha Rao", Email: "asha@campus.edu", Phone: "98450"}, rows[0])
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "CSE002", rows[1].RegNum)
}

func TestParseRosterCSVNeedsHeader(t *testing.T) {
	_, err := ParseRosterCSV(strings.NewReader("email,phone\na@b.c,1\n"))
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = ParseRosterCSV(strings.NewReader(""))
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestParseRosterXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"reg_num", "name", "email"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"ECE010", "Meera", "meera@campus.edu"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"ECE011", "Kiran"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ParseRosterXLSX(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Meera", rows[0].Name)
	assert.Equal(t, "meera@campus.edu", rows[0].Email)
	assert.Equal(t, "ECE011", rows[1].RegNum)
	assert.Empty(t, rows[1].Email)
	assert.Equal(t, 3, rows[1].Line)
}

func TestParseRosterJSON(t *testing.T) {
	rows, err := ParseRosterJSON([]byte(`[{"reg_num":"A1","name":"X"},{"reg_num":"A2","name":"Y"}]`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[1].Line)

	rows, err = ParseRosterJSON([]byte(`{"students":[{"reg_num":"B1","name":"Z","email":"z@campus.edu"}]}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "z@campus.edu", rows[0].Email)

	_, err = ParseRosterJSON([]byte(`not json`))
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestPlanRoster(t *testing.T) {
	rows := []RosterRow{
		{Line: 1, RegNum: " cse001 ", Name: "Asha"},
		{Line: 2, RegNum: "CSE001", Name: "Asha again"},
		{Line: 3, RegNum: "", Name: "No reg"},
		{Line: 4, RegNum: "CSE003", Name: "Bad mail", Email: "nope"},
		{Line: 5, RegNum: "cse004", Name: "Ravi", Email: "Ravi@Campus.edu"},
	}
	valid, errs := PlanRoster(rows)

	require.Len(t, valid, 2)
	assert.Equal(t, "CSE001", valid[0].RegNum)
	assert.Equal(t, "ravi@campus.edu", valid[1].Email)

	require.Len(t, errs, 3)
	assert.Equal(t, 2, errs[0].Line)
	assert.Contains(t, errs[0].Error, "line 1")
	assert.Equal(t, "reg_num is required", errs[1].Error)
	assert.Equal(t, "invalid email", errs[2].Error)
}
