package constants

import (
	"path/filepath"
	"strings"
)

const (
	RosterFileUnknown = iota
	RosterFileCSV
	RosterFileXLSX
)

// DetectRosterFileType classifies an uploaded roster by its extension.
func DetectRosterFileType(filename string) int {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".csv", ".txt":
		return RosterFileCSV
	case ".xlsx", ".xlsm":
		return RosterFileXLSX
	default:
		return RosterFileUnknown
	}
}
