package constants

import "fmt"

const (
	RoleAdmin   = "ADMIN"
	RoleFaculty = "FACULTY"
)

// Template pesan error role
const (
	ErrOnlyAdminsCanAccess  = "❌ Only admins may access %s."
	ErrOnlyStaffCanAccess   = "❌ Only admins or faculty may access %s."
	ErrOnlyFacultyCanAccess = "❌ Only faculty may access %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorStaff(feature string) string {
	return fmt.Sprintf(ErrOnlyStaffCanAccess, feature)
}

func RoleErrorFaculty(feature string) string {
	return fmt.Sprintf(ErrOnlyFacultyCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleAdmin,
		RoleFaculty,
	}

	AdminOnly = []string{
		RoleAdmin,
	}

	FacultyOnly = []string{
		RoleFaculty,
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
