package service

import (
	"campusku_backend/internals/helpers/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecomputeStrength refreshes the cached roster size of the given sections.
func RecomputeStrength(db *gorm.DB, sectionIDs ...uuid.UUID) error {
	ids := make([]uuid.UUID, 0, len(sectionIDs))
	seen := make(map[uuid.UUID]struct{}, len(sectionIDs))
	for _, id := range sectionIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	err := db.Exec(`
		UPDATE sections s
		SET strength = (SELECT COUNT(*) FROM students st WHERE st.section_id = s.id),
		    updated_at = NOW()
		WHERE s.id IN ?`, ids).Error
	return apperror.FromDB(err, "section")
}
