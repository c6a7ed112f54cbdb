package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
)

// AutoMigrateAll creates or updates every table the service owns.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Agent{},
		&types.PersonRef{},
		&types.StatusOption{},
		&types.RosterEntry{},

		&types.UploadBatch{},
		&types.StagingRow{},
		&types.BatchDiff{},

		&types.AuditEntry{},
	)
}
