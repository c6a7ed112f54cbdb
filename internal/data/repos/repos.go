package repos

import (
	"github.com/yungbote/rosterbridge-backend/internal/data/repos/audit"
	"github.com/yungbote/rosterbridge-backend/internal/data/repos/roster"
	"github.com/yungbote/rosterbridge-backend/internal/data/repos/uploads"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type AgentRepo = roster.AgentRepo
type StatusOptionRepo = roster.StatusOptionRepo
type PersonRefRepo = roster.PersonRefRepo
type RosterEntryRepo = roster.RosterEntryRepo
type RosterFilter = roster.RosterFilter

type UploadBatchRepo = uploads.UploadBatchRepo
type StagingRowRepo = uploads.StagingRowRepo
type BatchDiffRepo = uploads.BatchDiffRepo

type AuditEntryRepo = audit.AuditEntryRepo
type AuditFilter = audit.AuditFilter

func NewAgentRepo(db *gorm.DB, baseLog *logger.Logger) AgentRepo {
	return roster.NewAgentRepo(db, baseLog)
}
func NewStatusOptionRepo(db *gorm.DB, baseLog *logger.Logger) StatusOptionRepo {
	return roster.NewStatusOptionRepo(db, baseLog)
}
func NewPersonRefRepo(db *gorm.DB, baseLog *logger.Logger) PersonRefRepo {
	return roster.NewPersonRefRepo(db, baseLog)
}
func NewRosterEntryRepo(db *gorm.DB, baseLog *logger.Logger) RosterEntryRepo {
	return roster.NewRosterEntryRepo(db, baseLog)
}

func NewUploadBatchRepo(db *gorm.DB, baseLog *logger.Logger) UploadBatchRepo {
	return uploads.NewUploadBatchRepo(db, baseLog)
}
func NewStagingRowRepo(db *gorm.DB, baseLog *logger.Logger) StagingRowRepo {
	return uploads.NewStagingRowRepo(db, baseLog)
}
func NewBatchDiffRepo(db *gorm.DB, baseLog *logger.Logger) BatchDiffRepo {
	return uploads.NewBatchDiffRepo(db, baseLog)
}

func NewAuditEntryRepo(db *gorm.DB, baseLog *logger.Logger) AuditEntryRepo {
	return audit.NewAuditEntryRepo(db, baseLog)
}
