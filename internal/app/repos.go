package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

type Repos struct {
	Agent        repos.AgentRepo
	StatusOption repos.StatusOptionRepo
	PersonRef    repos.PersonRefRepo
	RosterEntry  repos.RosterEntryRepo

	UploadBatch repos.UploadBatchRepo
	StagingRow  repos.StagingRowRepo
	BatchDiff   repos.BatchDiffRepo

	AuditEntry repos.AuditEntryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Agent:        repos.NewAgentRepo(db, log),
		StatusOption: repos.NewStatusOptionRepo(db, log),
		PersonRef:    repos.NewPersonRefRepo(db, log),
		RosterEntry:  repos.NewRosterEntryRepo(db, log),
		UploadBatch:  repos.NewUploadBatchRepo(db, log),
		StagingRow:   repos.NewStagingRowRepo(db, log),
		BatchDiff:    repos.NewBatchDiffRepo(db, log),
		AuditEntry:   repos.NewAuditEntryRepo(db, log),
	}
}
