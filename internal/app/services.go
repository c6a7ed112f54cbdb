package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/observability"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

type Services struct {
	Audit     services.AuditService
	Statuses  services.StatusCatalogService
	Agents    services.AgentService
	Snapshots services.SnapshotService
	Diffs     services.DiffService
	Apply     services.ApplyService
	Staging   services.StagingService
	Uploads   services.UploadService
	Roster    services.RosterService
	Exports   services.ExportService
	Reports   services.ReportService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	audit := services.NewAuditService(db, log, r.AuditEntry)
	statuses := services.NewStatusCatalogService(db, log, r.StatusOption)
	agents := services.NewAgentService(db, log, r.Agent, r.RosterEntry, r.UploadBatch, r.StagingRow, r.BatchDiff, audit)
	snapshots := services.NewSnapshotService(db, log, r.RosterEntry, r.StagingRow)
	diffs := services.NewDiffService(db, log, r.UploadBatch, r.Agent, r.BatchDiff, snapshots, metrics)
	apply := services.NewApplyService(db, log, r.UploadBatch, r.BatchDiff, r.PersonRef, r.RosterEntry, statuses, diffs, audit, metrics, cfg.RemovalPolicy)
	staging := services.NewStagingService(db, log, r.Agent, r.UploadBatch, r.StagingRow, statuses, metrics)
	return Services{
		Audit:     audit,
		Statuses:  statuses,
		Agents:    agents,
		Snapshots: snapshots,
		Diffs:     diffs,
		Apply:     apply,
		Staging:   staging,
		Uploads:   services.NewUploadService(db, log, agents, staging, diffs, apply, cfg.UploadMaxBytes),
		Roster:    services.NewRosterService(db, log, r.Agent, r.RosterEntry, r.UploadBatch, r.BatchDiff, statuses, audit),
		Exports:   services.NewExportService(db, log, r.Agent, r.RosterEntry),
		Reports:   services.NewReportService(db, log, r.Agent, r.RosterEntry, audit),
	}
}
