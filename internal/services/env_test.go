package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	"github.com/yungbote/rosterbridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/ingestion/tabular"
	"github.com/yungbote/rosterbridge-backend/internal/observability"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
)

type testEnv struct {
	ctx context.Context
	db  *gorm.DB

	agentRepo   repos.AgentRepo
	rosterRepo  repos.RosterEntryRepo
	batchRepo   repos.UploadBatchRepo
	stagingRepo repos.StagingRowRepo
	diffRepo    repos.BatchDiffRepo
	auditRepo   repos.AuditEntryRepo

	metrics  *observability.Metrics
	audit    AuditService
	statuses StatusCatalogService
	agents   AgentService
	diffs    DiffService
	applier  ApplyService
	staging  StagingService
	uploads  UploadService
	roster   RosterService
	exports  ExportService
	reports  ReportService
}

func newEnv(t *testing.T) *testEnv {
	return newEnvWithPolicy(t, RemovalHard)
}

func newEnvWithPolicy(t *testing.T, policy RemovalPolicy) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	e := &testEnv{
		ctx:         context.Background(),
		db:          db,
		agentRepo:   repos.NewAgentRepo(db, log),
		rosterRepo:  repos.NewRosterEntryRepo(db, log),
		batchRepo:   repos.NewUploadBatchRepo(db, log),
		stagingRepo: repos.NewStagingRowRepo(db, log),
		diffRepo:    repos.NewBatchDiffRepo(db, log),
		auditRepo:   repos.NewAuditEntryRepo(db, log),
		metrics:     observability.New(),
	}
	statusRepo := repos.NewStatusOptionRepo(db, log)
	personRepo := repos.NewPersonRefRepo(db, log)

	e.audit = NewAuditService(db, log, e.auditRepo)
	e.statuses = NewStatusCatalogService(db, log, statusRepo)
	e.agents = NewAgentService(db, log, e.agentRepo, e.rosterRepo, e.batchRepo, e.stagingRepo, e.diffRepo, e.audit)
	snapshots := NewSnapshotService(db, log, e.rosterRepo, e.stagingRepo)
	e.diffs = NewDiffService(db, log, e.batchRepo, e.agentRepo, e.diffRepo, snapshots, e.metrics)
	e.applier = NewApplyService(db, log, e.batchRepo, e.diffRepo, personRepo, e.rosterRepo, e.statuses, e.diffs, e.audit, e.metrics, policy)
	e.staging = NewStagingService(db, log, e.agentRepo, e.batchRepo, e.stagingRepo, e.statuses, e.metrics)
	e.uploads = NewUploadService(db, log, e.agents, e.staging, e.diffs, e.applier, 0)
	e.roster = NewRosterService(db, log, e.agentRepo, e.rosterRepo, e.batchRepo, e.diffRepo, e.statuses, e.audit)
	e.exports = NewExportService(db, log, e.agentRepo, e.rosterRepo)
	e.reports = NewReportService(db, log, e.agentRepo, e.rosterRepo, e.audit)

	_, err := e.statuses.SeedDefaults(e.ctx)
	require.NoError(t, err)
	return e
}

func (e *testEnv) agent(t *testing.T, key string) *types.Agent {
	t.Helper()
	return testutil.SeedAgent(t, e.ctx, e.db, key)
}

func (e *testEnv) seedEntry(t *testing.T, agentID uuid.UUID, seed testutil.RosterSeed) *types.RosterEntry {
	t.Helper()
	return testutil.SeedRosterEntry(t, e.ctx, e.db, agentID, seed)
}

func (e *testEnv) stage(t *testing.T, agentID uuid.UUID, rows ...tabular.RawRow) uuid.UUID {
	t.Helper()
	res, err := e.staging.Stage(e.ctx, rows, agentID, StageOptions{OriginalFilename: "roster.csv"})
	require.NoError(t, err)
	return res.BatchID
}

// activeRoster returns the agent's active entries keyed by person key.
func (e *testEnv) activeRoster(t *testing.T, agentID uuid.UUID) map[string]*types.RosterEntry {
	t.Helper()
	entries, err := e.rosterRepo.List(dbcFor(e.ctx), repos.RosterFilter{AgentID: &agentID, ActiveOnly: true})
	require.NoError(t, err)
	out := make(map[string]*types.RosterEntry, len(entries))
	for _, en := range entries {
		out[en.PersonKey] = en
	}
	return out
}

func (e *testEnv) batchStatus(t *testing.T, id uuid.UUID) types.BatchStatus {
	t.Helper()
	b, err := e.batchRepo.GetByID(dbcFor(e.ctx), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b.Status
}

func row(line int, key, first, last string, extra ...string) tabular.RawRow {
	values := map[tabular.Field]string{
		tabular.FieldPersonKey: key,
		tabular.FieldFirstName: first,
		tabular.FieldLastName:  last,
	}
	for i := 0; i+1 < len(extra); i += 2 {
		values[tabular.Field(extra[i])] = extra[i+1]
	}
	return tabular.NewRawRow(line, values)
}

func dbcFor(ctx context.Context) dbctx.Context { return dbctx.Context{Ctx: ctx} }
