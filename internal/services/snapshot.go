package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/normalization"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"github.com/yungbote/rosterbridge-backend/internal/reconcile"
)

// SnapshotService reads the two sides of a comparison. It never writes.
type SnapshotService interface {
	// Current is the agent's active roster keyed by person key.
	Current(dbc dbctx.Context, agentID uuid.UUID) (reconcile.Snapshot, error)
	// Batch is the staged rows of a batch keyed by person key; later rows win.
	Batch(dbc dbctx.Context, batchID uuid.UUID) (reconcile.Snapshot, error)
}

type snapshotService struct {
	db          *gorm.DB
	log         *logger.Logger
	rosterRepo  repos.RosterEntryRepo
	stagingRepo repos.StagingRowRepo
}

func NewSnapshotService(db *gorm.DB, log *logger.Logger, rosterRepo repos.RosterEntryRepo, stagingRepo repos.StagingRowRepo) SnapshotService {
	return &snapshotService{
		db:          db,
		log:         log.With("service", "SnapshotService"),
		rosterRepo:  rosterRepo,
		stagingRepo: stagingRepo,
	}
}

func (s *snapshotService) Current(dbc dbctx.Context, agentID uuid.UUID) (reconcile.Snapshot, error) {
	entries, err := s.rosterRepo.List(dbc, repos.RosterFilter{AgentID: &agentID, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	snap := make(reconcile.Snapshot, len(entries))
	for _, e := range entries {
		snap.Add(fieldsFromEntry(e))
	}
	return snap, nil
}

func (s *snapshotService) Batch(dbc dbctx.Context, batchID uuid.UUID) (reconcile.Snapshot, error) {
	rows, err := s.stagingRepo.ListByBatch(dbc, batchID)
	if err != nil {
		return nil, err
	}
	snap := make(reconcile.Snapshot, len(rows))
	for _, r := range rows {
		snap.Add(fieldsFromStagingRow(r))
	}
	return snap, nil
}

func fieldsFromEntry(e *types.RosterEntry) reconcile.Fields {
	return reconcile.Fields{
		PersonKey:   e.PersonKey,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Email:       normalization.Deref(e.Email),
		Phone:       normalization.Deref(e.Phone),
		District:    normalization.Deref(e.District),
		AddressNote: normalization.Deref(e.AddressNote),
		Notes:       normalization.Deref(e.Notes),
		StatusKey:   e.StatusKey(),
	}
}

func fieldsFromStagingRow(r *types.StagingRow) reconcile.Fields {
	return reconcile.Fields{
		PersonKey:   r.PersonKey,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       normalization.Deref(r.Email),
		Phone:       normalization.Deref(r.Phone),
		District:    normalization.Deref(r.District),
		AddressNote: normalization.Deref(r.AddressNote),
		Notes:       normalization.Deref(r.Notes),
		StatusKey:   normalization.Deref(r.StatusKey),
	}
}
