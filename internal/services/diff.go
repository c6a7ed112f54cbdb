package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/observability"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"github.com/yungbote/rosterbridge-backend/internal/reconcile"
)

type DiffService interface {
	// Compute builds the diff of a batch against its agent's current roster.
	Compute(dbc dbctx.Context, batchID uuid.UUID) (*reconcile.Diff, *types.UploadBatch, error)
	// Preview returns the diff for display. Staged batches are recomputed and
	// cached; processed batches return the cached diff when one exists.
	Preview(ctx context.Context, batchID uuid.UUID) (*reconcile.Diff, error)
	// Cached loads the stored diff of a batch, nil when none is stored.
	Cached(dbc dbctx.Context, batchID uuid.UUID) (*reconcile.Diff, error)
}

type diffService struct {
	db        *gorm.DB
	log       *logger.Logger
	batchRepo repos.UploadBatchRepo
	agentRepo repos.AgentRepo
	diffRepo  repos.BatchDiffRepo
	snapshots SnapshotService
	metrics   *observability.Metrics
	group     singleflight.Group
}

func NewDiffService(
	db *gorm.DB,
	log *logger.Logger,
	batchRepo repos.UploadBatchRepo,
	agentRepo repos.AgentRepo,
	diffRepo repos.BatchDiffRepo,
	snapshots SnapshotService,
	metrics *observability.Metrics,
) DiffService {
	return &diffService{
		db:        db,
		log:       log.With("service", "DiffService"),
		batchRepo: batchRepo,
		agentRepo: agentRepo,
		diffRepo:  diffRepo,
		snapshots: snapshots,
		metrics:   metrics,
	}
}

func (s *diffService) Compute(dbc dbctx.Context, batchID uuid.UUID) (*reconcile.Diff, *types.UploadBatch, error) {
	batch, err := s.batchRepo.GetByID(dbc, batchID)
	if err != nil {
		return nil, nil, err
	}
	if batch == nil {
		return nil, nil, fmt.Errorf("batch %s: %w", batchID, ErrNotFound)
	}
	d, err := s.computeFor(dbc, batch)
	if err != nil {
		return nil, nil, err
	}
	return d, batch, nil
}

func (s *diffService) computeFor(dbc dbctx.Context, batch *types.UploadBatch) (*reconcile.Diff, error) {
	agent, err := s.agentRepo.GetByID(dbc, batch.AgentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", batch.AgentID, ErrNotFound)
	}
	current, err := s.snapshots.Current(dbc, batch.AgentID)
	if err != nil {
		return nil, fmt.Errorf("current snapshot: %w", err)
	}
	next, err := s.snapshots.Batch(dbc, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("batch snapshot: %w", err)
	}
	result := reconcile.Compare(current, next)
	s.metrics.IncDiff("fresh")
	return reconcile.NewDiff(batch.ID, reconcile.AgentRef{
		ID:          agent.ID,
		BusinessKey: agent.BusinessKey,
		FirstName:   agent.FirstName,
		LastName:    agent.LastName,
	}, result), nil
}

func (s *diffService) Preview(ctx context.Context, batchID uuid.UUID) (*reconcile.Diff, error) {
	v, err, _ := s.group.Do(batchID.String(), func() (interface{}, error) {
		return s.preview(ctx, batchID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*reconcile.Diff), nil
}

func (s *diffService) preview(ctx context.Context, batchID uuid.UUID) (d *reconcile.Diff, err error) {
	ctx, span := observability.StartSpan(ctx, "diff.preview", attribute.String("batch_id", batchID.String()))
	defer func() { observability.EndSpan(span, err) }()

	dbc := dbctx.Context{Ctx: ctx}
	batch, err := s.batchRepo.GetByID(dbc, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("batch %s: %w", batchID, ErrNotFound)
	}
	if batch.Status != types.BatchStaged {
		cached, err := s.Cached(dbc, batchID)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			s.metrics.IncDiff("cached")
			return cached, nil
		}
	}
	d, err = s.computeFor(dbc, batch)
	if err != nil {
		return nil, err
	}
	if batch.Status == types.BatchStaged {
		if err := s.store(dbc, d); err != nil {
			s.log.Warn("diff cache write failed", "batch_id", batchID, "error", err)
		}
	}
	return d, nil
}

func (s *diffService) Cached(dbc dbctx.Context, batchID uuid.UUID) (*reconcile.Diff, error) {
	rec, err := s.diffRepo.GetByBatchID(dbc, batchID)
	if err != nil || rec == nil {
		return nil, err
	}
	var d reconcile.Diff
	if err := json.Unmarshal(rec.Payload, &d); err != nil {
		return nil, fmt.Errorf("decode cached diff: %w", err)
	}
	return &d, nil
}

func (s *diffService) store(dbc dbctx.Context, d *reconcile.Diff) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.diffRepo.Upsert(dbc, &types.BatchDiff{
		BatchID:      d.BatchID,
		AddedCount:   d.Counts.Added,
		RemovedCount: d.Counts.Removed,
		ChangedCount: d.Counts.Changed,
		Payload:      datatypes.JSON(payload),
	})
}

// dropStagedDiffs deletes the cached diffs of the agent's STAGED batches. A
// cached diff is only valid against the roster it was computed from, so every
// roster mutation calls this in its transaction.
func dropStagedDiffs(dbc dbctx.Context, batchRepo repos.UploadBatchRepo, diffRepo repos.BatchDiffRepo, agentID uuid.UUID) error {
	ids, err := batchRepo.ListIDsByStatus(dbc, agentID, types.BatchStaged)
	if err != nil {
		return err
	}
	_, err = diffRepo.DeleteByBatchIDs(dbc, ids)
	return err
}
