package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	"github.com/yungbote/rosterbridge-backend/internal/data/txrunner"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/normalization"
	"github.com/yungbote/rosterbridge-backend/internal/observability"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"github.com/yungbote/rosterbridge-backend/internal/reconcile"
)

// RemovalPolicy decides what apply does with keys missing from an upload.
type RemovalPolicy string

const (
	RemovalHard RemovalPolicy = "hard"
	RemovalSoft RemovalPolicy = "soft"
)

func ParseRemovalPolicy(v string) (RemovalPolicy, error) {
	switch RemovalPolicy(strings.ToLower(strings.TrimSpace(v))) {
	case "", RemovalHard:
		return RemovalHard, nil
	case RemovalSoft:
		return RemovalSoft, nil
	}
	return "", fmt.Errorf("unknown removal policy %q", v)
}

const (
	msgApplied          = "Applied"
	msgAppliedSelected  = "Selected changes applied"
	msgRejected         = "Rejected"
	msgAlreadyProcessed = "already applied or rejected"
)

// Selection lists person keys per diff category for a partial apply.
type Selection struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

func (s Selection) Empty() bool {
	return len(s.Added) == 0 && len(s.Removed) == 0 && len(s.Changed) == 0
}

// ApplyResult is returned for every apply call. OK=false means the batch had
// already been processed; it is not an error.
type ApplyResult struct {
	OK      bool              `json:"ok"`
	Message string            `json:"message"`
	Counts  *reconcile.Counts `json:"counts,omitempty"`
}

type ApplyService interface {
	Apply(ctx context.Context, batchID uuid.UUID, actor string) (*ApplyResult, error)
	ApplySelected(ctx context.Context, batchID uuid.UUID, sel Selection, actor string) (*ApplyResult, error)
	Reject(ctx context.Context, batchID uuid.UUID, actor string) (*ApplyResult, error)
}

type applyService struct {
	db         *gorm.DB
	tx         txrunner.Runner
	log        *logger.Logger
	batchRepo  repos.UploadBatchRepo
	diffRepo   repos.BatchDiffRepo
	personRepo repos.PersonRefRepo
	rosterRepo repos.RosterEntryRepo
	statuses   StatusCatalogService
	diffs      DiffService
	audit      AuditService
	metrics    *observability.Metrics
	policy     RemovalPolicy
}

func NewApplyService(
	db *gorm.DB,
	log *logger.Logger,
	batchRepo repos.UploadBatchRepo,
	diffRepo repos.BatchDiffRepo,
	personRepo repos.PersonRefRepo,
	rosterRepo repos.RosterEntryRepo,
	statuses StatusCatalogService,
	diffs DiffService,
	audit AuditService,
	metrics *observability.Metrics,
	policy RemovalPolicy,
) ApplyService {
	if policy == "" {
		policy = RemovalHard
	}
	return &applyService{
		db:         db,
		tx:         txrunner.New(db, log),
		log:        log.With("service", "ApplyService", "removal_policy", string(policy)),
		batchRepo:  batchRepo,
		diffRepo:   diffRepo,
		personRepo: personRepo,
		rosterRepo: rosterRepo,
		statuses:   statuses,
		diffs:      diffs,
		audit:      audit,
		metrics:    metrics,
		policy:     policy,
	}
}

func (s *applyService) Apply(ctx context.Context, batchID uuid.UUID, actor string) (res *ApplyResult, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "apply.full", attribute.String("batch_id", batchID.String()))
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.ObserveApply("full", applyOutcome(res, err), time.Since(start))
	}()

	err = s.tx.InTx(ctx, "apply.full", func(inner dbctx.Context) error {
		batch, err := s.lock(inner, batchID)
		if err != nil {
			return err
		}
		if batch.Status != types.BatchStaged {
			res = &ApplyResult{OK: false, Message: msgAlreadyProcessed}
			return nil
		}

		d, err := s.diffs.Cached(inner, batchID)
		if err != nil {
			return err
		}
		if d == nil {
			if d, _, err = s.diffs.Compute(inner, batchID); err != nil {
				return err
			}
		}
		result := d.Result()
		if _, err := s.write(inner, batch.AgentID, result); err != nil {
			return err
		}

		if _, err := s.audit.Record(inner, AuditRecord{
			Entity:   types.AuditEntityUploadBatch,
			EntityID: batch.ID,
			Action:   types.AuditApply,
			Before:   map[string]any{"status": batch.Status},
			After:    map[string]any{"status": types.BatchApplied},
			Actor:    actor,
		}); err != nil {
			return err
		}
		if err := s.batchRepo.UpdateStatus(inner, batch.ID, types.BatchApplied); err != nil {
			return err
		}
		if err := dropStagedDiffs(inner, s.batchRepo, s.diffRepo, batch.AgentID); err != nil {
			return err
		}
		counts := d.Counts
		res = &ApplyResult{OK: true, Message: msgApplied, Counts: &counts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.OK {
		s.log.Info("batch applied", "batch_id", batchID, "added", res.Counts.Added,
			"removed", res.Counts.Removed, "changed", res.Counts.Changed)
	}
	return res, nil
}

func (s *applyService) ApplySelected(ctx context.Context, batchID uuid.UUID, sel Selection, actor string) (res *ApplyResult, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "apply.selected", attribute.String("batch_id", batchID.String()))
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.ObserveApply("selected", applyOutcome(res, err), time.Since(start))
	}()

	err = s.tx.InTx(ctx, "apply.selected", func(inner dbctx.Context) error {
		batch, err := s.lock(inner, batchID)
		if err != nil {
			return err
		}
		if batch.Status != types.BatchStaged {
			res = &ApplyResult{OK: false, Message: msgAlreadyProcessed}
			return nil
		}

		// Always recompute: a previous partial apply makes any cached diff stale.
		d, _, err := s.diffs.Compute(inner, batchID)
		if err != nil {
			return err
		}
		picked := d.Result().Select(sel.Added, sel.Removed, sel.Changed)
		counts, err := s.write(inner, batch.AgentID, picked)
		if err != nil {
			return err
		}

		if _, err := s.audit.Record(inner, AuditRecord{
			Entity:   types.AuditEntityUploadBatch,
			EntityID: batch.ID,
			Action:   types.AuditApplySelected,
			Before:   map[string]any{"status": batch.Status},
			After: map[string]any{
				"status":  batch.Status,
				"added":   keysOf(picked.Added),
				"removed": keysOf(picked.Removed),
				"changed": changeKeys(picked.Changed),
				"counts":  counts,
			},
			Actor: actor,
		}); err != nil {
			return err
		}
		if err := dropStagedDiffs(inner, s.batchRepo, s.diffRepo, batch.AgentID); err != nil {
			return err
		}
		res = &ApplyResult{OK: true, Message: msgAppliedSelected, Counts: &counts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.OK {
		s.log.Info("batch partially applied", "batch_id", batchID, "added", res.Counts.Added,
			"removed", res.Counts.Removed, "changed", res.Counts.Changed)
	}
	return res, nil
}

func (s *applyService) Reject(ctx context.Context, batchID uuid.UUID, actor string) (res *ApplyResult, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveApply("reject", applyOutcome(res, err), time.Since(start))
	}()
	err = s.tx.InTx(ctx, "apply.reject", func(inner dbctx.Context) error {
		batch, err := s.lock(inner, batchID)
		if err != nil {
			return err
		}
		if batch.Status != types.BatchStaged {
			res = &ApplyResult{OK: false, Message: msgAlreadyProcessed}
			return nil
		}
		if _, err := s.audit.Record(inner, AuditRecord{
			Entity:   types.AuditEntityUploadBatch,
			EntityID: batch.ID,
			Action:   types.AuditReject,
			Before:   map[string]any{"status": batch.Status},
			After:    map[string]any{"status": types.BatchRejected},
			Actor:    actor,
		}); err != nil {
			return err
		}
		if err := s.batchRepo.UpdateStatus(inner, batch.ID, types.BatchRejected); err != nil {
			return err
		}
		res = &ApplyResult{OK: true, Message: msgRejected}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *applyService) lock(dbc dbctx.Context, batchID uuid.UUID) (*types.UploadBatch, error) {
	batch, err := s.batchRepo.LockByID(dbc, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("batch %s: %w", batchID, ErrNotFound)
	}
	return batch, nil
}

// write mutates the agent's roster for r and returns what was actually touched.
func (s *applyService) write(dbc dbctx.Context, agentID uuid.UUID, r reconcile.Result) (reconcile.Counts, error) {
	var counts reconcile.Counts

	upserts := make([]reconcile.Fields, 0, len(r.Added)+len(r.Changed))
	upserts = append(upserts, r.Added...)
	for _, c := range r.Changed {
		upserts = append(upserts, c.After)
	}
	statusKeys := make([]string, 0, len(upserts))
	for _, f := range upserts {
		statusKeys = append(statusKeys, f.StatusKey)
	}
	statusIDs, err := s.statuses.Resolve(dbc, statusKeys)
	if err != nil {
		return counts, fmt.Errorf("resolve statuses: %w", err)
	}

	for i, f := range upserts {
		if err := s.upsert(dbc, agentID, f, statusIDs); err != nil {
			return counts, fmt.Errorf("upsert %s: %w", f.PersonKey, err)
		}
		if i < len(r.Added) {
			counts.Added++
		} else {
			counts.Changed++
		}
	}

	removedKeys := keysOf(r.Removed)
	if len(removedKeys) > 0 {
		var n int64
		if s.policy == RemovalSoft {
			n, err = s.rosterRepo.DeactivateByAgentAndKeys(dbc, agentID, removedKeys)
		} else {
			n, err = s.rosterRepo.DeleteByAgentAndKeys(dbc, agentID, removedKeys)
		}
		if err != nil {
			return counts, fmt.Errorf("remove entries: %w", err)
		}
		counts.Removed = int(n)
	}
	s.metrics.AddMutations(counts.Added, counts.Removed, counts.Changed)
	return counts, nil
}

func (s *applyService) upsert(dbc dbctx.Context, agentID uuid.UUID, f reconcile.Fields, statusIDs map[string]uuid.UUID) error {
	ref, err := s.personRepo.GetOrCreate(dbc, f.PersonKey, f.FirstName, f.LastName)
	if err != nil {
		return err
	}
	entry := &types.RosterEntry{
		AgentID:     agentID,
		PersonRefID: ref.ID,
		PersonKey:   f.PersonKey,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Email:       normalization.OptionalText(f.Email),
		Phone:       normalization.OptionalText(f.Phone),
		District:    normalization.OptionalText(f.District),
		AddressNote: normalization.OptionalText(f.AddressNote),
		Notes:       normalization.OptionalText(f.Notes),
		Active:      true,
	}
	if id, ok := statusIDs[f.StatusKey]; ok {
		entry.StatusOptionID = &id
	}
	return s.rosterRepo.Upsert(dbc, entry)
}

func applyOutcome(res *ApplyResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case res == nil:
		return "unknown"
	case res.OK:
		return "ok"
	default:
		return "already_processed"
	}
}

func keysOf(fields []reconcile.Fields) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.PersonKey)
	}
	return out
}

func changeKeys(changes []reconcile.Change) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Key)
	}
	return out
}
