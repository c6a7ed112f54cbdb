package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/ingestion/tabular"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"github.com/yungbote/rosterbridge-backend/internal/reconcile"
	"github.com/yungbote/rosterbridge-backend/internal/validation"
)

type NewAgent struct {
	BusinessKey string `json:"businessKey"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// UploadRequest targets an existing agent by AgentID, or looks up / creates
// one from NewAgent.
type UploadRequest struct {
	AgentID   *uuid.UUID
	NewAgent  *NewAgent
	Filename  string
	Content   []byte
	AutoApply bool
	Actor     string
}

type UploadResult struct {
	Agent        *types.Agent    `json:"agent"`
	AgentCreated bool            `json:"agentCreated"`
	Stage        *StageResult    `json:"stage"`
	Diff         *reconcile.Diff `json:"diff"`
	Apply        *ApplyResult    `json:"apply,omitempty"`
}

type UploadService interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

type uploadService struct {
	db       *gorm.DB
	log      *logger.Logger
	agents   AgentService
	staging  StagingService
	diffs    DiffService
	applier  ApplyService
	maxBytes int64
}

func NewUploadService(
	db *gorm.DB,
	log *logger.Logger,
	agents AgentService,
	staging StagingService,
	diffs DiffService,
	applier ApplyService,
	maxBytes int64,
) UploadService {
	if maxBytes <= 0 {
		maxBytes = validation.DefaultMaxUploadMB * 1024 * 1024
	}
	return &uploadService{
		db:       db,
		log:      log.With("service", "UploadService"),
		agents:   agents,
		staging:  staging,
		diffs:    diffs,
		applier:  applier,
		maxBytes: maxBytes,
	}
}

func (s *uploadService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if err := validation.ValidateFile(req.Filename, req.Content, s.maxBytes); err != nil {
		return nil, &ValidationError{Code: "invalid_file", Message: err.Error(), Err: err}
	}
	rows, err := tabular.Decode(req.Filename, bytes.NewReader(req.Content))
	if err != nil {
		var missing *tabular.MissingColumnsError
		if errors.As(err, &missing) {
			return nil, &ValidationError{
				Code:    "missing_columns",
				Message: "missing required columns",
				Details: missing.Missing,
				Err:     err,
			}
		}
		return nil, &ValidationError{Code: "unreadable_file", Message: fmt.Sprintf("file could not be read: %v", err), Err: err}
	}

	out := &UploadResult{}
	switch {
	case req.AgentID != nil:
		if out.Agent, err = s.agents.Get(ctx, *req.AgentID); err != nil {
			return nil, err
		}
	case req.NewAgent != nil:
		// A file that cannot produce a batch must not leave a new agent behind.
		if accepted, skips, _ := prepareRows(rows); len(accepted) == 0 {
			return nil, emptyBatchError(len(rows), skips)
		}
		if out.Agent, out.AgentCreated, err = s.agents.GetOrCreate(ctx, req.NewAgent.BusinessKey, req.NewAgent.FirstName, req.NewAgent.LastName); err != nil {
			return nil, err
		}
	default:
		return nil, invalid("invalid_agent", "an agent id or agent business key is required")
	}

	if out.Stage, err = s.staging.Stage(ctx, rows, out.Agent.ID, StageOptions{
		OriginalFilename: req.Filename,
		CreatedBy:        req.Actor,
	}); err != nil {
		return nil, err
	}
	if out.Diff, err = s.diffs.Preview(ctx, out.Stage.BatchID); err != nil {
		return nil, err
	}
	if req.AutoApply {
		if out.Apply, err = s.applier.Apply(ctx, out.Stage.BatchID, req.Actor); err != nil {
			return nil, err
		}
	}
	return out, nil
}
