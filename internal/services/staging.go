package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/ingestion/tabular"
	"github.com/yungbote/rosterbridge-backend/internal/normalization"
	"github.com/yungbote/rosterbridge-backend/internal/observability"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"github.com/yungbote/rosterbridge-backend/internal/validation"
)

const reportedIssues = 5

type StageOptions struct {
	OriginalFilename string
	CreatedBy        string
}

type StageResult struct {
	BatchID      uuid.UUID `json:"batchId"`
	RowCount     int       `json:"rowCount"`
	Warnings     []string  `json:"warnings"`
	Skipped      []string  `json:"skipped"`
	SkippedCount int       `json:"skippedCount"`
}

type StagingService interface {
	// Stage validates rows and persists the accepted ones as a new STAGED batch.
	// The roster itself is never touched.
	Stage(ctx context.Context, rows []tabular.RawRow, agentID uuid.UUID, opts StageOptions) (*StageResult, error)
}

type stagingService struct {
	db          *gorm.DB
	log         *logger.Logger
	agentRepo   repos.AgentRepo
	batchRepo   repos.UploadBatchRepo
	stagingRepo repos.StagingRowRepo
	statuses    StatusCatalogService
	metrics     *observability.Metrics
}

func NewStagingService(
	db *gorm.DB,
	log *logger.Logger,
	agentRepo repos.AgentRepo,
	batchRepo repos.UploadBatchRepo,
	stagingRepo repos.StagingRowRepo,
	statuses StatusCatalogService,
	metrics *observability.Metrics,
) StagingService {
	return &stagingService{
		db:          db,
		log:         log.With("service", "StagingService"),
		agentRepo:   agentRepo,
		batchRepo:   batchRepo,
		stagingRepo: stagingRepo,
		statuses:    statuses,
		metrics:     metrics,
	}
}

func (s *stagingService) Stage(ctx context.Context, rows []tabular.RawRow, agentID uuid.UUID, opts StageOptions) (res *StageResult, err error) {
	ctx, span := observability.StartSpan(ctx, "staging.stage",
		attribute.String("agent_id", agentID.String()),
		attribute.Int("rows", len(rows)))
	defer func() { observability.EndSpan(span, err) }()

	agent, err := s.agentRepo.GetByID(dbctx.Context{Ctx: ctx}, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, ErrNotFound)
	}

	accepted, skips, warnings := prepareRows(rows)
	s.reportQuality(ctx, agentID, opts.OriginalFilename, len(accepted), skips, warnings)
	if len(accepted) == 0 {
		s.metrics.ObserveStaging("empty", len(skips), len(warnings))
		return nil, emptyBatchError(len(rows), skips)
	}

	var createdBy *string
	if v := strings.TrimSpace(opts.CreatedBy); v != "" {
		createdBy = &v
	}
	batch := &types.UploadBatch{
		AgentID:          agentID,
		OriginalFilename: opts.OriginalFilename,
		RowCount:         len(accepted),
		Status:           types.BatchStaged,
		CreatedBy:        createdBy,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.batchRepo.Create(inner, batch); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		statusKeys := make([]string, 0, len(accepted))
		for _, r := range accepted {
			r.BatchID = batch.ID
			if r.StatusKey != nil {
				statusKeys = append(statusKeys, *r.StatusKey)
			}
		}
		if err := s.stagingRepo.Create(inner, accepted); err != nil {
			return fmt.Errorf("stage rows: %w", err)
		}
		return s.statuses.EnsureKeys(inner, statusKeys)
	})
	if err != nil {
		s.metrics.ObserveStaging("error", 0, 0)
		return nil, err
	}

	s.metrics.ObserveStaging("ok", len(skips), len(warnings))
	s.log.Info("batch staged", "batch_id", batch.ID, "agent_id", agentID,
		"rows", len(accepted), "skipped", len(skips), "warnings", len(warnings))
	return &StageResult{
		BatchID:      batch.ID,
		RowCount:     len(accepted),
		Warnings:     validation.Summarize(warnings, reportedIssues),
		Skipped:      validation.Summarize(skips, reportedIssues),
		SkippedCount: len(skips),
	}, nil
}

func (s *stagingService) reportQuality(ctx context.Context, agentID uuid.UUID, filename string, accepted int, skips, warnings []validation.Issue) {
	if len(skips) == 0 && len(warnings) == 0 {
		return
	}
	issues := make([]observability.RowIssue, 0, len(skips)+len(warnings))
	for _, is := range skips {
		issues = append(issues, observability.RowIssue{Kind: observability.IssueSkipped, Field: is.Field, Message: is.Message})
	}
	for _, is := range warnings {
		issues = append(issues, observability.RowIssue{Kind: observability.IssueWarning, Field: is.Field, Message: is.Message})
	}
	observability.ReportDataQuality(ctx, s.log, s.metrics, observability.QualityReport{
		Stage:    "staging",
		Rows:     accepted,
		Issues:   issues,
		Samples:  validation.Summarize(append(append([]validation.Issue{}, skips...), warnings...), 3),
		Metadata: map[string]any{"agent_id": agentID.String(), "filename": filename},
	})
}

func emptyBatchError(checked int, skips []validation.Issue) *ValidationError {
	details := validation.Summarize(skips, reportedIssues)
	if len(details) == 0 {
		details = []string{"file contains no data rows"}
	}
	return &ValidationError{
		Code:    "empty_batch",
		Message: fmt.Sprintf("no valid rows found (%d checked)", checked),
		Details: details,
		Err:     ErrEmptyBatch,
	}
}

// prepareRows normalizes and validates raw rows. Duplicate keys are kept so
// the batch snapshot can let the later row win; they are reported as warnings.
func prepareRows(rows []tabular.RawRow) ([]*types.StagingRow, []validation.Issue, []validation.Issue) {
	var (
		accepted []*types.StagingRow
		skips    []validation.Issue
		warnings []validation.Issue
	)
	seen := map[string]int{}
	for _, raw := range rows {
		row := &types.StagingRow{
			RowIndex:    raw.Line,
			PersonKey:   normalization.Text(raw.Get(tabular.FieldPersonKey)),
			FirstName:   normalization.Text(raw.Get(tabular.FieldFirstName)),
			LastName:    normalization.Text(raw.Get(tabular.FieldLastName)),
			Email:       normalization.OptionalText(normalization.Email(raw.Get(tabular.FieldEmail))),
			Phone:       normalization.OptionalText(normalization.Phone(raw.Get(tabular.FieldPhone))),
			District:    normalization.OptionalText(raw.Get(tabular.FieldDistrict)),
			AddressNote: normalization.OptionalText(raw.Get(tabular.FieldAddressNote)),
			Notes:       normalization.OptionalText(raw.Get(tabular.FieldNotes)),
			StatusKey:   normalization.OptionalText(normalization.ParseInputString(raw.Get(tabular.FieldStatusKey))),
		}
		check := validation.ValidateRow(raw.Line, validation.Row{
			PersonKey: row.PersonKey,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Email:     normalization.Deref(row.Email),
		})
		if !check.Accepted() {
			skips = append(skips, *check.Skip)
			continue
		}
		warnings = append(warnings, check.Warnings...)
		if prev, ok := seen[row.PersonKey]; ok {
			warnings = append(warnings, validation.Issue{
				Line:    raw.Line,
				Field:   string(tabular.FieldPersonKey),
				Value:   row.PersonKey,
				Message: fmt.Sprintf("duplicate of line %d, this row wins", prev),
			})
		}
		seen[row.PersonKey] = raw.Line
		accepted = append(accepted, row)
	}
	return accepted, skips, warnings
}
