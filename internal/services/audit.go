package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

// AuditRecord describes one state change. Before and After are marshalled to
// JSON; nil is stored as NULL.
type AuditRecord struct {
	Entity   string
	EntityID uuid.UUID
	Action   string
	Before   any
	After    any
	Actor    string
}

type AuditService interface {
	Record(dbc dbctx.Context, rec AuditRecord) (*types.AuditEntry, error)
	List(ctx context.Context, filter repos.AuditFilter) ([]*types.AuditEntry, error)
}

type auditService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.AuditEntryRepo
}

func NewAuditService(db *gorm.DB, log *logger.Logger, repo repos.AuditEntryRepo) AuditService {
	return &auditService{db: db, log: log.With("service", "AuditService"), repo: repo}
}

func (s *auditService) Record(dbc dbctx.Context, rec AuditRecord) (*types.AuditEntry, error) {
	before, err := toJSON(rec.Before)
	if err != nil {
		return nil, fmt.Errorf("audit before: %w", err)
	}
	after, err := toJSON(rec.After)
	if err != nil {
		return nil, fmt.Errorf("audit after: %w", err)
	}
	actor := strings.TrimSpace(rec.Actor)
	if actor == "" {
		actor = ctxutil.Actor(dbc.Ctx)
	}
	entry := &types.AuditEntry{
		Entity:   rec.Entity,
		EntityID: rec.EntityID,
		Action:   rec.Action,
		Before:   before,
		After:    after,
	}
	if actor != "" {
		entry.Actor = &actor
	}
	created, err := s.repo.Create(dbc, entry)
	if err != nil {
		s.log.Error("audit write failed", "entity", rec.Entity, "action", rec.Action, "error", err)
		return nil, err
	}
	return created, nil
}

func (s *auditService) List(ctx context.Context, filter repos.AuditFilter) ([]*types.AuditEntry, error) {
	return s.repo.List(dbctx.Context{Ctx: ctx}, filter)
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
