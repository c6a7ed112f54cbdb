package audit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

const defaultListLimit = 50

type AuditFilter struct {
	Entity   string
	EntityID *uuid.UUID
	Action   string
	Limit    int
}

type AuditEntryRepo interface {
	Create(dbc dbctx.Context, entry *types.AuditEntry) (*types.AuditEntry, error)
	List(dbc dbctx.Context, filter AuditFilter) ([]*types.AuditEntry, error)
}

type auditEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditEntryRepo(db *gorm.DB, baseLog *logger.Logger) AuditEntryRepo {
	return &auditEntryRepo{
		db:  db,
		log: baseLog.With("repo", "AuditEntryRepo"),
	}
}

func (r *auditEntryRepo) Create(dbc dbctx.Context, entry *types.AuditEntry) (*types.AuditEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns entries newest first.
func (r *auditEntryRepo) List(dbc dbctx.Context, filter AuditFilter) ([]*types.AuditEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx)
	if filter.Entity != "" {
		q = q.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != nil {
		q = q.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	var out []*types.AuditEntry
	if err := q.Order("at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
