package roster

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

// RosterFilter narrows roster queries. StatusKey matches the catalog key;
// Query is a lower-cased substring matched against key, names, email, phone
// and district.
type RosterFilter struct {
	AgentID        *uuid.UUID
	StatusOptionID *uuid.UUID
	StatusKey      string
	Query          string
	ActiveOnly     bool
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type RosterEntryRepo interface {
	List(dbc dbctx.Context, filter RosterFilter) ([]*types.RosterEntry, error)
	Page(dbc dbctx.Context, filter RosterFilter, limit, offset int) ([]*types.RosterEntry, int64, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RosterEntry, error)
	Upsert(dbc dbctx.Context, entry *types.RosterEntry) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByAgentAndKeys(dbc dbctx.Context, agentID uuid.UUID, keys []string) (int64, error)
	DeactivateByAgentAndKeys(dbc dbctx.Context, agentID uuid.UUID, keys []string) (int64, error)
	DeleteByAgent(dbc dbctx.Context, agentID uuid.UUID) (int64, error)
}

type rosterEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRosterEntryRepo(db *gorm.DB, baseLog *logger.Logger) RosterEntryRepo {
	return &rosterEntryRepo{
		db:  db,
		log: baseLog.With("repo", "RosterEntryRepo"),
	}
}

func (r *rosterEntryRepo) List(dbc dbctx.Context, filter RosterFilter) ([]*types.RosterEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.RosterEntry
	if err := filtered(transaction.WithContext(dbc.Ctx), filter).
		Preload("StatusOption").
		Order("person_key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Page returns one page of matching entries ordered by person key, plus the
// total number of matches.
func (r *rosterEntryRepo) Page(dbc dbctx.Context, filter RosterFilter, limit, offset int) ([]*types.RosterEntry, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := filtered(transaction.WithContext(dbc.Ctx).Model(&types.RosterEntry{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []*types.RosterEntry{}
	if total == 0 || int64(offset) >= total {
		return out, total, nil
	}
	q := filtered(transaction.WithContext(dbc.Ctx), filter).
		Preload("StatusOption").
		Order("person_key ASC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func filtered(q *gorm.DB, filter RosterFilter) *gorm.DB {
	if filter.AgentID != nil {
		q = q.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.StatusOptionID != nil {
		q = q.Where("status_option_id = ?", *filter.StatusOptionID)
	}
	if filter.StatusKey != "" {
		q = q.Where("status_option_id IN (SELECT id FROM status_option WHERE key = ?)", filter.StatusKey)
	}
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.Query != "" {
		like := "%" + likeEscaper.Replace(filter.Query) + "%"
		q = q.Where(`(LOWER(person_key) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR `+
			`LOWER(first_name || ' ' || last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR `+
			`phone LIKE ? ESCAPE '\' OR LOWER(district) LIKE ? ESCAPE '\')`,
			like, like, like, like, like, like, like)
	}
	return q
}

func (r *rosterEntryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RosterEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var entry types.RosterEntry
	if err := transaction.WithContext(dbc.Ctx).
		Preload("StatusOption").
		Where("id = ?", id).
		Limit(1).
		Find(&entry).Error; err != nil {
		return nil, err
	}
	if entry.ID == uuid.Nil {
		return nil, nil
	}
	return &entry, nil
}

// Upsert writes entry keyed by (agent_id, person_key). An existing row keeps its
// id and created_at; every other column is overwritten.
func (r *rosterEntryRepo) Upsert(dbc dbctx.Context, entry *types.RosterEntry) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	entry.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Omit("StatusOption").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "agent_id"}, {Name: "person_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"person_ref_id",
				"first_name",
				"last_name",
				"email",
				"phone",
				"district",
				"address_note",
				"notes",
				"status_option_id",
				"active",
				"updated_at",
			}),
		}).
		Create(entry).Error
}

func (r *rosterEntryRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.RosterEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *rosterEntryRepo) DeleteByAgentAndKeys(dbc dbctx.Context, agentID uuid.UUID, keys []string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(keys) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("agent_id = ? AND person_key IN ?", agentID, keys).
		Delete(&types.RosterEntry{})
	return res.RowsAffected, res.Error
}

func (r *rosterEntryRepo) DeactivateByAgentAndKeys(dbc dbctx.Context, agentID uuid.UUID, keys []string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(keys) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.RosterEntry{}).
		Where("agent_id = ? AND person_key IN ? AND active = ?", agentID, keys, true).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *rosterEntryRepo) DeleteByAgent(dbc dbctx.Context, agentID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("agent_id = ?", agentID).
		Delete(&types.RosterEntry{})
	return res.RowsAffected, res.Error
}
