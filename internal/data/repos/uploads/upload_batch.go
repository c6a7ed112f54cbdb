package uploads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

type UploadBatchRepo interface {
	Create(dbc dbctx.Context, batch *types.UploadBatch) (*types.UploadBatch, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UploadBatch, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.UploadBatch, error)
	ListByAgent(dbc dbctx.Context, agentID uuid.UUID, limit int) ([]*types.UploadBatch, error)
	ListIDsByStatus(dbc dbctx.Context, agentID uuid.UUID, status types.BatchStatus) ([]uuid.UUID, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status types.BatchStatus) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByAgent(dbc dbctx.Context, agentID uuid.UUID) ([]uuid.UUID, error)
}

type uploadBatchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUploadBatchRepo(db *gorm.DB, baseLog *logger.Logger) UploadBatchRepo {
	return &uploadBatchRepo{
		db:  db,
		log: baseLog.With("repo", "UploadBatchRepo"),
	}
}

func (r *uploadBatchRepo) Create(dbc dbctx.Context, batch *types.UploadBatch) (*types.UploadBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *uploadBatchRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UploadBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var batch types.UploadBatch
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&batch).Error; err != nil {
		return nil, err
	}
	if batch.ID == uuid.Nil {
		return nil, nil
	}
	return &batch, nil
}

// LockByID reads the batch with FOR UPDATE. It must run inside a transaction
// for the lock to outlive the statement.
func (r *uploadBatchRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.UploadBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var batch types.UploadBatch
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&batch).Error; err != nil {
		return nil, err
	}
	if batch.ID == uuid.Nil {
		return nil, nil
	}
	return &batch, nil
}

func (r *uploadBatchRepo) ListByAgent(dbc dbctx.Context, agentID uuid.UUID, limit int) ([]*types.UploadBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.UploadBatch
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *uploadBatchRepo) ListIDsByStatus(dbc dbctx.Context, agentID uuid.UUID, status types.BatchStatus) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.UploadBatch{}).
		Where("agent_id = ? AND status = ?", agentID, status).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *uploadBatchRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status types.BatchStatus) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.UploadBatch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *uploadBatchRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.UploadBatch{}).Error
}

// DeleteByAgent removes every batch of the agent and returns their ids so the
// caller can purge dependent rows.
func (r *uploadBatchRepo) DeleteByAgent(dbc dbctx.Context, agentID uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.UploadBatch{}).
		Where("agent_id = ?", agentID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.UploadBatch{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
