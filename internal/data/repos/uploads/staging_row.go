package uploads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

const stagingInsertChunk = 1000

type StagingRowRepo interface {
	Create(dbc dbctx.Context, rows []*types.StagingRow) error
	ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.StagingRow, error)
	CountByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error)
	DeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) (int64, error)
}

type stagingRowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStagingRowRepo(db *gorm.DB, baseLog *logger.Logger) StagingRowRepo {
	return &stagingRowRepo{
		db:  db,
		log: baseLog.With("repo", "StagingRowRepo"),
	}
}

func (r *stagingRowRepo) Create(dbc dbctx.Context, rows []*types.StagingRow) error {
	if len(rows) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).CreateInBatches(rows, stagingInsertChunk).Error
}

func (r *stagingRowRepo) ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.StagingRow, error) {
	var out []*types.StagingRow
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("batch_id = ?", batchID).
		Order("row_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *stagingRowRepo) CountByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error) {
	var n int64
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.StagingRow{}).
		Where("batch_id = ?", batchID).
		Count(&n).Error
	return n, err
}

func (r *stagingRowRepo) DeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) (int64, error) {
	if len(batchIDs) == 0 {
		return 0, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("batch_id IN ?", batchIDs).
		Delete(&types.StagingRow{})
	return res.RowsAffected, res.Error
}
