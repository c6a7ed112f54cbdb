package uploads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

type BatchDiffRepo interface {
	Upsert(dbc dbctx.Context, diff *types.BatchDiff) error
	GetByBatchID(dbc dbctx.Context, batchID uuid.UUID) (*types.BatchDiff, error)
	DeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) (int64, error)
}

type batchDiffRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBatchDiffRepo(db *gorm.DB, baseLog *logger.Logger) BatchDiffRepo {
	return &batchDiffRepo{
		db:  db,
		log: baseLog.With("repo", "BatchDiffRepo"),
	}
}

func (r *batchDiffRepo) Upsert(dbc dbctx.Context, diff *types.BatchDiff) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "batch_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"added_count",
				"removed_count",
				"changed_count",
				"payload",
			}),
		}).
		Create(diff).Error
}

func (r *batchDiffRepo) GetByBatchID(dbc dbctx.Context, batchID uuid.UUID) (*types.BatchDiff, error) {
	var diff types.BatchDiff
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("batch_id = ?", batchID).
		Limit(1).
		Find(&diff).Error; err != nil {
		return nil, err
	}
	if diff.ID == uuid.Nil {
		return nil, nil
	}
	return &diff, nil
}

func (r *batchDiffRepo) DeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) (int64, error) {
	if len(batchIDs) == 0 {
		return 0, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("batch_id IN ?", batchIDs).
		Delete(&types.BatchDiff{})
	return res.RowsAffected, res.Error
}
