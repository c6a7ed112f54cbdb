package roster

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

type StatusOptionRepo interface {
	CreateIfMissing(dbc dbctx.Context, options []*types.StatusOption) (int64, error)
	List(dbc dbctx.Context) ([]*types.StatusOption, error)
	GetByKeys(dbc dbctx.Context, keys []string) ([]*types.StatusOption, error)
}

type statusOptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatusOptionRepo(db *gorm.DB, baseLog *logger.Logger) StatusOptionRepo {
	return &statusOptionRepo{
		db:  db,
		log: baseLog.With("repo", "StatusOptionRepo"),
	}
}

// CreateIfMissing inserts options whose key is not yet present. Existing rows
// keep their label and color.
func (r *statusOptionRepo) CreateIfMissing(dbc dbctx.Context, options []*types.StatusOption) (int64, error) {
	if len(options) == 0 {
		return 0, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&options)
	return res.RowsAffected, res.Error
}

func (r *statusOptionRepo) List(dbc dbctx.Context) ([]*types.StatusOption, error) {
	var out []*types.StatusOption
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Order("key ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *statusOptionRepo) GetByKeys(dbc dbctx.Context, keys []string) ([]*types.StatusOption, error) {
	var out []*types.StatusOption
	if len(keys) == 0 {
		return out, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("key IN ?", keys).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
