package roster

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

// ErrPersonRefNotVisible is returned when the insert hit a conflicting row
// that the current transaction cannot read.
var ErrPersonRefNotVisible = errors.New("person ref not visible after insert")

type PersonRefRepo interface {
	GetOrCreate(dbc dbctx.Context, personKey, firstName, lastName string) (*types.PersonRef, error)
	GetByKey(dbc dbctx.Context, personKey string) (*types.PersonRef, error)
}

type personRefRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonRefRepo(db *gorm.DB, baseLog *logger.Logger) PersonRefRepo {
	return &personRefRepo{
		db:  db,
		log: baseLog.With("repo", "PersonRefRepo"),
	}
}

// GetOrCreate returns the reference for personKey, creating it with the given
// names when absent. Names of an existing reference are never overwritten.
func (r *personRefRepo) GetOrCreate(dbc dbctx.Context, personKey, firstName, lastName string) (*types.PersonRef, error) {
	existing, err := r.GetByKey(dbc, personKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	ref := &types.PersonRef{
		PersonKey: personKey,
		FirstName: firstName,
		LastName:  lastName,
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "person_key"}},
			DoNothing: true,
		}).
		Create(ref).Error; err != nil {
		return nil, err
	}
	// A concurrent writer may have won the insert.
	ref, err = r.GetByKey(dbc, personKey)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, fmt.Errorf("person ref %q: %w", personKey, ErrPersonRefNotVisible)
	}
	return ref, nil
}

func (r *personRefRepo) GetByKey(dbc dbctx.Context, personKey string) (*types.PersonRef, error) {
	var ref types.PersonRef
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_key = ?", personKey).
		Limit(1).
		Find(&ref).Error; err != nil {
		return nil, err
	}
	if ref.ID == uuid.Nil {
		return nil, nil
	}
	return &ref, nil
}
