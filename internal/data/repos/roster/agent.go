package roster

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

type AgentRepo interface {
	Create(dbc dbctx.Context, agent *types.Agent) (*types.Agent, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Agent, error)
	GetByBusinessKey(dbc dbctx.Context, businessKey string) (*types.Agent, error)
	List(dbc dbctx.Context) ([]*types.Agent, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type agentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentRepo(db *gorm.DB, baseLog *logger.Logger) AgentRepo {
	return &agentRepo{
		db:  db,
		log: baseLog.With("repo", "AgentRepo"),
	}
}

func (r *agentRepo) Create(dbc dbctx.Context, agent *types.Agent) (*types.Agent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(agent).Error; err != nil {
		return nil, err
	}
	return agent, nil
}

func (r *agentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Agent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var agent types.Agent
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&agent).Error; err != nil {
		return nil, err
	}
	if agent.ID == uuid.Nil {
		return nil, nil
	}
	return &agent, nil
}

func (r *agentRepo) GetByBusinessKey(dbc dbctx.Context, businessKey string) (*types.Agent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if businessKey == "" {
		return nil, nil
	}
	var agent types.Agent
	if err := transaction.WithContext(dbc.Ctx).
		Where("business_key = ?", businessKey).
		Limit(1).
		Find(&agent).Error; err != nil {
		return nil, err
	}
	if agent.ID == uuid.Nil {
		return nil, nil
	}
	return &agent, nil
}

func (r *agentRepo) List(dbc dbctx.Context) ([]*types.Agent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Agent
	if err := transaction.WithContext(dbc.Ctx).
		Order("last_name ASC, first_name ASC, business_key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *agentRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Agent{})
	return res.RowsAffected, res.Error
}
