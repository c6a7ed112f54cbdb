package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	"github.com/yungbote/rosterbridge-backend/internal/data/txrunner"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

type AgentService interface {
	// GetOrCreate looks the agent up by business key. An existing agent keeps its
	// stored name; created reports whether a new row was inserted.
	GetOrCreate(ctx context.Context, businessKey, firstName, lastName string) (*types.Agent, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Agent, error)
	List(ctx context.Context) ([]*types.Agent, error)
	// Delete purges the agent with its roster, batches, staging rows and diffs.
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

type agentService struct {
	db          *gorm.DB
	log         *logger.Logger
	agentRepo   repos.AgentRepo
	rosterRepo  repos.RosterEntryRepo
	batchRepo   repos.UploadBatchRepo
	stagingRepo repos.StagingRowRepo
	diffRepo    repos.BatchDiffRepo
	audit       AuditService
}

func NewAgentService(
	db *gorm.DB,
	log *logger.Logger,
	agentRepo repos.AgentRepo,
	rosterRepo repos.RosterEntryRepo,
	batchRepo repos.UploadBatchRepo,
	stagingRepo repos.StagingRowRepo,
	diffRepo repos.BatchDiffRepo,
	audit AuditService,
) AgentService {
	return &agentService{
		db:          db,
		log:         log.With("service", "AgentService"),
		agentRepo:   agentRepo,
		rosterRepo:  rosterRepo,
		batchRepo:   batchRepo,
		stagingRepo: stagingRepo,
		diffRepo:    diffRepo,
		audit:       audit,
	}
}

func (s *agentService) GetOrCreate(ctx context.Context, businessKey, firstName, lastName string) (*types.Agent, bool, error) {
	businessKey = strings.TrimSpace(businessKey)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if businessKey == "" {
		return nil, false, invalid("invalid_agent", "agent business key is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.agentRepo.GetByBusinessKey(dbc, businessKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	if firstName == "" || lastName == "" {
		return nil, false, invalid("invalid_agent", "first and last name are required for a new agent")
	}
	created, err := s.agentRepo.Create(dbc, &types.Agent{
		BusinessKey: businessKey,
		FirstName:   firstName,
		LastName:    lastName,
	})
	if err != nil {
		if !txrunner.IsConflict(err) {
			return nil, false, err
		}
		// Lost a race on the unique business key.
		again, lookupErr := s.agentRepo.GetByBusinessKey(dbc, businessKey)
		if lookupErr == nil && again != nil {
			return again, false, nil
		}
		return nil, false, err
	}
	s.log.Info("agent created", "agent_id", created.ID, "business_key", businessKey)
	return created, true, nil
}

func (s *agentService) Get(ctx context.Context, id uuid.UUID) (*types.Agent, error) {
	agent, err := s.agentRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return agent, nil
}

func (s *agentService) List(ctx context.Context) ([]*types.Agent, error) {
	return s.agentRepo.List(dbctx.Context{Ctx: ctx})
}

func (s *agentService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		agent, err := s.agentRepo.GetByID(inner, id)
		if err != nil {
			return err
		}
		if agent == nil {
			return fmt.Errorf("agent %s: %w", id, ErrNotFound)
		}
		entries, err := s.rosterRepo.DeleteByAgent(inner, id)
		if err != nil {
			return fmt.Errorf("delete roster: %w", err)
		}
		batchIDs, err := s.batchRepo.DeleteByAgent(inner, id)
		if err != nil {
			return fmt.Errorf("delete batches: %w", err)
		}
		if _, err := s.stagingRepo.DeleteByBatchIDs(inner, batchIDs); err != nil {
			return fmt.Errorf("delete staging rows: %w", err)
		}
		if _, err := s.diffRepo.DeleteByBatchIDs(inner, batchIDs); err != nil {
			return fmt.Errorf("delete diffs: %w", err)
		}
		if _, err := s.agentRepo.Delete(inner, id); err != nil {
			return err
		}
		if _, err := s.audit.Record(inner, AuditRecord{
			Entity:   types.AuditEntityAgent,
			EntityID: id,
			Action:   types.AuditDelete,
			Before: map[string]any{
				"business_key": agent.BusinessKey,
				"first_name":   agent.FirstName,
				"last_name":    agent.LastName,
			},
			After: map[string]any{
				"roster_entries": entries,
				"batches":        len(batchIDs),
			},
			Actor: actor,
		}); err != nil {
			return err
		}
		s.log.Info("agent deleted", "agent_id", id, "roster_entries", entries, "batches", len(batchIDs))
		return nil
	})
}
