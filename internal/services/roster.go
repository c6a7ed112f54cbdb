package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/normalization"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"github.com/yungbote/rosterbridge-backend/internal/validation"
)

const (
	defaultRosterPageSize = 50
	maxRosterPageSize     = 500
)

type RosterQuery struct {
	Q         string
	StatusKey string
	Limit     int
	Offset    int
}

type RosterPage struct {
	Entries []*types.RosterEntry `json:"entries"`
	Total   int                  `json:"total"`
}

// EntryPatch edits an entry in place. Nil fields are left alone; an empty
// string clears an optional field.
type EntryPatch struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	District    *string `json:"district"`
	AddressNote *string `json:"addressNote"`
	Notes       *string `json:"notes"`
	StatusKey   *string `json:"statusKey"`
}

type RosterService interface {
	// List pages through the agent's active entries.
	List(ctx context.Context, agentID uuid.UUID, q RosterQuery) (*RosterPage, error)
	UpdateEntry(ctx context.Context, entryID uuid.UUID, patch EntryPatch, actor string) (*types.RosterEntry, error)
	// Deactivate hides an entry from the roster without deleting it.
	Deactivate(ctx context.Context, entryID uuid.UUID, actor string) (*types.RosterEntry, error)
}

type rosterService struct {
	db         *gorm.DB
	log        *logger.Logger
	agentRepo  repos.AgentRepo
	rosterRepo repos.RosterEntryRepo
	batchRepo  repos.UploadBatchRepo
	diffRepo   repos.BatchDiffRepo
	statuses   StatusCatalogService
	audit      AuditService
}

func NewRosterService(
	db *gorm.DB,
	log *logger.Logger,
	agentRepo repos.AgentRepo,
	rosterRepo repos.RosterEntryRepo,
	batchRepo repos.UploadBatchRepo,
	diffRepo repos.BatchDiffRepo,
	statuses StatusCatalogService,
	audit AuditService,
) RosterService {
	return &rosterService{
		db:         db,
		log:        log.With("service", "RosterService"),
		agentRepo:  agentRepo,
		rosterRepo: rosterRepo,
		batchRepo:  batchRepo,
		diffRepo:   diffRepo,
		statuses:   statuses,
		audit:      audit,
	}
}

func (s *rosterService) List(ctx context.Context, agentID uuid.UUID, q RosterQuery) (*RosterPage, error) {
	dbc := dbctx.Context{Ctx: ctx}
	agent, err := s.agentRepo.GetByID(dbc, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, ErrNotFound)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultRosterPageSize
	}
	if limit > maxRosterPageSize {
		limit = maxRosterPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	entries, total, err := s.rosterRepo.Page(dbc, repos.RosterFilter{
		AgentID:    &agentID,
		StatusKey:  normalization.ParseInputString(q.StatusKey),
		Query:      normalization.ParseInputString(q.Q),
		ActiveOnly: true,
	}, limit, offset)
	if err != nil {
		return nil, err
	}
	return &RosterPage{Entries: entries, Total: int(total)}, nil
}

func (s *rosterService) UpdateEntry(ctx context.Context, entryID uuid.UUID, patch EntryPatch, actor string) (*types.RosterEntry, error) {
	updates, err := patchUpdates(patch)
	if err != nil {
		return nil, err
	}
	var out *types.RosterEntry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		entry, err := s.rosterRepo.GetByID(inner, entryID)
		if err != nil {
			return err
		}
		if entry == nil || !entry.Active {
			return fmt.Errorf("roster entry %s: %w", entryID, ErrNotFound)
		}
		if patch.StatusKey != nil {
			key := normalization.ParseInputString(*patch.StatusKey)
			if key == "" {
				updates["status_option_id"] = nil
			} else {
				ids, err := s.statuses.Resolve(inner, []string{key})
				if err != nil {
					return err
				}
				id, ok := ids[key]
				if !ok {
					return invalid("unknown_status", fmt.Sprintf("unknown status %q", key))
				}
				updates["status_option_id"] = id
			}
		}
		if len(updates) == 0 {
			out = entry
			return nil
		}
		before := fieldsFromEntry(entry)
		if err := s.rosterRepo.UpdateFields(inner, entryID, updates); err != nil {
			return err
		}
		if out, err = s.rosterRepo.GetByID(inner, entryID); err != nil {
			return err
		}
		if err := dropStagedDiffs(inner, s.batchRepo, s.diffRepo, entry.AgentID); err != nil {
			return err
		}
		_, err = s.audit.Record(inner, AuditRecord{
			Entity:   types.AuditEntityRosterEntry,
			EntityID: entryID,
			Action:   types.AuditUpdate,
			Before:   before,
			After:    fieldsFromEntry(out),
			Actor:    actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func patchUpdates(p EntryPatch) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if p.FirstName != nil {
		v := normalization.Text(*p.FirstName)
		if v == "" {
			return nil, invalid("invalid_entry", "first name cannot be empty")
		}
		updates["first_name"] = v
	}
	if p.LastName != nil {
		v := normalization.Text(*p.LastName)
		if v == "" {
			return nil, invalid("invalid_entry", "last name cannot be empty")
		}
		updates["last_name"] = v
	}
	if p.Email != nil {
		v := normalization.Email(*p.Email)
		if v != "" && !validation.IsValidEmail(v) {
			return nil, invalid("invalid_entry", fmt.Sprintf("invalid email format: %s", v))
		}
		updates["email"] = normalization.OptionalText(v)
	}
	if p.Phone != nil {
		updates["phone"] = normalization.OptionalText(normalization.Phone(*p.Phone))
	}
	if p.District != nil {
		updates["district"] = normalization.OptionalText(*p.District)
	}
	if p.AddressNote != nil {
		updates["address_note"] = normalization.OptionalText(*p.AddressNote)
	}
	if p.Notes != nil {
		updates["notes"] = normalization.OptionalText(*p.Notes)
	}
	return updates, nil
}

func (s *rosterService) Deactivate(ctx context.Context, entryID uuid.UUID, actor string) (*types.RosterEntry, error) {
	var out *types.RosterEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		entry, err := s.rosterRepo.GetByID(inner, entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("roster entry %s: %w", entryID, ErrNotFound)
		}
		if !entry.Active {
			out = entry
			return nil
		}
		if err := s.rosterRepo.UpdateFields(inner, entryID, map[string]interface{}{"active": false}); err != nil {
			return err
		}
		if err := dropStagedDiffs(inner, s.batchRepo, s.diffRepo, entry.AgentID); err != nil {
			return err
		}
		entry.Active = false
		out = entry
		_, err = s.audit.Record(inner, AuditRecord{
			Entity:   types.AuditEntityRosterEntry,
			EntityID: entryID,
			Action:   types.AuditDeactivate,
			Before:   map[string]any{"active": true, "person_key": entry.PersonKey},
			After:    map[string]any{"active": false, "person_key": entry.PersonKey},
			Actor:    actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
