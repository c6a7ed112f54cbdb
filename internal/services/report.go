package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/normalization"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

// NoStatus buckets entries without a response status.
const NoStatus = "none"

const (
	topDistricts = 10
	recentAudits = 10
)

type AgentCount struct {
	AgentID     uuid.UUID `json:"agentId"`
	BusinessKey string    `json:"businessKey"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Count       int       `json:"count"`
}

type DistrictCount struct {
	District string `json:"district"`
	Count    int    `json:"count"`
}

type Overview struct {
	Total         int                 `json:"total"`
	UniquePeople  int                 `json:"uniquePeople"`
	SharedPeople  int                 `json:"sharedPeople"`
	ByStatus      map[string]int      `json:"byStatus"`
	Agents        []AgentCount        `json:"agents"`
	Districts     []DistrictCount     `json:"districts"`
	RecentActions []*types.AuditEntry `json:"recentActions"`
}

type AgentReport struct {
	AgentID  uuid.UUID      `json:"agentId"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

type StatusReport struct {
	Status string       `json:"status"`
	Agents []AgentCount `json:"agents"`
}

type ReportService interface {
	Overview(ctx context.Context) (*Overview, error)
	ByAgent(ctx context.Context, agentID uuid.UUID) (*AgentReport, error)
	StatusBreakdown(ctx context.Context, statusKey string) (*StatusReport, error)
}

type reportService struct {
	db         *gorm.DB
	log        *logger.Logger
	agentRepo  repos.AgentRepo
	rosterRepo repos.RosterEntryRepo
	audit      AuditService
}

func NewReportService(db *gorm.DB, log *logger.Logger, agentRepo repos.AgentRepo, rosterRepo repos.RosterEntryRepo, audit AuditService) ReportService {
	return &reportService{
		db:         db,
		log:        log.With("service", "ReportService"),
		agentRepo:  agentRepo,
		rosterRepo: rosterRepo,
		audit:      audit,
	}
}

func statusBucket(e *types.RosterEntry) string {
	if k := e.StatusKey(); k != "" {
		return k
	}
	return NoStatus
}

func (s *reportService) Overview(ctx context.Context) (*Overview, error) {
	dbc := dbctx.Context{Ctx: ctx}
	agents, err := s.agentRepo.List(dbc)
	if err != nil {
		return nil, err
	}
	entries, err := s.rosterRepo.List(dbc, repos.RosterFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	out := &Overview{Total: len(entries), ByStatus: map[string]int{}}
	perKey := map[string]int{}
	perAgent := map[uuid.UUID]int{}
	districts := map[string]int{}
	for _, e := range entries {
		out.ByStatus[statusBucket(e)]++
		perKey[e.PersonKey]++
		perAgent[e.AgentID]++
		if d := normalization.Deref(e.District); d != "" {
			districts[d]++
		}
	}
	out.UniquePeople = len(perKey)
	for _, n := range perKey {
		if n > 1 {
			out.SharedPeople++
		}
	}

	out.Agents = make([]AgentCount, 0, len(agents))
	for _, a := range agents {
		out.Agents = append(out.Agents, agentCount(a, perAgent[a.ID]))
	}
	sortAgentCounts(out.Agents)

	out.Districts = make([]DistrictCount, 0, len(districts))
	for d, n := range districts {
		out.Districts = append(out.Districts, DistrictCount{District: d, Count: n})
	}
	sort.Slice(out.Districts, func(i, j int) bool {
		if out.Districts[i].Count != out.Districts[j].Count {
			return out.Districts[i].Count > out.Districts[j].Count
		}
		return out.Districts[i].District < out.Districts[j].District
	})
	if len(out.Districts) > topDistricts {
		out.Districts = out.Districts[:topDistricts]
	}

	if out.RecentActions, err = s.audit.List(ctx, repos.AuditFilter{Limit: recentAudits}); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *reportService) ByAgent(ctx context.Context, agentID uuid.UUID) (*AgentReport, error) {
	dbc := dbctx.Context{Ctx: ctx}
	agent, err := s.agentRepo.GetByID(dbc, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, ErrNotFound)
	}
	entries, err := s.rosterRepo.List(dbc, repos.RosterFilter{AgentID: &agentID, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	out := &AgentReport{AgentID: agentID, Total: len(entries), ByStatus: map[string]int{}}
	for _, e := range entries {
		out.ByStatus[statusBucket(e)]++
	}
	return out, nil
}

func (s *reportService) StatusBreakdown(ctx context.Context, statusKey string) (*StatusReport, error) {
	key := normalization.ParseInputString(statusKey)
	if key == "" {
		return nil, invalid("invalid_status", "status key is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	agents, err := s.agentRepo.List(dbc)
	if err != nil {
		return nil, err
	}
	entries, err := s.rosterRepo.List(dbc, repos.RosterFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	perAgent := map[uuid.UUID]int{}
	for _, e := range entries {
		if strings.EqualFold(statusBucket(e), key) {
			perAgent[e.AgentID]++
		}
	}
	out := &StatusReport{Status: key, Agents: []AgentCount{}}
	for _, a := range agents {
		if n := perAgent[a.ID]; n > 0 {
			out.Agents = append(out.Agents, agentCount(a, n))
		}
	}
	sortAgentCounts(out.Agents)
	return out, nil
}

func agentCount(a *types.Agent, n int) AgentCount {
	return AgentCount{
		AgentID:     a.ID,
		BusinessKey: a.BusinessKey,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Count:       n,
	}
}

func sortAgentCounts(in []AgentCount) {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].Count != in[j].Count {
			return in[i].Count > in[j].Count
		}
		return in[i].BusinessKey < in[j].BusinessKey
	})
}
