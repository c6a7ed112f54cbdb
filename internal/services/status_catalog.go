package services

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

//go:embed status_defaults.yaml
var statusDefaultsYAML []byte

type statusDefaults struct {
	Statuses []struct {
		Key   string `yaml:"key"`
		Label string `yaml:"label"`
		Color string `yaml:"color"`
	} `yaml:"statuses"`
}

func defaultStatusOptions() ([]*types.StatusOption, error) {
	var doc statusDefaults
	if err := yaml.Unmarshal(statusDefaultsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse status defaults: %w", err)
	}
	out := make([]*types.StatusOption, 0, len(doc.Statuses))
	for _, s := range doc.Statuses {
		opt := &types.StatusOption{Key: strings.TrimSpace(s.Key), Label: s.Label}
		if c := strings.TrimSpace(s.Color); c != "" {
			opt.Color = &c
		}
		out = append(out, opt)
	}
	return out, nil
}

type StatusCatalogService interface {
	SeedDefaults(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*types.StatusOption, error)
	// EnsureKeys registers keys seen in an upload; unknown keys get their key as label.
	EnsureKeys(dbc dbctx.Context, keys []string) error
	// Resolve maps keys to catalog ids. Keys missing from the catalog are absent.
	Resolve(dbc dbctx.Context, keys []string) (map[string]uuid.UUID, error)
}

type statusCatalogService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.StatusOptionRepo
}

func NewStatusCatalogService(db *gorm.DB, log *logger.Logger, repo repos.StatusOptionRepo) StatusCatalogService {
	return &statusCatalogService{db: db, log: log.With("service", "StatusCatalogService"), repo: repo}
}

func (s *statusCatalogService) SeedDefaults(ctx context.Context) (int64, error) {
	opts, err := defaultStatusOptions()
	if err != nil {
		return 0, err
	}
	n, err := s.repo.CreateIfMissing(dbctx.Context{Ctx: ctx}, opts)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("seeded status catalog", "inserted", n)
	}
	return n, nil
}

func (s *statusCatalogService) List(ctx context.Context) ([]*types.StatusOption, error) {
	return s.repo.List(dbctx.Context{Ctx: ctx})
}

func (s *statusCatalogService) EnsureKeys(dbc dbctx.Context, keys []string) error {
	uniq := uniqueNonBlank(keys)
	if len(uniq) == 0 {
		return nil
	}
	opts := make([]*types.StatusOption, 0, len(uniq))
	for _, k := range uniq {
		opts = append(opts, &types.StatusOption{Key: k, Label: k})
	}
	_, err := s.repo.CreateIfMissing(dbc, opts)
	return err
}

func (s *statusCatalogService) Resolve(dbc dbctx.Context, keys []string) (map[string]uuid.UUID, error) {
	out := map[string]uuid.UUID{}
	uniq := uniqueNonBlank(keys)
	if len(uniq) == 0 {
		return out, nil
	}
	found, err := s.repo.GetByKeys(dbc, uniq)
	if err != nil {
		return nil, err
	}
	for _, o := range found {
		out[o.Key] = o.ID
	}
	return out, nil
}

func uniqueNonBlank(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
