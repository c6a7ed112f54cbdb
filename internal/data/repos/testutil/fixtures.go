package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedAgent(tb testing.TB, ctx context.Context, tx *gorm.DB, businessKey string) *types.Agent {
	tb.Helper()
	a := &types.Agent{
		BusinessKey: businessKey,
		FirstName:   "Agent",
		LastName:    businessKey,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed agent: %v", err)
	}
	return a
}

func SeedStatusOption(tb testing.TB, ctx context.Context, tx *gorm.DB, key string) *types.StatusOption {
	tb.Helper()
	s := &types.StatusOption{Key: key, Label: key}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed status option: %v", err)
	}
	return s
}

// RosterSeed describes one roster entry; StatusKey must already be seeded when set.
type RosterSeed struct {
	PersonKey string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	District  string
	StatusKey string
	Inactive  bool
}

func SeedRosterEntry(tb testing.TB, ctx context.Context, tx *gorm.DB, agentID uuid.UUID, seed RosterSeed) *types.RosterEntry {
	tb.Helper()
	ref := &types.PersonRef{PersonKey: seed.PersonKey, FirstName: seed.FirstName, LastName: seed.LastName}
	if err := tx.WithContext(ctx).Where("person_key = ?", seed.PersonKey).FirstOrCreate(ref).Error; err != nil {
		tb.Fatalf("seed person ref: %v", err)
	}
	e := &types.RosterEntry{
		AgentID:     agentID,
		PersonRefID: ref.ID,
		PersonKey:   seed.PersonKey,
		FirstName:   seed.FirstName,
		LastName:    seed.LastName,
		Email:       optional(seed.Email),
		Phone:       optional(seed.Phone),
		District:    optional(seed.District),
		Active:      true,
	}
	if seed.StatusKey != "" {
		var s types.StatusOption
		if err := tx.WithContext(ctx).Where("key = ?", seed.StatusKey).First(&s).Error; err != nil {
			tb.Fatalf("seed roster entry status %q: %v", seed.StatusKey, err)
		}
		e.StatusOptionID = &s.ID
	}
	if err := tx.WithContext(ctx).Omit("StatusOption").Create(e).Error; err != nil {
		tb.Fatalf("seed roster entry: %v", err)
	}
	if seed.Inactive {
		if err := tx.WithContext(ctx).Model(e).Update("active", false).Error; err != nil {
			tb.Fatalf("deactivate roster entry: %v", err)
		}
		e.Active = false
	}
	return e
}

func SeedBatch(tb testing.TB, ctx context.Context, tx *gorm.DB, agentID uuid.UUID, rows []*types.StagingRow) *types.UploadBatch {
	tb.Helper()
	b := &types.UploadBatch{
		AgentID:          agentID,
		OriginalFilename: "roster.csv",
		RowCount:         len(rows),
		Status:           types.BatchStaged,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed batch: %v", err)
	}
	for i, r := range rows {
		r.BatchID = b.ID
		if r.RowIndex == 0 {
			r.RowIndex = i + 2
		}
	}
	if len(rows) > 0 {
		if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
			tb.Fatalf("seed staging rows: %v", err)
		}
	}
	return b
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Ptr[T any](v T) *T { return &v }
