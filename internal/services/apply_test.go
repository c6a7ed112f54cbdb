package services

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	"github.com/yungbote/rosterbridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/reconcile"
)

// seedStatusChangeBatch builds an agent with 1001 (notr) and 1004 plus a staged batch
// that changes 1001 to geliyor, adds 1007 and omits 1004.
func seedStatusChangeBatch(t *testing.T, e *testEnv) (*types.Agent, uuid.UUID) {
	t.Helper()
	testutil.SeedStatusOption(t, e.ctx, e.db, "notr")
	agent := e.agent(t, "AV-100")
	e.seedEntry(t, agent.ID, testutil.RosterSeed{
		PersonKey: "1001", FirstName: "Ali", LastName: "Kaya", Phone: "5301112233", StatusKey: "notr",
	})
	e.seedEntry(t, agent.ID, testutil.RosterSeed{PersonKey: "1004", FirstName: "Mehmet", LastName: "Yilmaz"})

	batchID := e.stage(t, agent.ID,
		row(2, "1001", "Ali", "Kaya", "phone", "5301112233", "status_key", "geliyor"),
		row(3, "1007", "Ayse", "Demir", "status_key", "gelmiyor"),
	)
	return agent, batchID
}

func TestApply_AddsRemovesAndUpdatesStatus(t *testing.T) {
	e := newEnv(t)
	agent, batchID := seedStatusChangeBatch(t, e)

	d, err := e.diffs.Preview(e.ctx, batchID)
	require.NoError(t, err)
	require.Equal(t, reconcile.Counts{Added: 1, Removed: 1, Changed: 1}, d.Counts)
	require.Equal(t, "1007", d.Added[0].PersonKey)
	require.Equal(t, "1004", d.Removed[0].PersonKey)
	require.Equal(t, "1001", d.Changed[0].Key)
	require.Equal(t, []reconcile.FieldName{reconcile.FieldStatusKey}, d.Changed[0].Fields)

	res, err := e.applier.Apply(e.ctx, batchID, "tester")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, &reconcile.Counts{Added: 1, Removed: 1, Changed: 1}, res.Counts)

	roster := e.activeRoster(t, agent.ID)
	require.Len(t, roster, 2)
	require.Equal(t, "geliyor", roster["1001"].StatusKey())
	require.Equal(t, "gelmiyor", roster["1007"].StatusKey())
	require.Equal(t, "Ayse", roster["1007"].FirstName)
	require.NotContains(t, roster, "1004")
	require.Equal(t, types.BatchApplied, e.batchStatus(t, batchID))

	entries, err := e.audit.List(e.ctx, repos.AuditFilter{Entity: types.AuditEntityUploadBatch, EntityID: &batchID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, types.AuditApply, entries[0].Action)
	require.NotNil(t, entries[0].Actor)
	require.Equal(t, "tester", *entries[0].Actor)

	var after map[string]string
	require.NoError(t, json.Unmarshal(entries[0].After, &after))
	require.Equal(t, "APPLIED", after["status"])
}

func TestApply_SecondCallIsNoop(t *testing.T) {
	e := newEnv(t)
	agent, batchID := seedStatusChangeBatch(t, e)

	first, err := e.applier.Apply(e.ctx, batchID, "")
	require.NoError(t, err)
	require.True(t, first.OK)
	before := e.activeRoster(t, agent.ID)

	second, err := e.applier.Apply(e.ctx, batchID, "")
	require.NoError(t, err)
	require.False(t, second.OK)
	require.Equal(t, msgAlreadyProcessed, second.Message)
	require.Nil(t, second.Counts)

	after := e.activeRoster(t, agent.ID)
	require.Equal(t, len(before), len(after))
	for k, en := range before {
		require.Equal(t, en.UpdatedAt.Unix(), after[k].UpdatedAt.Unix())
	}
}

func TestApply_ConcurrentCallsApplyOnce(t *testing.T) {
	e := newEnv(t)
	_, batchID := seedStatusChangeBatch(t, e)

	const callers = 2
	var (
		wg      sync.WaitGroup
		results = make([]*ApplyResult, callers)
		errs    = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.applier.Apply(e.ctx, batchID, "")
		}(i)
	}
	wg.Wait()

	ok := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		if results[i].OK {
			ok++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, types.BatchApplied, e.batchStatus(t, batchID))

	entries, err := e.audit.List(e.ctx, repos.AuditFilter{EntityID: &batchID, Action: types.AuditApply})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestApply_FailureRollsBackEverything(t *testing.T) {
	e := newEnv(t)
	agent, batchID := seedStatusChangeBatch(t, e)

	errAuditDown := errors.New("audit store down")
	require.NoError(t, e.db.Callback().Create().Before("gorm:create").Register("test:fail_audit", func(tx *gorm.DB) {
		if tx.Statement.Table == "audit_log" {
			_ = tx.AddError(errAuditDown)
		}
	}))

	res, err := e.applier.Apply(e.ctx, batchID, "tester")
	require.ErrorIs(t, err, errAuditDown)
	require.Nil(t, res)

	roster := e.activeRoster(t, agent.ID)
	require.Len(t, roster, 2)
	require.Contains(t, roster, "1004")
	require.NotContains(t, roster, "1007")
	require.Equal(t, "notr", roster["1001"].StatusKey())
	require.Equal(t, types.BatchStaged, e.batchStatus(t, batchID))

	var refs int64
	require.NoError(t, e.db.Model(&types.PersonRef{}).Where("person_key = ?", "1007").Count(&refs).Error)
	require.Zero(t, refs)

	entries, err := e.audit.List(e.ctx, repos.AuditFilter{EntityID: &batchID})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestApply_DropsCachedDiffsOfOtherStagedBatches(t *testing.T) {
	e := newEnv(t)
	agent, first := seedStatusChangeBatch(t, e)

	// Cached while the roster still held 1001 and 1004.
	_, err := e.diffs.Preview(e.ctx, first)
	require.NoError(t, err)

	second := e.stage(t, agent.ID,
		row(2, "1001", "Ali", "Kaya", "phone", "5301112233", "status_key", "notr"),
		row(3, "1004", "Mehmet", "Yilmaz"),
		row(4, "2000", "Deniz", "Arslan"),
	)
	res, err := e.applier.Apply(e.ctx, second, "")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Contains(t, e.activeRoster(t, agent.ID), "2000")

	cached, err := e.diffRepo.GetByBatchID(dbcFor(e.ctx), first)
	require.NoError(t, err)
	require.Nil(t, cached)

	res, err = e.applier.Apply(e.ctx, first, "")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, &reconcile.Counts{Added: 1, Removed: 2, Changed: 1}, res.Counts)

	roster := e.activeRoster(t, agent.ID)
	require.Len(t, roster, 2)
	require.Contains(t, roster, "1001")
	require.Contains(t, roster, "1007")
}

func TestRosterEdit_DropsCachedDiffs(t *testing.T) {
	e := newEnv(t)
	agent, batchID := seedStatusChangeBatch(t, e)

	_, err := e.diffs.Preview(e.ctx, batchID)
	require.NoError(t, err)

	_, err = e.roster.Deactivate(e.ctx, e.activeRoster(t, agent.ID)["1004"].ID, "")
	require.NoError(t, err)

	cached, err := e.diffRepo.GetByBatchID(dbcFor(e.ctx), batchID)
	require.NoError(t, err)
	require.Nil(t, cached)

	d, err := e.diffs.Preview(e.ctx, batchID)
	require.NoError(t, err)
	require.Equal(t, reconcile.Counts{Added: 1, Changed: 1}, d.Counts)
}

func TestApply_MissingBatch(t *testing.T) {
	e := newEnv(t)
	_, err := e.applier.Apply(e.ctx, uuid.New(), "")
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = e.applier.ApplySelected(e.ctx, uuid.New(), Selection{}, "")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestApply_AtMostOneEntryPerKey(t *testing.T) {
	e := newEnv(t)
	agent := e.agent(t, "AV-200")

	for i := 0; i < 3; i++ {
		batchID := e.stage(t, agent.ID,
			row(2, "2001", "Zeynep", "Acar", "district", "Kadikoy"),
			row(3, "2002", "Can", "Oz"),
		)
		res, err := e.applier.Apply(e.ctx, batchID, "")
		require.NoError(t, err)
		require.True(t, res.OK)
	}

	var n int64
	require.NoError(t, e.db.Model(&types.RosterEntry{}).
		Where("agent_id = ? AND person_key = ?", agent.ID, "2001").Count(&n).Error)
	require.EqualValues(t, 1, n)

	var refs int64
	require.NoError(t, e.db.Model(&types.PersonRef{}).Where("person_key = ?", "2001").Count(&refs).Error)
	require.EqualValues(t, 1, refs)
}

func TestApply_RoundTripLeavesNoDiff(t *testing.T) {
	e := newEnv(t)
	agent := e.agent(t, "AV-300")
	rows := []struct{ key, first, last, mail string }{
		{"3001", "Elif", "Sahin", "elif@example.com"},
		{"3002", "Burak", "Cetin", ""},
	}
	stageAll := func() uuid.UUID {
		return e.stage(t, agent.ID,
			row(2, rows[0].key, rows[0].first, rows[0].last, "email", rows[0].mail, "status_key", "geliyor"),
			row(3, rows[1].key, rows[1].first, rows[1].last),
		)
	}

	first := stageAll()
	res, err := e.applier.Apply(e.ctx, first, "")
	require.NoError(t, err)
	require.True(t, res.OK)

	second := stageAll()
	d, err := e.diffs.Preview(e.ctx, second)
	require.NoError(t, err)
	require.Equal(t, reconcile.Counts{}, d.Counts)
	require.Empty(t, d.Added)
	require.Empty(t, d.Removed)
	require.Empty(t, d.Changed)
}

func TestApply_SoftRemovalPolicy(t *testing.T) {
	e := newEnvWithPolicy(t, RemovalSoft)
	agent, batchID := seedStatusChangeBatch(t, e)

	res, err := e.applier.Apply(e.ctx, batchID, "")
	require.NoError(t, err)
	require.True(t, res.OK)

	require.NotContains(t, e.activeRoster(t, agent.ID), "1004")
	all, err := e.rosterRepo.List(dbcFor(e.ctx), repos.RosterFilter{AgentID: &agent.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)

	// A later upload containing 1004 reactivates the same row.
	again := e.stage(t, agent.ID,
		row(2, "1001", "Ali", "Kaya", "phone", "5301112233", "status_key", "geliyor"),
		row(3, "1007", "Ayse", "Demir", "status_key", "gelmiyor"),
		row(4, "1004", "Mehmet", "Yilmaz"),
	)
	d, err := e.diffs.Preview(e.ctx, again)
	require.NoError(t, err)
	require.Equal(t, reconcile.Counts{Added: 1}, d.Counts)
	res, err = e.applier.Apply(e.ctx, again, "")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Contains(t, e.activeRoster(t, agent.ID), "1004")

	var n int64
	require.NoError(t, e.db.Model(&types.RosterEntry{}).
		Where("agent_id = ? AND person_key = ?", agent.ID, "1004").Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestApplySelected_OnlyTouchesSelection(t *testing.T) {
	e := newEnv(t)
	agent, batchID := seedStatusChangeBatch(t, e)

	// Cache a diff first so the invalidation is observable.
	_, err := e.diffs.Preview(e.ctx, batchID)
	require.NoError(t, err)

	res, err := e.applier.ApplySelected(e.ctx, batchID, Selection{
		Added:   []string{"1007"},
		Removed: []string{"does-not-exist"},
	}, "tester")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, &reconcile.Counts{Added: 1}, res.Counts)

	roster := e.activeRoster(t, agent.ID)
	require.Contains(t, roster, "1007")
	require.Contains(t, roster, "1004")
	require.Equal(t, "notr", roster["1001"].StatusKey())
	require.Equal(t, types.BatchStaged, e.batchStatus(t, batchID))

	cached, err := e.diffRepo.GetByBatchID(dbcFor(e.ctx), batchID)
	require.NoError(t, err)
	require.Nil(t, cached)

	entries, err := e.audit.List(e.ctx, repos.AuditFilter{EntityID: &batchID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, types.AuditApplySelected, entries[0].Action)

	// The rest of the batch is still applicable and the diff reflects it.
	d, err := e.diffs.Preview(e.ctx, batchID)
	require.NoError(t, err)
	require.Equal(t, reconcile.Counts{Removed: 1, Changed: 1}, d.Counts)

	res, err = e.applier.ApplySelected(e.ctx, batchID, Selection{Removed: []string{"1004"}, Changed: []string{"1001"}}, "")
	require.NoError(t, err)
	require.Equal(t, &reconcile.Counts{Removed: 1, Changed: 1}, res.Counts)
	roster = e.activeRoster(t, agent.ID)
	require.NotContains(t, roster, "1004")
	require.Equal(t, "geliyor", roster["1001"].StatusKey())
}

func TestApplySelected_RequiresStagedBatch(t *testing.T) {
	e := newEnv(t)
	_, batchID := seedStatusChangeBatch(t, e)

	res, err := e.applier.Apply(e.ctx, batchID, "")
	require.NoError(t, err)
	require.True(t, res.OK)

	res, err = e.applier.ApplySelected(e.ctx, batchID, Selection{Added: []string{"1007"}}, "")
	require.NoError(t, err)
	require.False(t, res.OK)
}

func TestReject(t *testing.T) {
	e := newEnv(t)
	agent, batchID := seedStatusChangeBatch(t, e)

	res, err := e.applier.Reject(e.ctx, batchID, "")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, types.BatchRejected, e.batchStatus(t, batchID))
	require.Len(t, e.activeRoster(t, agent.ID), 2)

	res, err = e.applier.Apply(e.ctx, batchID, "")
	require.NoError(t, err)
	require.False(t, res.OK)

	res, err = e.applier.Reject(e.ctx, batchID, "")
	require.NoError(t, err)
	require.False(t, res.OK)
}

func TestParseRemovalPolicy(t *testing.T) {
	p, err := ParseRemovalPolicy("")
	require.NoError(t, err)
	require.Equal(t, RemovalHard, p)

	p, err = ParseRemovalPolicy(" SOFT ")
	require.NoError(t, err)
	require.Equal(t, RemovalSoft, p)

	_, err = ParseRemovalPolicy("archive")
	require.Error(t, err)
}
