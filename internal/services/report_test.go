package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos/testutil"
)

func TestReports(t *testing.T) {
	e := newEnv(t)
	first := seedRoster(t, e)
	second := e.agent(t, "AV-2")
	e.seedEntry(t, second.ID, testutil.RosterSeed{PersonKey: "1001", FirstName: "Ali", LastName: "Kaya", District: "Cankaya", StatusKey: "geliyor"})
	_, err := e.roster.Deactivate(e.ctx, e.activeRoster(t, first.ID)["1003"].ID, "")
	require.NoError(t, err)

	ov, err := e.reports.Overview(e.ctx)
	require.NoError(t, err)
	require.Equal(t, 3, ov.Total)
	require.Equal(t, 2, ov.UniquePeople)
	require.Equal(t, 1, ov.SharedPeople)
	require.Equal(t, map[string]int{"geliyor": 2, "gelmiyor": 1}, ov.ByStatus)
	require.Len(t, ov.Agents, 2)
	require.Equal(t, "AV-1", ov.Agents[0].BusinessKey)
	require.Equal(t, 2, ov.Agents[0].Count)
	require.Equal(t, []DistrictCount{{District: "Cankaya", Count: 2}}, ov.Districts)
	require.Len(t, ov.RecentActions, 1)

	byAgent, err := e.reports.ByAgent(e.ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, 2, byAgent.Total)
	require.Equal(t, map[string]int{"geliyor": 1, "gelmiyor": 1}, byAgent.ByStatus)

	_, err = e.reports.ByAgent(e.ctx, uuid.New())
	require.True(t, errors.Is(err, ErrNotFound))

	st, err := e.reports.StatusBreakdown(e.ctx, "GELIYOR")
	require.NoError(t, err)
	require.Equal(t, "geliyor", st.Status)
	require.Len(t, st.Agents, 2)

	none, err := e.reports.StatusBreakdown(e.ctx, NoStatus)
	require.NoError(t, err)
	require.Empty(t, none.Agents)

	_, err = e.reports.StatusBreakdown(e.ctx, " ")
	require.True(t, errors.Is(err, ErrValidation))
}
