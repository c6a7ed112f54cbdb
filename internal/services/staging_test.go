package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/ingestion/tabular"
)

func TestStage_NormalizesAndPersists(t *testing.T) {
	e := newEnv(t)
	agent := e.agent(t, "AV-1")

	res, err := e.staging.Stage(e.ctx, []tabular.RawRow{
		row(2, " 1001 ", " Ali ", "Kaya", "email", " Ali@Example.COM ", "phone", "(530) 111-22-33", "status_key", " GELIYOR "),
		row(3, "1002", "Veli", "Can", "email", "not-an-email", "status_key", "yeni"),
		row(4, "", "No", "Key"),
		row(5, "ab", "Short", "Key"),
		row(6, "1003", "", "Missing"),
	}, agent.ID, StageOptions{OriginalFilename: "roster.csv", CreatedBy: "op"})
	require.NoError(t, err)
	require.Equal(t, 2, res.RowCount)
	require.Equal(t, 3, res.SkippedCount)
	require.Len(t, res.Skipped, 3)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "line 3")

	batch, err := e.batchRepo.GetByID(dbcFor(e.ctx), res.BatchID)
	require.NoError(t, err)
	require.Equal(t, types.BatchStaged, batch.Status)
	require.Equal(t, 2, batch.RowCount)
	require.Equal(t, "roster.csv", batch.OriginalFilename)
	require.NotNil(t, batch.CreatedBy)
	require.Equal(t, "op", *batch.CreatedBy)

	rows, err := e.stagingRepo.ListByBatch(dbcFor(e.ctx), res.BatchID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "1001", rows[0].PersonKey)
	require.Equal(t, "Ali", rows[0].FirstName)
	require.Equal(t, "ali@example.com", *rows[0].Email)
	require.Equal(t, "5301112233", *rows[0].Phone)
	require.Equal(t, "geliyor", *rows[0].StatusKey)
	require.Equal(t, 2, rows[0].RowIndex)

	// Unseen status keys are added to the catalog with the key as label.
	ids, err := e.statuses.Resolve(dbcFor(e.ctx), []string{"yeni"})
	require.NoError(t, err)
	require.Contains(t, ids, "yeni")
}

func TestStage_NeverTouchesRoster(t *testing.T) {
	e := newEnv(t)
	agent := e.agent(t, "AV-1")
	e.stage(t, agent.ID, row(2, "1001", "Ali", "Kaya"))
	require.Empty(t, e.activeRoster(t, agent.ID))
}

func TestStage_EmptyBatch(t *testing.T) {
	e := newEnv(t)
	agent := e.agent(t, "AV-1")

	rows := []tabular.RawRow{
		row(2, "", "A", "B"),
		row(3, "x", "A", "B"),
		row(4, "1003", "", "B"),
		row(5, "1004", "A", ""),
		row(6, "10 05", "A", "B"),
		row(7, "1006", "", ""),
		row(8, "", "", ""),
	}
	_, err := e.staging.Stage(e.ctx, rows, agent.ID, StageOptions{})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrEmptyBatch))
	require.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "empty_batch", verr.Code)
	require.Len(t, verr.Details, 6)
	require.Equal(t, "... and 2 more", verr.Details[5])

	var n int64
	require.NoError(t, e.db.Model(&types.UploadBatch{}).Count(&n).Error)
	require.Zero(t, n)
	require.NoError(t, e.db.Model(&types.StagingRow{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestStage_UnknownAgent(t *testing.T) {
	e := newEnv(t)
	_, err := e.staging.Stage(e.ctx, []tabular.RawRow{row(2, "1001", "A", "B")}, uuid.New(), StageOptions{})
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestStage_DuplicateKeyLaterRowWins(t *testing.T) {
	e := newEnv(t)
	agent := e.agent(t, "AV-1")
	res, err := e.staging.Stage(e.ctx, []tabular.RawRow{
		row(2, "1001", "Ali", "Kaya", "district", "Cankaya"),
		row(3, "1001", "Ali", "Kaya", "district", "Kecioren"),
	}, agent.ID, StageOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, res.RowCount)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "duplicate of line 2")

	d, err := e.diffs.Preview(e.ctx, res.BatchID)
	require.NoError(t, err)
	require.Len(t, d.Added, 1)
	require.Equal(t, "Kecioren", d.Added[0].District)
}
