package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/reconcile"
)

const rosterCSV = "Sicil No,Ad,Soyad,Mail,Tel No,İlçe,Cevap Durumu\n" +
	"1001,Ali,Kaya,ALI@example.com,0530 111 22 33,Cankaya,Geliyor\n" +
	"1002,Veli,Can,,,Kecioren,\n" +
	",Eksik,Sicil,,,,\n"

func TestUpload_CreatesAgentAndAutoApplies(t *testing.T) {
	e := newEnv(t)

	res, err := e.uploads.Upload(e.ctx, UploadRequest{
		NewAgent:  &NewAgent{BusinessKey: "AV-77", FirstName: "Deniz", LastName: "Ates"},
		Filename:  "liste.csv",
		Content:   []byte(rosterCSV),
		AutoApply: true,
		Actor:     "uploader",
	})
	require.NoError(t, err)
	require.True(t, res.AgentCreated)
	require.Equal(t, 2, res.Stage.RowCount)
	require.Equal(t, 1, res.Stage.SkippedCount)
	require.Equal(t, reconcile.Counts{Added: 2}, res.Diff.Counts)
	require.NotNil(t, res.Apply)
	require.True(t, res.Apply.OK)

	roster := e.activeRoster(t, res.Agent.ID)
	require.Len(t, roster, 2)
	require.Equal(t, "ali@example.com", *roster["1001"].Email)
	require.Equal(t, "05301112233", *roster["1001"].Phone)
	require.Equal(t, "geliyor", roster["1001"].StatusKey())
	require.Equal(t, types.BatchApplied, e.batchStatus(t, res.Stage.BatchID))
}

func TestUpload_StagesOnlyByDefault(t *testing.T) {
	e := newEnv(t)
	agent := e.agent(t, "AV-1")

	res, err := e.uploads.Upload(e.ctx, UploadRequest{AgentID: &agent.ID, Filename: "liste.csv", Content: []byte(rosterCSV)})
	require.NoError(t, err)
	require.False(t, res.AgentCreated)
	require.Nil(t, res.Apply)
	require.Empty(t, e.activeRoster(t, agent.ID))
	require.Equal(t, types.BatchStaged, e.batchStatus(t, res.Stage.BatchID))
}

func TestUpload_Rejections(t *testing.T) {
	e := newEnv(t)
	agent := e.agent(t, "AV-1")

	cases := []struct {
		name    string
		req     UploadRequest
		code    string
		isEmpty bool
	}{
		{
			name: "extension",
			req:  UploadRequest{AgentID: &agent.ID, Filename: "liste.pdf", Content: []byte(rosterCSV)},
			code: "invalid_file",
		},
		{
			name: "empty file",
			req:  UploadRequest{AgentID: &agent.ID, Filename: "liste.csv"},
			code: "invalid_file",
		},
		{
			name: "missing columns",
			req:  UploadRequest{AgentID: &agent.ID, Filename: "liste.csv", Content: []byte("Ad,Mail\nAli,a@b.co\n")},
			code: "missing_columns",
		},
		{
			name: "no agent",
			req:  UploadRequest{Filename: "liste.csv", Content: []byte(rosterCSV)},
			code: "invalid_agent",
		},
		{
			name:    "header only",
			req:     UploadRequest{AgentID: &agent.ID, Filename: "liste.csv", Content: []byte("Sicil No,Ad,Soyad\n")},
			code:    "empty_batch",
			isEmpty: true,
		},
		{
			name:    "no valid rows",
			req:     UploadRequest{AgentID: &agent.ID, Filename: "liste.csv", Content: []byte("sicilno,ad,soyad\nx,Ali,Kaya\n")},
			code:    "empty_batch",
			isEmpty: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.uploads.Upload(e.ctx, tc.req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			require.Equal(t, tc.code, verr.Code)
			require.Equal(t, tc.isEmpty, errors.Is(err, ErrEmptyBatch))
		})
	}

	var n int64
	require.NoError(t, e.db.Model(&types.UploadBatch{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestUpload_EmptyBatchCreatesNoAgent(t *testing.T) {
	e := newEnv(t)

	for _, content := range []string{
		"Sicil No,Ad,Soyad\n",
		"Sicil No,Ad,Soyad\nx,Ali,Kaya\n,Eksik,Sicil\n",
	} {
		_, err := e.uploads.Upload(e.ctx, UploadRequest{
			NewAgent: &NewAgent{BusinessKey: "AV-404", FirstName: "Yeni", LastName: "Avukat"},
			Filename: "liste.csv",
			Content:  []byte(content),
		})
		require.ErrorIs(t, err, ErrEmptyBatch)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		require.Equal(t, "empty_batch", verr.Code)
		require.NotEmpty(t, verr.Details)
	}

	var n int64
	require.NoError(t, e.db.Model(&types.Agent{}).Where("business_key = ?", "AV-404").Count(&n).Error)
	require.Zero(t, n)
}
