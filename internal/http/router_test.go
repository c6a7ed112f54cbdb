package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	"github.com/yungbote/rosterbridge-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/rosterbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rosterbridge-backend/internal/http/middleware"
	"github.com/yungbote/rosterbridge-backend/internal/observability"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

const uploadCSV = "Sicil No,Ad,Soyad,Mail,Tel No,İlçe,Cevap Durumu\n" +
	"1001,Ali,Kaya,ali@example.com,,Cankaya,Geliyor\n" +
	"1002,Veli,Can,,,Kecioren,\n"

type testServer struct {
	engine *gin.Engine
	audit  repos.AuditEntryRepo
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	metrics := observability.New()

	agentRepo := repos.NewAgentRepo(db, log)
	rosterRepo := repos.NewRosterEntryRepo(db, log)
	batchRepo := repos.NewUploadBatchRepo(db, log)
	stagingRepo := repos.NewStagingRowRepo(db, log)
	diffRepo := repos.NewBatchDiffRepo(db, log)
	auditRepo := repos.NewAuditEntryRepo(db, log)

	audit := services.NewAuditService(db, log, auditRepo)
	statuses := services.NewStatusCatalogService(db, log, repos.NewStatusOptionRepo(db, log))
	agents := services.NewAgentService(db, log, agentRepo, rosterRepo, batchRepo, stagingRepo, diffRepo, audit)
	snapshots := services.NewSnapshotService(db, log, rosterRepo, stagingRepo)
	diffs := services.NewDiffService(db, log, batchRepo, agentRepo, diffRepo, snapshots, metrics)
	apply := services.NewApplyService(db, log, batchRepo, diffRepo, repos.NewPersonRefRepo(db, log), rosterRepo, statuses, diffs, audit, metrics, services.RemovalHard)
	staging := services.NewStagingService(db, log, agentRepo, batchRepo, stagingRepo, statuses, metrics)
	uploads := services.NewUploadService(db, log, agents, staging, diffs, apply, 0)
	roster := services.NewRosterService(db, log, agentRepo, rosterRepo, batchRepo, diffRepo, statuses, audit)

	_, err := statuses.SeedDefaults(context.Background())
	require.NoError(t, err)

	engine := NewRouter(RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ActorMiddleware: httpMW.NewActorMiddleware(log, secret),
		AgentHandler:    httpH.NewAgentHandler(agents, roster),
		RosterHandler:   httpH.NewRosterHandler(roster, statuses),
		UploadHandler:   httpH.NewUploadHandler(log, uploads, diffs, apply, 10<<20, false),
		ExportHandler:   httpH.NewExportHandler(services.NewExportService(db, log, agentRepo, rosterRepo)),
		ReportHandler:   httpH.NewReportHandler(services.NewReportService(db, log, agentRepo, rosterRepo, audit), audit),
		HealthHandler:   httpH.NewHealthHandler(db),
	})
	return &testServer{engine: engine, audit: auditRepo}
}

func (s *testServer) do(t *testing.T, req *nethttp.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, fields map[string]string, content string) *nethttp.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", "liste.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(nethttp.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type uploadBody struct {
	Agent struct {
		ID uuid.UUID `json:"id"`
	} `json:"agent"`
	AgentCreated bool `json:"agentCreated"`
	Stage        struct {
		BatchID  uuid.UUID `json:"batchId"`
		RowCount int       `json:"rowCount"`
	} `json:"stage"`
	Diff struct {
		Counts struct {
			Added int `json:"added"`
		} `json:"counts"`
	} `json:"diff"`
}

type errorBody struct {
	Error struct {
		Message string   `json:"message"`
		Code    string   `json:"code"`
		Details []string `json:"details"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestUploadDiffApplyFlow(t *testing.T) {
	s := newTestServer(t, "")

	req := uploadRequest(t, map[string]string{"agentKey": "AV-1", "firstName": "Deniz", "lastName": "Ates"}, uploadCSV)
	req.Header.Set("X-Actor", "clerk")
	rec := s.do(t, req)
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())
	up := decode[uploadBody](t, rec)
	require.True(t, up.AgentCreated)
	require.Equal(t, 2, up.Stage.RowCount)
	require.Equal(t, 2, up.Diff.Counts.Added)

	batchPath := "/api/uploads/" + up.Stage.BatchID.String()
	rec = s.do(t, httptest.NewRequest(nethttp.MethodGet, batchPath+"/diff", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var diff map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &diff))
	for _, key := range []string{"batchId", "lawyer", "counts", "added", "removed", "changed"} {
		require.Contains(t, diff, key)
	}

	apply := httptest.NewRequest(nethttp.MethodPost, batchPath+"/apply", nil)
	apply.Header.Set("X-Actor", "clerk")
	rec = s.do(t, apply)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.ApplyResult](t, rec)
	require.True(t, res.OK)
	require.Equal(t, "Applied", res.Message)

	rec = s.do(t, httptest.NewRequest(nethttp.MethodPost, batchPath+"/apply", nil))
	require.Equal(t, nethttp.StatusConflict, rec.Code)
	res = decode[services.ApplyResult](t, rec)
	require.False(t, res.OK)

	rec = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/agents/"+up.Agent.ID.String()+"/roster", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	page := decode[struct {
		Total int `json:"total"`
	}](t, rec)
	require.Equal(t, 2, page.Total)

	entries, err := s.audit.List(dbctx.Context{Ctx: context.Background()}, repos.AuditFilter{Action: "APPLY"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Actor)
	require.Equal(t, "clerk", *entries[0].Actor)
}

func TestUploadRejectsMissingColumns(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, uploadRequest(t, map[string]string{"agentKey": "AV-1", "firstName": "A", "lastName": "B"}, "Ad,Soyad\nAli,Kaya\n"))
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	require.Equal(t, "missing_columns", body.Error.Code)
	require.Equal(t, []string{"sicilno"}, body.Error.Details)
}

func TestErrorEnvelopes(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, httptest.NewRequest(nethttp.MethodPost, "/api/uploads/not-a-uuid/apply", nil))
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_batch_id", decode[errorBody](t, rec).Error.Code)

	rec = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/uploads/"+uuid.NewString()+"/diff", nil))
	require.Equal(t, nethttp.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decode[errorBody](t, rec).Error.Code)

	sel := httptest.NewRequest(nethttp.MethodPost, "/api/uploads/"+uuid.NewString()+"/apply-selected", bytes.NewBufferString(`{"added":[]}`))
	sel.Header.Set("Content-Type", "application/json")
	rec = s.do(t, sel)
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
	require.Equal(t, "empty_selection", decode[errorBody](t, rec).Error.Code)
}

func TestExportTemplateDownload(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/exports/template?format=csv", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "roster_template.csv")
	require.Contains(t, rec.Body.String(), "Sicil No,Ad,Soyad,Cevap Durumu")

	rec = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/exports/template?format=pdf", nil))
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
	require.Equal(t, "unknown_format", decode[errorBody](t, rec).Error.Code)
}

func TestStatusOptionsAndHealth(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	rec = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/readycheck", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/status-options", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "geliyor")

	rec = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "roster_api_requests_total")
}

func TestBearerTokenRequiredWhenSecretSet(t *testing.T) {
	const secret = "test-secret"
	s := newTestServer(t, secret)

	rec := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/agents", nil))
	require.Equal(t, nethttp.StatusUnauthorized, rec.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "auditor",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/agents", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = s.do(t, req)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	// Health stays public.
	rec = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
}
