package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/rosterbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/ping", func(c *gin.Context) {
		traceID, reqID := ctxutil.TraceIDs(c.Request.Context())
		c.String(http.StatusOK, traceID+"|"+reqID)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-1")
	req.Header.Set("X-Trace-Id", "trace-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, "trace-1|req-1", rec.Body.String())
	require.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAttachTraceContext_KeepsActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.Use(NewActorMiddleware(logger.Nop(), "").Attach())
	r.GET("/ping", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		require.NotNil(t, rd)
		c.String(http.StatusOK, rd.TraceID+"|"+rd.RequestID+"|"+rd.Actor)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-2")
	req.Header.Set("X-Trace-Id", "trace-2")
	req.Header.Set("X-Actor", "ayse")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, "trace-2|req-2|ayse", rec.Body.String())
}
