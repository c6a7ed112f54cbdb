package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/rosterbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

func actorRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewActorMiddleware(logger.Nop(), secret).Attach())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.Actor(c.Request.Context()))
	})
	return r
}

func sign(t *testing.T, secret, subject string, method jwt.SigningMethod) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestActorHeaderWithoutSecret(t *testing.T) {
	r := actorRouter("")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Actor", " clerk ")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "clerk" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestActorFromToken(t *testing.T) {
	r := actorRouter("s3cret")

	cases := []struct {
		name   string
		header string
		status int
		actor  string
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + sign(t, "other", "auditor", jwt.SigningMethodHS256), status: http.StatusUnauthorized},
		{name: "wrong method", header: "Bearer " + sign(t, "s3cret", "auditor", jwt.SigningMethodHS512), status: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + sign(t, "s3cret", "", jwt.SigningMethodHS256), status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + sign(t, "s3cret", "auditor", jwt.SigningMethodHS256), status: http.StatusOK, actor: "auditor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			req.Header.Set("X-Actor", "spoofed")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusOK && rec.Body.String() != tc.actor {
				t.Fatalf("actor = %q, want %q", rec.Body.String(), tc.actor)
			}
		})
	}
}
