package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/rosterbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

const headerActor = "X-Actor"

// ActorMiddleware attaches the caller identity used in audit entries. With a
// secret configured every request must carry a valid HS256 bearer token whose
// subject is the actor; without one the optional X-Actor header is trusted.
type ActorMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewActorMiddleware(log *logger.Logger, secret string) *ActorMiddleware {
	return &ActorMiddleware{
		log:    log.With("middleware", "ActorMiddleware"),
		secret: []byte(strings.TrimSpace(secret)),
	}
}

func (am *ActorMiddleware) AuthEnabled() bool { return len(am.secret) > 0 }

func (am *ActorMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		var actor string
		if am.AuthEnabled() {
			token := bearerToken(c)
			if token == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
				})
				return
			}
			subject, err := am.subject(token)
			if err != nil {
				am.log.Debug("rejected token", "error", err)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{"message": err.Error(), "code": "unauthorized"},
				})
				return
			}
			actor = subject
		} else {
			actor = strings.TrimSpace(c.GetHeader(headerActor))
		}
		if actor != "" {
			ctx := ctxutil.UpdateRequestData(c.Request.Context(), func(rd *ctxutil.RequestData) {
				rd.Actor = actor
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func (am *ActorMiddleware) subject(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.New("invalid or expired token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token has no subject")
	}
	return strings.TrimSpace(claims.Subject), nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
