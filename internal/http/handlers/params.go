package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/rosterbridge-backend/internal/http/response"
	"github.com/yungbote/rosterbridge-backend/internal/platform/ctxutil"
)

// pathUUID parses the :name parameter, writing a 400 when it is malformed.
func pathUUID(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if err != nil {
		return 0
	}
	return v
}

func actor(c *gin.Context) string {
	return ctxutil.Actor(c.Request.Context())
}
