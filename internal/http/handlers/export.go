package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/rosterbridge-backend/internal/http/response"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

type ExportHandler struct {
	exports services.ExportService
}

func NewExportHandler(exports services.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// GET /api/exports?agentId=&columns=a,b&format=csv|xlsx&status=
func (h *ExportHandler) Export(c *gin.Context) {
	req := services.ExportRequest{
		StatusKey: c.Query("status"),
		Format:    services.ExportFormat(c.Query("format")),
	}
	if raw := strings.TrimSpace(c.Query("agentId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
			return
		}
		req.AgentID = &id
	}
	cols, err := services.ParseColumns(c.Query("columns"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	req.Columns = cols

	file, err := h.exports.Export(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// GET /api/exports/template?format=csv|xlsx
func (h *ExportHandler) Template(c *gin.Context) {
	file, err := h.exports.Template(services.ExportFormat(c.Query("format")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
