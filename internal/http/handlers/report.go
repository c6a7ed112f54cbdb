package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	"github.com/yungbote/rosterbridge-backend/internal/http/response"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

type ReportHandler struct {
	reports services.ReportService
	audit   services.AuditService
}

func NewReportHandler(reports services.ReportService, audit services.AuditService) *ReportHandler {
	return &ReportHandler{reports: reports, audit: audit}
}

// GET /api/reports/overview
func (h *ReportHandler) Overview(c *gin.Context) {
	ov, err := h.reports.Overview(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, ov)
}

// GET /api/reports/agents/:id
func (h *ReportHandler) ByAgent(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_agent_id")
	if !ok {
		return
	}
	rep, err := h.reports.ByAgent(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, rep)
}

// GET /api/reports/status/:key
func (h *ReportHandler) StatusBreakdown(c *gin.Context) {
	rep, err := h.reports.StatusBreakdown(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, rep)
}

// GET /api/audit?entity=&entityId=&action=&limit=
func (h *ReportHandler) Audit(c *gin.Context) {
	filter := repos.AuditFilter{
		Entity: c.Query("entity"),
		Action: c.Query("action"),
		Limit:  queryInt(c, "limit"),
	}
	if raw := c.Query("entityId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
			return
		}
		filter.EntityID = &id
	}
	entries, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}
