package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rosterbridge-backend/internal/http/response"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

type RosterHandler struct {
	roster   services.RosterService
	statuses services.StatusCatalogService
}

func NewRosterHandler(roster services.RosterService, statuses services.StatusCatalogService) *RosterHandler {
	return &RosterHandler{roster: roster, statuses: statuses}
}

// PATCH /api/roster/:id
func (h *RosterHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_entry_id")
	if !ok {
		return
	}
	var patch services.EntryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	entry, err := h.roster.UpdateEntry(c.Request.Context(), id, patch, actor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entry": entry})
}

// POST /api/roster/:id/deactivate
func (h *RosterHandler) Deactivate(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_entry_id")
	if !ok {
		return
	}
	entry, err := h.roster.Deactivate(c.Request.Context(), id, actor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entry": entry})
}

// GET /api/status-options
func (h *RosterHandler) StatusOptions(c *gin.Context) {
	opts, err := h.statuses.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"statusOptions": opts})
}
