package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rosterbridge-backend/internal/http/response"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

type AgentHandler struct {
	agents services.AgentService
	roster services.RosterService
}

func NewAgentHandler(agents services.AgentService, roster services.RosterService) *AgentHandler {
	return &AgentHandler{agents: agents, roster: roster}
}

// GET /api/agents
func (h *AgentHandler) List(c *gin.Context) {
	agents, err := h.agents.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"agents": agents})
}

type createAgentRequest struct {
	BusinessKey string `json:"businessKey" binding:"required"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// POST /api/agents
func (h *AgentHandler) Create(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	agent, created, err := h.agents.GetOrCreate(c.Request.Context(), req.BusinessKey, req.FirstName, req.LastName)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"agent": agent, "created": created})
}

// DELETE /api/agents/:id
func (h *AgentHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_agent_id")
	if !ok {
		return
	}
	if err := h.agents.Delete(c.Request.Context(), id, actor(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/agents/:id/roster
func (h *AgentHandler) Roster(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_agent_id")
	if !ok {
		return
	}
	page, err := h.roster.List(c.Request.Context(), id, services.RosterQuery{
		Q:         c.Query("q"),
		StatusKey: c.Query("status"),
		Limit:     queryInt(c, "limit"),
		Offset:    queryInt(c, "offset"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}
