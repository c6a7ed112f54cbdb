package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/rosterbridge-backend/internal/http/response"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

type UploadHandler struct {
	log       *logger.Logger
	uploads   services.UploadService
	diffs     services.DiffService
	applier   services.ApplyService
	maxBytes  int64
	autoApply bool
}

func NewUploadHandler(
	log *logger.Logger,
	uploads services.UploadService,
	diffs services.DiffService,
	applier services.ApplyService,
	maxBytes int64,
	autoApply bool,
) *UploadHandler {
	return &UploadHandler{
		log:       log.With("handler", "UploadHandler"),
		uploads:   uploads,
		diffs:     diffs,
		applier:   applier,
		maxBytes:  maxBytes,
		autoApply: autoApply,
	}
}

// POST /api/uploads
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	// One byte over the limit is enough for the size check to reject it.
	content, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	req := services.UploadRequest{
		Filename:  fh.Filename,
		Content:   content,
		AutoApply: h.autoApply,
		Actor:     actor(c),
	}
	if v := strings.TrimSpace(c.PostForm("autoApply")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_auto_apply", err)
			return
		}
		req.AutoApply = b
	}
	if raw := strings.TrimSpace(c.PostForm("agentId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
			return
		}
		req.AgentID = &id
	} else if key := strings.TrimSpace(c.PostForm("agentKey")); key != "" {
		req.NewAgent = &services.NewAgent{
			BusinessKey: key,
			FirstName:   c.PostForm("firstName"),
			LastName:    c.PostForm("lastName"),
		}
	}

	res, err := h.uploads.Upload(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/uploads/:id/diff
func (h *UploadHandler) Diff(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	d, err := h.diffs.Preview(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, d)
}

// POST /api/uploads/:id/apply
func (h *UploadHandler) Apply(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	res, err := h.applier.Apply(c.Request.Context(), id, actor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondApplyResult(c, res)
}

// POST /api/uploads/:id/apply-selected
func (h *UploadHandler) ApplySelected(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	var sel services.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_selection", err)
		return
	}
	if sel.Empty() {
		response.RespondError(c, http.StatusBadRequest, "empty_selection", errEmptySelection)
		return
	}
	res, err := h.applier.ApplySelected(c.Request.Context(), id, sel, actor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondApplyResult(c, res)
}

// POST /api/uploads/:id/reject
func (h *UploadHandler) Reject(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	res, err := h.applier.Reject(c.Request.Context(), id, actor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondApplyResult(c, res)
}

func respondApplyResult(c *gin.Context, res *services.ApplyResult) {
	if !res.OK {
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
