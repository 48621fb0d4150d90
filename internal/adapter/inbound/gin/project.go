package gin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/uniedit/reelforge/internal/port/inbound"
	apperrors "github.com/uniedit/reelforge/internal/utils/errors"
	"github.com/uniedit/reelforge/internal/utils/pagination"
)

// projectHandler implements inbound.ProjectHttpPort.
type projectHandler struct {
	domain inbound.ProjectDomain
}

// NewProjectHandler creates a new project HTTP handler.
func NewProjectHandler(domain inbound.ProjectDomain) inbound.ProjectHttpPort {
	return &projectHandler{domain: domain}
}

// RegisterProjectRoutes mounts the project endpoints on r.
func RegisterProjectRoutes(r gin.IRouter, h inbound.ProjectHttpPort) {
	projects := r.Group("/projects")
	{
		projects.POST("", h.Submit)
		projects.GET("/:id", h.Get)
		projects.GET("/:id/attempts", h.Attempts)
		projects.POST("/:id/cancel", h.Cancel)
		projects.POST("/:id/scenes/:scene_id/cancel", h.CancelScene)
		projects.POST("/:id/scenes/:scene_id/override", h.OverrideScene)
		projects.POST("/:id/compose", h.Compose)
		projects.POST("/:id/render", h.Render)
	}
}

// Submit godoc
//
//	@Summary	Submit a script
//	@Tags		Project
//	@Accept		json
//	@Produce	json
//	@Param		body	body		inbound.ProjectSubmitInput	true	"script, brand and audio"
//	@Success	202		{object}	model.ProjectSnapshot
//	@Failure	422		{object}	apperrors.ErrorResponse
//	@Router		/projects [post]
func (h *projectHandler) Submit(c *gin.Context) {
	var req inbound.ProjectSubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	snap, err := h.domain.Submit(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, snap)
}

// Get godoc
//
//	@Summary	Project status
//	@Tags		Project
//	@Produce	json
//	@Param		id	path		string	true	"project id"
//	@Success	200	{object}	model.ProjectSnapshot
//	@Failure	404	{object}	apperrors.ErrorResponse
//	@Router		/projects/{id} [get]
func (h *projectHandler) Get(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	snap, err := h.domain.Get(c.Request.Context(), projectID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Attempts godoc
//
//	@Summary	Attempt history of every scene
//	@Tags		Project
//	@Produce	json
//	@Param		id			path	string	true	"project id"
//	@Param		scene_id	query	string	false	"only this scene"
//	@Param		page		query	int		false	"page, starting at 1"
//	@Param		page_size	query	int		false	"attempts per page"
//	@Success	200			{array}	model.AttemptRecord
//	@Router		/projects/{id}/attempts [get]
func (h *projectHandler) Attempts(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	records, err := h.domain.Attempts(c.Request.Context(), projectID)
	if err != nil {
		handleError(c, err)
		return
	}

	if sceneID := c.Query("scene_id"); sceneID != "" {
		filtered := records[:0:0]
		for _, r := range records {
			if r.SceneID == sceneID {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	body := gin.H{"total": len(records)}
	if c.Query("page") != "" || c.Query("page_size") != "" {
		page := pagination.New()
		if err := c.ShouldBindQuery(page); err != nil {
			badRequest(c, "invalid pagination")
			return
		}
		body["page_info"] = page.Info(int64(len(records)))
		records = pagination.Window(records, page)
	}
	body["attempts"] = records

	c.JSON(http.StatusOK, body)
}

// Cancel godoc
//
//	@Summary	Cancel every unfinished scene
//	@Tags		Project
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"project id"
//	@Param		body	body		inbound.ProjectCancelInput	false	"reason"
//	@Success	200		{object}	model.ProjectSnapshot
//	@Router		/projects/{id}/cancel [post]
func (h *projectHandler) Cancel(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}
	var req inbound.ProjectCancelInput
	if !bindOptionalJSON(c, &req) {
		return
	}

	snap, err := h.domain.Cancel(c.Request.Context(), projectID, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// CancelScene godoc
//
//	@Summary	Cancel one scene
//	@Tags		Project
//	@Param		id			path		string						true	"project id"
//	@Param		scene_id	path		string						true	"scene id"
//	@Param		body		body		inbound.ProjectCancelInput	false	"reason"
//	@Success	200			{object}	model.ProjectSnapshot
//	@Failure	409			{object}	apperrors.ErrorResponse
//	@Router		/projects/{id}/scenes/{scene_id}/cancel [post]
func (h *projectHandler) CancelScene(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}
	var req inbound.ProjectCancelInput
	if !bindOptionalJSON(c, &req) {
		return
	}

	snap, err := h.domain.CancelScene(c.Request.Context(), projectID, c.Param("scene_id"), req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// OverrideScene godoc
//
//	@Summary	Attach a human-chosen asset to an escalated or cancelled scene
//	@Tags		Project
//	@Accept		json
//	@Produce	json
//	@Param		id			path		string						true	"project id"
//	@Param		scene_id	path		string						true	"scene id"
//	@Param		body		body		inbound.SceneOverrideInput	true	"asset"
//	@Success	200			{object}	model.ProjectSnapshot
//	@Failure	409			{object}	apperrors.ErrorResponse
//	@Failure	422			{object}	apperrors.ErrorResponse
//	@Router		/projects/{id}/scenes/{scene_id}/override [post]
func (h *projectHandler) OverrideScene(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}
	var req inbound.SceneOverrideInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	snap, err := h.domain.OverrideScene(c.Request.Context(), projectID, c.Param("scene_id"), req.AssetURL)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Compose godoc
//
//	@Summary	Compose the render timeline
//	@Tags		Project
//	@Produce	json
//	@Param		id		path		string	true	"project id"
//	@Param		wait	query		bool	false	"join unfinished scenes first"
//	@Success	200		{object}	map[string]any
//	@Failure	409		{object}	apperrors.ErrorResponse
//	@Router		/projects/{id}/compose [post]
func (h *projectHandler) Compose(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}
	var req inbound.ProjectComposeInput
	if !bindOptionalJSON(c, &req) {
		return
	}
	if raw := c.Query("wait"); raw != "" {
		wait, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "wait must be a boolean")
			return
		}
		req.Wait = wait
	}

	spec, err := h.domain.Compose(c.Request.Context(), projectID, req.Wait)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, spec)
}

// Render godoc
//
//	@Summary	Render the composed timeline
//	@Tags		Project
//	@Produce	json
//	@Param		id	path		string	true	"project id"
//	@Success	200	{object}	model.RenderOutput
//	@Failure	412	{object}	apperrors.ErrorResponse
//	@Failure	503	{object}	apperrors.ErrorResponse
//	@Router		/projects/{id}/render [post]
func (h *projectHandler) Render(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	out, err := h.domain.Render(c.Request.Context(), projectID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// --- helpers ---

func projectIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid project ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON binds a body when one is sent.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, apperrors.BadRequest(message).ToResponse())
}

// Compile-time interface check
var _ inbound.ProjectHttpPort = (*projectHandler)(nil)
