package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/model"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/panel"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/repository"
)

// PanelHandler handles HTTP requests for panel lifecycle and history.
type PanelHandler struct {
	registry *panel.Registry
	repo     *repository.PanelRepository
}

// NewPanelHandler creates a new PanelHandler.
func NewPanelHandler(registry *panel.Registry, repo *repository.PanelRepository) *PanelHandler {
	return &PanelHandler{
		registry: registry,
		repo:     repo,
	}
}

// Create handles POST /api/panels - shows a panel for a target. An
// existing panel is disposed first; the panel always restarts rather
// than retargeting in place.
func (h *PanelHandler) Create(c *gin.Context) {
	var req model.CreatePanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	ctrl, err := h.registry.CreateOrShow(c.Request.Context(), req.TargetURL, req.Title)
	if err != nil {
		sendError(c, http.StatusBadGateway, "TARGET_UNREACHABLE", "Failed to show panel: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, ctrl.Panel())
}

// GetActive handles GET /api/panels/active - returns the live panel.
func (h *PanelHandler) GetActive(c *gin.Context) {
	ctrl := h.registry.Active()
	if ctrl == nil {
		sendError(c, http.StatusNotFound, "NO_ACTIVE_PANEL", "No panel is currently shown")
		return
	}

	c.JSON(http.StatusOK, ctrl.Panel())
}

// DeleteActive handles DELETE /api/panels/active - the user-close
// trigger. Disposing releases the surface and the socket bridge.
func (h *PanelHandler) DeleteActive(c *gin.Context) {
	if err := h.registry.DisposeActive(model.DisposeReasonPanelClosed); err != nil {
		if errors.Is(err, model.ErrNoActivePanel) {
			sendError(c, http.StatusNotFound, "NO_ACTIVE_PANEL", "No panel is currently shown")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to dispose panel: "+err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /api/panels - lists panel history, newest first.
func (h *PanelHandler) List(c *gin.Context) {
	panels, err := h.repo.List(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list panels: "+err.Error())
		return
	}

	if panels == nil {
		panels = []*model.Panel{}
	}
	c.JSON(http.StatusOK, panels)
}

// Get handles GET /api/panels/:id - returns one history row.
func (h *PanelHandler) Get(c *gin.Context) {
	panelID := c.Param("id")

	record, err := h.repo.GetByID(c.Request.Context(), panelID)
	if err != nil {
		if errors.Is(err, model.ErrPanelNotFound) {
			sendError(c, http.StatusNotFound, "PANEL_NOT_FOUND", "Panel "+panelID+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get panel: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, record)
}

// RegisterRoutes registers the panel handler routes on a Gin router group.
func (h *PanelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	panels := rg.Group("/panels")
	{
		panels.POST("", h.Create)
		panels.GET("", h.List)
		panels.GET("/active", h.GetActive)
		panels.DELETE("/active", h.DeleteActive)
		panels.GET("/:id", h.Get)
	}
}
