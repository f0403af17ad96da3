package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/launcher"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/model"
)

// TargetHandler handles HTTP requests for browser launching and
// remote-target discovery.
type TargetHandler struct {
	launcher *launcher.Launcher
}

// NewTargetHandler creates a new TargetHandler.
func NewTargetHandler(l *launcher.Launcher) *TargetHandler {
	return &TargetHandler{launcher: l}
}

// Launch handles POST /api/targets/launch - starts a browser with a
// remote debugging port.
func (h *TargetHandler) Launch(c *gin.Context) {
	var req model.LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	browser, err := h.launcher.Launch(c.Request.Context(), &req)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "LAUNCH_FAILED", "Failed to launch browser: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, browser)
}

// List handles GET /api/targets - lists launched browsers.
func (h *TargetHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.launcher.List())
}

// Kill handles DELETE /api/targets/:id - kills a launched browser.
func (h *TargetHandler) Kill(c *gin.Context) {
	browserID := c.Param("id")

	if err := h.launcher.Kill(browserID); err != nil {
		if errors.Is(err, model.ErrBrowserNotFound) {
			sendError(c, http.StatusNotFound, "BROWSER_NOT_FOUND", "Browser "+browserID+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to kill browser: "+err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// Discover handles GET /api/targets/discover?host=&port= - proxies the
// debugging endpoint's page list so the front end can pick a target.
func (h *TargetHandler) Discover(c *gin.Context) {
	host := c.DefaultQuery("host", "localhost")

	port, err := strconv.Atoi(c.DefaultQuery("port", strconv.Itoa(launcher.DefaultDebuggingPort)))
	if err != nil || port <= 0 || port > 65535 {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid port")
		return
	}

	targets, err := launcher.Discover(c.Request.Context(), host, port)
	if err != nil {
		sendError(c, http.StatusBadGateway, "DISCOVERY_FAILED", "Failed to discover targets: "+err.Error())
		return
	}

	if targets == nil {
		targets = []model.Target{}
	}
	c.JSON(http.StatusOK, targets)
}

// Version handles GET /api/targets/version?host=&port= - proxies the
// debugging endpoint's browser and protocol versions.
func (h *TargetHandler) Version(c *gin.Context) {
	host := c.DefaultQuery("host", "localhost")

	port, err := strconv.Atoi(c.DefaultQuery("port", strconv.Itoa(launcher.DefaultDebuggingPort)))
	if err != nil || port <= 0 || port > 65535 {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid port")
		return
	}

	version, err := launcher.Version(c.Request.Context(), host, port)
	if err != nil {
		sendError(c, http.StatusBadGateway, "DISCOVERY_FAILED", "Failed to query version: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, version)
}

// RegisterRoutes registers the target handler routes on a Gin router group.
func (h *TargetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	targets := rg.Group("/targets")
	{
		targets.POST("/launch", h.Launch)
		targets.GET("", h.List)
		targets.GET("/discover", h.Discover)
		targets.GET("/version", h.Version)
		targets.DELETE("/:id", h.Kill)
	}
}
