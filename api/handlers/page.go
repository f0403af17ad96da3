package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/panel"
)

// PageHandler serves the rendered panel page.
type PageHandler struct {
	registry *panel.Registry
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(registry *panel.Registry) *PageHandler {
	return &PageHandler{registry: registry}
}

// Panel handles GET /panel - the first-show render path. The live
// panel's HTML is assembled on demand and returned verbatim.
func (h *PageHandler) Panel(c *gin.Context) {
	ctrl := h.registry.Active()
	if ctrl == nil {
		sendError(c, http.StatusNotFound, "NO_ACTIVE_PANEL", "No panel is currently shown")
		return
	}

	html, err := ctrl.Show()
	if err != nil {
		sendError(c, http.StatusInternalServerError, "RENDER_ERROR", "Failed to render panel: "+err.Error())
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// RegisterRoutes registers the page route on the root router.
func (h *PageHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/panel", h.Panel)
}
