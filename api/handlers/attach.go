package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/panel"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/ws"
)

// AttachHandler upgrades panel page connections onto the live panel's
// surface.
type AttachHandler struct {
	registry  *panel.Registry
	wsHandler *ws.Handler
}

// NewAttachHandler creates a new AttachHandler.
func NewAttachHandler(registry *panel.Registry, wsHandler *ws.Handler) *AttachHandler {
	return &AttachHandler{
		registry:  registry,
		wsHandler: wsHandler,
	}
}

// Attach handles GET /api/panels/active/attach - attaches a panel page
// to the live panel over WebSocket. Buffered frames are replayed to the
// page before live traffic; the first attach makes the panel visible.
func (h *AttachHandler) Attach(c *gin.Context) {
	ctrl := h.registry.Active()
	if ctrl == nil {
		sendError(c, http.StatusNotFound, "NO_ACTIVE_PANEL", "No panel is currently shown")
		return
	}

	if err := h.wsHandler.HandleConnection(c.Writer, c.Request, ctrl.ID()); err != nil {
		// Upgrade failures write their own response.
		return
	}
}

// RegisterRoutes registers the attach route on a Gin router group.
func (h *AttachHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/panels/active/attach", h.Attach)
}
