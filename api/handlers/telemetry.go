package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/repository"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/telemetry"
)

// TelemetryHandler exposes the recorded telemetry counters.
type TelemetryHandler struct {
	recorder *telemetry.Recorder
	repo     *repository.PanelRepository
}

// NewTelemetryHandler creates a new TelemetryHandler.
func NewTelemetryHandler(recorder *telemetry.Recorder, repo *repository.PanelRepository) *TelemetryHandler {
	return &TelemetryHandler{
		recorder: recorder,
		repo:     repo,
	}
}

// TelemetryResponse summarizes the recording.
type TelemetryResponse struct {
	StartedAt    string         `json:"startedAt"`
	ActivePanels int            `json:"activePanels"`
	Counts       map[string]int `json:"counts"`
}

// Get handles GET /api/telemetry - returns per-event counters and the
// count of panel records still marked active.
func (h *TelemetryHandler) Get(c *gin.Context) {
	active, err := h.repo.CountActive(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count active panels: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, TelemetryResponse{
		StartedAt:    h.recorder.StartTime().Format(time.RFC3339),
		ActivePanels: active,
		Counts:       h.recorder.Counts(),
	})
}

// RegisterRoutes registers the telemetry route on a Gin router group.
func (h *TelemetryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/telemetry", h.Get)
}
