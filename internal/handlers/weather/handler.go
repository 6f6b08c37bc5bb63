package weather

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
	"github.com/Yassin-Kassem/weather-news-api/internal/workflow"
)

const requestTimeout = 30 * time.Second

type acquisition interface {
	LoadInitial(ctx context.Context)
	RefreshFromDeviceLocation(ctx context.Context)
	SwitchCity(ctx context.Context, city string)
	State() workflow.State
}

type Handler struct {
	wf       acquisition
	alerts   *workflow.AlertBox
	logger   zerolog.Logger
	loadOnce sync.Once
}

func NewHandler(wf acquisition, alerts *workflow.AlertBox, logger zerolog.Logger) *Handler {
	return &Handler{wf: wf, alerts: alerts, logger: logger}
}

type switchCityRequest struct {
	City string `json:"city" binding:"required"`
}

type stateResponse struct {
	Snapshot *models.WeatherSnapshot `json:"snapshot,omitempty"`
	Place    string                  `json:"place,omitempty"`
	Error    *models.WorkflowError   `json:"error,omitempty"`
	Alert    *models.Alert           `json:"alert,omitempty"`
}

// GetWeather returns the current weather state, performing the initial
// acquisition on the first call.
func (h *Handler) GetWeather(c *gin.Context) {
	h.loadOnce.Do(func() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		h.wf.LoadInitial(ctx)
	})

	c.JSON(http.StatusOK, h.currentState())
}

// Refresh re-acquires weather from the device location.
func (h *Handler) Refresh(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	h.wf.RefreshFromDeviceLocation(ctx)

	c.JSON(http.StatusOK, h.currentState())
}

// SwitchCity selects a city by name, persists the choice and fetches its
// forecast.
func (h *Handler) SwitchCity(c *gin.Context) {
	var req switchCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city is required"})

		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	h.wf.SwitchCity(ctx, req.City)

	c.JSON(http.StatusOK, h.currentState())
}

// DismissAlert acknowledges the pending modal alert.
func (h *Handler) DismissAlert(c *gin.Context) {
	h.alerts.Dismiss()

	c.Status(http.StatusNoContent)
}

func (h *Handler) currentState() stateResponse {
	st := h.wf.State()

	return stateResponse{
		Snapshot: st.Snapshot,
		Place:    st.Place,
		Error:    st.Err,
		Alert:    h.alerts.Current(),
	}
}
