package search

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yassin-Kassem/weather-news-api/internal/workflow"
)

const timeoutDuration = 30 * time.Second

type searchWorkflow interface {
	SetQuery(query string)
	State() workflow.SearchState
}

type citySwitcher interface {
	SwitchCity(ctx context.Context, name string)
}

// Handler exposes the search-as-you-type workflow over HTTP.
type Handler struct {
	search   searchWorkflow
	switcher citySwitcher
}

func NewHandler(search searchWorkflow, switcher citySwitcher) *Handler {
	return &Handler{search: search, switcher: switcher}
}

type queryRequest struct {
	Q string `json:"q"`
}

// SetQuery registers an input change; the actual lookup waits out the
// debounce quiet period.
func (h *Handler) SetQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.search.SetQuery(req.Q)

	c.JSON(http.StatusAccepted, h.search.State())
}

// Results returns the current query, loading flag, and match list.
func (h *Handler) Results(c *gin.Context) {
	c.JSON(http.StatusOK, h.search.State())
}

type selectRequest struct {
	Name string `json:"name" binding:"required"`
}

// Select commits a chosen match through the same persistence path as the
// weather workflow.
func (h *Handler) Select(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	h.switcher.SwitchCity(ctx, req.Name)

	c.Status(http.StatusNoContent)
}
