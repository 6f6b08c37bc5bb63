package news

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
	newsSvc "github.com/Yassin-Kassem/weather-news-api/internal/services/news"
)

const timeoutDuration = 15 * time.Second

type articleFetcher interface {
	Fetch(ctx context.Context, category, query string) ([]models.Article, error)
}

type Handler struct {
	service articleFetcher
}

func NewHandler(svc articleFetcher) *Handler {
	return &Handler{service: svc}
}

// GetNews returns articles for an optional category and free-text query.
func (h *Handler) GetNews(c *gin.Context) {
	category := c.DefaultQuery("category", "all")
	if !newsSvc.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	articles, err := h.service.Fetch(ctx, category, c.Query("q"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"articles": articles})
}
