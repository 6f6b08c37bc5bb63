package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Categories the aggregator is queried with. "all" means no category filter.
var Categories = []string{
	"all", "business", "entertainment", "health",
	"science", "sports", "technology", "world",
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Client talks to a NewsData-style aggregator endpoint.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	client   HTTPClient
	logger   zerolog.Logger
}

func NewClient(apiKey, baseURL, language string, httpClient HTTPClient, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "NewsClient").Logger()
	return &Client{apiKey: apiKey, baseURL: baseURL, language: language, client: httpClient, logger: logger}
}

// Fetch returns articles for the given category and/or free-text query.
// Articles without both a title and a link are dropped.
func (c *Client) Fetch(ctx context.Context, category, query string) ([]models.Article, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("language", c.language)
	if category != "" && category != "all" {
		params.Set("category", category)
	}
	if query != "" {
		params.Set("q", query)
	}

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news provider error: status %s", resp.Status)
	}

	var raw struct {
		Status  string `json:"status"`
		Results []struct {
			Title       string   `json:"title"`
			Link        string   `json:"link"`
			Description string   `json:"description"`
			ImageURL    string   `json:"image_url"`
			SourceID    string   `json:"source_id"`
			PubDate     string   `json:"pubDate"`
			Category    []string `json:"category"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	if raw.Status != "success" {
		return nil, fmt.Errorf("news provider error: status %q", raw.Status)
	}

	articles := make([]models.Article, 0, len(raw.Results))
	for _, r := range raw.Results {
		if r.Title == "" || r.Link == "" {
			continue
		}
		articles = append(articles, models.Article{
			Title:       r.Title,
			Link:        r.Link,
			Description: r.Description,
			ImageURL:    r.ImageURL,
			SourceID:    r.SourceID,
			PubDate:     r.PubDate,
			Categories:  r.Category,
		})
	}
	return articles, nil
}
