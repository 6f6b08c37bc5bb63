package geocode

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

// Client reverse-geocodes coordinates against a Nominatim-style endpoint.
type Client struct {
	baseURL string
	client  HTTPClient
	logger  zerolog.Logger
}

func NewClient(baseURL string, httpClient HTTPClient, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "GeocodeClient").Logger()
	return &Client{baseURL: baseURL, client: httpClient, logger: logger}
}

// Reverse maps a coordinate to place descriptors. A result with every field
// empty is not an error; label fallback is the caller's concern.
func (c *Client) Reverse(ctx context.Context, coord models.Coordinate) (models.Place, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", coord.Latitude))
	params.Set("lon", fmt.Sprintf("%f", coord.Longitude))
	params.Set("format", "jsonv2")

	reqURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.Place{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Place{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return models.Place{}, fmt.Errorf("geocode provider error: status %s", resp.Status)
	}

	var raw struct {
		Error   string `json:"error"`
		Address struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			County  string `json:"county"`
			State   string `json:"state"`
		} `json:"address"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.Place{}, err
	}
	if raw.Error != "" {
		return models.Place{}, fmt.Errorf("geocode provider error: %s", raw.Error)
	}

	city := raw.Address.City
	if city == "" {
		city = raw.Address.Town
	}
	if city == "" {
		city = raw.Address.Village
	}

	return models.Place{
		City:      city,
		Subregion: raw.Address.County,
		Region:    raw.Address.State,
	}, nil
}
