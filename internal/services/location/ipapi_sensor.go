package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// IPSensor approximates device positioning with an ip-api style lookup.
// Consent stands in for the foreground permission prompt: the gate is
// configured once and answered through the same granted/denied contract.
type IPSensor struct {
	baseURL string
	consent bool
	client  HTTPClient
	logger  zerolog.Logger
}

func NewIPSensor(baseURL string, consent bool, httpClient HTTPClient, logger zerolog.Logger) *IPSensor {
	logger = logger.With().Str("component", "IPSensor").Logger()
	return &IPSensor{baseURL: baseURL, consent: consent, client: httpClient, logger: logger}
}

func (s *IPSensor) Permission(_ context.Context) (bool, error) {
	return s.consent, nil
}

func (s *IPSensor) Locate(ctx context.Context, _ Accuracy) (models.Coordinate, error) {
	reqURL := fmt.Sprintf("%s/json?fields=status,message,lat,lon", s.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.Coordinate{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("locate request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return models.Coordinate{}, fmt.Errorf("sensor error: status %s", resp.Status)
	}

	var raw struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.Coordinate{}, err
	}
	if raw.Status != "success" {
		return models.Coordinate{}, fmt.Errorf("sensor error: %s", raw.Message)
	}

	return models.Coordinate{Latitude: raw.Lat, Longitude: raw.Lon}, nil
}
