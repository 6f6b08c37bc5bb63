package weather

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

// ProviderError means the provider was reachable but answered with an error
// payload or non-success status. Message is the provider's own wording.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("weather provider error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to the WeatherAPI.com forecast and search endpoints.
type Client struct {
	apiKey  string
	baseURL string
	days    int
	client  HTTPClient
	logger  zerolog.Logger
}

func NewClient(apiKey, baseURL string, days int, httpClient HTTPClient, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "WeatherClient").Logger()
	return &Client{apiKey: apiKey, baseURL: baseURL, days: days, client: httpClient, logger: logger}
}

// ForecastByCity fetches current conditions and the multi-day forecast by name.
func (c *Client) ForecastByCity(ctx context.Context, city string) (models.WeatherSnapshot, error) {
	return c.forecast(ctx, city)
}

// ForecastByCoords fetches by a "lat,lon" pair. Coordinates are a sufficient
// query on their own; no geocoding round-trip is needed first.
func (c *Client) ForecastByCoords(ctx context.Context, coord models.Coordinate) (models.WeatherSnapshot, error) {
	return c.forecast(ctx, fmt.Sprintf("%f,%f", coord.Latitude, coord.Longitude))
}

func (c *Client) forecast(ctx context.Context, query string) (models.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("days", fmt.Sprintf("%d", c.days))
	params.Set("aqi", "no")
	params.Set("alerts", "no")

	reqURL := fmt.Sprintf("%s/forecast.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("forecast request: %w", err)
	}
	defer c.closeBody(resp.Body)

	var raw struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Current struct {
			TempC      float64 `json:"temp_c"`
			FeelsLikeC float64 `json:"feelslike_c"`
			Condition  struct {
				Text string `json:"text"`
			} `json:"condition"`
			WindKph    float64 `json:"wind_kph"`
			Humidity   int     `json:"humidity"`
			VisKm      float64 `json:"vis_km"`
			PressureMb float64 `json:"pressure_mb"`
		} `json:"current"`
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					MaxTempC     float64 `json:"maxtemp_c"`
					MinTempC     float64 `json:"mintemp_c"`
					ChanceOfRain int     `json:"daily_chance_of_rain"`
					Condition    struct {
						Text string `json:"text"`
					} `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(&raw); decodeErr != nil {
		if resp.StatusCode != http.StatusOK {
			return models.WeatherSnapshot{}, &ProviderError{
				StatusCode: resp.StatusCode,
				Message:    resp.Status,
			}
		}
		return models.WeatherSnapshot{}, decodeErr
	}

	if raw.Error != nil || resp.StatusCode != http.StatusOK {
		message := resp.Status
		if raw.Error != nil && raw.Error.Message != "" {
			message = raw.Error.Message
		}
		return models.WeatherSnapshot{}, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	snapshot := models.WeatherSnapshot{
		Current: models.CurrentConditions{
			Temperature:  raw.Current.TempC,
			FeelsLike:    raw.Current.FeelsLikeC,
			Condition:    raw.Current.Condition.Text,
			WindKph:      raw.Current.WindKph,
			Humidity:     raw.Current.Humidity,
			VisibilityKm: raw.Current.VisKm,
			PressureMb:   raw.Current.PressureMb,
		},
	}

	days := raw.Forecast.ForecastDay
	if len(days) > maxForecastDays {
		days = days[:maxForecastDays]
	}
	for _, d := range days {
		snapshot.Forecast = append(snapshot.Forecast, models.ForecastDay{
			Date:         d.Date,
			Condition:    d.Day.Condition.Text,
			HighTemp:     d.Day.MaxTempC,
			LowTemp:      d.Day.MinTempC,
			ChanceOfRain: d.Day.ChanceOfRain,
		})
	}

	return snapshot, nil
}

// Search returns name-matches for a partial city name, in provider order.
func (c *Client) Search(ctx context.Context, partial string) ([]models.CityMatch, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", partial)

	reqURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var raw []struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	matches := make([]models.CityMatch, 0, len(raw))
	for _, r := range raw {
		matches = append(matches, models.CityMatch{
			Name:    r.Name,
			Region:  r.Region,
			Country: r.Country,
		})
	}
	return matches, nil
}

const maxForecastDays = 7

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to close response body")
	}
}
