package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

type forecastClient interface {
	ForecastByCity(ctx context.Context, city string) (models.WeatherSnapshot, error)
	ForecastByCoords(ctx context.Context, coord models.Coordinate) (models.WeatherSnapshot, error)
	Search(ctx context.Context, partial string) ([]models.CityMatch, error)
}

type BreakerConfig struct {
	TimeInterval time.Duration
	TimeTimeOut  time.Duration
	RepeatNumber uint32
}

// BreakerClient guards the weather provider with a circuit breaker. Provider
// error payloads still count as failures; an open circuit fails fast without
// touching the network.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped forecastClient
}

func NewBreakerClient(name string, cfg BreakerConfig, wrapped forecastClient) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.TimeInterval,
		Timeout:     cfg.TimeTimeOut,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) ForecastByCity(ctx context.Context, city string) (models.WeatherSnapshot, error) {
	return execute(b, func() (models.WeatherSnapshot, error) {
		return b.wrapped.ForecastByCity(ctx, city)
	})
}

func (b *BreakerClient) ForecastByCoords(ctx context.Context, coord models.Coordinate) (models.WeatherSnapshot, error) {
	return execute(b, func() (models.WeatherSnapshot, error) {
		return b.wrapped.ForecastByCoords(ctx, coord)
	})
}

func (b *BreakerClient) Search(ctx context.Context, partial string) ([]models.CityMatch, error) {
	return execute(b, func() ([]models.CityMatch, error) {
		return b.wrapped.Search(ctx, partial)
	})
}

func execute[T any](b *BreakerClient, call func() (T, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		// Keep the provider's own error visible to the workflow layer.
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return zero, err
		}
		return zero, fmt.Errorf("%s unavailable: %w", b.name, err)
	}
	res, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%s returned unexpected result", b.name)
	}
	return res, nil
}
