package location

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

// Accuracy tiers a fix can be requested at. Balanced is the default trade-off
// between speed and precision.
type Accuracy int

const (
	AccuracyBalanced Accuracy = iota
	AccuracyHighest
)

// Sensor is the raw positioning capability: a permission gate and a fix.
type Sensor interface {
	Permission(ctx context.Context) (bool, error)
	Locate(ctx context.Context, accuracy Accuracy) (models.Coordinate, error)
}

// Service bounds sensor access with a hard acquisition timeout and reuses the
// previous fix while it is younger than the caller's staleness threshold.
type Service struct {
	sensor  Sensor
	clock   clockwork.Clock
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	lastFix *fix
}

type fix struct {
	coord models.Coordinate
	at    time.Time
}

func NewService(sensor Sensor, clock clockwork.Clock, timeout time.Duration, logger zerolog.Logger) *Service {
	logger = logger.With().Str("component", "LocationService").Logger()
	return &Service{sensor: sensor, clock: clock, timeout: timeout, log: logger}
}

// RequestPermission resolves to granted/denied; it never leaves the caller
// suspended on denial.
func (s *Service) RequestPermission(ctx context.Context) (bool, error) {
	return s.sensor.Permission(ctx)
}

// Current returns a coordinate fix. A cached fix younger than maxAge is
// reused without touching the sensor; otherwise the sensor is queried at
// balanced accuracy under the service's hard timeout.
func (s *Service) Current(ctx context.Context, maxAge time.Duration) (models.Coordinate, error) {
	s.mu.Lock()
	if s.lastFix != nil && s.clock.Since(s.lastFix.at) <= maxAge {
		coord := s.lastFix.coord
		s.mu.Unlock()
		s.log.Debug().
			Float64("lat", coord.Latitude).
			Float64("lon", coord.Longitude).
			Msg("reusing cached fix")
		return coord, nil
	}
	s.mu.Unlock()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coord, err := s.sensor.Locate(ctxWithTimeout, AccuracyBalanced)
	if err != nil {
		s.log.Error().Err(err).Msg("sensor fix failed")
		return models.Coordinate{}, err
	}

	s.mu.Lock()
	s.lastFix = &fix{coord: coord, at: s.clock.Now()}
	s.mu.Unlock()

	return coord, nil
}
