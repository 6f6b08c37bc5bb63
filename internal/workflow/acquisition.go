package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
	"github.com/Yassin-Kassem/weather-news-api/internal/preferences"
	"github.com/Yassin-Kassem/weather-news-api/internal/services/weather"
)

type WeatherFetcher interface {
	ForecastByCity(ctx context.Context, city string) (models.WeatherSnapshot, error)
	ForecastByCoords(ctx context.Context, coord models.Coordinate) (models.WeatherSnapshot, error)
}

type ReverseGeocoder interface {
	Reverse(ctx context.Context, coord models.Coordinate) (models.Place, error)
}

type Locator interface {
	RequestPermission(ctx context.Context) (bool, error)
	Current(ctx context.Context, maxAge time.Duration) (models.Coordinate, error)
}

type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Presenter shows blocking alerts to the user. The most common recovery
// action hands off to manual city search.
type Presenter interface {
	Present(alert models.Alert)
}

type collector interface {
	RecordProviderRequest(provider, outcome string)
	RecordWorkflowError(kind string)
	RecordSearch()
}

// State is the observable output the presentation layer renders.
type State struct {
	Snapshot *models.WeatherSnapshot `json:"snapshot,omitempty"`
	Place    string                  `json:"place,omitempty"`
	Err      *models.WorkflowError   `json:"error,omitempty"`
}

// Acquisition produces a WeatherSnapshot and a display PlaceName from the
// best available location signal: the saved city preference when present,
// the device location otherwise. A saved preference is trusted over live
// sensing, so a provider failure on the saved-city path never falls back to
// the sensor.
type Acquisition struct {
	prefs     PreferenceStore
	locator   Locator
	weather   WeatherFetcher
	geocoder  ReverseGeocoder
	presenter Presenter
	metrics   collector
	log       zerolog.Logger

	initialMaxAge time.Duration
	refreshMaxAge time.Duration

	mu       sync.Mutex
	gen      uint64
	snapshot *models.WeatherSnapshot
	place    string
	lastErr  *models.WorkflowError
}

func NewAcquisition(
	prefs PreferenceStore,
	locator Locator,
	weatherFetcher WeatherFetcher,
	geocoder ReverseGeocoder,
	presenter Presenter,
	metrics collector,
	initialMaxAge, refreshMaxAge time.Duration,
	logger zerolog.Logger,
) *Acquisition {
	logger = logger.With().Str("component", "WeatherAcquisition").Logger()
	return &Acquisition{
		prefs:         prefs,
		locator:       locator,
		weather:       weatherFetcher,
		geocoder:      geocoder,
		presenter:     presenter,
		metrics:       metrics,
		initialMaxAge: initialMaxAge,
		refreshMaxAge: refreshMaxAge,
		log:           logger,
	}
}

// State returns a copy of the current observable state.
func (a *Acquisition) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return State{Snapshot: a.snapshot, Place: a.place, Err: a.lastErr}
}

// LoadInitial runs once when the display surface becomes active. A saved
// city short-circuits the device-location path entirely.
func (a *Acquisition) LoadInitial(ctx context.Context) {
	city, ok, err := a.prefs.Get(ctx, preferences.KeySelectedCity)
	if err != nil {
		// An unreadable preference behaves like an absent one.
		a.log.Error().Err(err).Msg("failed to read saved city")
		a.acquireFromDevice(ctx, a.initialMaxAge, false)
		return
	}
	if !ok {
		a.acquireFromDevice(ctx, a.initialMaxAge, false)
		return
	}

	gen := a.begin()
	a.setPlace(gen, city)
	a.fetchByCity(ctx, gen, city)
}

// RefreshFromDeviceLocation is the explicit user-requested refresh.
func (a *Acquisition) RefreshFromDeviceLocation(ctx context.Context) {
	a.acquireFromDevice(ctx, a.refreshMaxAge, true)
}

// SwitchCity persists the selection, then fetches by name. The name is
// committed exactly as the caller provides it.
func (a *Acquisition) SwitchCity(ctx context.Context, name string) {
	gen := a.begin()

	if err := a.prefs.Set(ctx, preferences.KeySelectedCity, name); err != nil {
		// The fetch still proceeds; only durability suffered.
		a.log.Error().Err(err).Str("city", name).Msg("failed to persist selected city")
	}

	a.setPlace(gen, name)
	a.fetchByCity(ctx, gen, name)
}

func (a *Acquisition) acquireFromDevice(ctx context.Context, maxAge time.Duration, manual bool) {
	gen := a.begin()

	granted, err := a.locator.RequestPermission(ctx)
	if err != nil || !granted {
		wfErr := &models.WorkflowError{Kind: models.ErrPermissionDenied, Message: "Location permission denied"}
		a.fail(gen, wfErr)
		if manual {
			a.presenter.Present(models.Alert{
				Title:       "Permission Denied",
				Message:     "Location permission is required to refresh your current location. Please select a city manually.",
				ConfirmText: "Choose City",
				Action:      models.AlertActionOpenSearch,
			})
		}
		return
	}

	coord, err := a.locator.Current(ctx, maxAge)
	if err != nil {
		wfErr := &models.WorkflowError{Kind: models.ErrLocationTimeout, Message: err.Error()}
		a.fail(gen, wfErr)
		a.presenter.Present(models.Alert{
			Title:       "Location Unavailable",
			Message:     "We couldn't detect your location. Please select a city manually.",
			ConfirmText: "Choose City",
			Action:      models.AlertActionOpenSearch,
		})
		return
	}

	// The coordinate fetch and the label resolution run independently; the
	// forecast never waits on the display label.
	labelDone := make(chan struct{})
	go func() {
		defer close(labelDone)
		a.resolveLabel(ctx, gen, coord)
	}()

	a.fetchByCoords(ctx, gen, coord)
	<-labelDone
}

func (a *Acquisition) fetchByCity(ctx context.Context, gen uint64, city string) {
	snapshot, err := a.weather.ForecastByCity(ctx, city)
	a.finishFetch(gen, snapshot, err)
}

func (a *Acquisition) fetchByCoords(ctx context.Context, gen uint64, coord models.Coordinate) {
	snapshot, err := a.weather.ForecastByCoords(ctx, coord)
	a.finishFetch(gen, snapshot, err)
}

func (a *Acquisition) finishFetch(gen uint64, snapshot models.WeatherSnapshot, err error) {
	if err != nil {
		wfErr := classify(err)
		a.metrics.RecordProviderRequest("weatherapi", "error")
		a.fail(gen, wfErr)
		if wfErr.Kind == models.ErrProvider {
			a.presenter.Present(models.Alert{
				Title:       "WeatherAPI Error",
				Message:     wfErr.Message,
				ConfirmText: "OK",
			})
		}
		return
	}

	a.metrics.RecordProviderRequest("weatherapi", "success")
	a.setSnapshot(gen, &snapshot)
}

// resolveLabel turns coordinates into a display PlaceName. Failure is fully
// recovered with a synthesized coordinate string, which is never persisted.
func (a *Acquisition) resolveLabel(ctx context.Context, gen uint64, coord models.Coordinate) {
	place, err := a.geocoder.Reverse(ctx, coord)
	if err != nil {
		a.log.Warn().Err(err).Msg("reverse geocoding failed, using coordinate label")
		a.setPlace(gen, fmt.Sprintf("%.2f, %.2f", coord.Latitude, coord.Longitude))
		return
	}

	name := place.City
	if name == "" {
		name = place.Subregion
	}
	if name == "" {
		name = place.Region
	}
	if name == "" {
		// A label with no usable name is display-only, like the coordinate
		// fallback; persisting it would poison the next launch.
		a.setPlace(gen, "Unknown")
		return
	}

	// Persist only if the label landed; a superseded resolution must not
	// overwrite a newer selection's saved city either.
	if !a.setPlace(gen, name) {
		return
	}

	if err := a.prefs.Set(ctx, preferences.KeySelectedCity, name); err != nil {
		a.log.Error().Err(err).Str("city", name).Msg("failed to persist resolved city")
	}
}

func classify(err error) *models.WorkflowError {
	var provErr *weather.ProviderError
	if errors.As(err, &provErr) {
		return &models.WorkflowError{Kind: models.ErrProvider, Message: provErr.Message}
	}
	return &models.WorkflowError{Kind: models.ErrNetwork, Message: err.Error()}
}

// begin opens a new request generation; state writes from superseded
// generations are discarded rather than cancelled.
func (a *Acquisition) begin() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.lastErr = nil
	return a.gen
}

// setPlace reports whether the write landed, so callers can chain side
// effects (like persistence) on the same generation check.
func (a *Acquisition) setPlace(gen uint64, place string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return false
	}
	a.place = place
	return true
}

func (a *Acquisition) setSnapshot(gen uint64, snapshot *models.WeatherSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	a.snapshot = snapshot
	a.lastErr = nil
}

func (a *Acquisition) fail(gen uint64, wfErr *models.WorkflowError) {
	a.metrics.RecordWorkflowError(string(wfErr.Kind))
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	// The previous snapshot stays visible; only the error slot changes.
	a.lastErr = wfErr
	a.log.Error().
		Str("kind", string(wfErr.Kind)).
		Str("message", wfErr.Message).
		Msg("weather acquisition failed")
}
