package workflow_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
	"github.com/Yassin-Kassem/weather-news-api/internal/preferences"
	"github.com/Yassin-Kassem/weather-news-api/internal/services/weather"
	"github.com/Yassin-Kassem/weather-news-api/internal/workflow"
)

type fakePrefs struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{values: map[string]string{}}
}

func (f *fakePrefs) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakePrefs) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakePrefs) saved(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	return value, ok
}

type fakeLocator struct {
	granted     bool
	permErr     error
	coord       models.Coordinate
	currentErr  error
	permCalls   int
	locateCalls int
}

func (f *fakeLocator) RequestPermission(_ context.Context) (bool, error) {
	f.permCalls++
	return f.granted, f.permErr
}

func (f *fakeLocator) Current(_ context.Context, _ time.Duration) (models.Coordinate, error) {
	f.locateCalls++
	if f.currentErr != nil {
		return models.Coordinate{}, f.currentErr
	}
	return f.coord, nil
}

type fakeFetcher struct {
	mu         sync.Mutex
	snapshot   models.WeatherSnapshot
	err        error
	cityCalls  []string
	coordCalls []models.Coordinate
	gate       chan struct{}
}

// Outcome is captured at call entry, so a slow in-flight request keeps the
// result it started with even if the fake is reconfigured afterwards.
func (f *fakeFetcher) ForecastByCity(_ context.Context, city string) (models.WeatherSnapshot, error) {
	f.mu.Lock()
	f.cityCalls = append(f.cityCalls, city)
	snapshot, err, gate := f.snapshot, f.err, f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return snapshot, err
}

func (f *fakeFetcher) ForecastByCoords(_ context.Context, coord models.Coordinate) (models.WeatherSnapshot, error) {
	f.mu.Lock()
	f.coordCalls = append(f.coordCalls, coord)
	snapshot, err, gate := f.snapshot, f.err, f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return snapshot, err
}

type fakeGeocoder struct {
	mu    sync.Mutex
	place models.Place
	err   error
	calls int
	gate  chan struct{}
}

func (f *fakeGeocoder) Reverse(_ context.Context, _ models.Coordinate) (models.Place, error) {
	f.mu.Lock()
	f.calls++
	place, err, gate := f.place, f.err, f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return place, err
}

func (f *fakeGeocoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCollector struct{}

func (fakeCollector) RecordProviderRequest(string, string) {}
func (fakeCollector) RecordWorkflowError(string)           {}
func (fakeCollector) RecordSearch()                        {}

type fixture struct {
	prefs    *fakePrefs
	locator  *fakeLocator
	fetcher  *fakeFetcher
	geocoder *fakeGeocoder
	alerts   *workflow.AlertBox
	wf       *workflow.Acquisition
}

func newFixture() *fixture {
	f := &fixture{
		prefs: newFakePrefs(),
		locator: &fakeLocator{
			granted: true,
			coord:   models.Coordinate{Latitude: 50.45, Longitude: 30.52},
		},
		fetcher: &fakeFetcher{
			snapshot: models.WeatherSnapshot{
				Current: models.CurrentConditions{Temperature: 18, Condition: "Cloudy"},
			},
		},
		geocoder: &fakeGeocoder{place: models.Place{City: "Kyiv", Region: "Kyiv Oblast"}},
		alerts:   workflow.NewAlertBox(),
	}
	f.wf = workflow.NewAcquisition(
		f.prefs, f.locator, f.fetcher, f.geocoder, f.alerts, fakeCollector{},
		60*time.Second, 30*time.Second, zerolog.Nop(),
	)
	return f
}

func TestLoadInitial_SavedCityShortCircuitsSensor(t *testing.T) {
	f := newFixture()
	f.prefs.values[preferences.KeySelectedCity] = "London"

	f.wf.LoadInitial(context.Background())

	state := f.wf.State()
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, "London", state.Place)
	assert.Nil(t, state.Err)

	assert.Equal(t, []string{"London"}, f.fetcher.cityCalls)
	assert.Zero(t, f.locator.permCalls)
	assert.Zero(t, f.locator.locateCalls)
}

func TestLoadInitial_NoSavedCityUsesDeviceLocation(t *testing.T) {
	f := newFixture()

	f.wf.LoadInitial(context.Background())

	state := f.wf.State()
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, "Kyiv", state.Place)
	assert.Nil(t, state.Err)

	require.Len(t, f.fetcher.coordCalls, 1)
	assert.Equal(t, 50.45, f.fetcher.coordCalls[0].Latitude)

	// The resolved name becomes the new saved city.
	saved, ok := f.prefs.saved(preferences.KeySelectedCity)
	assert.True(t, ok)
	assert.Equal(t, "Kyiv", saved)
}

func TestLoadInitial_UnreadablePreferenceFallsBackToDevice(t *testing.T) {
	f := newFixture()
	f.prefs.getErr = errors.New("disk failure")

	f.wf.LoadInitial(context.Background())

	state := f.wf.State()
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, 1, f.locator.locateCalls)
}

func TestLoadInitial_SavedCityProviderErrorNeverFallsBack(t *testing.T) {
	f := newFixture()
	f.prefs.values[preferences.KeySelectedCity] = "Atlantis"
	f.fetcher.err = &weather.ProviderError{
		StatusCode: http.StatusBadRequest,
		Message:    "No matching location found.",
	}

	f.wf.LoadInitial(context.Background())

	state := f.wf.State()
	assert.Nil(t, state.Snapshot)
	require.NotNil(t, state.Err)
	assert.Equal(t, models.ErrProvider, state.Err.Kind)
	assert.Equal(t, "No matching location found.", state.Err.Message)

	// Trusted preference: the sensor is never consulted as a fallback.
	assert.Zero(t, f.locator.permCalls)
	assert.Zero(t, f.locator.locateCalls)

	alert := f.alerts.Current()
	require.NotNil(t, alert)
	assert.Equal(t, "WeatherAPI Error", alert.Title)
}

func TestAcquire_GeocodeFailureYieldsCoordinateLabel(t *testing.T) {
	f := newFixture()
	f.geocoder.err = errors.New("nominatim down")

	f.wf.LoadInitial(context.Background())

	state := f.wf.State()
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, "50.45, 30.52", state.Place)
	assert.Nil(t, state.Err)

	// A synthesized coordinate label is never persisted.
	_, ok := f.prefs.saved(preferences.KeySelectedCity)
	assert.False(t, ok)
}

func TestAcquire_LabelFallbackChain(t *testing.T) {
	cases := []struct {
		name  string
		place models.Place
		want  string
	}{
		{"city wins", models.Place{City: "Kyiv", Subregion: "KR", Region: "KO"}, "Kyiv"},
		{"subregion next", models.Place{Subregion: "Bucha Raion", Region: "Kyiv Oblast"}, "Bucha Raion"},
		{"region next", models.Place{Region: "Kyiv Oblast"}, "Kyiv Oblast"},
		{"unknown last", models.Place{}, "Unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.geocoder.place = tc.place

			f.wf.LoadInitial(context.Background())

			assert.Equal(t, tc.want, f.wf.State().Place)
		})
	}
}

func TestRefresh_PermissionDeniedRaisesAlert(t *testing.T) {
	f := newFixture()
	f.locator.granted = false

	f.wf.RefreshFromDeviceLocation(context.Background())

	state := f.wf.State()
	require.NotNil(t, state.Err)
	assert.Equal(t, models.ErrPermissionDenied, state.Err.Kind)

	alert := f.alerts.Current()
	require.NotNil(t, alert)
	assert.Equal(t, "Permission Denied", alert.Title)
	assert.Equal(t, "Choose City", alert.ConfirmText)
	assert.Equal(t, models.AlertActionOpenSearch, alert.Action)

	assert.Zero(t, f.locator.locateCalls)
	assert.Empty(t, f.fetcher.coordCalls)
}

func TestLoadInitial_PermissionDeniedStaysQuiet(t *testing.T) {
	f := newFixture()
	f.locator.granted = false

	f.wf.LoadInitial(context.Background())

	state := f.wf.State()
	require.NotNil(t, state.Err)
	assert.Equal(t, models.ErrPermissionDenied, state.Err.Kind)

	// The automatic initial load does not interrupt the user.
	assert.Nil(t, f.alerts.Current())
}

func TestAcquire_LocationFailureRaisesAlert(t *testing.T) {
	f := newFixture()
	f.locator.currentErr = errors.New("context deadline exceeded")

	f.wf.LoadInitial(context.Background())

	state := f.wf.State()
	require.NotNil(t, state.Err)
	assert.Equal(t, models.ErrLocationTimeout, state.Err.Kind)

	alert := f.alerts.Current()
	require.NotNil(t, alert)
	assert.Equal(t, "Location Unavailable", alert.Title)
	assert.Equal(t, models.AlertActionOpenSearch, alert.Action)
}

func TestAcquire_NetworkErrorIsStateOnly(t *testing.T) {
	f := newFixture()
	f.fetcher.err = errors.New("connection refused")

	f.wf.LoadInitial(context.Background())

	state := f.wf.State()
	require.NotNil(t, state.Err)
	assert.Equal(t, models.ErrNetwork, state.Err.Kind)

	// Network failures surface in state but never as a modal interruption.
	assert.Nil(t, f.alerts.Current())
}

func TestFetchFailure_KeepsPreviousSnapshot(t *testing.T) {
	f := newFixture()
	f.prefs.values[preferences.KeySelectedCity] = "London"

	f.wf.LoadInitial(context.Background())
	require.NotNil(t, f.wf.State().Snapshot)

	f.fetcher.err = errors.New("connection refused")
	f.wf.SwitchCity(context.Background(), "Paris")

	state := f.wf.State()
	// The stale snapshot stays on screen next to the error.
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, "Cloudy", state.Snapshot.Current.Condition)
	require.NotNil(t, state.Err)
	assert.Equal(t, models.ErrNetwork, state.Err.Kind)
}

func TestSwitchCity_PersistsBeforeFetch(t *testing.T) {
	f := newFixture()

	f.wf.SwitchCity(context.Background(), "London")

	saved, ok := f.prefs.saved(preferences.KeySelectedCity)
	assert.True(t, ok)
	assert.Equal(t, "London", saved)
	assert.Equal(t, []string{"London"}, f.fetcher.cityCalls)
	assert.Equal(t, "London", f.wf.State().Place)
}

func TestSwitchCity_PersistFailureStillFetches(t *testing.T) {
	f := newFixture()
	f.prefs.setErr = errors.New("disk full")

	f.wf.SwitchCity(context.Background(), "London")

	assert.Equal(t, []string{"London"}, f.fetcher.cityCalls)
	require.NotNil(t, f.wf.State().Snapshot)
}

func TestSupersededRequestCannotOverwriteNewerState(t *testing.T) {
	f := newFixture()
	f.prefs.values[preferences.KeySelectedCity] = "London"

	gate := make(chan struct{})
	f.fetcher.mu.Lock()
	f.fetcher.gate = gate
	f.fetcher.err = errors.New("connection reset")
	f.fetcher.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.wf.LoadInitial(context.Background())
	}()

	// Wait for the first fetch to be in flight.
	require.Eventually(t, func() bool {
		f.fetcher.mu.Lock()
		defer f.fetcher.mu.Unlock()
		return len(f.fetcher.cityCalls) == 1
	}, time.Second, 5*time.Millisecond)

	// A newer request supersedes it and completes first, successfully.
	f.fetcher.mu.Lock()
	f.fetcher.gate = nil
	f.fetcher.err = nil
	f.fetcher.mu.Unlock()
	f.wf.SwitchCity(context.Background(), "Paris")

	// Now the stale request finishes with its failure; it must change nothing.
	close(gate)
	<-done

	state := f.wf.State()
	assert.Equal(t, "Paris", state.Place)
	require.NotNil(t, state.Snapshot)
	assert.Nil(t, state.Err)
}

func TestSupersededGeocodeCannotOverwriteSavedCity(t *testing.T) {
	f := newFixture()

	gate := make(chan struct{})
	f.geocoder.mu.Lock()
	f.geocoder.gate = gate
	f.geocoder.place = models.Place{City: "Kyiv"}
	f.geocoder.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.wf.RefreshFromDeviceLocation(context.Background())
	}()

	// Wait for the label resolution to be in flight.
	require.Eventually(t, func() bool {
		return f.geocoder.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// The user makes an explicit choice while the geocode is still pending.
	f.wf.SwitchCity(context.Background(), "Paris")

	close(gate)
	<-done

	// The stale resolution must touch neither the display nor the saved city.
	assert.Equal(t, "Paris", f.wf.State().Place)
	saved, ok := f.prefs.saved(preferences.KeySelectedCity)
	require.True(t, ok)
	assert.Equal(t, "Paris", saved)
}
