//go:build unit

package weather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	weatherHandler "github.com/Yassin-Kassem/weather-news-api/internal/handlers/weather"
	"github.com/Yassin-Kassem/weather-news-api/internal/models"
	"github.com/Yassin-Kassem/weather-news-api/internal/workflow"
)

type fakeAcquisition struct {
	mu           sync.Mutex
	loadCalls    int
	refreshCalls int
	switchedTo   []string
	state        workflow.State
}

func (f *fakeAcquisition) LoadInitial(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
}

func (f *fakeAcquisition) RefreshFromDeviceLocation(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
}

func (f *fakeAcquisition) SwitchCity(_ context.Context, city string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switchedTo = append(f.switchedTo, city)
}

func (f *fakeAcquisition) State() workflow.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func newContext(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return rec, c
}

func TestGetWeather_FirstCallLoadsOnce(t *testing.T) {
	wf := &fakeAcquisition{
		state: workflow.State{
			Snapshot: &models.WeatherSnapshot{
				Current: models.CurrentConditions{Temperature: 18},
			},
			Place: "Kyiv",
		},
	}
	h := weatherHandler.NewHandler(wf, workflow.NewAlertBox(), zerolog.Nop())

	for i := 0; i < 3; i++ {
		rec, c := newContext(t, http.MethodGet, "/weather", "")
		h.GetWeather(c)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Kyiv")
	}

	assert.Equal(t, 1, wf.loadCalls)
}

func TestSwitchCity_RequiresCity(t *testing.T) {
	wf := &fakeAcquisition{}
	h := weatherHandler.NewHandler(wf, workflow.NewAlertBox(), zerolog.Nop())

	rec, c := newContext(t, http.MethodPost, "/weather/city", `{}`)
	h.SwitchCity(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, wf.switchedTo)
}

func TestSwitchCity_ForwardsToWorkflow(t *testing.T) {
	wf := &fakeAcquisition{state: workflow.State{Place: "London"}}
	h := weatherHandler.NewHandler(wf, workflow.NewAlertBox(), zerolog.Nop())

	rec, c := newContext(t, http.MethodPost, "/weather/city", `{"city": "London"}`)
	h.SwitchCity(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"London"}, wf.switchedTo)
}

func TestDismissAlert(t *testing.T) {
	alerts := workflow.NewAlertBox()
	alerts.Present(models.Alert{Title: "Location Unavailable"})

	h := weatherHandler.NewHandler(&fakeAcquisition{}, alerts, zerolog.Nop())

	rec, c := newContext(t, http.MethodPost, "/weather/alert/dismiss", "")
	h.DismissAlert(c)
	// A bodyless status is not flushed by CreateTestContext on its own.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, alerts.Current())
}

func TestRefresh_SurfacesAlertInState(t *testing.T) {
	wf := &fakeAcquisition{
		state: workflow.State{
			Err: &models.WorkflowError{Kind: models.ErrPermissionDenied, Message: "Location permission denied"},
		},
	}
	alerts := workflow.NewAlertBox()
	alerts.Present(models.Alert{Title: "Permission Denied", ConfirmText: "Choose City"})

	h := weatherHandler.NewHandler(wf, alerts, zerolog.Nop())

	rec, c := newContext(t, http.MethodPost, "/weather/refresh", "")
	h.Refresh(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, wf.refreshCalls)
	assert.Contains(t, rec.Body.String(), "Permission Denied")
	assert.Contains(t, rec.Body.String(), "permission_denied")
}
