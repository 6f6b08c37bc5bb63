package workflow

import (
	"sync"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

// AlertBox holds the single pending modal alert. A newer alert replaces the
// pending one; the presentation layer reads and dismisses it.
type AlertBox struct {
	mu    sync.Mutex
	alert *models.Alert
}

func NewAlertBox() *AlertBox {
	return &AlertBox{}
}

// Present implements Presenter.
func (b *AlertBox) Present(alert models.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alert = &alert
}

// Current returns the pending alert, or nil.
func (b *AlertBox) Current() *models.Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alert
}

// Dismiss acknowledges the pending alert.
func (b *AlertBox) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alert = nil
}
