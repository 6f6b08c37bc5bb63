package auth

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

// Holder is the process-wide observable session slot. It has exactly one
// writer (the auth flows and the refresher); everyone else reads or
// subscribes. A nil session means signed out.
type Holder struct {
	log zerolog.Logger

	mu      sync.RWMutex
	current *models.Session
	subs    []chan *models.Session
}

func NewHolder(logger zerolog.Logger) *Holder {
	logger = logger.With().Str("component", "SessionHolder").Logger()
	return &Holder{log: logger}
}

// Current returns the active session, or nil when signed out.
func (h *Holder) Current() *models.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Set publishes a new session to every subscriber.
func (h *Holder) Set(session *models.Session) {
	h.mu.Lock()
	h.current = session
	subs := make([]chan *models.Session, len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- session:
		default:
			h.log.Warn().Msg("session subscriber not keeping up, notification dropped")
		}
	}

	if session != nil {
		h.log.Info().Str("user_id", session.UserID).Msg("session updated")
	} else {
		h.log.Info().Msg("session cleared")
	}
}

// Clear tears the session down (sign-out).
func (h *Holder) Clear() {
	h.Set(nil)
}

// Subscribe returns a channel delivering every session change. The channel is
// buffered; slow consumers miss intermediate states rather than block the
// writer.
func (h *Holder) Subscribe() <-chan *models.Session {
	ch := make(chan *models.Session, 1)
	h.mu.Lock()
	h.subs = append(h.subs, ch)
	h.mu.Unlock()
	return ch
}
