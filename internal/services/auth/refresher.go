package auth

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

const refreshTimeout = 15 * time.Second

type sessionRefresher interface {
	Refresh(ctx context.Context, session models.Session) (models.Session, error)
}

// Refresher keeps the active session's tokens fresh on a cron schedule and
// publishes each renewed session through the holder's notification stream.
type Refresher struct {
	client sessionRefresher
	holder *Holder
	spec   string
	log    zerolog.Logger
	cron   *cron.Cron
}

func NewRefresher(client sessionRefresher, holder *Holder, spec string, logger zerolog.Logger) *Refresher {
	logger = logger.With().Str("component", "SessionRefresher").Logger()
	return &Refresher{client: client, holder: holder, spec: spec, log: logger}
}

func (r *Refresher) Start() error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.spec, r.refreshOnce); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info().Str("spec", r.spec).Msg("session refresher started")
	return nil
}

func (r *Refresher) Stop() {
	if r.cron != nil {
		r.cron.Stop()
		r.log.Info().Msg("session refresher stopped")
	}
}

func (r *Refresher) refreshOnce() {
	session := r.holder.Current()
	if session == nil || session.RefreshToken == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	refreshed, err := r.client.Refresh(ctx, *session)
	if err != nil {
		// No retry here; the next scheduled run is the retry.
		r.log.Error().Err(err).Msg("session refresh failed")
		return
	}

	r.holder.Set(&refreshed)
}
