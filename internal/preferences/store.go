package preferences

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

// KeySelectedCity is the only preference the application persists.
const KeySelectedCity = "selectedCity"

// Store is a durable single-slot key-value store backed by sqlite.
// Last writer wins; there is only one logical writer at a time.
type Store struct {
	DB  *sql.DB
	log zerolog.Logger
}

func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	logger = logger.With().Str("component", "PreferenceStore").Logger()
	return &Store{DB: db, log: logger}
}

// Get returns the stored value for key and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.log.Error().Err(err).Ctx(ctx).Str("key", key).Msg("preference read failed")
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, overwriting any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		s.log.Error().Err(err).Ctx(ctx).Str("key", key).Msg("preference write failed")
		return err
	}
	s.log.Debug().Ctx(ctx).Str("key", key).Str("value", value).Msg("preference saved")
	return nil
}
