package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

const searchRequestTimeout = 10 * time.Second

type CitySearcher interface {
	Search(ctx context.Context, partial string) ([]models.CityMatch, error)
}

// SearchState is what the presentation layer renders for the search surface.
type SearchState struct {
	Query   string             `json:"query"`
	Loading bool               `json:"loading"`
	Results []models.CityMatch `json:"results"`
}

// Search converts free-text input into city matches without issuing one
// request per keystroke. A single pending timer is kept; each input change
// cancels it, and only input that survives the quiet period untouched is
// dispatched. Results keep provider order.
type Search struct {
	searcher CitySearcher
	clock    clockwork.Clock
	quiet    time.Duration
	minChars int
	metrics  collector
	log      zerolog.Logger

	mu      sync.Mutex
	timer   clockwork.Timer
	query   string
	loading bool
	results []models.CityMatch
}

func NewSearch(
	searcher CitySearcher,
	clock clockwork.Clock,
	quiet time.Duration,
	minChars int,
	metrics collector,
	logger zerolog.Logger,
) *Search {
	logger = logger.With().Str("component", "CitySearch").Logger()
	return &Search{
		searcher: searcher,
		clock:    clock,
		quiet:    quiet,
		minChars: minChars,
		metrics:  metrics,
		log:      logger,
	}
}

// SetQuery registers an input change. Input below the minimum length clears
// the results immediately and schedules nothing. Otherwise the loading
// indicator turns on right away, while the request itself waits out the
// quiet period.
func (s *Search) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = query

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if len([]rune(query)) < s.minChars {
		s.results = nil
		s.loading = false
		return
	}

	s.loading = true
	s.timer = s.clock.AfterFunc(s.quiet, func() {
		s.dispatch(query)
	})
}

// State returns a copy of the current search state.
func (s *Search) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := make([]models.CityMatch, len(s.results))
	copy(results, s.results)
	return SearchState{Query: s.query, Loading: s.loading, Results: results}
}

func (s *Search) dispatch(query string) {
	s.metrics.RecordSearch()

	ctx, cancel := context.WithTimeout(context.Background(), searchRequestTimeout)
	defer cancel()

	matches, err := s.searcher.Search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The input moved on while the request was in flight; its outcome no
	// longer applies.
	if query != s.query {
		return
	}

	s.loading = false
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("city search failed")
		s.results = nil
		return
	}
	s.results = matches
}
