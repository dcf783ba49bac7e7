package yahoo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

// cachingService decorates a yahoo.Service with a cache of quotes and histories.
// Entries expire after ttl. Only successful responses are cached.
// The cachingService is concurrency safe.
type cachingService struct {
	// next the service being decorated with a cache
	next Service

	// quotes cached by ticker
	quotes map[string]cachedQuote
	// histories cached by ticker and window
	histories map[string]cachedHistory

	// ttl how long an entry stays fresh
	ttl time.Duration

	// lock synchronizes access to the caches
	lock sync.RWMutex

	// now the clock, replaced in tests
	now func() time.Time

	logger log.Logger
}

type cachedQuote struct {
	rate    treasury.Rate
	asOf    time.Time
	fetched time.Time
}

type cachedHistory struct {
	series  treasury.Series
	fetched time.Time
}

// NewCachingService returns a new caching Service. A non-positive ttl disables caching.
func NewCachingService(ttl time.Duration, logger log.Logger, s Service) Service {
	if ttl <= 0 {
		return s
	}
	return &cachingService{
		next:      s,
		quotes:    map[string]cachedQuote{},
		histories: map[string]cachedHistory{},
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// Quote looks up a quote and caches the result
func (s *cachingService) Quote(ctx context.Context, ticker string) (treasury.Rate, time.Time, error) {
	s.lock.RLock()
	cached, ok := s.quotes[ticker]
	s.lock.RUnlock()

	if ok && s.fresh(cached.fetched) {
		return cached.rate, cached.asOf, nil
	}

	// concurrent misses on the same ticker each hit the source
	s.logger.Log("msg", "quote cache miss", "ticker", ticker)
	rate, asOf, err := s.next.Quote(ctx, ticker)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("refreshing quote [%v]: %w", ticker, err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.quotes[ticker] = cachedQuote{rate: rate, asOf: asOf, fetched: s.now()}
	return rate, asOf, nil
}

// History looks up a history and caches the result. The window is keyed by day.
func (s *cachingService) History(ctx context.Context, ticker string, from, to time.Time) (treasury.Series, error) {
	key := fmt.Sprintf("%v %v %v", ticker, from.UTC().Format(time.DateOnly), to.UTC().Format(time.DateOnly))

	s.lock.RLock()
	cached, ok := s.histories[key]
	s.lock.RUnlock()

	if ok && s.fresh(cached.fetched) {
		return cached.series.Clone(), nil
	}

	s.logger.Log("msg", "history cache miss", "ticker", ticker)
	series, err := s.next.History(ctx, ticker, from, to)
	if err != nil {
		return series, fmt.Errorf("refreshing history [%v]: %w", ticker, err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.histories[key] = cachedHistory{series: series.Clone(), fetched: s.now()}
	return series, nil
}

// fresh reports whether an entry fetched at t is still valid.
func (s *cachingService) fresh(t time.Time) bool {
	return s.now().Sub(t) < s.ttl
}
