package rates

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

// instrumentingService decorates a rates.Service with Prometheus metrics
type instrumentingService struct {
	lookups   *prometheus.CounterVec
	histories *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	next      Service
}

// NewInstrumentingService registers the rate metrics on reg and returns the decorated Service.
func NewInstrumentingService(reg prometheus.Registerer, s Service) Service {
	factory := promauto.With(reg)
	return &instrumentingService{
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_rate_lookups_total",
				Help: "Spot rate lookups by provenance of the returned rate",
			},
			[]string{"source"},
		),
		histories: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_history_lookups_total",
				Help: "Rate history lookups, empty when no data was available",
			},
			[]string{"result"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "treasury_rate_lookup_seconds",
				Help:    "Duration of rate lookups",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		next: s,
	}
}

func (s *instrumentingService) Rate(ctx context.Context, from, to treasury.Currency) treasury.Quote {
	defer func(begin time.Time) {
		s.latency.WithLabelValues("rate").Observe(time.Since(begin).Seconds())
	}(time.Now())

	q := s.next.Rate(ctx, from, to)
	s.lookups.WithLabelValues(q.Source.String()).Inc()
	return q
}

func (s *instrumentingService) History(ctx context.Context, from, to treasury.Currency, days int) treasury.Series {
	defer func(begin time.Time) {
		s.latency.WithLabelValues("history").Observe(time.Since(begin).Seconds())
	}(time.Now())

	series := s.next.History(ctx, from, to, days)
	result := "ok"
	if series.Len() == 0 {
		result = "empty"
	}
	s.histories.WithLabelValues(result).Inc()
	return series
}
