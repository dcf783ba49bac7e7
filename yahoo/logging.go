package yahoo

import (
	"context"
	"time"

	"github.com/go-kit/log"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

// loggingService decorates a yahoo.Service with logging
type loggingService struct {
	next   Service
	logger log.Logger
}

// NewLoggingService return a new logging service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Quote(ctx context.Context, ticker string) (rate treasury.Rate, asOf time.Time, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "quote",
			"ticker", ticker,
			"rate", rate,
			"as_of", asOf,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Quote(ctx, ticker)
}

func (s *loggingService) History(ctx context.Context, ticker string, from, to time.Time) (series treasury.Series, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "history",
			"ticker", ticker,
			"from", from.Format(time.DateOnly),
			"to", to.Format(time.DateOnly),
			"points", series.Len(),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.History(ctx, ticker, from, to)
}
