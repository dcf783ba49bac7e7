package rates

import (
	"context"
	"time"

	"github.com/go-kit/log"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

// loggingService decorates a rates.Service with logging
type loggingService struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a new instance of a logging Service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Rate(ctx context.Context, from, to treasury.Currency) (q treasury.Quote) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "rate",
			"from", from,
			"to", to,
			"rate", q.Rate,
			"source", q.Source,
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.Rate(ctx, from, to)
}

func (s *loggingService) History(ctx context.Context, from, to treasury.Currency, days int) (series treasury.Series) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "history",
			"from", from,
			"to", to,
			"days", days,
			"points", series.Len(),
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.History(ctx, from, to, days)
}
