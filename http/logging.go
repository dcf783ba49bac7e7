package http

import (
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/google/uuid"
)

// RequestIDHeader carries the id of a request, generated when the client sends none.
const RequestIDHeader = "X-Request-Id"

// statusRecorder remembers the status written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// NewLoggingHandler logs one line per request, tagged with its request id.
func NewLoggingHandler(logger log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		rw.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: rw, status: http.StatusOK}
		defer func(begin time.Time) {
			logger.Log(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"took", time.Since(begin),
			)
		}(time.Now())
		next.ServeHTTP(rec, r)
	})
}
