package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/exposure"
	"github.com/Anne71-cloud/treasury-dashboard/render"
)

// maxBodyBytes limits the size of posted JSON documents
const maxBodyBytes = 1 << 20

// Server dependencies for HTTP Server functions
type Server struct {
	Builder *dashboard.Builder
	// Defaults the base currency and the positions shown when a request does not name them
	Defaults dashboard.Request

	gatherer prometheus.Gatherer
	logger   log.Logger
	router   http.ServeMux
}

func NewServer(b *dashboard.Builder, defaults dashboard.Request, g prometheus.Gatherer, logger log.Logger) *Server {
	server := &Server{
		Builder:  b,
		Defaults: defaults,
		gatherer: g,
		logger:   logger,
		router:   http.ServeMux{},
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.router.Handle("/", allow(s.index(), http.MethodGet))
	s.router.Handle("/api/dashboard", allow(s.dashboard(), http.MethodGet, http.MethodPost))
	s.router.Handle("/api/rate", allow(s.rate(), http.MethodGet))
	s.router.Handle("/api/history", allow(s.history(), http.MethodGet))
	s.router.Handle("/api/exposure", allow(s.exposure(), http.MethodPost))
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.router.Handle("/healthz", allow(s.health(), http.MethodGet))
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(rw, r)
}

// index produces the HTML dashboard of the configured positions
func (s *Server) index() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(rw, http.StatusNotFound, "not found")
			return
		}

		d, err := s.Builder.Build(r.Context(), s.request(r))
		if err != nil {
			s.buildError(rw, err)
			return
		}

		page, err := render.HTML(d)
		if err != nil {
			level.Error(s.logger).Log("msg", "rendering dashboard", "err", err)
			writeError(rw, http.StatusInternalServerError, "failed rendering")
			return
		}
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		rw.Write(page)
	}
}

// dashboard produces the JSON dashboard, of the configured positions on GET or of the
// posted positions on POST
func (s *Server) dashboard() http.HandlerFunc {

	// request for unmarshalling JSON requests posted by clients
	type request struct {
		Base      treasury.Currency   `json:"base"`
		Trend     treasury.Currency   `json:"trend"`
		Positions []treasury.Position `json:"positions"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		req := s.request(r)
		if r.Method == http.MethodPost {
			var body request
			if err := decode(rw, r, &body); err != nil {
				writeError(rw, http.StatusBadRequest, err.Error())
				return
			}
			if body.Base != "" {
				req.Base = treasury.ParseCurrency(string(body.Base))
			}
			req.Trend = treasury.ParseCurrency(string(body.Trend))
			if body.Positions != nil {
				req.Positions = make([]treasury.Position, len(body.Positions))
				for i, p := range body.Positions {
					if err := p.Validate(); err != nil {
						writeError(rw, http.StatusBadRequest, fmt.Sprintf("position %v: %v", i, err))
						return
					}
					p.Currency = treasury.ParseCurrency(string(p.Currency))
					req.Positions[i] = p
				}
			}
			req.Trend = trendFor(req.Base, req.Trend)
		}

		d, err := s.Builder.Build(r.Context(), req)
		if err != nil {
			s.buildError(rw, err)
			return
		}
		writeJSON(rw, http.StatusOK, d)
	}
}

// rate produces the spot rate of a currency pair
func (s *Server) rate() http.HandlerFunc {

	// response for marshalling JSON responses to return to clients
	type response struct {
		From   treasury.Currency `json:"from"`
		To     treasury.Currency `json:"to"`
		Rate   treasury.Rate     `json:"rate"`
		Source treasury.Source   `json:"source"`
		AsOf   *time.Time        `json:"asOf,omitempty"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		from, to, err := pair(r)
		if err != nil {
			writeError(rw, http.StatusBadRequest, err.Error())
			return
		}

		q := s.Builder.Rates.Rate(r.Context(), from, to)
		resp := response{From: from, To: to, Rate: q.Rate, Source: q.Source}
		if !q.AsOf.IsZero() {
			resp.AsOf = &q.AsOf
		}
		writeJSON(rw, http.StatusOK, resp)
	}
}

// history produces the daily rates of a currency pair
func (s *Server) history() http.HandlerFunc {

	type response struct {
		Pair      treasury.Pair   `json:"pair"`
		Available bool            `json:"available"`
		Points    treasury.Series `json:"points"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		from, to, err := pair(r)
		if err != nil {
			writeError(rw, http.StatusBadRequest, err.Error())
			return
		}
		days := s.Builder.HistoryDays
		if v := r.URL.Query().Get("days"); v != "" {
			days, err = strconv.Atoi(v)
			if err != nil || days <= 0 {
				writeError(rw, http.StatusBadRequest, fmt.Sprintf("invalid days %q", v))
				return
			}
		}

		series := s.Builder.Rates.History(r.Context(), from, to, days)
		writeJSON(rw, http.StatusOK, response{
			Pair:      treasury.Pair{From: from, To: to},
			Available: series.Len() > 0,
			Points:    series,
		})
	}
}

// exposure produces the exposure of posted currency totals
func (s *Server) exposure() http.HandlerFunc {

	type request struct {
		Base   treasury.Currency `json:"base"`
		Totals treasury.Totals   `json:"totals"`
	}

	type response struct {
		Base          treasury.Currency   `json:"base"`
		Exposures     []treasury.Exposure `json:"exposures"`
		TotalExposure treasury.Amount     `json:"totalExposure"`
		TotalImpact   treasury.Amount     `json:"totalImpact"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var req request
		if err := decode(rw, r, &req); err != nil {
			writeError(rw, http.StatusBadRequest, err.Error())
			return
		}
		base := treasury.ParseCurrency(string(req.Base))
		if base == "" {
			writeError(rw, http.StatusBadRequest, "missing base")
			return
		}
		if err := req.Totals.Validate(); err != nil {
			writeError(rw, http.StatusBadRequest, err.Error())
			return
		}
		totals := treasury.Totals{}
		for c, a := range req.Totals {
			totals[treasury.ParseCurrency(string(c))] += a
		}

		exposures := exposure.Compute(r.Context(), s.Builder.Rates.Rate, totals, base)
		total, impact := exposures.Total()
		writeJSON(rw, http.StatusOK, response{
			Base:          base,
			Exposures:     exposures.Sorted(),
			TotalExposure: total,
			TotalImpact:   impact,
		})
	}
}

func (s *Server) health() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// request reads the base and trend query parameters over the defaults
func (s *Server) request(r *http.Request) dashboard.Request {
	req := dashboard.Request{
		Base:      s.Defaults.Base,
		Positions: s.Defaults.Positions,
	}
	q := r.URL.Query()
	if base := q.Get("base"); base != "" {
		req.Base = treasury.ParseCurrency(base)
	}
	req.Trend = trendFor(req.Base, treasury.ParseCurrency(q.Get("trend")))
	return req
}

// trendFor drops a trend equal to the base, as left over by a form that switched base
func trendFor(base, trend treasury.Currency) treasury.Currency {
	if trend == base {
		return ""
	}
	return trend
}

func (s *Server) buildError(rw http.ResponseWriter, err error) {
	if errors.Is(err, dashboard.ErrUnsupportedBase) || errors.Is(err, dashboard.ErrUnsupportedTrend) {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	level.Error(s.logger).Log("msg", "building dashboard", "err", err)
	writeError(rw, http.StatusInternalServerError, "failed building dashboard")
}

// pair reads the from and to query parameters
func pair(r *http.Request) (from, to treasury.Currency, err error) {
	q := r.URL.Query()
	from, to = treasury.ParseCurrency(q.Get("from")), treasury.ParseCurrency(q.Get("to"))
	if from == "" || to == "" {
		return "", "", errors.New("from and to are required")
	}
	return from, to, nil
}

// allow rejects requests of any other method
func allow(h http.Handler, methods ...string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !slices.Contains(methods, r.Method) {
			writeError(rw, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.ServeHTTP(rw, r)
	})
}

func decode(rw http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()

	bytes, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
	if err != nil {
		return errors.New("invalid request")
	}
	if err := json.Unmarshal(bytes, v); err != nil {
		return errors.New("invalid json")
	}
	return nil
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}
