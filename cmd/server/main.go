// Package main is the entry point for the IngeCapital data API: Argentine
// sovereign bond metrics and options-implied forward curves over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/cashflow"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/circuitbreaker"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/config"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/fetch"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/otel"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/service"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/validation"
)

// version is reported on the status and health endpoints
const version = "1.0.0"

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// BondProvider serves bond metrics
type BondProvider interface {
	Metrics(ctx context.Context) ([]model.BondMetric, error)
	Curve(ctx context.Context, family types.CurveFamily) ([]model.BondMetric, error)
}

// CurveProvider serves options forward curves
type CurveProvider interface {
	Curve(ctx context.Context, ticker string) (model.ForwardCurve, error)
	Tickers() []string
}

// Server represents the HTTP API server instance
type Server struct {
	cfg     config.Config
	bonds   BondProvider
	curves  CurveProvider
	breaker *circuitbreaker.CircuitBreaker

	server    *http.Server
	router    *mux.Router
	registry  *prometheus.Registry
	metrics   *serverMetrics
	rateLimit *rate.Limiter
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshErrors   *prometheus.CounterVec
	circuitBreaker  prometheus.Gauge
	bondCount       prometheus.Gauge
	curvePoints     *prometheus.GaugeVec
}

// registerMetrics sets up Prometheus metrics collection on reg
func registerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingecap_requests_total",
				Help: "Total number of requests processed",
			},
			[]string{"route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingecap_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		refreshErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingecap_refresh_errors_total",
				Help: "Total number of failed data refreshes",
			},
			[]string{"service"},
		),
		circuitBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingecap_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
		bondCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingecap_bond_metrics",
				Help: "Number of bonds in the last served snapshot",
			},
		),
		curvePoints: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ingecap_forward_curve_points",
				Help: "Number of forward-curve points in the last served curve",
			},
			[]string{"ticker"},
		),
	}

	reg.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.refreshErrors,
		m.circuitBreaker,
		m.bondCount,
		m.curvePoints,
	)

	return m
}

// main is the entry point for the application
func main() {
	setupLogging()

	cfg := config.Load()

	shutdownTracer := otel.InitTracer(cfg.OtelEndpoint)
	defer shutdownTracer()

	breaker := newBreaker(cfg)
	bonds, curves := buildServices(cfg, breaker)

	NewServer(cfg, bonds, curves, breaker).Start()
}

// newBreaker creates the live-price circuit breaker unless disabled
func newBreaker(cfg config.Config) *circuitbreaker.CircuitBreaker {
	if !getEnvBool("ENABLE_CIRCUIT_BREAKER", true) {
		return nil
	}
	return circuitbreaker.New(circuitbreaker.Thresholds{
		MinInstruments:     cfg.MinInstruments,
		MaxMedianAbsChange: cfg.MaxMedianAbsChange,
		MaxCountDrop:       0.5,
	}).WithResetDelay(cfg.CircuitResetDelay)
}

// buildServices wires the upstream clients into the bond and options services
func buildServices(cfg config.Config, breaker *circuitbreaker.CircuitBreaker) (*service.BondService, *service.OptionsService) {
	opts := []fetch.Option{
		fetch.WithTimeout(cfg.RequestTimeout),
		fetch.WithRateLimit(cfg.UpstreamRPS, int(cfg.UpstreamRPS)+1),
	}

	var flows fetch.CashFlowSource
	if cfg.CashFlowFile != "" {
		flows = cashflow.NewFileSource(cfg.CashFlowFile)
	} else {
		docta := fetch.NewDoctaClient(cfg.DoctaURL, cfg.DoctaClientID, cfg.DoctaClientSecret, "", fetch.NewTokenCache(), opts...)
		flows = fetch.NewDoctaCashFlowSource(docta, cfg.DoctaCashFlowPath)
	}

	bonds := service.NewBondService(
		fetch.NewData912Client(cfg.Data912URL, opts...),
		flows,
		breaker,
		cfg.CacheTTL,
	)
	curves := service.NewOptionsService(
		fetch.NewDeribitClient(cfg.DeribitURL, opts...),
		fetch.NewCBOEClient(cfg.CBOEURL, opts...),
		cfg.Tickers,
		cfg.HorizonMonths,
		cfg.CacheTTL,
	)
	return bonds, curves
}

// NewServer creates a new server instance and registers its routes
func NewServer(cfg config.Config, bonds BondProvider, curves CurveProvider, breaker *circuitbreaker.CircuitBreaker) *Server {
	registry := prometheus.NewRegistry()

	s := &Server{
		cfg:      cfg,
		bonds:    bonds,
		curves:   curves,
		breaker:  breaker,
		registry: registry,
	}
	if getEnvBool("ENABLE_METRICS", true) {
		s.metrics = registerMetrics(registry)
	}
	if cfg.RateLimitPerSec > 0 {
		s.rateLimit = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	}
	s.router = s.routes()

	logrus.WithFields(logrus.Fields{
		"port":            cfg.Port,
		"tickers":         len(curves.Tickers()),
		"circuit_breaker": breaker != nil,
		"metrics":         s.metrics != nil,
		"cache_ttl":       cfg.CacheTTL,
	}).Info("Server initialized")

	return s
}

// routes builds the HTTP router
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument, s.limit)

	r.HandleFunc("/", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/bonos", s.handleBonds).Methods(http.MethodGet)
	r.HandleFunc("/curva/al", s.handleCurve(types.CurveAL)).Methods(http.MethodGet)
	r.HandleFunc("/curva/gd", s.handleCurve(types.CurveGD)).Methods(http.MethodGet)
	r.HandleFunc("/opciones/tickers", s.handleTickers).Methods(http.MethodGet)
	r.HandleFunc("/opciones/{ticker}", s.handleOptions).Methods(http.MethodGet)
	r.HandleFunc("/circuit", s.handleCircuitStatus).Methods(http.MethodGet, http.MethodPost)

	return r
}

// Start begins the HTTP server and sets up graceful shutdown
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      otelhttp.NewHandler(s.router, "ingecap-http"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}

	logrus.Info("Server stopped")
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency per route template
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.metrics.requestCounter.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

// limit rejects requests above the inbound rate limit
func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.rateLimit != nil && !s.rateLimit.Allow() {
			s.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleStatus reports that the API is up
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "API funcionando",
		"uptime":  time.Since(startTime).String(),
		"version": version,
		"tickers": len(s.curves.Tickers()),
	}
	if s.breaker != nil {
		status["circuit_state"] = s.breaker.GetState().String()
	}

	s.writeJSON(w, http.StatusOK, validation.Sanitize(status))
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMetrics exposes Prometheus metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.Error(w, "Metrics disabled", http.StatusServiceUnavailable)
		return
	}

	if s.breaker != nil {
		s.metrics.circuitBreaker.Set(float64(s.breaker.GetState()))
	}
	promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// handleBonds serves every bond metric
func (s *Server) handleBonds(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.bonds.Metrics(r.Context())
	if err != nil {
		s.serviceError(w, "bonds", err)
		return
	}
	if s.metrics != nil {
		s.metrics.bondCount.Set(float64(len(metrics)))
	}
	s.writeJSON(w, http.StatusOK, metrics)
}

// handleCurve serves the bonds of one curve family
func (s *Server) handleCurve(family types.CurveFamily) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics, err := s.bonds.Curve(r.Context(), family)
		if err != nil {
			s.serviceError(w, "bonds", err)
			return
		}
		s.writeJSON(w, http.StatusOK, metrics)
	}
}

// handleTickers lists the options allow-list
func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"tickers": s.curves.Tickers()})
}

// handleOptions serves the forward curve of one ticker
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	curve, err := s.curves.Curve(r.Context(), ticker)
	if err != nil {
		s.serviceError(w, "options", err)
		return
	}
	if s.metrics != nil {
		s.metrics.curvePoints.WithLabelValues(curve.Ticker).Set(float64(len(curve.Points)))
	}
	s.writeJSON(w, http.StatusOK, curve)
}

// handleCircuitStatus allows viewing and controlling the circuit breaker
func (s *Server) handleCircuitStatus(w http.ResponseWriter, r *http.Request) {
	if s.breaker == nil {
		http.Error(w, "Circuit breaker not enabled", http.StatusServiceUnavailable)
		return
	}

	response := map[string]interface{}{}
	if r.Method == http.MethodPost {
		if r.URL.Query().Get("action") != "reset" {
			s.errorResponse(w, http.StatusBadRequest, "Unknown action")
			return
		}
		s.breaker.Reset()
		response["message"] = "Circuit breaker reset"
	}

	response["status"] = s.breaker.Status()
	if lastGood := s.breaker.LastGoodPrices(); lastGood != nil {
		response["last_good_prices_count"] = len(lastGood)
	}

	s.writeJSON(w, http.StatusOK, response)
}

// serviceError maps service errors to HTTP statuses
func (s *Server) serviceError(w http.ResponseWriter, svc string, err error) {
	switch {
	case errors.Is(err, service.ErrTickerNotAllowed):
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, service.ErrNoData):
		s.errorResponse(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.errorResponse(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.errorResponse(w, http.StatusBadGateway, err.Error())
	}
	if s.metrics != nil {
		s.metrics.refreshErrors.WithLabelValues(svc).Inc()
	}
}

// errorResponse returns a formatted JSON error
func (s *Server) errorResponse(w http.ResponseWriter, statusCode int, errorMsg string) {
	logrus.WithField("status", statusCode).Warn(errorMsg)
	s.writeJSON(w, statusCode, map[string]string{"error": errorMsg})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}
