package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bridgeboard/bridgeboard/internal/board"
	"github.com/bridgeboard/bridgeboard/internal/config"
	"github.com/bridgeboard/bridgeboard/internal/logging"
	"github.com/bridgeboard/bridgeboard/internal/metrics"
	"github.com/bridgeboard/bridgeboard/internal/util"
)

// Server is the HTTP front of the board: it exposes the lifecycle
// operations, a websocket event feed, health, and metrics.
type Server struct {
	cfg        config.APIConfig
	board      *board.Board
	httpServer *http.Server

	wsHub   *WebSocketHub
	metrics *metrics.PrometheusCollector

	// Per-IP rate limiters
	rateLimiters sync.Map

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// rateLimiterEntry holds a rate limiter and the last time it was used
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewServer creates an API server for the given board.
func NewServer(cfg config.APIConfig, b *board.Board, pm *metrics.PrometheusCollector) *Server {
	return &Server{
		cfg:     cfg,
		board:   b,
		wsHub:   NewWebSocketHub(),
		metrics: pm,
	}
}

// Start begins serving. Non-blocking; errors from the listener are logged.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/requests", s.handleCreate)
	mux.HandleFunc("POST /v1/requests/{handle}/reward", s.handleUpgradeReward)
	mux.HandleFunc("GET /v1/requests/{handle}", s.handleGetRequest)
	mux.HandleFunc("GET /v1/requests/{handle}/payload", s.handleReadPayload)
	mux.HandleFunc("GET /v1/requests/{handle}/result", s.handleReadResult)
	mux.HandleFunc("POST /v1/claimability", s.handleClaimability)
	mux.HandleFunc("POST /v1/claims", s.handleClaim)
	mux.HandleFunc("POST /v1/reports/inclusion", s.handleReportInclusion)
	mux.HandleFunc("POST /v1/reports/result", s.handleReportResult)
	mux.HandleFunc("GET /v1/balances/{address}", s.handleBalance)
	mux.HandleFunc("GET /v1/events", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.rateLimit(s.limitBody(mux)),
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	util.SafeGoWithName("ws-hub", func() { s.wsHub.Run(ctx) })
	util.SafeGoWithName("event-forwarder", func() { s.forwardEvents(ctx) })
	util.SafeGoWithName("rate-limiter-gc", func() { s.cleanupRateLimiters(ctx) })

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", s.cfg.ListenAddr, err)
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error("api server stopped", logging.Err(err), logging.Component("api"))
		}
	}()

	s.running = true
	logging.Info("api server listening", "addr", s.cfg.ListenAddr, logging.Component("api"))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	s.cancel()
	return s.httpServer.Shutdown(ctx)
}

// forwardEvents bridges the board's event feed onto the websocket hub.
func (s *Server) forwardEvents(ctx context.Context) {
	events, cancel := s.board.Subscribe(256)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.wsHub.Broadcast(string(ev.Kind), ev)
		}
	}
}

// limitBody caps request body sizes.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.MaxRequestSize > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxRequestSize))
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit enforces the per-IP request budget.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimitRequests > 0 {
			ip := clientIP(r)
			entry := s.limiterFor(ip)
			if !entry.limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiterFor(ip string) *rateLimiterEntry {
	if v, ok := s.rateLimiters.Load(ip); ok {
		entry := v.(*rateLimiterEntry)
		entry.lastSeen = time.Now()
		return entry
	}

	window := time.Duration(s.cfg.RateLimitWindowSecs) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	entry := &rateLimiterEntry{
		limiter:  rate.NewLimiter(rate.Every(window/time.Duration(s.cfg.RateLimitRequests)), s.cfg.RateLimitRequests),
		lastSeen: time.Now(),
	}
	actual, _ := s.rateLimiters.LoadOrStore(ip, entry)
	return actual.(*rateLimiterEntry)
}

// cleanupRateLimiters drops limiters for IPs not seen in a while.
func (s *Server) cleanupRateLimiters(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			s.rateLimiters.Range(func(key, value any) bool {
				if value.(*rateLimiterEntry).lastSeen.Before(cutoff) {
					s.rateLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return strings.TrimSpace(host)
}
