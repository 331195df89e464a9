// Package worker provides the focusd daemon service: the timer engine, its
// SQLite persistence, and the HTTP API the dashboard talks to.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/avelkov/focusd/internal/config"
	"github.com/avelkov/focusd/internal/db/sqlite"
	"github.com/avelkov/focusd/internal/timer"
	"github.com/avelkov/focusd/internal/worker/sse"
)

// Service is the focusd daemon. It owns the timer engine, the store wrappers,
// and the HTTP router, and wires the engine's state changes into the SSE
// stream.
type Service struct {
	version string
	config  *config.Config

	store        *sqlite.Store
	sessionStore *sqlite.SessionStore
	todoStore    *sqlite.TodoStore
	statsStore   *sqlite.StatsStore

	engine      *timer.Engine
	broadcaster *sse.Broadcaster
	metrics     *Metrics

	router *chi.Mux

	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	ready     atomic.Bool
}

// New creates a Service over an opened store.
func New(version string, store *sqlite.Store) (*Service, error) {
	ctx, cancel := context.WithCancel(context.Background())

	metrics := NewMetrics()
	sessionStore := sqlite.NewSessionStore(store)
	todoStore := sqlite.NewTodoStore(store)
	statsStore := sqlite.NewStatsStore(store)
	broadcaster := sse.NewBroadcaster()

	engine, err := timer.NewEngine(timer.Config{
		Settings: config.Settings,
		Recorder: newStoreRecorder(sessionStore, todoStore, statsStore, metrics),
		Notifier: newSSENotifier(broadcaster, metrics),
		OnChange: func(snap timer.Snapshot) {
			broadcaster.Broadcast(sse.Event{Type: "state", Data: snap})
		},
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create timer engine: %w", err)
	}

	// New SSE clients get the current countdown right away.
	broadcaster.SetInitialEvent(func() sse.Event {
		return sse.Event{Type: "state", Data: engine.Snapshot()}
	})

	svc := &Service{
		version:      version,
		config:       config.Get(),
		store:        store,
		sessionStore: sessionStore,
		todoStore:    todoStore,
		statsStore:   statsStore,
		engine:       engine,
		broadcaster:  broadcaster,
		metrics:      metrics,
		router:       chi.NewRouter(),
		ctx:          ctx,
		cancel:       cancel,
		startTime:    time.Now(),
	}
	svc.setupRoutes()

	return svc, nil
}

// Engine exposes the timer engine for lifecycle wiring in main.
func (s *Service) Engine() *timer.Engine {
	return s.engine
}

// Run serves HTTP and drives the timer until ctx is cancelled. It returns
// after a graceful shutdown completes.
func (s *Service) Run(ctx context.Context, port int) error {
	go s.engine.Run(s.ctx, timer.NewWallTicker())

	server := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.ready.Store(true)
	log.Info().Int("port", port).Str("version", s.version).Msg("focusd listening")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.cancel()
		return err
	case <-ctx.Done():
	}

	s.ready.Store(false)
	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}

	// Let in-flight persistence writes land before the store closes.
	s.engine.Flush()
	return nil
}

// setupRoutes configures the HTTP API.
func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.countRequests)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/version", s.handleVersion)

		r.Route("/timer", func(r chi.Router) {
			r.Get("/", s.handleTimerState)
			r.Get("/events", s.broadcaster.HandleSSE)
			r.Post("/start", s.handleTimerStart)
			r.Post("/pause", s.handleTimerPause)
			r.Post("/reset", s.handleTimerReset)
			r.Post("/skip", s.handleTimerSkip)
		})

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", s.handleListTodos)
			r.Post("/", s.handleCreateTodo)
			r.Route("/{todoID}", func(r chi.Router) {
				r.Get("/", s.handleGetTodo)
				r.Patch("/", s.handleUpdateTodo)
				r.Delete("/", s.handleDeleteTodo)
				r.Post("/toggle", s.handleToggleTodo)
			})
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", s.handleStatsSeries)
			r.Get("/today", s.handleStatsToday)
			r.Get("/totals", s.handleStatsTotals)
			r.Get("/heatmap", s.handleStatsHeatmap)
		})

		r.Get("/sessions", s.handleListSessions)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
	})
}

// countRequests feeds the HTTP request counter.
func (s *Service) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.RequestServed(r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
