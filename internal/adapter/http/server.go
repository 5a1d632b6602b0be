package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/drwave-www/worldwidewaves-engine/internal/catalog"
	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
	"github.com/drwave-www/worldwidewaves-engine/internal/observability"
	"github.com/drwave-www/worldwidewaves-engine/internal/observer"
	"github.com/drwave-www/worldwidewaves-engine/internal/planner"
	"github.com/drwave-www/worldwidewaves-engine/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the event API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	catalog    *catalog.Catalog
	planner    *planner.Planner
	favorites  *store.FavoritesStore
	logger     *slog.Logger
	metrics    *observability.Metrics
	upgrader   websocket.Upgrader
}

// NewServer wires all routes onto a method-pattern mux.
func NewServer(
	addr string,
	cat *catalog.Catalog,
	pln *planner.Planner,
	favorites *store.FavoritesStore,
	ready ReadinessChecker,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
		catalog:   cat,
		planner:   pln,
		favorites: favorites,
		logger:    logger,
		metrics:   metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /events", s.handleListEvents)
	mux.HandleFunc("GET /events/{id}", s.handleGetEvent)
	mux.HandleFunc("PUT /events/{id}/favorite", s.handleSetFavorite(true))
	mux.HandleFunc("DELETE /events/{id}/favorite", s.handleSetFavorite(false))
	mux.HandleFunc("GET /events/{id}/stream", s.handleStream)
	mux.HandleFunc("GET /events/{id}/qr", s.handleQR)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// eventSummary is the list representation of one event.
type eventSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Start     time.Time `json:"start"`
	Status    string    `json:"status"`
	Favorite  bool      `json:"favorite"`
	Observing bool      `json:"observing"`
	Recurring bool      `json:"recurring"`
}

// eventDetail adds the current derived state to the summary.
type eventDetail struct {
	eventSummary
	State domain.EventState `json:"state"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	events := s.catalog.Events()
	out := make([]eventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, s.summarize(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, o, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, eventDetail{
		eventSummary: s.summarize(e),
		State:        o.State().Get(),
	})
}

func (s *Server) handleSetFavorite(favorite bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, _, ok := s.lookup(w, r)
		if !ok {
			return
		}
		if err := s.favorites.Set(r.Context(), e.ID, favorite); err != nil {
			s.logger.Error("failed to persist favorite", "event_id", e.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to persist favorite"})
			return
		}
		e.SetFavorite(favorite)
		writeJSON(w, http.StatusOK, map[string]bool{"favorite": favorite})
	}
}

// handleStream upgrades to a websocket and forwards state snapshots. A
// slow client only ever delays its own snapshots; the stream conflates.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	_, o, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.metrics.StreamSubscribers.Inc()
	defer s.metrics.StreamSubscribers.Dec()

	states, cancel := o.State().Subscribe()
	defer cancel()

	// Reader goroutine: surfaces client close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case state := <-states:
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// handleQR renders a share QR code pointing at the event's detail URL.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	e, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	url := scheme + "://" + r.Host + "/events/" + e.ID

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("failed to render qr code", "event_id", e.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to render qr code"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png) //nolint:errcheck // best-effort image response
}

// lookup resolves the {id} path segment to an event and its observer,
// writing a 404 when unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*domain.Event, *observer.Observer, bool) {
	id := r.PathValue("id")
	e, ok := s.catalog.Event(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown event"})
		return nil, nil, false
	}
	o, ok := s.planner.Observer(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown event"})
		return nil, nil, false
	}
	return e, o, true
}

func (s *Server) summarize(e *domain.Event) eventSummary {
	o, _ := s.planner.Observer(e.ID)
	summary := eventSummary{
		ID:       e.ID,
		Name:     e.Name,
		Start:    e.Start(),
		Favorite: e.Favorite(),
	}
	if _, recurring := s.catalog.Recurrence(e.ID); recurring {
		summary.Recurring = true
	}
	if o != nil {
		summary.Status = o.Status().Get().String()
		summary.Observing = o.Observing()
	}
	return summary
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort json response
}
