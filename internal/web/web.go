package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"evcal/internal/clock"
	"evcal/internal/config"
	"evcal/internal/datekey"
	"evcal/internal/festival"
	appLog "evcal/internal/log"
	"evcal/internal/metrics"
	"evcal/internal/model"
	"evcal/internal/notify"
	"evcal/internal/store"
)

const maxBodyBytes = 1 << 20 // 1MB

// Deps are the collaborators the API serves. Metrics may be nil.
type Deps struct {
	Store     *store.Store
	Queue     *notify.Queue
	Festivals festival.Table
	Clock     clock.Clock
	Metrics   *metrics.Metrics
}

// Server provides the JSON API over the event store.
type Server struct {
	cfg *config.Config
	d   Deps
	mux *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, d Deps) *Server {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Festivals == nil {
		d.Festivals = festival.Table{}
	}
	if d.Queue == nil {
		d.Queue = notify.New(notify.WithClock(d.Clock))
	}
	s := &Server{
		cfg: cfg,
		d:   d,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.d.Metrics != nil {
		h = s.d.Metrics.Instrument(h)
	}
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="evcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/now", s.handleNow)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleAddEvent)
	s.mux.HandleFunc("PUT /api/events", s.handleReplaceEvents)
	s.mux.HandleFunc("GET /api/events/{date}", s.handleDay)
	s.mux.HandleFunc("GET /api/events/id/{id}", s.handleFindEvent)
	s.mux.HandleFunc("PATCH /api/events/{date}/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{date}/{id}", s.handleDeleteEvent)
	s.mux.HandleFunc("POST /api/events/{date}/{id}/move", s.handleMoveEvent)

	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/festivals/{date}", s.handleFestival)
	s.mux.HandleFunc("GET /api/templates", s.handleTemplates)

	s.mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	s.mux.HandleFunc("POST /api/notifications/{id}/read", s.handleMarkRead)
	s.mux.HandleFunc("DELETE /api/notifications/{id}", s.handleDismiss)

	s.mux.HandleFunc("GET /api/export", s.handleExportJSON)
	s.mux.HandleFunc("GET /api/export.ics", s.handleExportICS)

	if s.d.Metrics != nil && (s.cfg == nil || s.cfg.Metrics) {
		s.mux.Handle("GET /metrics", s.d.Metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) weekStart() time.Weekday {
	if s.cfg == nil {
		return time.Sunday
	}
	return datekey.WeekStartFromString(s.cfg.WeekStart)
}

// storeError maps the model error taxonomy onto HTTP status codes.
func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	if s.d.Metrics != nil {
		s.d.Metrics.StoreError(op, err)
	}
	var ve *model.ValidationError
	var nf *model.NotFoundError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		appLog.Error("api: store operation failed", err, "op", op)
		writeError(w, http.StatusInternalServerError, "failed to "+op+" event")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &model.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
