package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"

	"leakscan/internal/domain"
	"leakscan/internal/ports"
)

const (
	maxBody      = 64 << 10
	replyTimeout = 10 * time.Second
)

// Server exposes the message bus over HTTP: one endpoint per channel shape,
// plus the popup's settings surface and the tab trigger sockets.
type Server struct {
	scanner   ports.Scanner
	navigator ports.Navigator
	prefs     ports.Preferences
	hub       *TriggerHub
	log       *slog.Logger
}

func New(scanner ports.Scanner, navigator ports.Navigator, prefs ports.Preferences, hub *TriggerHub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{scanner: scanner, navigator: navigator, prefs: prefs, hub: hub, log: log.With("component", "http")}
}

// Routes returns a chi.Router with every bus endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/scan", s.postScan)
		r.Post("/navigation", s.postNavigation)
		r.Get("/settings", s.getSettings)
		r.Put("/settings", s.putSettings)
		r.Get("/threats", s.getThreats)
		r.Get("/tabs/{tabID}/triggers", s.hub.ServeTab)
	})
	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// postScan always answers: a ScanResult, or {error} for bad input and for
// an orchestrator that did not reply in time.
func (s *Server) postScan(w http.ResponseWriter, r *http.Request) {
	var req domain.ScanRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), replyTimeout)
	defer cancel()
	reply, err := s.scanner.ScanPage(ctx, req)
	if err != nil {
		s.log.Error("scan request not answered", "error", err)
		writeError(w, http.StatusServiceUnavailable, errors.New("scan unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) postNavigation(w http.ResponseWriter, r *http.Request) {
	var ev domain.NavigationEvent
	if err := decodeStrict(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.navigator.NavigationComplete(r.Context(), ev); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.prefs.GetSettings(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var prefs domain.Preferences
	if err := decodeStrict(r, &prefs); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	settings, err := s.prefs.UpdatePreferences(r.Context(), prefs)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) getThreats(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %w", err))
		return
	}
	if limit < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %d", limit))
		return
	}
	entries, err := s.prefs.RecentThreats(r.Context(), limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	s.log.Error("settings store", "error", err)
	var unavailable *domain.StoreUnavailableError
	if errors.As(err, &unavailable) {
		writeError(w, http.StatusServiceUnavailable, errors.New("store unavailable"))
		return
	}
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requestLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				status := ww.Status()
				logFn := log.Debug
				if status >= 500 {
					logFn = log.Error
				} else if status >= 400 {
					logFn = log.Warn
				}
				logFn("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
