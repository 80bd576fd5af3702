// Package api serves the meal calendar as a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"meal-calendar/internal/app"
	"meal-calendar/internal/auth"
	"meal-calendar/internal/calendar"
	"meal-calendar/internal/clipper"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/search"

	"go.uber.org/zap"
)

type ctxKey struct{}

// Server holds the HTTP handlers. With a nil issuer every request acts as
// defaultUser.
type Server struct {
	app         *app.App
	issuer      *auth.Issuer
	defaultUser string
}

func NewServer(a *app.App, issuer *auth.Issuer, defaultUser string) *Server {
	return &Server{app: a, issuer: issuer, defaultUser: defaultUser}
}

// Routes registers every endpoint on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("GET /api/week", s.authed(s.handleWeek))
	mux.Handle("POST /api/week/publish", s.authed(s.handlePublish))
	mux.Handle("PUT /api/calendar/{day}/{meal}", s.authed(s.handleAssign))
	mux.Handle("DELETE /api/calendar/{day}/{meal}", s.authed(s.handleClear))
	mux.Handle("GET /api/shopping-list", s.authed(s.handleShoppingList))
	mux.Handle("GET /api/shopping-list/latest", s.authed(s.handleLatestShoppingList))
	mux.Handle("GET /api/recipes", s.authed(s.handleRecipes))
	mux.Handle("GET /api/recipes/search", s.authed(s.handleRecipeSearch))
	mux.Handle("POST /api/recipes/import", s.authed(s.handleImport))

	mux.Handle("POST /api/search", s.authed(s.handleOpenSearch))
	mux.Handle("POST /api/search/query", s.authed(s.handleSubmitSearch))
	mux.Handle("GET /api/search", s.authed(s.handleSearchState))
	mux.Handle("POST /api/search/select", s.authed(s.handleSelect))
	mux.Handle("DELETE /api/search", s.authed(s.handleCloseSearch))
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Routes(mux)
	return LogRequests(mux)
}

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := s.defaultUser
		if s.issuer != nil {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			sub, err := s.issuer.Verify(token)
			if err != nil {
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}
			user = sub
		}
		h(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func userFrom(r *http.Request) string {
	user, _ := r.Context().Value(ctxKey{}).(string)
	return user
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LogRequests logs one line per request.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// Response helpers
func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("Unable to encode JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// writeAppError maps domain errors onto HTTP status codes.
func writeAppError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, calendar.ErrInvalidDay),
		errors.Is(err, calendar.ErrInvalidMeal),
		errors.Is(err, planner.ErrUnknownAction),
		errors.Is(err, planner.ErrMissingRecipe),
		errors.Is(err, search.ErrNoSuchResult),
		errors.Is(err, app.ErrNoUser):
		code = http.StatusBadRequest
	case errors.Is(err, app.ErrUnknownRecipe):
		code = http.StatusNotFound
	case errors.Is(err, search.ErrNotOpen),
		errors.Is(err, search.ErrNotReady),
		errors.Is(err, search.ErrStaleResults):
		code = http.StatusConflict
	case errors.Is(err, clipper.ErrNoRecipe):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, app.ErrNotConfigured):
		code = http.StatusNotImplemented
	}
	if code == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeError(w, err.Error(), code)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
