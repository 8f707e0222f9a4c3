// Package httpapi exposes the four JSON endpoints (Distribute, Capacity,
// Target, Solve) over chi, with shared CORS headers and envelope shaping.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ayhanuzun/nobetci/config"
	"github.com/ayhanuzun/nobetci/integrations/objectstore"
)

type contextKey int

const requestIDKey contextKey = 0

// requestIDMiddleware stamps every request with a trace id, surfaced both on
// the response (X-Request-Id) and to handlers via the request context for
// correlating log lines across a solve.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFromContext reads back the id requestIDMiddleware stamped.
func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Server wires the handlers to their collaborators.
type Server struct {
	Log      *zap.SugaredLogger
	Config   config.Config
	Uploader objectstore.Uploader
}

// Router builds the chi router with CORS and the four endpoints mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{s.Config.CORSOrigin},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	r.Use(c.Handler)
	r.Use(requestIDMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					s.Log.Errorw("panic while handling request", "endpoint", req.URL.Path, "panic", rec)
					writeError(w, s.Log, req.URL.Path, newInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(w, req)
		})
	})

	r.Post("/distribute", s.handleDistribute)
	r.Post("/capacity", s.handleCapacity)
	r.Post("/target", s.handleTarget)
	r.Post("/solve", s.handleSolve)

	return r
}

// decodeBody rejects an empty body with a validation error (spec §6: empty
// body -> 400) and decodes the rest into dst.
func decodeBody(r *http.Request, dst any) *APIError {
	if r.ContentLength == 0 {
		return newValidationError("request body is required", nil)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return newValidationError("invalid JSON body: "+err.Error(), nil)
	}
	return nil
}

// writeJSON writes a 200 envelope.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the `{error, error_type, context}` envelope, mapping
// validation errors to 400 and everything else to 500 (spec §7).
func writeError(w http.ResponseWriter, log *zap.SugaredLogger, endpoint string, err *APIError) {
	log.Warnw("request failed", "endpoint", endpoint, "kind", err.Kind, "message", err.Message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.statusCode())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":      err.Message,
		"error_type": err.Kind,
		"context":    err.Context,
	})
}
