// Package middleware provides HTTP middleware for the travel booking API:
// authentication, request logging, CORS and body size limits.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewSlogLogger returns a middleware that logs each request as a structured
// JSON line via the provided slog.Logger. It captures method, path, HTTP
// status, duration, the request ID set by chi's RequestID middleware and,
// once authentication has run, the caller's user ID.
//
// Wire it after chimiddleware.RequestID so the request ID is available.
// Authentication runs per route group inside this middleware; it reports the
// caller back through a slot this middleware places in the request context.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// WrapResponseWriter intercepts WriteHeader so we can read the
			// status code after the downstream handler has run.
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			slot := &callerSlot{}
			r = r.WithContext(context.WithValue(r.Context(), callerSlotKey{}, slot))

			next.ServeHTTP(ww, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			}
			if slot.set {
				attrs = append(attrs, "user_id", slot.caller.UserID.String())
			}
			log.InfoContext(r.Context(), "request", attrs...)
		})
	}
}
