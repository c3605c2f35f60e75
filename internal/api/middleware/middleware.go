// Package middleware adapts the shared HTTP middleware to the admin API's JSON errors.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/lightsduel/internal/api/apierr"
	"github.com/mcoot/lightsduel/internal/middleware"
)

// Recovery answers a panicking handler with a JSON INTERNAL_ERROR
func Recovery(logger *slog.Logger) mux.MiddlewareFunc {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.Write(w, apierr.Internal())
	})
}

// Logging logs each admin request
func Logging(logger *slog.Logger) mux.MiddlewareFunc {
	return middleware.Logging(logger.With(slog.String("component", "admin")))
}
