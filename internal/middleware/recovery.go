// Package middleware holds recovery and request logging shared by the admin API
// and the game server's worker pool.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the response for a request whose handler panicked
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// LogPanic logs a recovered panic value together with the current stack
func LogPanic(logger *slog.Logger, err any, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Any("error", err), slog.String("stack", string(debug.Stack())))
	logger.LogAttrs(context.Background(), slog.LevelError, "panic recovered", attrs...)
}

// Safely runs fn and reports whether it panicked. The panic is logged, not re-raised.
func Safely(logger *slog.Logger, fn func(), attrs ...slog.Attr) (panicked bool) {
	defer func() {
		if err := recover(); err != nil {
			LogPanic(logger, err, attrs...)
			panicked = true
		}
	}()
	fn()
	return false
}

// Recovery turns a handler panic into the response written by onPanic.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(logger *slog.Logger, onPanic PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if e, ok := err.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(err)
				}
				LogPanic(logger, err,
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				onPanic(w, r, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
