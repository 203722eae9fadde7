package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// RequestObserver receives one call per served request.
type RequestObserver interface {
	ObserveRequest(route string, code int, elapsed time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Observe logs each request and reports it to obs under its mux pattern.
func Observe(obs RequestObserver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)

		if obs != nil {
			obs.ObserveRequest(route, rec.code, elapsed)
		}
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"code", rec.code,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}
