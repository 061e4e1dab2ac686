package middleware

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Property-Investment-Backend/internal/logger"
)

// Logger is a middleware that logs each HTTP request with its status and duration.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		// Strip CR/LF from user-supplied values.
		sanitize := strings.NewReplacer("\n", "", "\r", "").Replace
		fields := []any{
			"method", sanitize(r.Method),
			"path", sanitize(r.URL.Path),
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Get().Errorw("request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Get().Warnw("request rejected", fields...)
		default:
			logger.Get().Infow("request", fields...)
		}
	})
}
