package chi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	logpkg "github.com/kailas-cloud/searchagent/internal/logger"
)

// recoverJSON turns handler panics into a 500 JSON error and logs the stack.
func recoverJSON(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}
				logger.Error("Handler panic",
					zap.Any("panic", rvr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stacktrace"),
				)
				writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestLog writes one line per request with the request id, and exposes the id
// in X-Request-ID. Handlers get a request-scoped logger through the context.
// Probe paths log at debug so health checks do not flood the output.
func requestLog(logger *zap.Logger, quiet ...string) func(next http.Handler) http.Handler {
	probes := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		probes[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := chiMiddleware.GetReqID(r.Context())
			if id != "" {
				w.Header().Set("X-Request-ID", id)
			}

			log := logger.With(zap.String("request_id", id))
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logpkg.ContextWithLogger(r.Context(), log)))

			level := zapcore.InfoLevel
			switch _, probe := probes[r.URL.Path]; {
			case ww.Status() >= http.StatusInternalServerError:
				level = zapcore.WarnLevel
			case probe:
				level = zapcore.DebugLevel
			}

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			log.Log(level, "HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
				zap.Int("bytes", ww.BytesWritten()),
			)
		})
	}
}
