// Package middleware holds the HTTP middleware shared by every route:
// timing, rate limiting, request logging and panic recovery.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/cache"
	"github.com/user/jarvisfi-go/metrics"
)

// ProcessTimeHeader carries the handler time in seconds.
const ProcessTimeHeader = "X-Process-Time"

type timingWriter struct {
	http.ResponseWriter
	start time.Time
	wrote bool
}

func (w *timingWriter) stamp() {
	if w.wrote {
		return
	}
	w.wrote = true
	w.Header().Set(ProcessTimeHeader, strconv.FormatFloat(time.Since(w.start).Seconds(), 'f', 4, 64))
}

func (w *timingWriter) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *timingWriter) Flush() {
	w.stamp()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *timingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// ProcessTime sets X-Process-Time on every response and warns about
// requests slower than threshold. A zero threshold disables the warning.
func ProcessTime(threshold time.Duration, log *zap.Logger) func(http.Handler) http.Handler {
	log = log.With(zap.String("module", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &timingWriter{ResponseWriter: w, start: time.Now()}
			next.ServeHTTP(tw, r)
			tw.stamp()
			if elapsed := time.Since(tw.start); threshold > 0 && elapsed > threshold {
				log.Warn("slow request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("duration", elapsed),
					zap.Duration("threshold", threshold))
			}
		})
	}
}

// ClientIP returns the request's address without the port. Behind chi's
// RealIP middleware this is the forwarded client address.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit throttles clients by IP across windows. Limiter errors let
// the request through.
func RateLimit(limiter cache.Limiter, windows []cache.Window) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := cache.MultiWindow(r.Context(), limiter, ClientIP(r), windows)
			if d.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				retry := int(d.RetryAfter.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				metrics.RateLimited.WithLabelValues(d.Window).Inc()
				apperror.WriteError(w, r, apperror.NewRateLimitError(
					fmt.Sprintf("rate limit exceeded: %d requests per %s", d.Limit, d.Window),
				).WithDetails(map[string]string{
					"window":      d.Window,
					"retry_after": strconv.Itoa(retry),
				}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// RequestLogger logs each request once it completes and records the HTTP
// metrics against the matched route pattern.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	log = log.With(zap.String("module", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			route := routePattern(r)
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPLatency.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("remote_ip", ClientIP(r)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("request", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}

// Recoverer turns a handler panic into a 500 error response.
func Recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	log = log.With(zap.String("module", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.Error("panic recovered",
					zap.Any("panic", rvr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", chimw.GetReqID(r.Context())),
					zap.ByteString("stack", debug.Stack()))
				apperror.WriteError(w, r, apperror.NewInternalError("internal server error", nil))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
