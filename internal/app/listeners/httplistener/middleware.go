package httplistener

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	uuid "github.com/kevinburke/go.uuid"
	"go.uber.org/zap"

	appcontext "github.com/jeffreyyong/globalone-gateway/internal/app/context"
	"github.com/jeffreyyong/globalone-gateway/internal/logging"
)

// HeaderRequestID carries the caller's correlation id.
const HeaderRequestID = "X-Request-ID"

// MiddlewareFunc defines a middleware type
type MiddlewareFunc func(h http.HandlerFunc) http.HandlerFunc

// APIMiddleware adds the api to the context
func APIMiddleware(api string) MiddlewareFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r.WithContext(appcontext.WithAPI(r.Context(), api)))
		}
	}
}

// ContextMiddleware tags the request logger and context with the SERVICE
// env var, read once when the router is built.
func ContextMiddleware() MiddlewareFunc {
	service := os.Getenv("SERVICE")

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithFields(r.Context(), zap.String("service", service))
			ctx = appcontext.WithService(ctx, service)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequestIDMiddleware tags the request with the inbound X-Request-ID, or a
// fresh one, and echoes it back on the response.
func RequestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewV4().String()
		}
		w.Header().Set(HeaderRequestID, id)

		ctx := appcontext.WithRequestID(r.Context(), id)
		ctx = logging.WithFields(ctx, zap.String("http.request_id", id))
		next(w, r.WithContext(ctx))
	}
}

// statusWriter remembers the status code and body size for the response log.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Hijack implements the http.Hijacker interface
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("Hijack was called on the response but it does not implement the http.Hijacker interface")
	}
	return hj.Hijack()
}

// LoggingMiddleware logs the request and response events using the context
// logger. The query string is left out since it can carry card data.
func LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		fields := []zap.Field{
			zap.String("api", appcontext.GetAPI(ctx)),
			zap.String("middleware", "app_httplistener"),
			zap.String("http.method", r.Method),
			zap.String("http.path", r.URL.Path),
		}
		logging.Print(ctx, "app__httplistener__request_received", fields...)

		sw := newStatusWriter(w)
		next(sw, r)

		fields = append(fields,
			zap.Duration("duration", time.Since(start)),
			zap.Int("http.status_code", sw.status),
			zap.Int("http.response_bytes", sw.bytes),
		)
		if sw.status >= http.StatusInternalServerError {
			logging.Warn(ctx, "app__httplistener__response_sent", fields...)
			return
		}
		logging.Print(ctx, "app__httplistener__response_sent", fields...)
	}
}
