package httplistener

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	gmux "github.com/gorilla/mux"
	"gopkg.in/DataDog/dd-trace-go.v1/contrib/gorilla/mux"

	"github.com/jeffreyyong/globalone-gateway/internal/logging"
)

const (
	defaultAddr         = ":8080"
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 45 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// Handler registers routes on the listener's router.
type Handler interface {
	ApplyRoutes(m *Mux)
}

// Mux is the traced router handed to ApplyRoutes.
type Mux struct {
	*gmux.Router
}

type Route = gmux.Route

// Group groups a subrouter and allows for grouping together routes
// which share a common pattern.
func (m *Mux) Group(route *Route, fn func(m *Mux)) {
	fn(&Mux{route.Subrouter()})
}

// HTTPHandler builds the traced router for h with the request middleware
// applied to every route. It is exported for tests; servers go through New.
func HTTPHandler(h Handler, opts ...Option) http.Handler {
	l := &Listener{}
	for _, opt := range opts {
		opt(l)
	}
	return l.router(h)
}

// Listener serves a Handler over HTTP until closed.
type Listener struct {
	server                   *http.Server
	handler                  Handler
	isRequestLoggingDisabled bool
}

type Option func(*Listener)

// WithAddr sets the listen address, ":8080" by default.
func WithAddr(addr string) Option {
	return func(l *Listener) {
		if l.server != nil {
			l.server.Addr = addr
		}
	}
}

// WithWriteTimeout bounds the handler time. It must exceed the gateway
// timeout so a slow processor is reported as a JSON error.
func WithWriteTimeout(d time.Duration) Option {
	return func(l *Listener) {
		if l.server != nil {
			l.server.WriteTimeout = d
		}
	}
}

// WithRequestLoggingDisabled explicitly disables the logging middleware.
func WithRequestLoggingDisabled() Option {
	return func(l *Listener) { l.isRequestLoggingDisabled = true }
}

func New(h Handler, opts ...Option) *Listener {
	l := &Listener{
		server: &http.Server{
			Addr: defaultAddr,
			BaseContext: func(net.Listener) context.Context {
				return logging.With(context.Background(), logging.From(context.Background()))
			},
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		handler: h,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Listener) Name() string { return "http" }

// router wraps every route registered by h with the request middleware. The
// route name, or its path template, becomes the api tag.
func (l *Listener) router(h Handler) http.Handler {
	r := mux.NewRouter()
	h.ApplyRoutes(&Mux{r.Router})

	_ = r.Walk(func(route *gmux.Route, _ *gmux.Router, _ []*gmux.Route) error {
		next := route.GetHandler()
		if next == nil {
			return nil
		}
		route.HandlerFunc(chain(next.ServeHTTP, l.middleware(apiName(route))...))
		return nil
	})

	return r
}

func (l *Listener) middleware(api string) []MiddlewareFunc {
	m := []MiddlewareFunc{
		APIMiddleware(api),
		ContextMiddleware(),
	}
	if !l.isRequestLoggingDisabled {
		// depends on APIMiddleware and ContextMiddleware
		m = append(m, RequestIDMiddleware, LoggingMiddleware)
	}
	return m
}

func apiName(route *gmux.Route) string {
	if name := route.GetName(); name != "" {
		return name
	}
	if tpl, err := route.GetPathTemplate(); err == nil {
		return tpl
	}
	return "/"
}

// chain applies middleware so that the first one runs outermost.
func chain(f http.HandlerFunc, middleware ...MiddlewareFunc) http.HandlerFunc {
	for i := len(middleware) - 1; i >= 0; i-- {
		f = middleware[i](f)
	}
	return f
}

func (l *Listener) Serve(ctx context.Context) error {
	// the router is built here rather than in New so the DataDog mux
	// contrib reads the tracer config set up by app.Run.
	l.server.Handler = l.router(l.handler)

	err := l.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (l *Listener) Close(ctx context.Context) error {
	err := l.server.Shutdown(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		_ = l.server.Close()
	}
	return err
}
