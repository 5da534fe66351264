package app

import (
	"expvar"
	"net/http"
	"net/http/pprof"
	"sync/atomic"

	"github.com/jeffreyyong/globalone-gateway/internal/app/healthcheck"
	"github.com/jeffreyyong/globalone-gateway/internal/app/listeners/httplistener"
	"github.com/jeffreyyong/globalone-gateway/internal/metrics"
)

// healthHandler serves the operational endpoints. Readiness and liveness
// answer 500 until ready is called.
type healthHandler struct {
	readiness atomic.Value // http.Handler
	liveness  atomic.Value // http.Handler
}

func (h *healthHandler) ready(readiness, liveness []healthcheck.Checker) {
	h.readiness.Store(healthcheck.Handler(readiness...))
	h.liveness.Store(healthcheck.Handler(liveness...))
}

func (h *healthHandler) ApplyRoutes(m *httplistener.Mux) {
	m.HandleFunc("/_live", serveStored(&h.liveness))
	m.HandleFunc("/_health", serveStored(&h.readiness))

	m.Handle("/metrics", metrics.Handler())
	m.Handle("/debug/vars", expvar.Handler())

	m.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	m.HandleFunc("/debug/pprof/profile", pprof.Profile)
	m.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	m.HandleFunc("/debug/pprof/trace", pprof.Trace)
	m.NewRoute().PathPrefix("/debug/pprof").HandlerFunc(pprof.Index)
}

func serveStored(v *atomic.Value) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		handler, _ := v.Load().(http.Handler)
		if handler == nil {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		handler.ServeHTTP(rw, r)
	}
}
