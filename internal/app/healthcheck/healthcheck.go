package healthcheck

import (
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	dd "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"

	"github.com/jeffreyyong/globalone-gateway/internal/logging"
)

// Health check related errors.
var (
	ErrHTTPStatus = errors.New("bad HTTP status")
)

// Checker defines the health checker interface.
type Checker interface {
	Health(context.Context) *Service
}

// Response represents a health check response.
type Response struct {
	Healthy  bool       `json:"healthy"`
	Services []*Service `json:"services,omitempty"`
}

// Service is the health of a single dependency.
type Service struct {
	Name    string  `json:"name"`
	Error   string  `json:"error,omitempty"`
	Latency float64 `json:"latency,omitempty"`
	Healthy bool    `json:"healthy"`
}

// DefaultChecker runs a check func and times it.
type DefaultChecker struct {
	name  string
	check func(context.Context) error
}

// Doer defines the HTTP standard library Do() method.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewDefaultChecker returns a new default health
// checker with the given name and check function.
func NewDefaultChecker(name string, check func(context.Context) error) *DefaultChecker {
	return &DefaultChecker{name: name, check: check}
}

// Health implements the Checker interface.
func (c *DefaultChecker) Health(ctx context.Context) *Service {
	ctx = logging.WithFields(ctx, zap.String("dependency", c.name))

	start := time.Now()
	err := c.check(ctx)

	service := &Service{
		Name:    c.name,
		Healthy: err == nil,
		Latency: time.Since(start).Seconds(),
	}
	if err != nil {
		logging.Error(ctx, "service dependency is not healthy", zap.Error(err))
		service.Error = err.Error()
	}

	return service
}

// NewAPI returns a checker that GETs endpoint and expects a 200. Plain
// *http.Client values are wrapped for tracing.
func NewAPI(client Doer, name, endpoint string) Checker {
	return newHTTPChecker(client, name, endpoint, func(code int) bool {
		return code == http.StatusOK
	})
}

// NewReachable returns a checker that only requires endpoint to answer
// without a server error. Payment endpoints usually reject a bare GET, so
// a 4xx still means the processor is up.
func NewReachable(client Doer, name, endpoint string) Checker {
	return newHTTPChecker(client, name, endpoint, func(code int) bool {
		return code < http.StatusInternalServerError
	})
}

func newHTTPChecker(client Doer, name, endpoint string, ok func(code int) bool) Checker {
	if v, isClient := client.(*http.Client); isClient {
		client = dd.WrapClient(v)
	}

	return NewDefaultChecker(name, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if _, err := io.Copy(ioutil.Discard, resp.Body); err != nil {
			return err
		}

		if !ok(resp.StatusCode) {
			return errors.WithMessage(ErrHTTPStatus, resp.Status)
		}
		return nil
	})
}

// CheckAll runs every checker concurrently and reports each of them, sorted
// by name. The response is healthy only when all of them are.
func CheckAll(ctx context.Context, checkers ...Checker) *Response {
	resp := &Response{Healthy: true}
	if len(checkers) == 0 {
		// No dependencies, healthy by default
		return resp
	}

	results := make([]*Service, len(checkers))

	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			results[i] = c.Health(ctx)
		}(i, c)
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	for _, r := range results {
		resp.Healthy = resp.Healthy && r.Healthy
	}
	resp.Services = results

	return resp
}

// Handler returns a http.Handler which will check the status of provided
// checkers. If the service is deemed unhealthy, the server responds with
// http.StatusServiceUnavailable and if the request method is not HEAD, it will
// write the statuses as a JSON body.
func Handler(checkers ...Checker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := CheckAll(r.Context(), checkers...)

		if r.Method != http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
		}
		if !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(status)
		}
	})
}
