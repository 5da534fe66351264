package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/jeffreyyong/globalone-gateway/internal/app/healthcheck"
	"github.com/jeffreyyong/globalone-gateway/internal/app/listeners/httplistener"
	"github.com/jeffreyyong/globalone-gateway/internal/logging"
)

type Listener interface {
	Serve(ctx context.Context) error
	Close(ctx context.Context) error
	Name() string
}

// Service is handed to the setup func to register shutdown hooks and
// health checkers before any listener starts.
type Service struct {
	name              string
	opts              options
	onShutdown        []func()
	readinessCheckers []healthcheck.Checker
	livenessCheckers  []healthcheck.Checker
	health            healthHandler
}

// SetupFunc builds the listeners. The returned context, when not nil,
// replaces the one the listeners are served with.
type SetupFunc func(ctx context.Context, service *Service) ([]Listener, context.Context, error)

// Context returns a background context carrying the base logger.
func Context() context.Context {
	return logging.With(context.Background(), logging.From(context.Background()))
}

// Run starts the health listener, calls setup, serves the returned listeners
// and blocks until one of them exits or the process is signalled.
func Run(name string, setup SetupFunc, opts ...Option) error {
	s := &Service{name: name, opts: defaultOpts()}
	for _, opt := range opts {
		opt(&s.opts)
	}

	return s.run(Context(), setup)
}

// OnShutdown registers fn to run after every listener has closed.
func (s *Service) OnShutdown(fn func()) *Service {
	s.onShutdown = append(s.onShutdown, fn)
	return s
}

// AddReadinessChecker registers checkers served on /_health once setup returns.
func (s *Service) AddReadinessChecker(checkers ...healthcheck.Checker) *Service {
	s.readinessCheckers = append(s.readinessCheckers, checkers...)
	return s
}

// AddLivenessChecker registers checkers served on /_live once setup returns.
func (s *Service) AddLivenessChecker(checkers ...healthcheck.Checker) *Service {
	s.livenessCheckers = append(s.livenessCheckers, checkers...)
	return s
}

func (s *Service) run(ctx context.Context, setup SetupFunc) error {
	defer func() {
		for _, fn := range s.onShutdown {
			fn()
		}
	}()

	logger := logging.From(ctx).With(
		zap.String("name", s.name),
		zap.String("version", s.opts.version),
		zap.String("sha", s.opts.sha))
	logger.Info("service starting")

	if _, err := maxprocs.Set(maxprocs.Logger(zap.NewStdLog(logger).Printf)); err != nil {
		return fmt.Errorf("app: unable to set GOMAXPROCS: %w", err)
	}
	logger.Info("set GOMAXPROCS", zap.Int("num_cpu", runtime.NumCPU()), zap.Int("GOMAXPROCS", runtime.GOMAXPROCS(0)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// buffered for the first exit only, later exits are dropped
	exited := make(chan error, 1)

	health := httplistener.New(&s.health, httplistener.WithAddr(s.opts.healthAddr), httplistener.WithRequestLoggingDisabled())
	s.serve(ctx, health, exited)
	defer s.shutdown(health)

	listeners, ctx, err := s.setup(ctx, setup)
	if err != nil {
		return err
	}
	if len(listeners) == 0 {
		return nil
	}
	defer s.shutdown(listeners...)

	for _, l := range listeners {
		s.serve(ctx, l, exited)
	}

	s.health.ready(s.readinessCheckers, s.livenessCheckers)
	if s.opts.onReady != nil {
		s.opts.onReady()
	}

	return wait(ctx, exited)
}

// serve runs the listener in the background. The first listener to return
// ends Run, which then closes the others.
func (s *Service) serve(ctx context.Context, l Listener, exited chan<- error) {
	go func() {
		err := l.Serve(ctx)
		logging.From(ctx).Warn("listener exited", zap.String("name", l.Name()), zap.Error(err))

		select {
		case exited <- err:
		default:
		}
	}()
}

func (s *Service) shutdown(listeners ...Listener) {
	ctx, cancel := context.WithTimeout(Context(), s.opts.shutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, l := range listeners {
		wg.Add(1)
		go func(l Listener) {
			defer wg.Done()
			if err := l.Close(ctx); err != nil {
				logging.Error(ctx, "error shutting down listener", zap.Error(err), zap.String("listener", l.Name()))
			}
		}(l)
	}
	wg.Wait()
}

type setupResult struct {
	listeners []Listener
	ctx       context.Context
	err       error
}

// setup calls fn in its own goroutine so a hung setup is bounded by the
// setup timeout and a panic is returned as an error.
func (s *Service) setup(ctx context.Context, fn SetupFunc) ([]Listener, context.Context, error) {
	timeout, cancel := context.WithTimeout(ctx, s.opts.setupTimeout)
	defer cancel()

	done := make(chan setupResult, 1)
	go func() {
		var res setupResult
		defer func() {
			if r := recover(); r != nil {
				if v, ok := r.(error); ok {
					res.err = fmt.Errorf("app: panic during listener setup: %w", v)
				} else {
					res.err = fmt.Errorf("app: panic during listener setup: %v", r)
				}
				logging.Error(ctx, "panic during listener setup", zap.Stack("stack"), zap.Any("panic", r))
			}
			done <- res
		}()

		res.listeners, res.ctx, res.err = fn(ctx, s)
	}()

	select {
	case <-timeout.Done():
		return nil, ctx, fmt.Errorf("app: listener setup timedout: %w", timeout.Err())
	case res := <-done:
		if res.ctx != nil {
			ctx = res.ctx
		}
		return res.listeners, ctx, res.err
	}
}

func wait(ctx context.Context, exited <-chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case err := <-exited:
		return err
	case sig := <-sigs:
		logging.Print(ctx, "received signal, shutting down", zap.Stringer("signal", sig))
		return nil
	case <-ctx.Done():
		select {
		case err := <-exited:
			return err
		default:
			return ctx.Err()
		}
	}
}
