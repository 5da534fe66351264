package app

import "time"

type options struct {
	version         string
	sha             string
	setupTimeout    time.Duration
	healthAddr      string
	shutdownTimeout time.Duration

	// onReady runs once the health endpoints report the registered checkers.
	onReady func()
}

type Option func(*options)

func defaultOpts() options {
	return options{
		setupTimeout:    1 * time.Minute,
		healthAddr:      ":8082",
		shutdownTimeout: 5 * time.Second,
	}
}

// WithVersion tags the startup log with the build version and git sha.
func WithVersion(version, sha string) Option {
	return func(o *options) {
		o.version = version
		o.sha = sha
	}
}

// WithHealthAddr moves the health listener off ":8082".
func WithHealthAddr(addr string) Option {
	return func(o *options) { o.healthAddr = addr }
}

// WithSetupTimeout bounds how long the setup func may take.
func WithSetupTimeout(d time.Duration) Option {
	return func(o *options) { o.setupTimeout = d }
}

// WithShutdownTimeout bounds the graceful shutdown of the listeners.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.shutdownTimeout = d }
}

// WithOnReady registers fn to run after the service starts serving traffic.
func WithOnReady(fn func()) Option {
	return func(o *options) { o.onReady = fn }
}
