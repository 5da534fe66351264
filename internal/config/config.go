package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jeffreyyong/globalone-gateway/internal/globalone"
)

const (
	defaultConfigFilePath = "config.yaml"
	defaultHTTPAddr       = ":8080"

	// EnvConfigFile overrides the config file location.
	EnvConfigFile = "CONFIG_FILE"
)

// Config variables for the application
type Config struct {
	HTTPAddr         string            `yaml:"http_addr"`
	PrivilegedTokens map[string]string `yaml:"privileged_tokens"`
	Gateway          Gateway           `yaml:"gateway"`
}

// Gateway holds the GlobalOne terminal settings. Empty values fall back to
// the gateway defaults.
type Gateway struct {
	TerminalID    string        `yaml:"terminal_id"`
	Secret        string        `yaml:"secret"`
	TestMode      bool          `yaml:"test_mode"`
	TestURL       string        `yaml:"test_url"`
	LiveURL       string        `yaml:"live_url"`
	HealthURL     string        `yaml:"health_url"`
	ProbeEndpoint bool          `yaml:"probe_endpoint"`
	Currency      string        `yaml:"currency"`
	TerminalType  int           `yaml:"terminal_type"`
	HashLayout    string        `yaml:"hash_layout"`
	Digest        string        `yaml:"digest"`
	Envelope      string        `yaml:"envelope"`
	CVVPolicy     string        `yaml:"cvv_policy"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Load loads the configuration for the application from CONFIG_FILE, or
// config.yaml in the working directory.
func Load() (Config, error) {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		path = defaultConfigFilePath
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from the yaml file at path.
func LoadFrom(path string) (Config, error) {
	var config Config

	file, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "can't open file config file")
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	d.KnownFields(true)

	if err := d.Decode(&config); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	if config.HTTPAddr == "" {
		config.HTTPAddr = defaultHTTPAddr
	}

	return config, nil
}

// GatewayConfig maps the yaml settings onto the gateway configuration.
func (c Config) GatewayConfig() globalone.Config {
	g := c.Gateway
	return globalone.Config{
		TerminalID:   g.TerminalID,
		Secret:       g.Secret,
		Test:         g.TestMode,
		TestURL:      g.TestURL,
		LiveURL:      g.LiveURL,
		Currency:     g.Currency,
		TerminalType: g.TerminalType,
		HashLayout:   globalone.HashLayout(g.HashLayout),
		Digest:       globalone.Digest(g.Digest),
		Envelope:     globalone.Envelope(g.Envelope),
		CVVPolicy:    globalone.CVVPolicy(g.CVVPolicy),
		Timeout:      g.Timeout,
	}
}
