package globalone

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
)

// Envelope selects how the XML document is carried in the POST body.
type Envelope string

const (
	// EnvelopeXML posts the document as is.
	EnvelopeXML Envelope = "xml"
	// EnvelopeForm posts the document form encoded under the load key.
	EnvelopeForm Envelope = "form"
)

// CVVPolicy controls whether the CVV element is emitted.
type CVVPolicy string

const (
	// CVVOmitInTest sends the CVV only against the live endpoint.
	CVVOmitInTest CVVPolicy = "omit_in_test"
	// CVVAlways sends the CVV in both modes.
	CVVAlways CVVPolicy = "always"
)

const (
	defaultTerminalType = 2
	defaultTimeout      = 30 * time.Second
)

// Config is the deployment descriptor of a gateway. It is copied at
// construction and never changed afterwards.
type Config struct {
	TerminalID string
	Secret     string
	Test       bool

	TestURL string
	LiveURL string

	Currency     string
	TerminalType int
	HashLayout   HashLayout
	Digest       Digest
	Envelope     Envelope
	CVVPolicy    CVVPolicy
	Timeout      time.Duration
}

func (c Config) withDefaults() Config {
	if c.TestURL == "" {
		c.TestURL = DefaultTestURL
	}
	if c.LiveURL == "" {
		c.LiveURL = DefaultLiveURL
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.TerminalType == 0 {
		c.TerminalType = defaultTerminalType
	}
	if c.HashLayout == "" {
		c.HashLayout = HashWithCurrency
	}
	if c.Digest == "" {
		c.Digest = DigestMD5
	}
	if c.Envelope == "" {
		c.Envelope = EnvelopeXML
	}
	if c.CVVPolicy == "" {
		c.CVVPolicy = CVVOmitInTest
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.TerminalID == "":
		return &domain.ConfigurationError{Field: "terminal_id"}
	case c.Secret == "":
		return &domain.ConfigurationError{Field: "secret"}
	case !validDigest(c.Digest):
		return &domain.ConfigurationError{Field: "digest", Reason: "unsupported " + string(c.Digest)}
	case !validHashLayout(c.HashLayout):
		return &domain.ConfigurationError{Field: "hash_layout", Reason: "unsupported " + string(c.HashLayout)}
	case c.Envelope != EnvelopeXML && c.Envelope != EnvelopeForm:
		return &domain.ConfigurationError{Field: "envelope", Reason: "unsupported " + string(c.Envelope)}
	case c.CVVPolicy != CVVOmitInTest && c.CVVPolicy != CVVAlways:
		return &domain.ConfigurationError{Field: "cvv_policy", Reason: "unsupported " + string(c.CVVPolicy)}
	}
	return nil
}

// Doer defines the HTTP standard library Do() method.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Gateway built by New.
type Option func(*Gateway) error

// WithClock functionally configures the gateway with the clock used for DATETIME.
func WithClock(clock clockwork.Clock) Option {
	return func(g *Gateway) error {
		g.clock = clock
		return nil
	}
}

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(client Doer) Option {
	return func(g *Gateway) error {
		if client == nil {
			return &domain.ConfigurationError{Field: "http_client"}
		}
		g.client = client
		return nil
	}
}
