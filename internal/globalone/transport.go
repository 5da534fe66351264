package globalone

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
	"github.com/jeffreyyong/globalone-gateway/internal/logging"
)

const (
	contentTypeXML  = "application/xml;charset=UTF-8"
	contentTypeForm = "application/x-www-form-urlencoded;charset=UTF-8"

	formKey = "load"
)

// Endpoint returns the URL requests are posted to.
func (g *Gateway) Endpoint() string {
	if g.cfg.Test {
		return g.cfg.TestURL
	}
	return g.cfg.LiveURL
}

func (g *Gateway) envelope(doc []byte) ([]byte, string) {
	if g.cfg.Envelope == EnvelopeForm {
		return []byte(url.Values{formKey: {string(doc)}}.Encode()), contentTypeForm
	}
	return doc, contentTypeXML
}

// commit posts doc and normalises the reply found under root. Only transport
// failures are returned as errors; declines and unparseable bodies come back
// as an unsuccessful Response.
func (g *Gateway) commit(ctx context.Context, doc []byte, root string) (*domain.Response, error) {
	endpoint := g.Endpoint()
	ctx = logging.WithFields(ctx, zap.String(logging.Endpoint, endpoint))

	payload, contentType := g.envelope(doc)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		logging.Error(ctx, "globalone request failed", zap.Error(err))
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		logging.Error(ctx, "reading globalone response", zap.Error(err))
		return nil, &domain.TransportError{Err: err}
	}

	logging.Debug(ctx, "globalone transcript",
		zap.String("request", g.Scrub(string(payload))),
		zap.String("response", g.Scrub(string(body))),
		zap.Int("http.status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	return normalize(Parse(body), root, g.cfg.Test), nil
}
