package globalone_test

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
	"github.com/jeffreyyong/globalone-gateway/internal/globalone"
)

var (
	someDate     = time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	someDateTime = "01-01-2024:12:00:00.000"

	someCard = domain.CreditCard{
		Number: "4444333322221111",
		Brand:  "visa",
		Name:   "Longbob Longsen",
		CVV:    "123",
		Expiry: domain.Expiry{Month: 4, Year: 2016},
	}

	someOptions = domain.Options{
		OrderID:    "42",
		TerminalID: "33002",
		Currency:   "CAD",
		Secret:     "s3cr3t",
		Operator:   "Test Operator",
		Reason:     "Faulty goods",
	}
)

const (
	successfulPurchaseResponse = `<?xml version="1.0" encoding="UTF-8"?>
<PAYMENTRESPONSE>
  <UNIQUEREF>K2DKBRLBHT</UNIQUEREF>
  <RESPONSECODE>A</RESPONSECODE>
  <RESPONSETEXT>APPROVAL</RESPONSETEXT>
  <APPROVALCODE>475318</APPROVALCODE>
  <DATETIME>2024-01-01T12:00:01</DATETIME>
  <AVSRESPONSE>X</AVSRESPONSE>
  <CVVRESPONSE>M</CVVRESPONSE>
</PAYMENTRESPONSE>`

	declinedPurchaseResponse = `<?xml version="1.0" encoding="UTF-8"?>
<PAYMENTRESPONSE>
  <UNIQUEREF>K2DKBRLBHU</UNIQUEREF>
  <RESPONSECODE>D</RESPONSECODE>
  <RESPONSETEXT>DECLINED</RESPONSETEXT>
</PAYMENTRESPONSE>`

	errorResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ERROR><ERRORSTRING>INVALID CARDEXPIRY</ERRORSTRING></ERROR>`

	successfulRefundResponse = `<?xml version="1.0" encoding="UTF-8"?>
<REFUNDRESPONSE>
  <RESPONSECODE>A</RESPONSECODE>
  <RESPONSETEXT>SUCCESS</RESPONSETEXT>
  <UNIQUEREF>K2DKBRLBHT</UNIQUEREF>
  <DATETIME>01-01-2024:12:00:01:000</DATETIME>
</REFUNDRESPONSE>`
)

type capturedRequest struct {
	method      string
	path        string
	contentType string
	body        string
}

type processor struct {
	srv *httptest.Server

	mu   sync.Mutex
	last capturedRequest
	hits int
}

func newProcessor(t *testing.T, status int, body string) *processor {
	p := &processor{}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := ioutil.ReadAll(r.Body)
		p.mu.Lock()
		p.hits++
		p.last = capturedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        string(b),
		}
		p.mu.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *processor) request() (capturedRequest, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.hits
}

func newGateway(t *testing.T, p *processor, cfg globalone.Config) *globalone.Gateway {
	t.Helper()
	if cfg.TerminalID == "" {
		cfg.TerminalID = "33002"
	}
	if cfg.Secret == "" {
		cfg.Secret = "s3cr3t"
	}
	cfg.TestURL = p.srv.URL + "/test"
	cfg.LiveURL = p.srv.URL + "/live"

	g, err := globalone.New(cfg, globalone.WithClock(clockwork.NewFakeClockAt(someDate)))
	require.NoError(t, err)
	return g
}

type paymentXML struct {
	XMLName         xml.Name `xml:"PAYMENT"`
	OrderID         string   `xml:"ORDERID"`
	TerminalID      string   `xml:"TERMINALID"`
	Amount          string   `xml:"AMOUNT"`
	DateTime        string   `xml:"DATETIME"`
	CardNumber      string   `xml:"CARDNUMBER"`
	CardType        string   `xml:"CARDTYPE"`
	CardExpiry      string   `xml:"CARDEXPIRY"`
	CardholderName  string   `xml:"CARDHOLDERNAME"`
	Hash            string   `xml:"HASH"`
	Currency        string   `xml:"CURRENCY"`
	TerminalType    string   `xml:"TERMINALTYPE"`
	TransactionType string   `xml:"TRANSACTIONTYPE"`
	CVV             string   `xml:"CVV"`
}

type refundXML struct {
	XMLName    xml.Name `xml:"REFUND"`
	UniqueRef  string   `xml:"UNIQUEREF"`
	TerminalID string   `xml:"TERMINALID"`
	Amount     string   `xml:"AMOUNT"`
	DateTime   string   `xml:"DATETIME"`
	Hash       string   `xml:"HASH"`
	Operator   string   `xml:"OPERATOR"`
	Reason     string   `xml:"REASON"`
}

func assertElementOrder(t *testing.T, body string, elements ...string) {
	t.Helper()
	last := -1
	for _, el := range elements {
		idx := strings.Index(body, "<"+el+">")
		require.NotEqual(t, -1, idx, "element %s missing", el)
		assert.Greater(t, idx, last, "element %s out of order", el)
		last = idx
	}
}

func TestNew_ConfigurationError(t *testing.T) {
	testCases := []struct {
		description string
		cfg         globalone.Config
		opts        []globalone.Option
		wantField   string
	}{
		{"missing terminal id", globalone.Config{Secret: "s3cr3t"}, nil, "terminal_id"},
		{"missing secret", globalone.Config{TerminalID: "33002"}, nil, "secret"},
		{"unknown digest", globalone.Config{TerminalID: "33002", Secret: "s3cr3t", Digest: "crc32"}, nil, "digest"},
		{"unknown hash layout", globalone.Config{TerminalID: "33002", Secret: "s3cr3t", HashLayout: "sorted"}, nil, "hash_layout"},
		{"unknown envelope", globalone.Config{TerminalID: "33002", Secret: "s3cr3t", Envelope: "soap"}, nil, "envelope"},
		{"unknown cvv policy", globalone.Config{TerminalID: "33002", Secret: "s3cr3t", CVVPolicy: "never"}, nil, "cvv_policy"},
		{"nil http client", globalone.Config{TerminalID: "33002", Secret: "s3cr3t"}, []globalone.Option{globalone.WithHTTPClient(nil)}, "http_client"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			g, err := globalone.New(tc.cfg, tc.opts...)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))

			var cfgErr *domain.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.wantField, cfgErr.Field)
		})
	}
}

func TestGateway_Endpoint(t *testing.T) {
	test, err := globalone.New(globalone.Config{TerminalID: "33002", Secret: "s3cr3t", Test: true})
	require.NoError(t, err)
	assert.Equal(t, globalone.DefaultTestURL, test.Endpoint())
	assert.True(t, test.Test())

	live, err := globalone.New(globalone.Config{TerminalID: "33002", Secret: "s3cr3t", LiveURL: "https://example.com/xmlpayment"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/xmlpayment", live.Endpoint())
	assert.False(t, live.Test())
}

func TestGateway_Purchase_Success(t *testing.T) {
	p := newProcessor(t, http.StatusOK, successfulPurchaseResponse)
	g := newGateway(t, p, globalone.Config{Test: true})

	resp, err := g.Purchase(context.Background(), 100, someCard, someOptions)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "APPROVAL", resp.Message)
	assert.Equal(t, "475318", resp.Authorization)
	assert.Equal(t, "K2DKBRLBHT", resp.UniqueRef)
	assert.Empty(t, resp.ErrorCode)
	assert.True(t, resp.Test)

	payload, ok := resp.Params["PAYMENTRESPONSE"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "K2DKBRLBHT", payload["UNIQUEREF"])

	req, hits := p.request()
	assert.Equal(t, 1, hits)
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/test", req.path)
	assert.Equal(t, "application/xml;charset=UTF-8", req.contentType)
	assert.True(t, strings.HasPrefix(req.body, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Equal(t, 1, strings.Count(req.body, "<PAYMENT>"))

	var sent paymentXML
	require.NoError(t, xml.Unmarshal([]byte(req.body), &sent))
	assert.Equal(t, paymentXML{
		XMLName:         xml.Name{Local: "PAYMENT"},
		OrderID:         "42",
		TerminalID:      "33002",
		Amount:          "100",
		DateTime:        someDateTime,
		CardNumber:      "4444333322221111",
		CardType:        "VISA",
		CardExpiry:      "0416",
		CardholderName:  "Longbob Longsen",
		Hash:            md5Hex("33002" + "42" + "CAD" + "100" + someDateTime + "s3cr3t"),
		Currency:        "CAD",
		TerminalType:    "2",
		TransactionType: "7",
	}, sent)

	assertElementOrder(t, req.body,
		"ORDERID", "TERMINALID", "AMOUNT", "DATETIME", "CARDNUMBER", "CARDTYPE", "CARDEXPIRY",
		"CARDHOLDERNAME", "HASH", "CURRENCY", "TERMINALTYPE", "TRANSACTIONTYPE")
}

func TestGateway_Purchase_CVV(t *testing.T) {
	testCases := []struct {
		description string
		test        bool
		policy      globalone.CVVPolicy
		wantPath    string
		wantCVV     bool
	}{
		{"omitted in test mode", true, globalone.CVVOmitInTest, "/test", false},
		{"sent in live mode", false, globalone.CVVOmitInTest, "/live", true},
		{"sent in test mode when always", true, globalone.CVVAlways, "/test", true},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			p := newProcessor(t, http.StatusOK, successfulPurchaseResponse)
			g := newGateway(t, p, globalone.Config{Test: tc.test, CVVPolicy: tc.policy})

			resp, err := g.Purchase(context.Background(), 100, someCard, someOptions)
			require.NoError(t, err)
			assert.Equal(t, tc.test, resp.Test)

			req, _ := p.request()
			assert.Equal(t, tc.wantPath, req.path)
			assert.Equal(t, tc.wantCVV, strings.Contains(req.body, "<CVV>123</CVV>"))
			assert.Equal(t, tc.wantCVV, strings.Contains(req.body, "<CVV>"))
		})
	}
}

func TestGateway_Purchase_FormEnvelope(t *testing.T) {
	p := newProcessor(t, http.StatusOK, successfulPurchaseResponse)
	g := newGateway(t, p, globalone.Config{Test: true, Envelope: globalone.EnvelopeForm})

	resp, err := g.Purchase(context.Background(), 100, someCard, someOptions)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	req, _ := p.request()
	assert.Equal(t, "application/x-www-form-urlencoded;charset=UTF-8", req.contentType)

	values, err := url.ParseQuery(req.body)
	require.NoError(t, err)
	doc := values.Get("load")
	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))

	var sent paymentXML
	require.NoError(t, xml.Unmarshal([]byte(doc), &sent))
	assert.Equal(t, "42", sent.OrderID)
}

func TestGateway_Purchase_HashWithoutCurrency(t *testing.T) {
	p := newProcessor(t, http.StatusOK, successfulPurchaseResponse)
	g := newGateway(t, p, globalone.Config{Test: true, HashLayout: globalone.HashWithoutCurrency})

	_, err := g.Purchase(context.Background(), 100, someCard, someOptions)
	require.NoError(t, err)

	req, _ := p.request()
	var sent paymentXML
	require.NoError(t, xml.Unmarshal([]byte(req.body), &sent))
	assert.Equal(t, md5Hex("33002"+"42"+"100"+someDateTime+"s3cr3t"), sent.Hash)
	assert.Equal(t, "CAD", sent.Currency)
}

func TestGateway_Purchase_FallsBackToGatewayCredentials(t *testing.T) {
	p := newProcessor(t, http.StatusOK, successfulPurchaseResponse)
	g := newGateway(t, p, globalone.Config{Test: true, TerminalID: "36001", Secret: "SandboxSecret001"})

	_, err := g.Purchase(context.Background(), 1, someCard, domain.Options{OrderID: "7"})
	require.NoError(t, err)

	req, _ := p.request()
	var sent paymentXML
	require.NoError(t, xml.Unmarshal([]byte(req.body), &sent))
	assert.Equal(t, "36001", sent.TerminalID)
	assert.Equal(t, globalone.DefaultCurrency, sent.Currency)
	assert.Equal(t, md5Hex("36001"+"7"+"CAD"+"1"+someDateTime+"SandboxSecret001"), sent.Hash)
}

func TestGateway_Purchase_MissingOrderID(t *testing.T) {
	p := newProcessor(t, http.StatusOK, successfulPurchaseResponse)
	g := newGateway(t, p, globalone.Config{Test: true})

	opts := someOptions
	opts.OrderID = ""

	resp, err := g.Purchase(context.Background(), 100, someCard, opts)
	require.Error(t, err)
	assert.Nil(t, resp)

	var missing *domain.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "order_id", missing.Field)

	_, hits := p.request()
	assert.Zero(t, hits)
}

func TestGateway_Purchase_UnsuccessfulResponses(t *testing.T) {
	testCases := []struct {
		description       string
		body              string
		wantMessage       string
		wantAuthorization string
		wantErrorCode     string
	}{
		{"declined", declinedPurchaseResponse, "DECLINED", "", ""},
		{"processor error", errorResponse, "", "", "INVALID CARDEXPIRY"},
		{"malformed xml", "<PAYMENTRESPONSE><RESPONSECODE>A", "", "", ""},
		{"html page", "<html><body>Bad Gateway</html>", "", "", ""},
		{"unexpected root", successfulRefundResponse, "", "", ""},
		{"empty body", "", "", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			p := newProcessor(t, http.StatusOK, tc.body)
			g := newGateway(t, p, globalone.Config{Test: true})

			resp, err := g.Purchase(context.Background(), 100, someCard, someOptions)
			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.wantMessage, resp.Message)
			assert.Equal(t, tc.wantAuthorization, resp.Authorization)
			assert.Equal(t, tc.wantErrorCode, resp.ErrorCode)
		})
	}
}

func TestGateway_Purchase_TransportErrors(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		p := newProcessor(t, http.StatusOK, successfulPurchaseResponse)
		g := newGateway(t, p, globalone.Config{Test: true})
		p.srv.Close()

		resp, err := g.Purchase(context.Background(), 100, someCard, someOptions)
		require.Error(t, err)
		assert.Nil(t, resp)

		var transportErr *domain.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Zero(t, transportErr.StatusCode)
		assert.True(t, errors.Is(err, domain.ErrTransport))
	})

	t.Run("non 2xx status", func(t *testing.T) {
		p := newProcessor(t, http.StatusInternalServerError, "oops")
		g := newGateway(t, p, globalone.Config{Test: true})

		resp, err := g.Purchase(context.Background(), 100, someCard, someOptions)
		require.Error(t, err)
		assert.Nil(t, resp)

		var transportErr *domain.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
	})

	t.Run("cancelled context", func(t *testing.T) {
		p := newProcessor(t, http.StatusOK, successfulPurchaseResponse)
		g := newGateway(t, p, globalone.Config{Test: true})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := g.Purchase(ctx, 100, someCard, someOptions)
		assert.True(t, errors.Is(err, domain.ErrTransport))
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestGateway_Refund_Success(t *testing.T) {
	p := newProcessor(t, http.StatusOK, successfulRefundResponse)
	g := newGateway(t, p, globalone.Config{Test: true})

	resp, err := g.Refund(context.Background(), 100, "K2DKBRLBHT", someOptions)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "SUCCESS", resp.Message)
	assert.Equal(t, "K2DKBRLBHT", resp.UniqueRef)
	assert.Empty(t, resp.Authorization)

	req, _ := p.request()
	var sent refundXML
	require.NoError(t, xml.Unmarshal([]byte(req.body), &sent))
	assert.Equal(t, refundXML{
		XMLName:    xml.Name{Local: "REFUND"},
		UniqueRef:  "K2DKBRLBHT",
		TerminalID: "33002",
		Amount:     "100",
		DateTime:   someDateTime,
		Hash:       md5Hex("33002" + "K2DKBRLBHT" + "CAD" + "100" + someDateTime + "s3cr3t"),
		Operator:   "Test Operator",
		Reason:     "Faulty goods",
	}, sent)

	assertElementOrder(t, req.body, "UNIQUEREF", "TERMINALID", "AMOUNT", "DATETIME", "HASH", "OPERATOR", "REASON")
	assert.NotContains(t, req.body, "<CARDNUMBER>")
}

func TestGateway_Refund_MissingFields(t *testing.T) {
	testCases := []struct {
		description string
		reference   string
		mutate      func(o *domain.Options)
		wantField   string
	}{
		{"missing reference", "", func(o *domain.Options) {}, "unique_ref"},
		{"missing operator", "K2DKBRLBHT", func(o *domain.Options) { o.Operator = "" }, "operator"},
		{"missing reason", "K2DKBRLBHT", func(o *domain.Options) { o.Reason = "" }, "reason"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			p := newProcessor(t, http.StatusOK, successfulRefundResponse)
			g := newGateway(t, p, globalone.Config{Test: true})

			opts := someOptions
			tc.mutate(&opts)

			_, err := g.Refund(context.Background(), 100, tc.reference, opts)
			var missing *domain.MissingFieldError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tc.wantField, missing.Field)

			_, hits := p.request()
			assert.Zero(t, hits)
		})
	}
}

func TestGateway_NotImplemented(t *testing.T) {
	p := newProcessor(t, http.StatusOK, successfulPurchaseResponse)
	g := newGateway(t, p, globalone.Config{Test: true})
	ctx := context.Background()

	_, err := g.Authorize(ctx, 100, someCard, someOptions)
	assert.True(t, errors.Is(err, domain.ErrNotImplemented))
	assert.EqualError(t, err, "authorization: not implemented")

	_, err = g.Capture(ctx, 100, "475318", someOptions)
	assert.True(t, errors.Is(err, domain.ErrNotImplemented))

	_, err = g.Void(ctx, "475318", someOptions)
	assert.True(t, errors.Is(err, domain.ErrNotImplemented))

	resp, err := g.Verify(ctx, someCard, someOptions)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, domain.ErrNotImplemented))
	assert.EqualError(t, err, "authorization: not implemented")

	_, hits := p.request()
	assert.Zero(t, hits)
}
