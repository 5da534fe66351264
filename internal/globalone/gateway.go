package globalone

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
	"github.com/jeffreyyong/globalone-gateway/internal/logging"
)

// verifyAmount is the nominal authorization, in minor units, used by Verify.
const verifyAmount = 100

// Gateway talks to the GlobalOne XML payment API. It holds no per call state
// and is safe for concurrent use.
type Gateway struct {
	cfg    Config
	clock  clockwork.Clock
	client Doer
}

// New validates cfg and returns a gateway. Missing credentials or unknown
// protocol settings fail with a *domain.ConfigurationError.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	g := &Gateway{
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		client: httptrace.WrapClient(&http.Client{Timeout: cfg.Timeout}),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Test reports whether the gateway posts to the test endpoint.
func (g *Gateway) Test() bool { return g.cfg.Test }

// Purchase authorizes and captures money against card in one PAYMENT request.
func (g *Gateway) Purchase(ctx context.Context, money uint64, card domain.CreditCard, opts domain.Options) (*domain.Response, error) {
	ctx = logging.WithFields(ctx,
		zap.String(logging.OrderID, opts.OrderID),
		zap.Stringer(logging.PaymentAction, domain.PaymentActionTypePurchase))

	doc, err := g.buildPayment(money, card, opts)
	if err != nil {
		logging.Error(ctx, "unable to build payment request", zap.Error(err))
		return nil, err
	}

	return g.commit(ctx, doc, rootPaymentResponse)
}

// Refund returns money from the transaction identified by reference, the
// UNIQUEREF of the original payment.
func (g *Gateway) Refund(ctx context.Context, money uint64, reference string, opts domain.Options) (*domain.Response, error) {
	ctx = logging.WithFields(ctx,
		zap.String(logging.Reference, reference),
		zap.Stringer(logging.PaymentAction, domain.PaymentActionTypeRefund))

	doc, err := g.buildRefund(money, reference, opts)
	if err != nil {
		logging.Error(ctx, "unable to build refund request", zap.Error(err))
		return nil, err
	}

	return g.commit(ctx, doc, rootRefundResponse)
}

// Authorize is not supported by this integration.
func (g *Gateway) Authorize(ctx context.Context, money uint64, card domain.CreditCard, opts domain.Options) (*domain.Response, error) {
	return nil, notImplemented(domain.PaymentActionTypeAuthorization)
}

// Capture is not supported by this integration.
func (g *Gateway) Capture(ctx context.Context, money uint64, authorization string, opts domain.Options) (*domain.Response, error) {
	return nil, notImplemented(domain.PaymentActionTypeCapture)
}

// Void is not supported by this integration.
func (g *Gateway) Void(ctx context.Context, authorization string, opts domain.Options) (*domain.Response, error) {
	return nil, notImplemented(domain.PaymentActionTypeVoid)
}

// Verify authorizes a nominal amount and then voids the authorization. The
// outcome is that of the authorization; the void result is discarded.
func (g *Gateway) Verify(ctx context.Context, card domain.CreditCard, opts domain.Options) (*domain.Response, error) {
	ctx = logging.WithFields(ctx, zap.Stringer(logging.PaymentAction, domain.PaymentActionTypeVerify))

	return useFirstResponse(ctx,
		func(ctx context.Context) (*domain.Response, error) {
			return g.Authorize(ctx, verifyAmount, card, opts)
		},
		func(ctx context.Context, first *domain.Response) (*domain.Response, error) {
			var authorization string
			if first != nil {
				authorization = first.Authorization
			}
			return g.Void(ctx, authorization, opts)
		},
	)
}

func notImplemented(action domain.PaymentActionType) error {
	return errors.WithMessage(domain.ErrNotImplemented, action.String())
}
