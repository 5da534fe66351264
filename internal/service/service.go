//go:generate mockgen -destination=./mocks/gateway_mock.go -package=mocks github.com/jeffreyyong/globalone-gateway/internal/service Gateway

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	uuid "github.com/kevinburke/go.uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
	"github.com/jeffreyyong/globalone-gateway/internal/globalone"
	"github.com/jeffreyyong/globalone-gateway/internal/logging"
	"github.com/jeffreyyong/globalone-gateway/internal/luhn"
	"github.com/jeffreyyong/globalone-gateway/internal/metrics"
)

// orderIDLength is the longest ORDERID the processor accepts.
const orderIDLength = 12

// Gateway is the payment processor interface
type Gateway interface {
	Purchase(ctx context.Context, money uint64, card domain.CreditCard, opts domain.Options) (*domain.Response, error)
	Authorize(ctx context.Context, money uint64, card domain.CreditCard, opts domain.Options) (*domain.Response, error)
	Capture(ctx context.Context, money uint64, authorization string, opts domain.Options) (*domain.Response, error)
	Refund(ctx context.Context, money uint64, reference string, opts domain.Options) (*domain.Response, error)
	Void(ctx context.Context, authorization string, opts domain.Options) (*domain.Response, error)
	Verify(ctx context.Context, card domain.CreditCard, opts domain.Options) (*domain.Response, error)
}

// Service is the service struct.
type Service struct {
	gateway    Gateway
	newOrderID func() string
}

// NewService initialises a new service with the gateway and some opts.
func NewService(gateway Gateway, opts ...Option) (*Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("%w: gateway", errors.New("invalid param"))
	}

	s := &Service{gateway: gateway, newOrderID: randomOrderID}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func randomOrderID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewV4().String(), "-", ""))[:orderIDLength]
}

func validateCard(card domain.CreditCard) error {
	if err := luhn.Validate(card.Number); err != nil {
		return err
	}
	if !globalone.SupportsCardType(card.Brand) {
		return fmt.Errorf("card type %q is not supported", card.Brand)
	}
	if !card.Expiry.Valid() {
		return errors.New("card expiry is invalid")
	}
	return nil
}

func validateAmount(amount domain.Amount) error {
	if amount.Exponent != 0 && amount.Exponent != globalone.AmountExponent {
		return errors.Wrapf(domain.ErrUnprocessable, "amount exponent %d is not supported", amount.Exponent)
	}
	return nil
}

// withAmount fills the currency option from the amount.
func withAmount(opts domain.Options, amount domain.Amount) domain.Options {
	if opts.Currency == "" {
		opts.Currency = amount.Currency
	}
	return opts
}

func logResult(ctx context.Context, resp *domain.Response) {
	if resp.Success {
		logging.Print(ctx, "gateway approved",
			zap.String("authorization", resp.Authorization),
			zap.String(logging.Reference, resp.UniqueRef))
		return
	}
	logging.Print(ctx, "gateway declined",
		zap.String("message", resp.Message),
		zap.String("error_code", resp.ErrorCode))
}

// Purchase validates the card, assigns an order id when missing and sends a
// sale to the gateway. A decline is a successful call returning an
// unsuccessful response.
func (s *Service) Purchase(ctx context.Context, authorization *domain.Authorization) (*domain.Response, error) {
	return s.sale(ctx, authorization, domain.PaymentActionTypePurchase, s.gateway.Purchase)
}

// Authorize validates the card and asks the gateway for an authorization only.
func (s *Service) Authorize(ctx context.Context, authorization *domain.Authorization) (*domain.Response, error) {
	return s.sale(ctx, authorization, domain.PaymentActionTypeAuthorization, s.gateway.Authorize)
}

type saleFunc func(ctx context.Context, money uint64, card domain.CreditCard, opts domain.Options) (*domain.Response, error)

func (s *Service) sale(ctx context.Context, authorization *domain.Authorization, action domain.PaymentActionType, send saleFunc) (*domain.Response, error) {
	errLogMsg := fmt.Sprintf("unable to %s payment", action)

	opts := withAmount(authorization.Options, authorization.Amount)
	if opts.OrderID == "" {
		opts.OrderID = s.newOrderID()
	}

	ctx = logging.WithFields(ctx,
		zap.String(logging.RequestID, authorization.RequestID),
		zap.String(logging.OrderID, opts.OrderID),
		zap.Stringer(logging.PaymentAction, action))

	if err := validateCard(authorization.Card); err != nil {
		err = errors.Wrap(domain.ErrUnprocessable, err.Error())
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}
	if err := validateAmount(authorization.Amount); err != nil {
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}

	start := time.Now()
	resp, err := send(ctx, authorization.Amount.MinorUnits, authorization.Card, opts)
	metrics.ObserveGateway(action, resp, err, time.Since(start))
	if err != nil {
		err = errors.Wrapf(err, "gateway %s", action)
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}

	logResult(ctx, resp)
	return resp, nil
}

// Capture settles a previous authorization.
func (s *Service) Capture(ctx context.Context, capture *domain.Capture) (*domain.Response, error) {
	const errLogMsg = "unable to capture payment"
	ctx = logging.WithFields(ctx,
		zap.String(logging.RequestID, capture.RequestID),
		zap.String("authorization", capture.Authorization),
		zap.Stringer(logging.PaymentAction, domain.PaymentActionTypeCapture))

	if capture.Authorization == "" {
		err := &domain.MissingFieldError{Field: "authorization"}
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}
	if err := validateAmount(capture.Amount); err != nil {
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}

	start := time.Now()
	resp, err := s.gateway.Capture(ctx, capture.Amount.MinorUnits, capture.Authorization, withAmount(capture.Options, capture.Amount))
	metrics.ObserveGateway(domain.PaymentActionTypeCapture, resp, err, time.Since(start))
	if err != nil {
		err = errors.Wrap(err, "gateway capture")
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}

	logResult(ctx, resp)
	return resp, nil
}

// Refund returns money from the payment identified by its unique reference.
func (s *Service) Refund(ctx context.Context, refund *domain.Refund) (*domain.Response, error) {
	const errLogMsg = "unable to refund payment"
	ctx = logging.WithFields(ctx,
		zap.String(logging.RequestID, refund.RequestID),
		zap.String(logging.Reference, refund.Reference),
		zap.Stringer(logging.PaymentAction, domain.PaymentActionTypeRefund))

	if err := validateAmount(refund.Amount); err != nil {
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}

	start := time.Now()
	resp, err := s.gateway.Refund(ctx, refund.Amount.MinorUnits, refund.Reference, withAmount(refund.Options, refund.Amount))
	metrics.ObserveGateway(domain.PaymentActionTypeRefund, resp, err, time.Since(start))
	if err != nil {
		err = errors.Wrap(err, "gateway refund")
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}

	logResult(ctx, resp)
	return resp, nil
}

// Void cancels a previous authorization.
func (s *Service) Void(ctx context.Context, void *domain.Void) (*domain.Response, error) {
	const errLogMsg = "unable to void payment"
	ctx = logging.WithFields(ctx,
		zap.String(logging.RequestID, void.RequestID),
		zap.String("authorization", void.Authorization),
		zap.Stringer(logging.PaymentAction, domain.PaymentActionTypeVoid))

	start := time.Now()
	resp, err := s.gateway.Void(ctx, void.Authorization, void.Options)
	metrics.ObserveGateway(domain.PaymentActionTypeVoid, resp, err, time.Since(start))
	if err != nil {
		err = errors.Wrap(err, "gateway void")
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}

	logResult(ctx, resp)
	return resp, nil
}

// Verify validates the card and checks it with the gateway's authorize then
// void sequence.
func (s *Service) Verify(ctx context.Context, verify *domain.Verify) (*domain.Response, error) {
	const errLogMsg = "unable to verify card"

	opts := verify.Options
	if opts.OrderID == "" {
		opts.OrderID = s.newOrderID()
	}

	ctx = logging.WithFields(ctx,
		zap.String(logging.RequestID, verify.RequestID),
		zap.String(logging.OrderID, opts.OrderID),
		zap.Stringer(logging.PaymentAction, domain.PaymentActionTypeVerify))

	if err := validateCard(verify.Card); err != nil {
		err = errors.Wrap(domain.ErrUnprocessable, err.Error())
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}

	start := time.Now()
	resp, err := s.gateway.Verify(ctx, verify.Card, opts)
	metrics.ObserveGateway(domain.PaymentActionTypeVerify, resp, err, time.Since(start))
	if err != nil {
		err = errors.Wrap(err, "gateway verify")
		logging.Error(ctx, errLogMsg, zap.Error(err))
		return nil, err
	}

	logResult(ctx, resp)
	return resp, nil
}
