//go:generate mockgen -package transporthttp -self_package github.com/jeffreyyong/globalone-gateway/internal/transport/transporthttp -destination handler_mock.go github.com/jeffreyyong/globalone-gateway/internal/transport/transporthttp Service

package transporthttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/gorilla/mux"
	uuid "github.com/kevinburke/go.uuid"
	"go.uber.org/zap"

	appcontext "github.com/jeffreyyong/globalone-gateway/internal/app/context"
	"github.com/jeffreyyong/globalone-gateway/internal/app/listeners/httplistener"
	"github.com/jeffreyyong/globalone-gateway/internal/domain"
	"github.com/jeffreyyong/globalone-gateway/internal/logging"
)

const (
	EndpointPurchase  = "/purchase"
	EndpointAuthorize = "/authorize"
	EndpointCapture   = "/capture"
	EndpointRefund    = "/refund"
	EndpointVoid      = "/void"
	EndpointVerify    = "/verify"

	ContentType     = "Content-Type"
	ApplicationJSON = "application/json"
)

// Service represents an interface for a service layer allowing HTTP routing logic and business logic to be separated
type Service interface {
	Purchase(ctx context.Context, authorization *domain.Authorization) (*domain.Response, error)
	Authorize(ctx context.Context, authorization *domain.Authorization) (*domain.Response, error)
	Capture(ctx context.Context, capture *domain.Capture) (*domain.Response, error)
	Refund(ctx context.Context, refund *domain.Refund) (*domain.Response, error)
	Void(ctx context.Context, void *domain.Void) (*domain.Response, error)
	Verify(ctx context.Context, verify *domain.Verify) (*domain.Response, error)
}

// httpHandler is the http handler that will enable
// calls to this service via HTTP REST
type httpHandler struct {
	service         Service
	middlewareFuncs []mux.MiddlewareFunc
}

// NewHTTPHandler will create a new instance of httpHandler
func NewHTTPHandler(service Service, opts ...MiddlewareFunc) (*httpHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("%w: service", errors.New("invalid param"))
	}

	h := &httpHandler{
		service: service,
	}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// ApplyRoutes will link the HTTP REST endpoint to the corresponding function in this handler
func (h *httpHandler) ApplyRoutes(m *httplistener.Mux) {
	m.Use(h.middlewareFuncs...)

	m.HandleFunc(EndpointPurchase, h.Purchase).Methods(http.MethodPost)
	m.HandleFunc(EndpointAuthorize, h.Authorize).Methods(http.MethodPost)
	m.HandleFunc(EndpointCapture, h.Capture).Methods(http.MethodPost)
	m.HandleFunc(EndpointRefund, h.Refund).Methods(http.MethodPost)
	m.HandleFunc(EndpointVoid, h.Void).Methods(http.MethodPost)
	m.HandleFunc(EndpointVerify, h.Verify).Methods(http.MethodPost)
}

// decode reads the JSON body into v, writing a bad_request response when it can't.
func decode(ctx context.Context, w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		errMsg := "error reading request body"
		logging.Error(ctx, errMsg, zap.Error(err))
		_ = WriteError(w, errMsg, CodeBadRequest)
		return false
	}

	if len(body) == 0 {
		errMsg := "missing request body"
		logging.Error(ctx, errMsg)
		_ = WriteError(w, errMsg, CodeBadRequest)
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		errMsg := "failed to unmarshal request body"
		logging.Error(ctx, errMsg, zap.Error(err))
		_ = WriteError(w, errMsg, CodeBadRequest)
		return false
	}

	return true
}

// requestID prefers the body's id, then the one the listener took from
// X-Request-ID.
func requestID(ctx context.Context, id string) string {
	if id != "" {
		return id
	}
	if inbound := appcontext.GetRequestID(ctx); inbound != "" {
		return inbound
	}
	return uuid.NewV4().String()
}

func toCard(c Card) domain.CreditCard {
	return domain.CreditCard{
		Number: c.Number,
		Brand:  c.Brand,
		Name:   c.Name,
		CVV:    c.CVV,
		Expiry: domain.Expiry{
			Month: c.ExpiryMonth,
			Year:  c.ExpiryYear,
		},
	}
}

func toAmount(a Amount) domain.Amount {
	return domain.Amount{
		MinorUnits: a.MinorUnits,
		Currency:   a.Currency,
		Exponent:   a.Exponent,
	}
}

func toOptions(o Options) domain.Options {
	return domain.Options{
		OrderID:     o.OrderID,
		TerminalID:  o.TerminalID,
		Currency:    o.Currency,
		Operator:    o.Operator,
		Reason:      o.Reason,
		Description: o.Description,
	}
}

// respond writes the service result. A declined payment is still a 200.
func respond(ctx context.Context, w http.ResponseWriter, action domain.PaymentActionType, reqID string, resp *domain.Response, err error) {
	if err != nil {
		errMsg := fmt.Sprintf("failed to process %s in service", action)
		logging.Error(ctx, errMsg, zap.Error(err))
		_ = WriteError(w, fmt.Sprintf("%s: %v", errMsg, err), errorCode(err))
		return
	}

	res := Response{
		RequestID:     reqID,
		Success:       resp.Success,
		Message:       resp.Message,
		Authorization: resp.Authorization,
		UniqueRef:     resp.UniqueRef,
		ErrorCode:     resp.ErrorCode,
		Test:          resp.Test,
		Params:        resp.Params,
	}

	w.Header().Add(ContentType, ApplicationJSON)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		errMsg := "error encoding json response"
		logging.Error(ctx, errMsg, zap.Error(err))
		_ = WriteError(w, errMsg, CodeUnknownFailure)
	}
}

func (h *httpHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	h.sale(w, r, domain.PaymentActionTypePurchase, h.service.Purchase)
}

func (h *httpHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	h.sale(w, r, domain.PaymentActionTypeAuthorization, h.service.Authorize)
}

func (h *httpHandler) sale(w http.ResponseWriter, r *http.Request, action domain.PaymentActionType,
	call func(context.Context, *domain.Authorization) (*domain.Response, error)) {
	ctx := r.Context()

	var req PurchaseRequest
	if !decode(ctx, w, r, &req) {
		return
	}

	reqID := requestID(ctx, req.RequestID)
	resp, err := call(ctx, &domain.Authorization{
		RequestID: reqID,
		Card:      toCard(req.Card),
		Amount:    toAmount(req.Amount),
		Options:   toOptions(req.Options),
	})
	respond(ctx, w, action, reqID, resp, err)
}

func (h *httpHandler) Capture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CaptureRequest
	if !decode(ctx, w, r, &req) {
		return
	}

	reqID := requestID(ctx, req.RequestID)
	resp, err := h.service.Capture(ctx, &domain.Capture{
		RequestID:     reqID,
		Authorization: req.Authorization,
		Amount:        toAmount(req.Amount),
		Options:       toOptions(req.Options),
	})
	respond(ctx, w, domain.PaymentActionTypeCapture, reqID, resp, err)
}

func (h *httpHandler) Refund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RefundRequest
	if !decode(ctx, w, r, &req) {
		return
	}

	reqID := requestID(ctx, req.RequestID)
	resp, err := h.service.Refund(ctx, &domain.Refund{
		RequestID: reqID,
		Reference: req.Reference,
		Amount:    toAmount(req.Amount),
		Options:   toOptions(req.Options),
	})
	respond(ctx, w, domain.PaymentActionTypeRefund, reqID, resp, err)
}

func (h *httpHandler) Void(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VoidRequest
	if !decode(ctx, w, r, &req) {
		return
	}

	reqID := requestID(ctx, req.RequestID)
	resp, err := h.service.Void(ctx, &domain.Void{
		RequestID:     reqID,
		Authorization: req.Authorization,
		Options:       toOptions(req.Options),
	})
	respond(ctx, w, domain.PaymentActionTypeVoid, reqID, resp, err)
}

func (h *httpHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerifyRequest
	if !decode(ctx, w, r, &req) {
		return
	}

	reqID := requestID(ctx, req.RequestID)
	resp, err := h.service.Verify(ctx, &domain.Verify{
		RequestID: reqID,
		Card:      toCard(req.Card),
		Options:   toOptions(req.Options),
	})
	respond(ctx, w, domain.PaymentActionTypeVerify, reqID, resp, err)
}
