package globalone

import (
	"encoding/xml"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
)

const (
	dateTimeLayout = "02-01-2006:15:04:05.000"

	transactionTypeSale = 7

	rootPaymentResponse = "PAYMENTRESPONSE"
	rootRefundResponse  = "REFUNDRESPONSE"
)

type paymentRequest struct {
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
	TerminalType    int      `xml:"TERMINALTYPE"`
	TransactionType int      `xml:"TRANSACTIONTYPE"`
	CVV             string   `xml:"CVV,omitempty"`
}

type refundRequest struct {
	XMLName    xml.Name `xml:"REFUND"`
	UniqueRef  string   `xml:"UNIQUEREF"`
	TerminalID string   `xml:"TERMINALID"`
	Amount     string   `xml:"AMOUNT"`
	DateTime   string   `xml:"DATETIME"`
	Hash       string   `xml:"HASH"`
	Operator   string   `xml:"OPERATOR"`
	Reason     string   `xml:"REASON"`
}

// resolve fills credential and currency gaps from the gateway configuration.
func (g *Gateway) resolve(opts domain.Options) domain.Options {
	if opts.TerminalID == "" {
		opts.TerminalID = g.cfg.TerminalID
	}
	if opts.Secret == "" {
		opts.Secret = g.cfg.Secret
	}
	if opts.Currency == "" {
		opts.Currency = g.cfg.Currency
	}
	return opts
}

type field struct {
	name  string
	value string
}

func checkRequired(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return &domain.MissingFieldError{Field: f.name}
		}
	}
	return nil
}

// includeCVV reports whether the CVV element is written for this deployment.
func (g *Gateway) includeCVV() bool {
	return g.cfg.CVVPolicy == CVVAlways || !g.cfg.Test
}

func (g *Gateway) buildPayment(money uint64, card domain.CreditCard, opts domain.Options) ([]byte, error) {
	opts = g.resolve(opts)
	if err := checkRequired(
		field{"order_id", opts.OrderID},
		field{"terminal_id", opts.TerminalID},
		field{"secret", opts.Secret},
		field{"currency", opts.Currency},
	); err != nil {
		return nil, err
	}

	amount := strconv.FormatUint(money, 10)
	dateTime := g.clock.Now().Format(dateTimeLayout)

	hash, err := Sign(g.cfg.Digest, g.cfg.HashLayout, HashFields{
		TerminalID: opts.TerminalID,
		ID:         opts.OrderID,
		Currency:   opts.Currency,
		Amount:     amount,
		DateTime:   dateTime,
		Secret:     opts.Secret,
	})
	if err != nil {
		return nil, err
	}

	req := paymentRequest{
		OrderID:         opts.OrderID,
		TerminalID:      opts.TerminalID,
		Amount:          amount,
		DateTime:        dateTime,
		CardNumber:      card.Number,
		CardType:        card.UpperBrand(),
		CardExpiry:      card.Expiry.MMYY(),
		CardholderName:  card.Name,
		Currency:        opts.Currency,
		TerminalType:    g.cfg.TerminalType,
		TransactionType: transactionTypeSale,
		Hash:            hash,
	}
	if g.includeCVV() {
		req.CVV = card.CVV
	}

	return marshal(req)
}

func (g *Gateway) buildRefund(money uint64, reference string, opts domain.Options) ([]byte, error) {
	opts = g.resolve(opts)
	if err := checkRequired(
		field{"unique_ref", reference},
		field{"terminal_id", opts.TerminalID},
		field{"secret", opts.Secret},
		field{"currency", opts.Currency},
		field{"operator", opts.Operator},
		field{"reason", opts.Reason},
	); err != nil {
		return nil, err
	}

	amount := strconv.FormatUint(money, 10)
	dateTime := g.clock.Now().Format(dateTimeLayout)

	hash, err := Sign(g.cfg.Digest, g.cfg.HashLayout, HashFields{
		TerminalID: opts.TerminalID,
		ID:         reference,
		Currency:   opts.Currency,
		Amount:     amount,
		DateTime:   dateTime,
		Secret:     opts.Secret,
	})
	if err != nil {
		return nil, err
	}

	req := refundRequest{
		UniqueRef:  reference,
		TerminalID: opts.TerminalID,
		Amount:     amount,
		DateTime:   dateTime,
		Operator:   opts.Operator,
		Reason:     opts.Reason,
		Hash:       hash,
	}

	return marshal(req)
}

func marshal(v interface{}) ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling request")
	}
	return append([]byte(xml.Header), body...), nil
}
