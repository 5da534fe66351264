package transporthttp

// Do validation on http domain
type PurchaseRequest struct {
	RequestID string  `json:"request_id"`
	Card      Card    `json:"card"`
	Amount    Amount  `json:"amount"`
	Options   Options `json:"options"`
}

type CaptureRequest struct {
	RequestID     string  `json:"request_id"`
	Authorization string  `json:"authorization"`
	Amount        Amount  `json:"amount"`
	Options       Options `json:"options"`
}

type RefundRequest struct {
	RequestID string  `json:"request_id"`
	Reference string  `json:"unique_ref"`
	Amount    Amount  `json:"amount"`
	Options   Options `json:"options"`
}

type VoidRequest struct {
	RequestID     string  `json:"request_id"`
	Authorization string  `json:"authorization"`
	Options       Options `json:"options"`
}

type VerifyRequest struct {
	RequestID string  `json:"request_id"`
	Card      Card    `json:"card"`
	Options   Options `json:"options"`
}

type Card struct {
	Number      string `json:"number"`
	Brand       string `json:"brand"`
	Name        string `json:"name"`
	CVV         string `json:"cvv"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
}

type Amount struct {
	MinorUnits uint64 `json:"minor_units"`
	Exponent   uint8  `json:"exponent"`
	Currency   string `json:"currency"`
}

// Options are the per call overrides. The terminal secret is never accepted
// over HTTP.
type Options struct {
	OrderID     string `json:"order_id,omitempty"`
	TerminalID  string `json:"terminal_id,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Operator    string `json:"operator,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Description string `json:"description,omitempty"`
}

type Response struct {
	RequestID     string                 `json:"request_id"`
	Success       bool                   `json:"success"`
	Message       string                 `json:"message"`
	Authorization string                 `json:"authorization,omitempty"`
	UniqueRef     string                 `json:"unique_ref,omitempty"`
	ErrorCode     string                 `json:"error_code,omitempty"`
	Test          bool                   `json:"test"`
	Params        map[string]interface{} `json:"params,omitempty"`
}
