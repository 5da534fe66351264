package domain

// PaymentActionType is the type of payment action.
type PaymentActionType string

// String() returns the string form and makes PaymentActionType to be a stringer.
func (p PaymentActionType) String() string {
	return string(p)
}

const (
	// PaymentActionTypePurchase is an authorization with immediate capture.
	PaymentActionTypePurchase PaymentActionType = "purchase"
	// PaymentActionTypeAuthorization is type authorization.
	PaymentActionTypeAuthorization PaymentActionType = "authorization"
	// PaymentActionTypeVoid is type void.
	PaymentActionTypeVoid PaymentActionType = "void"
	// PaymentActionTypeCapture is type capture.
	PaymentActionTypeCapture PaymentActionType = "capture"
	// PaymentActionTypeRefund is type refund.
	PaymentActionTypeRefund PaymentActionType = "refund"
	// PaymentActionTypeVerify is an authorization immediately followed by a void.
	PaymentActionTypeVerify PaymentActionType = "verify"
)

// Authorization is the domain for making a purchase or authorization request.
type Authorization struct {
	RequestID string
	Card      CreditCard
	Amount    Amount
	Options   Options
}

// Capture is the domain for making capture request.
type Capture struct {
	RequestID     string
	Authorization string
	Amount        Amount
	Options       Options
}

// Refund is the domain for making refund request.
// Reference is the UNIQUEREF of the transaction being refunded.
type Refund struct {
	RequestID string
	Reference string
	Amount    Amount
	Options   Options
}

// Void is the domain for making void request.
// It does not take in Amount as void is for the whole transaction.
type Void struct {
	RequestID     string
	Authorization string
	Options       Options
}

// Verify is the domain for checking a card with a nominal authorization.
type Verify struct {
	RequestID string
	Card      CreditCard
	Options   Options
}
