package domain

import (
	"fmt"
	"strings"
)

// Amount is a monetary value in minor units. Exponent is the number of
// decimal places MinorUnits carries; zero means the processor's default.
type Amount struct {
	MinorUnits uint64
	Currency   string
	Exponent   uint8
}

// CreditCard is the payment instrument sent with a PAYMENT request.
type CreditCard struct {
	Number string
	Brand  string
	Name   string
	CVV    string
	Expiry Expiry
}

// Expiry holds the card expiry. Year may be given with two or four digits.
type Expiry struct {
	Month int
	Year  int
}

// MMYY formats the expiry as a zero padded month followed by the last two
// digits of the year.
func (e Expiry) MMYY() string {
	return fmt.Sprintf("%02d%02d", e.Month, e.Year%100)
}

// Valid reports whether the month is in range and the year is not negative.
func (e Expiry) Valid() bool {
	return e.Month >= 1 && e.Month <= 12 && e.Year >= 0
}

// UpperBrand returns the card brand as the processor expects it.
func (c CreditCard) UpperBrand() string {
	return strings.ToUpper(c.Brand)
}

// Options carries the per call fields of a gateway operation.
// TerminalID, Secret and Currency fall back to the gateway configuration when empty.
type Options struct {
	OrderID     string
	TerminalID  string
	Currency    string
	Secret      string
	Operator    string
	Reason      string
	Description string
}

// Response is the normalised result of a single call to the processor.
// Empty strings mean the processor did not return the field.
type Response struct {
	Success       bool
	Message       string
	Params        map[string]interface{}
	Authorization string
	UniqueRef     string
	Test          bool
	ErrorCode     string
}
