package globalone

import "strings"

// Processor metadata and endpoints.
const (
	DisplayName     = "GlobalOne"
	HomepageURL     = "http://globalone.me/"
	DefaultCurrency = "CAD"
	DefaultTestURL  = "https://testpayments.globalone.me/merchant/xmlpayment"
	DefaultLiveURL  = "https://payments.globalone.me/merchant/xmlpayment"

	// AmountExponent is the decimal exponent of the AMOUNT field: amounts are
	// sent in cents.
	AmountExponent = 2
)

var (
	supportedCountries = []string{"CA", "US"}
	supportedCardTypes = []string{"visa", "master", "american_express", "diners_club", "jcb"}
)

// SupportedCountries returns the ISO country codes the processor accepts.
func SupportedCountries() []string {
	return append([]string(nil), supportedCountries...)
}

// SupportedCardTypes returns the card brands the processor accepts.
func SupportedCardTypes() []string {
	return append([]string(nil), supportedCardTypes...)
}

// SupportsCardType reports whether brand is accepted, ignoring case.
func SupportsCardType(brand string) bool {
	for _, b := range supportedCardTypes {
		if strings.EqualFold(b, brand) {
			return true
		}
	}
	return false
}
