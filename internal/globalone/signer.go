package globalone

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
)

// Digest names the one-way hash used for the HASH field.
type Digest string

// Supported digests. md5 is the processor default.
const (
	DigestMD5    Digest = "md5"
	DigestSHA256 Digest = "sha256"
	DigestSHA512 Digest = "sha512"
)

var digests = map[Digest]func() hash.Hash{
	DigestMD5:    md5.New,
	DigestSHA256: sha256.New,
	DigestSHA512: sha512.New,
}

// HashLayout selects which fields are concatenated into the HASH input.
type HashLayout string

const (
	// HashWithCurrency hashes terminal id, id, currency, amount, datetime, secret.
	HashWithCurrency HashLayout = "with_currency"
	// HashWithoutCurrency hashes terminal id, id, amount, datetime, secret.
	HashWithoutCurrency HashLayout = "without_currency"
)

// HashFields are the values fed to the signer. They must be exactly the
// strings written to the request body.
type HashFields struct {
	TerminalID string
	ID         string
	Currency   string
	Amount     string
	DateTime   string
	Secret     string
}

// Input returns the concatenated hash input for the layout.
func (f HashFields) Input(layout HashLayout) string {
	var b strings.Builder
	b.WriteString(f.TerminalID)
	b.WriteString(f.ID)
	if layout != HashWithoutCurrency {
		b.WriteString(f.Currency)
	}
	b.WriteString(f.Amount)
	b.WriteString(f.DateTime)
	b.WriteString(f.Secret)
	return b.String()
}

// Sign returns the lower case hex digest of the hash input. Unknown digests
// and layouts are a *domain.ConfigurationError.
func Sign(d Digest, layout HashLayout, f HashFields) (string, error) {
	newHash, ok := digests[d]
	if !ok {
		return "", &domain.ConfigurationError{Field: "digest", Reason: "unsupported " + string(d)}
	}
	if !validHashLayout(layout) {
		return "", &domain.ConfigurationError{Field: "hash_layout", Reason: "unsupported " + string(layout)}
	}
	h := newHash()
	h.Write([]byte(f.Input(layout)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func validDigest(d Digest) bool {
	_, ok := digests[d]
	return ok
}

func validHashLayout(l HashLayout) bool {
	return l == HashWithCurrency || l == HashWithoutCurrency
}
