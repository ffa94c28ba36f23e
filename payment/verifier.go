package payment

import (
	"crypto/subtle"
	"net/url"
	"strings"

	"robokassa/hash"
	"robokassa/signature"
)

// Verifier recomputes the check signature of an inbound notification.
type Verifier struct {
	creds Credentials
	alg   hash.Algorithm
}

func NewVerifier(creds Credentials, alg hash.Algorithm) (*Verifier, error) {
	if !alg.Valid() {
		return nil, hash.ErrUnsupportedAlgorithm
	}
	return &Verifier{creds: creds, alg: alg}, nil
}

// SuccessOrFailValid checks the signature of a SuccessURL or FailURL redirect.
func (v *Verifier) SuccessOrFailValid(claimed string, outSum signature.Amount, invID string, extra signature.Params) bool {
	return v.valid(claimed, v.creds.Password1, outSum, invID, extra)
}

// ResultValid checks the signature of the ResultURL callback.
func (v *Verifier) ResultValid(claimed string, outSum signature.Amount, invID string, extra signature.Params) bool {
	return v.valid(claimed, v.creds.Password2, outSum, invID, extra)
}

func (v *Verifier) valid(claimed, password string, outSum signature.Amount, invID string, extra signature.Params) bool {
	expected, err := signature.NewCheck(v.alg, outSum, invID, password, extra)
	if err != nil {
		return false
	}
	// the gateway sends upper-case hex
	got := strings.ToLower(strings.TrimSpace(claimed))
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected.String())) == 1
}

// ExtraParams collects the prefixed fields the gateway echoed back,
// matching the prefix case-insensitively and keeping keys as received.
func ExtraParams(form url.Values, prefix string) signature.Params {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	want := strings.ToLower(prefix) + "_"

	out := signature.Params{}
	for k, vals := range form {
		if len(vals) == 0 || !strings.HasPrefix(strings.ToLower(k), want) {
			continue
		}
		out[k] = vals[0]
	}
	return out
}
