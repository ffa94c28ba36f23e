// Package signature builds the colon-separated canonical string Robokassa
// hashes for payment links and callback checks.
package signature

import (
	"crypto/subtle"
	"errors"
	"strings"

	"robokassa/hash"
)

const separator = ":"

var ErrUnusedStrictURLParameter = errors.New("success/fail url and its http method must be set together")

// Input is the field set of a signature. Empty strings are treated as absent,
// except InvID which is always part of the canonical string.
type Input struct {
	MerchantLogin string
	OutSum        Amount
	InvID         string

	ResultURL string

	SuccessURL    string
	SuccessMethod string

	FailURL    string
	FailMethod string

	Password string

	Additional Params
}

// Validate checks that each redirect URL comes with its HTTP method.
func (in Input) Validate() error {
	if !paired(in.SuccessURL, in.SuccessMethod) || !paired(in.FailURL, in.FailMethod) {
		return ErrUnusedStrictURLParameter
	}
	return nil
}

func paired(url, method string) bool {
	return (url == "") == (method == "")
}

// Canonical returns the string that is hashed into the signature.
func (in Input) Canonical() (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	fields := make([]string, 0, 10+len(in.Additional))
	fields = appendPresent(fields, in.MerchantLogin)
	fields = appendPresent(fields, in.OutSum.String())
	fields = append(fields, in.InvID)
	fields = appendPresent(fields,
		in.ResultURL,
		in.SuccessURL,
		in.SuccessMethod,
		in.FailURL,
		in.FailMethod,
		in.Password,
	)
	fields = append(fields, in.Additional.Pairs()...)

	return strings.Join(fields, separator), nil
}

func appendPresent(dst []string, values ...string) []string {
	for _, v := range values {
		if v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}

// Signature is a computed or claimed digest value.
type Signature struct {
	value string
}

// New computes the signature of in with alg.
func New(alg hash.Algorithm, in Input) (Signature, error) {
	canonical, err := in.Canonical()
	if err != nil {
		return Signature{}, err
	}
	digest, err := hash.Sum(alg, canonical)
	if err != nil {
		return Signature{}, err
	}
	return Signature{value: digest}, nil
}

// NewCheck computes the signature used to validate an inbound notification:
// out_sum:inv_id:password followed by the sorted additional params.
func NewCheck(alg hash.Algorithm, outSum Amount, invID, password string, params Params) (Signature, error) {
	return New(alg, Input{
		OutSum:     outSum,
		InvID:      invID,
		Password:   password,
		Additional: params,
	})
}

// FromValue wraps a digest received from elsewhere, e.g. a stored or claimed value.
func FromValue(value string) Signature {
	return Signature{value: value}
}

func (s Signature) String() string { return s.value }

// Equal reports whether both digests are identical, in constant time.
func (s Signature) Equal(other Signature) bool {
	return subtle.ConstantTimeCompare([]byte(s.value), []byte(other.value)) == 1
}
