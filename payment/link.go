package payment

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"robokassa/hash"
	"robokassa/signature"
)

var ErrMissingOutSum = errors.New("out sum is required")

const (
	PaymentPageURL = "https://auth.robokassa.ru/Merchant/Index.aspx"
	DefaultPrefix  = "shp"
)

// LinkRequest describes one payment page link.
type LinkRequest struct {
	OutSum      signature.Amount
	InvID       int64
	Description string

	ResultURL     string
	SuccessURL    string
	SuccessMethod string
	FailURL       string
	FailMethod    string

	// Prefix overrides the builder prefix for Extra keys.
	Prefix string
	Extra  signature.Params
}

// LinkBuilder produces payment page URLs without touching the network.
type LinkBuilder struct {
	creds   Credentials
	alg     hash.Algorithm
	isTest  bool
	prefix  string
	baseURL string
}

type LinkOption func(*LinkBuilder)

func WithLinkPrefix(prefix string) LinkOption {
	return func(b *LinkBuilder) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

func WithPaymentPageURL(u string) LinkOption {
	return func(b *LinkBuilder) {
		if u != "" {
			b.baseURL = u
		}
	}
}

func NewLinkBuilder(creds Credentials, alg hash.Algorithm, isTest bool, opts ...LinkOption) (*LinkBuilder, error) {
	if !alg.Valid() {
		return nil, hash.ErrUnsupportedAlgorithm
	}
	b := &LinkBuilder{
		creds:   creds,
		alg:     alg,
		isTest:  isTest,
		prefix:  DefaultPrefix,
		baseURL: PaymentPageURL,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Generate signs req with Password1 and returns the payment page URL.
// Extra parameters are appended after the encoded query exactly as they
// were signed, without escaping, because the gateway compares them raw.
func (b *LinkBuilder) Generate(req LinkRequest) (string, error) {
	if req.OutSum.IsZero() {
		return "", ErrMissingOutSum
	}
	prefix := req.Prefix
	if prefix == "" {
		prefix = b.prefix
	}
	extra := req.Extra.WithPrefix(prefix)
	invID := strconv.FormatInt(req.InvID, 10)

	in := signature.Input{
		MerchantLogin: b.creds.MerchantLogin,
		OutSum:        req.OutSum,
		InvID:         invID,
		ResultURL:     req.ResultURL,
		SuccessURL:    req.SuccessURL,
		SuccessMethod: req.SuccessMethod,
		FailURL:       req.FailURL,
		FailMethod:    req.FailMethod,
		Password:      b.creds.Password1,
		Additional:    extra,
	}
	if err := in.Validate(); err != nil {
		return "", err
	}
	if err := ValidateMethods(req.SuccessMethod, req.FailMethod); err != nil {
		return "", err
	}

	sig, err := signature.New(b.alg, in)
	if err != nil {
		return "", err
	}

	var q query
	q.add("MerchantLogin", b.creds.MerchantLogin)
	q.add("OutSum", req.OutSum.String())
	q.add("InvId", invID)
	q.add("Description", req.Description)
	q.add("ResultUrl2", req.ResultURL)
	q.add("SuccessUrl2", req.SuccessURL)
	q.add("SuccessUrl2Method", req.SuccessMethod)
	q.add("FailUrl2", req.FailURL)
	q.add("FailUrl2Method", req.FailMethod)
	q.add("SignatureValue", sig.String())
	q.add("IsTest", boolFlag(b.isTest))

	link := b.baseURL + "?" + q.String()
	if pairs := extra.Pairs(); len(pairs) > 0 {
		link += "&" + strings.Join(pairs, "&")
	}
	return link, nil
}

// query keeps insertion order, unlike url.Values.Encode.
type query struct {
	b strings.Builder
}

func (q *query) add(key, value string) {
	if value == "" {
		return
	}
	if q.b.Len() > 0 {
		q.b.WriteByte('&')
	}
	q.b.WriteString(url.QueryEscape(key))
	q.b.WriteByte('=')
	q.b.WriteString(url.QueryEscape(value))
}

func (q *query) String() string { return q.b.String() }

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
