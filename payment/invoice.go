package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"robokassa/gateway"
	"robokassa/hash"
	"robokassa/internal/logger"
	"robokassa/signature"
)

const (
	IndexJSONPath   = "Indexjson.aspx"
	InvoicePageBase = "https://auth.robokassa.ru/Merchant/Index"

	expirationLayout = "2006-01-02T15:04:05.0000000-07:00"
)

// InvoiceRequest is what a shop knows about an order. CreateURL turns it
// into signed PaymentParams.
type InvoiceRequest struct {
	OutSum         signature.Amount
	InvID          string
	Description    string
	IncCurrLabel   string
	PaymentMethods string
	Culture        Culture
	Encoding       string
	Email          string
	ExpirationDate time.Time

	Prefix string
	Extra  signature.Params
}

// InvoiceResult is delivered by CreateURLAsync.
type InvoiceResult struct {
	URL string
	Err error
}

// InvoiceService creates invoices through the JSON endpoint and returns
// the payment page URL for them.
type InvoiceService struct {
	transport  gateway.Transport
	creds      Credentials
	alg        hash.Algorithm
	isTest     bool
	prefix     string
	pageBase   string
	batchLimit int
	logger     *zap.Logger
}

type InvoiceOption func(*InvoiceService)

func WithInvoiceTestMode(isTest bool) InvoiceOption {
	return func(s *InvoiceService) { s.isTest = isTest }
}

func WithInvoicePrefix(prefix string) InvoiceOption {
	return func(s *InvoiceService) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithInvoicePageBase(base string) InvoiceOption {
	return func(s *InvoiceService) {
		if base != "" {
			s.pageBase = base
		}
	}
}

// WithBatchLimit bounds the goroutines used by CreateURLs.
func WithBatchLimit(n int) InvoiceOption {
	return func(s *InvoiceService) { s.batchLimit = n }
}

func WithInvoiceLogger(l *zap.Logger) InvoiceOption {
	return func(s *InvoiceService) { s.logger = l }
}

func NewInvoiceService(t gateway.Transport, creds Credentials, alg hash.Algorithm, opts ...InvoiceOption) (*InvoiceService, error) {
	if t == nil {
		return nil, errors.New("invoice service: nil transport")
	}
	if !alg.Valid() {
		return nil, hash.ErrUnsupportedAlgorithm
	}
	s := &InvoiceService{
		transport:  t,
		creds:      creds,
		alg:        alg,
		prefix:     DefaultPrefix,
		pageBase:   InvoicePageBase,
		batchLimit: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreatePaymentURL posts already signed params and returns {base}/{invoiceID}.
func (s *InvoiceService) CreatePaymentURL(ctx context.Context, p PaymentParams) (string, error) {
	log := logger.With(ctx, s.logger).With(
		zap.String("inv_id", p.InvID),
		zap.String("out_sum", p.OutSum.String()),
	)

	resp, err := s.transport.Do(ctx, gateway.Request{Path: IndexJSONPath, Form: p.Form()})
	if err != nil {
		return "", err
	}

	body, err := gateway.DecodeJSON(resp)
	if err != nil {
		log.Warn("Robokassa rejected invoice", zap.Error(err))
		return "", err
	}

	invoiceID, _ := body["invoiceID"].(string)
	if invoiceID == "" {
		return "", &gateway.Error{
			Kind:       gateway.KindMalformed,
			StatusCode: resp.StatusCode,
			Err:        errors.New("response has no invoiceID"),
		}
	}

	log.Info("Robokassa invoice created", zap.String("invoice_id", invoiceID))
	return s.pageBase + "/" + invoiceID, nil
}

// Params signs req with login:out_sum:inv_id:password1 and the prefixed extras.
func (s *InvoiceService) Params(req InvoiceRequest) (PaymentParams, error) {
	if req.OutSum.IsZero() {
		return PaymentParams{}, ErrMissingOutSum
	}
	if req.Culture != "" {
		if _, err := ParseCulture(string(req.Culture)); err != nil {
			return PaymentParams{}, err
		}
	}

	prefix := req.Prefix
	if prefix == "" {
		prefix = s.prefix
	}
	extra := req.Extra.WithPrefix(prefix)

	sig, err := signature.New(s.alg, signature.Input{
		MerchantLogin: s.creds.MerchantLogin,
		OutSum:        req.OutSum,
		InvID:         req.InvID,
		Password:      s.creds.Password1,
		Additional:    extra,
	})
	if err != nil {
		return PaymentParams{}, fmt.Errorf("sign invoice: %w", err)
	}

	p := PaymentParams{
		MerchantLogin:  s.creds.MerchantLogin,
		OutSum:         req.OutSum,
		Description:    req.Description,
		SignatureValue: sig.String(),
		IsTest:         s.isTest,
		IncCurrLabel:   req.IncCurrLabel,
		PaymentMethods: req.PaymentMethods,
		InvID:          req.InvID,
		Culture:        req.Culture,
		Encoding:       req.Encoding,
		Email:          req.Email,
		Additional:     extra,
	}
	if !req.ExpirationDate.IsZero() {
		p.ExpirationDate = req.ExpirationDate.Format(expirationLayout)
	}
	return p, nil
}

// CreateURL signs req and creates the invoice.
func (s *InvoiceService) CreateURL(ctx context.Context, req InvoiceRequest) (string, error) {
	p, err := s.Params(req)
	if err != nil {
		return "", err
	}
	return s.CreatePaymentURL(ctx, p)
}

// CreateURLAsync runs CreateURL in the background. The channel receives
// exactly one result and is then closed.
func (s *InvoiceService) CreateURLAsync(ctx context.Context, req InvoiceRequest) <-chan InvoiceResult {
	out := make(chan InvoiceResult, 1)
	go func() {
		defer close(out)
		u, err := s.CreateURL(ctx, req)
		out <- InvoiceResult{URL: u, Err: err}
	}()
	return out
}

// CreateURLs creates invoices concurrently. Results keep the order of reqs;
// failed entries are empty and their errors are joined.
func (s *InvoiceService) CreateURLs(ctx context.Context, reqs []InvoiceRequest) ([]string, error) {
	mapper := iter.Mapper[InvoiceRequest, string]{MaxGoroutines: s.batchLimit}
	return mapper.MapErr(reqs, func(req *InvoiceRequest) (string, error) {
		u, err := s.CreateURL(ctx, *req)
		if err != nil {
			return "", fmt.Errorf("invoice %s: %w", req.InvID, err)
		}
		return u, nil
	})
}
