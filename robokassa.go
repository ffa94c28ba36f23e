// Package robokassa is a client for the Robokassa payment gateway. It signs
// payment links, verifies payment notifications and calls the invoice and
// merchant web services.
package robokassa

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"robokassa/gateway"
	"robokassa/hash"
	"robokassa/config"
	"robokassa/internal/logger"
	"robokassa/merchant"
	"robokassa/payment"
	"robokassa/signature"
)

const retryDelay = 200 * time.Millisecond

// Client is immutable after New and safe for concurrent use.
type Client struct {
	creds  payment.Credentials
	alg    hash.Algorithm
	isTest bool
	prefix string

	transport gateway.Transport
	logger    *zap.Logger

	links    *payment.LinkBuilder
	verifier *payment.Verifier
	invoices *payment.InvoiceService
	merchant *merchant.Merchant
}

type options struct {
	alg           hash.Algorithm
	isTest        bool
	prefix        string
	transport     gateway.Transport
	transportOpts []gateway.Option
	logger        *zap.Logger
}

type Option func(*options)

func WithAlgorithm(alg hash.Algorithm) Option {
	return func(o *options) { o.alg = alg }
}

func WithTestMode(isTest bool) Option {
	return func(o *options) { o.isTest = isTest }
}

// WithPrefix sets the prefix of merchant fields, shp by default.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithTransport replaces the HTTP transport, e.g. with a test double.
func WithTransport(t gateway.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithTransportOptions configures the default HTTP transport.
func WithTransportOptions(opts ...gateway.Option) Option {
	return func(o *options) { o.transportOpts = append(o.transportOpts, opts...) }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func New(creds payment.Credentials, opts ...Option) (*Client, error) {
	o := options{alg: hash.Default, prefix: payment.DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if !o.alg.Valid() {
		return nil, hash.ErrUnsupportedAlgorithm
	}
	if o.logger == nil {
		o.logger = logger.L()
	}
	if o.transport == nil {
		o.transport = gateway.NewHTTPTransport(append([]gateway.Option{gateway.WithLogger(o.logger)}, o.transportOpts...)...)
	}

	c := &Client{
		creds:     creds,
		alg:       o.alg,
		isTest:    o.isTest,
		prefix:    o.prefix,
		transport: o.transport,
		logger:    o.logger,
	}

	var err error
	if c.links, err = payment.NewLinkBuilder(creds, o.alg, o.isTest, payment.WithLinkPrefix(o.prefix)); err != nil {
		return nil, err
	}
	if c.verifier, err = payment.NewVerifier(creds, o.alg); err != nil {
		return nil, err
	}
	c.invoices, err = payment.NewInvoiceService(o.transport, creds, o.alg,
		payment.WithInvoiceTestMode(o.isTest),
		payment.WithInvoicePrefix(o.prefix),
		payment.WithInvoiceLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}
	if c.merchant, err = merchant.New(o.transport, creds, o.alg, merchant.WithLogger(o.logger)); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromConfig builds a client with an HTTP transport tuned by cfg.
// Transport metrics are registered on reg when it is not nil.
func NewFromConfig(cfg *config.Config, reg prometheus.Registerer, opts ...Option) (*Client, error) {
	rk := cfg.Robokassa
	transportOpts := []gateway.Option{
		gateway.WithBaseURL(rk.BaseURL),
		gateway.WithTimeout(rk.Timeout),
		gateway.WithRateLimit(rk.RateLimit, 1),
		gateway.WithRetry(rk.RetryAttempts, retryDelay),
	}
	if reg != nil {
		transportOpts = append(transportOpts, gateway.WithMetrics(gateway.NewMetrics(reg)))
	}

	base := []Option{
		WithAlgorithm(rk.HashAlgorithm),
		WithTestMode(rk.IsTest),
		WithPrefix(rk.Prefix),
		WithTransportOptions(transportOpts...),
	}
	return New(payment.Credentials{
		MerchantLogin: rk.MerchantLogin,
		Password1:     rk.Password1,
		Password2:     rk.Password2,
	}, append(base, opts...)...)
}

// NewFromEnv reads the ROBOKASSA_* environment (and .env) and builds a client.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, nil, opts...)
}

func (c *Client) Algorithm() hash.Algorithm { return c.alg }

func (c *Client) IsTest() bool { return c.isTest }

func (c *Client) Prefix() string { return c.prefix }

// GenerateLink returns a payment page URL signed with password1.
func (c *Client) GenerateLink(req payment.LinkRequest) (string, error) {
	return c.links.Generate(req)
}

// SuccessOrFailValid verifies a SuccessURL or FailURL redirect.
func (c *Client) SuccessOrFailValid(claimed string, outSum signature.Amount, invID string, extra signature.Params) bool {
	return c.verifier.SuccessOrFailValid(claimed, outSum, invID, extra)
}

// ResultValid verifies a ResultURL callback.
func (c *Client) ResultValid(claimed string, outSum signature.Amount, invID string, extra signature.Params) bool {
	return c.verifier.ResultValid(claimed, outSum, invID, extra)
}

// Verifier is exposed for the webhook handlers.
func (c *Client) Verifier() *payment.Verifier { return c.verifier }

func (c *Client) CreatePaymentURL(ctx context.Context, p payment.PaymentParams) (string, error) {
	return c.invoices.CreatePaymentURL(ctx, p)
}

func (c *Client) CreateURL(ctx context.Context, req payment.InvoiceRequest) (string, error) {
	return c.invoices.CreateURL(ctx, req)
}

func (c *Client) CreateURLAsync(ctx context.Context, req payment.InvoiceRequest) <-chan payment.InvoiceResult {
	return c.invoices.CreateURLAsync(ctx, req)
}

func (c *Client) CreateURLs(ctx context.Context, reqs []payment.InvoiceRequest) ([]string, error) {
	return c.invoices.CreateURLs(ctx, reqs)
}

func (c *Client) Currencies(ctx context.Context, lang payment.Culture) (map[string]any, error) {
	return c.merchant.Currencies(ctx, lang)
}

func (c *Client) CurrencyGroups(ctx context.Context, lang payment.Culture) ([]merchant.CurrencyGroup, error) {
	return c.merchant.CurrencyGroups(ctx, lang)
}

func (c *Client) OperationState(ctx context.Context, invID string) (*merchant.OperationState, error) {
	return c.merchant.OperationState(ctx, invID)
}
