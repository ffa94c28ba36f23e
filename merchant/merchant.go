// Package merchant calls the XML web service of the gateway: the list of
// payment currencies and the state of an operation.
package merchant

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"robokassa/gateway"
	"robokassa/hash"
	"robokassa/internal/logger"
	"robokassa/payment"
	"robokassa/signature"
)

const (
	CurrenciesPath = "WebService/Service.asmx/GetCurrencies"
	OpStatePath    = "WebService/Service.asmx/OpStateExt"
)

type Merchant struct {
	transport gateway.Transport
	creds     payment.Credentials
	alg       hash.Algorithm
	logger    *zap.Logger
}

type Option func(*Merchant)

func WithLogger(l *zap.Logger) Option {
	return func(m *Merchant) { m.logger = l }
}

func New(t gateway.Transport, creds payment.Credentials, alg hash.Algorithm, opts ...Option) (*Merchant, error) {
	if t == nil {
		return nil, errors.New("merchant: nil transport")
	}
	if !alg.Valid() {
		return nil, hash.ErrUnsupportedAlgorithm
	}
	m := &Merchant{transport: t, creds: creds, alg: alg}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Currencies returns the raw GetCurrencies document as nested maps.
func (m *Merchant) Currencies(ctx context.Context, lang payment.Culture) (map[string]any, error) {
	lang, err := payment.ParseCulture(string(lang))
	if err != nil {
		return nil, err
	}

	body, err := m.call(ctx, CurrenciesPath, map[string]string{
		"MerchantLogin": m.creds.MerchantLogin,
		"Language":      string(lang),
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// CurrencyGroups is Currencies decoded into groups.
func (m *Merchant) CurrencyGroups(ctx context.Context, lang payment.Culture) ([]CurrencyGroup, error) {
	body, err := m.Currencies(ctx, lang)
	if err != nil {
		return nil, err
	}
	return ParseCurrencyGroups(body), nil
}

// OperationState asks for the state of invoice invID. The request is
// signed with login:inv_id:password2.
func (m *Merchant) OperationState(ctx context.Context, invID string) (*OperationState, error) {
	sig, err := signature.New(m.alg, signature.Input{
		MerchantLogin: m.creds.MerchantLogin,
		InvID:         invID,
		Password:      m.creds.Password2,
	})
	if err != nil {
		return nil, fmt.Errorf("sign operation state: %w", err)
	}

	body, err := m.call(ctx, OpStatePath, map[string]string{
		"MerchantLogin": m.creds.MerchantLogin,
		"InvoiceID":     invID,
		"Signature":     sig.String(),
	})
	if err != nil {
		return nil, err
	}
	return ParseOperationState(body), nil
}

func (m *Merchant) call(ctx context.Context, path string, fields map[string]string) (map[string]any, error) {
	log := logger.With(ctx, m.logger).With(zap.String("path", path))

	req := gateway.Request{Path: path, Form: make(map[string][]string, len(fields))}
	for k, v := range fields {
		req.Form.Set(k, v)
	}

	resp, err := m.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	body, err := gateway.DecodeXML(resp)
	if err != nil {
		log.Warn("Robokassa service call failed", zap.Error(err))
		return nil, err
	}
	if err := gateway.ResultCode(body); err != nil {
		log.Warn("Robokassa service rejected request", zap.Error(err))
		return nil, err
	}
	return body, nil
}
