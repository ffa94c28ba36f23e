package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robokassa/hash"
	"robokassa/config"
	"robokassa/internal/logger"
	"robokassa/internal/middleware"
	"robokassa/merchant"
	"robokassa/payment"
	"robokassa/payment/webhook"
	"robokassa/signature"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort: "8080",
		AppEnv:  "test",
		Robokassa: config.Robokassa{
			MerchantLogin: "shop",
			Password1:     "pass1",
			Password2:     "pass2",
			HashAlgorithm: hash.MD5,
			IsTest:        true,
			BaseURL:       "https://auth.robokassa.ru/Merchant/",
			Prefix:        "shp",
			RetryAttempts: 1,
		},
		Callback: config.Callback{RateLimit: 100, Burst: 100},
	}
}

func TestSetupRouter(t *testing.T) {
	srv, _, err := newServer(testConfig(), nil, prometheus.NewRegistry())
	require.NoError(t, err)
	router := srv.Handler

	t.Run("Health Check", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get(logger.RequestIDHeader))
	})

	t.Run("Metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Result Callback", func(t *testing.T) {
		// md5("100.000000:42:pass2:Shp_user=7")
		form := url.Values{
			"OutSum":         {"100.000000"},
			"InvId":          {"42"},
			"SignatureValue": {"2908CD5FE168238A9CB62F5540E6CA35"},
			"Shp_user":       {"7"},
		}
		req := httptest.NewRequest(http.MethodPost, "/robokassa/result", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK42", rr.Body.String())
	})

	t.Run("Success Redirect Bad Sign", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/robokassa/success?OutSum=1&InvId=1&SignatureValue=00", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSetupRouter_RateLimited(t *testing.T) {
	h := webhook.NewWebhookHandler(nil, nil, nil, webhook.Config{})
	router := setupRouter(h, middleware.NewLimiter(1, 1), prometheus.NewRegistry())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/robokassa/fail", nil))
		codes = append(codes, rr.Code)
	}
	// the first request reaches the handler and fails validation
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestNewServer_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Robokassa.Password2 = ""

	_, _, err := newServer(cfg, nil, prometheus.NewRegistry())
	assert.ErrorIs(t, err, payment.ErrMissingCredentials)
}

type stubStates struct {
	state *merchant.OperationState
	err   error
	calls int
}

func (s *stubStates) OperationState(ctx context.Context, invID string) (*merchant.OperationState, error) {
	s.calls++
	return s.state, s.err
}

func TestConfirmingSettler(t *testing.T) {
	n := &payment.Notification{InvID: "42", OutSum: signature.AmountFromInt(100)}
	ctx := context.Background()

	t.Run("TestModeSkipsCheck", func(t *testing.T) {
		states := &stubStates{}
		assert.NoError(t, newSettler(states, true).Settle(ctx, n))
		assert.Equal(t, 0, states.calls)
	})

	t.Run("Paid", func(t *testing.T) {
		states := &stubStates{state: &merchant.OperationState{StateCode: merchant.StatePaid}}
		assert.NoError(t, newSettler(states, false).Settle(ctx, n))
		assert.Equal(t, 1, states.calls)
	})

	t.Run("NotPaid", func(t *testing.T) {
		states := &stubStates{state: &merchant.OperationState{StateCode: merchant.StateInitiated}}
		err := newSettler(states, false).Settle(ctx, n)
		assert.ErrorContains(t, err, "state 5")
	})

	t.Run("ServiceError", func(t *testing.T) {
		states := &stubStates{err: errors.New("unavailable")}
		err := newSettler(states, false).Settle(ctx, n)
		assert.ErrorContains(t, err, "operation state")
	})
}
