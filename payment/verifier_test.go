package payment

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robokassa/hash"
	"robokassa/signature"
)

func mutate(s string, i int) string {
	c := byte('0')
	if s[i] == '0' {
		c = '1'
	}
	return s[:i] + string(c) + s[i+1:]
}

func TestVerifier_ResultValid(t *testing.T) {
	v, err := NewVerifier(Credentials{MerchantLogin: "my_login", Password1: "password1", Password2: "password"}, hash.MD5)
	require.NoError(t, err)

	// md5("1:0:password")
	const digest = "bc7858dd7e702e5d483d9a7ee9455881"
	outSum := signature.AmountFromInt(1)

	t.Run("Valid", func(t *testing.T) {
		assert.True(t, v.ResultValid(digest, outSum, "0", nil))
	})

	t.Run("UpperCaseClaim", func(t *testing.T) {
		assert.True(t, v.ResultValid(strings.ToUpper(digest), outSum, "0", nil))
	})

	t.Run("AnySingleCharacterMutation", func(t *testing.T) {
		for i := range digest {
			assert.False(t, v.ResultValid(mutate(digest, i), outSum, "0", nil), "position %d", i)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		// signed with password1, not accepted as a result callback
		assert.False(t, v.ResultValid("130bacc79c21adb40e5f67858b651083", outSum, "0", nil))
	})

	t.Run("Garbage", func(t *testing.T) {
		assert.False(t, v.ResultValid("", outSum, "0", nil))
		assert.False(t, v.ResultValid("not-a-digest", outSum, "0", nil))
	})
}

func TestVerifier_SuccessOrFailValid(t *testing.T) {
	v, err := NewVerifier(Credentials{MerchantLogin: "shop", Password1: "pass1", Password2: "pass2"}, hash.MD5)
	require.NoError(t, err)

	outSum, err := signature.ParseAmount("100.000000")
	require.NoError(t, err)
	extra := signature.Params{"Shp_user": "7"}

	// md5("100.000000:42:pass1:Shp_user=7")
	assert.True(t, v.SuccessOrFailValid("775717073043997CA4D19CD520E3E2D4", outSum, "42", extra))
	// same fields signed with password2
	assert.False(t, v.SuccessOrFailValid("2908cd5fe168238a9cb62f5540e6ca35", outSum, "42", extra))
	assert.True(t, v.ResultValid("2908cd5fe168238a9cb62f5540e6ca35", outSum, "42", extra))

	// the amount literal is part of the signed string
	assert.False(t, v.SuccessOrFailValid("775717073043997ca4d19cd520e3e2d4", signature.AmountFromInt(100), "42", extra))
	// echoed params must be passed back
	assert.False(t, v.SuccessOrFailValid("775717073043997ca4d19cd520e3e2d4", outSum, "42", nil))
}

func TestVerifier_SHA256(t *testing.T) {
	v, err := NewVerifier(Credentials{Password2: "password"}, hash.SHA256)
	require.NoError(t, err)

	assert.True(t, v.ResultValid("5abdcd0842ae0997242922603a83d3bc56336f236fbf1a9283a2acd63c8266d6", signature.AmountFromInt(1), "0", nil))
}

func TestNewVerifier_UnsupportedAlgorithm(t *testing.T) {
	_, err := NewVerifier(Credentials{}, hash.Algorithm("md4"))
	assert.ErrorIs(t, err, hash.ErrUnsupportedAlgorithm)
}

func TestExtraParams(t *testing.T) {
	form := url.Values{
		"OutSum":          {"100"},
		"InvId":           {"42"},
		"SignatureValue":  {"abc"},
		"shp_user":        {"7"},
		"Shp_order":       {"A-1"},
		"shopping":        {"no"},
		"shp_empty_slice": {},
	}

	assert.Equal(t, signature.Params{"shp_user": "7", "Shp_order": "A-1"}, ExtraParams(form, "shp"))
	assert.Equal(t, signature.Params{"shp_user": "7", "Shp_order": "A-1"}, ExtraParams(form, ""))
	assert.Empty(t, ExtraParams(form, "custom"))
}

func TestParseNotification(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		form := url.Values{
			"OutSum":         {"100.000000"},
			"InvId":          {"42"},
			"SignatureValue": {"ABC"},
			"Fee":            {"3.9"},
			"EMail":          {"buyer@example.com"},
			"PaymentMethod":  {"BankCard"},
			"IncCurrLabel":   {"BankCardPSR"},
			"shp_user":       {"7"},
		}

		n, err := ParseNotification(KindResult, form, "shp")
		require.NoError(t, err)
		assert.Equal(t, KindResult, n.Kind)
		assert.Equal(t, "100.000000", n.OutSum.String())
		assert.Equal(t, "42", n.InvID)
		assert.Equal(t, "ABC", n.SignatureValue)
		assert.Equal(t, "3.9", n.Fee)
		assert.Equal(t, "buyer@example.com", n.Email)
		assert.Equal(t, "BankCard", n.PaymentMethod)
		assert.Equal(t, "BankCardPSR", n.IncCurrLabel)
		assert.Equal(t, signature.Params{"shp_user": "7"}, n.Extra)
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, err := ParseNotification(KindResult, url.Values{"OutSum": {"1"}}, "shp")
		assert.ErrorIs(t, err, ErrInvalidNotification)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		_, err := ParseNotification(KindSuccess, url.Values{
			"OutSum":         {"abc"},
			"InvId":          {"1"},
			"SignatureValue": {"x"},
		}, "shp")
		assert.ErrorIs(t, err, signature.ErrInvalidAmount)
	})
}
