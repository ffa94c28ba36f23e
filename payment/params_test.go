package payment

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"robokassa/signature"
)

func TestPaymentParams_Form(t *testing.T) {
	t.Run("AllFields", func(t *testing.T) {
		p := PaymentParams{
			MerchantLogin:  "shop",
			OutSum:         signature.AmountFromString("250.50"),
			Description:    "Order 43",
			SignatureValue: "abc",
			IsTest:         true,
			IncCurrLabel:   LabelBankCard,
			PaymentMethods: "BankCard",
			InvID:          "43",
			Culture:        CultureRU,
			Encoding:       "utf-8",
			Email:          "buyer@example.com",
			ExpirationDate: "2026-10-19T12:00:00.0000000+03:00",
			Additional:     signature.Params{"shp_user": 7, "shp_none": nil},
		}

		assert.Equal(t, url.Values{
			"MerchantLogin":  {"shop"},
			"OutSum":         {"250.50"},
			"Description":    {"Order 43"},
			"SignatureValue": {"abc"},
			"IsTest":         {"1"},
			"IncCurrLabel":   {"BankCardPSR"},
			"PaymentMethods": {"BankCard"},
			"InvId":          {"43"},
			"Culture":        {"ru"},
			"Encoding":       {"utf-8"},
			"Email":          {"buyer@example.com"},
			"ExpirationDate": {"2026-10-19T12:00:00.0000000+03:00"},
			"shp_user":       {"7"},
		}, p.Form())
	})

	t.Run("EmptyFieldsDropped", func(t *testing.T) {
		p := PaymentParams{MerchantLogin: "shop", OutSum: signature.AmountFromInt(1)}

		assert.Equal(t, url.Values{
			"MerchantLogin": {"shop"},
			"OutSum":        {"1"},
			"IsTest":        {"0"},
		}, p.Form())
	})

	t.Run("AdditionalUsesFieldNames", func(t *testing.T) {
		p := PaymentParams{Additional: signature.Params{"email": "x@example.com"}}
		assert.Equal(t, "x@example.com", p.Form().Get("Email"))
	})
}

func TestFieldNames(t *testing.T) {
	assert.Equal(t, "IncCurrLabel", FieldNames["inc_curr_label"])
	assert.Equal(t, "ExpirationDate", FieldNames["expiration_date"])
	assert.Len(t, FieldNames, 12)
}
