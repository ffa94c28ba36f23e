package payment

import (
	"net/url"

	"robokassa/signature"
)

// FieldNames translates PaymentParams fields to the gateway form keys.
var FieldNames = map[string]string{
	"merchant_login":  "MerchantLogin",
	"out_sum":         "OutSum",
	"description":     "Description",
	"signature_value": "SignatureValue",
	"is_test":         "IsTest",
	"inc_curr_label":  "IncCurrLabel",
	"payment_methods": "PaymentMethods",
	"inv_id":          "InvId",
	"culture":         "Culture",
	"encoding":        "Encoding",
	"email":           "Email",
	"expiration_date": "ExpirationDate",
}

func fieldName(key string) string {
	if name, ok := FieldNames[key]; ok {
		return name
	}
	return key
}

// PaymentParams is the form posted to the invoice endpoint.
type PaymentParams struct {
	MerchantLogin  string
	OutSum         signature.Amount
	Description    string
	SignatureValue string
	IsTest         bool

	IncCurrLabel   string
	PaymentMethods string
	InvID          string
	Culture        Culture
	Encoding       string
	Email          string
	ExpirationDate string

	// Additional is flattened into the top level of the form.
	Additional signature.Params
}

// Form flattens p through FieldNames, dropping empty fields.
func (p PaymentParams) Form() url.Values {
	form := url.Values{}
	set := func(key, value string) {
		if value != "" {
			form.Set(fieldName(key), value)
		}
	}

	set("merchant_login", p.MerchantLogin)
	set("out_sum", p.OutSum.String())
	set("description", p.Description)
	set("signature_value", p.SignatureValue)
	set("is_test", boolFlag(p.IsTest))
	set("inc_curr_label", p.IncCurrLabel)
	set("payment_methods", p.PaymentMethods)
	set("inv_id", p.InvID)
	set("culture", string(p.Culture))
	set("encoding", p.Encoding)
	set("email", p.Email)
	set("expiration_date", p.ExpirationDate)

	for k, v := range p.Additional {
		if v == nil {
			continue
		}
		set(k, signature.FormatValue(v))
	}
	return form
}
