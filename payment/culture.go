package payment

import (
	"errors"
	"strings"
)

var (
	ErrUnsupportedCulture = errors.New("unsupported culture, use en or ru")
	ErrIncorrectURLMethod = errors.New("only GET or POST can be used for success/fail url")
)

// Culture is the language of the payment page and of service answers.
type Culture string

const (
	CultureEN Culture = "en"
	CultureRU Culture = "ru"
)

func ParseCulture(s string) (Culture, error) {
	switch c := Culture(strings.ToLower(strings.TrimSpace(s))); c {
	case CultureEN, CultureRU:
		return c, nil
	default:
		return "", ErrUnsupportedCulture
	}
}

// HTTP methods the gateway accepts for SuccessUrl2 and FailUrl2.
const (
	MethodGET  = "GET"
	MethodPOST = "POST"
)

// ValidateMethods accepts an empty method (url not used), GET or POST.
func ValidateMethods(methods ...string) error {
	for _, m := range methods {
		switch m {
		case "", MethodGET, MethodPOST:
		default:
			return ErrIncorrectURLMethod
		}
	}
	return nil
}

// Common IncCurrLabel values. The full list comes from the currencies endpoint.
const (
	LabelBankCard = "BankCardPSR"
	LabelSBP      = "SBPPSR"
	LabelYandex   = "YandexPayPSR"
	LabelSberPay  = "SberPayPSR"
)
