// Package payment builds signed payment links, verifies gateway
// notifications and creates invoices through the JSON endpoint.
package payment

import (
	"errors"
	"strings"
)

var ErrMissingCredentials = errors.New("merchant login and both passwords are required")

// Credentials identify a shop. Password1 signs links and redirect checks,
// Password2 signs the server-to-server result callback.
type Credentials struct {
	MerchantLogin string
	Password1     string
	Password2     string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.MerchantLogin) == "" || c.Password1 == "" || c.Password2 == "" {
		return ErrMissingCredentials
	}
	return nil
}
