package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"
)

const (
	PaymentMethodPNB   = "PNB"
	PaymentMethodBDO   = "BDO"
	PaymentMethodGCash = "GCash"
	PaymentMethodCash  = "Cash"
)

var (
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrInvalidAccount       = errors.New("invalid payment account")
)

// NormalizeAccountNumber strips the separators customers type into account numbers.
func NormalizeAccountNumber(number string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(number)
}

// ValidatePayment checks payment metadata. Bank accounts carry a Luhn check digit,
// GCash accounts are 11 digit mobile numbers, cash needs no account.
func ValidatePayment(method, accNumber, accName string) error {
	switch method {
	case PaymentMethodCash:
		return nil
	case PaymentMethodPNB, PaymentMethodBDO:
		if strings.TrimSpace(accName) == "" {
			return fmt.Errorf("%w: account name is required", ErrInvalidAccount)
		}

		if err := goluhn.Validate(NormalizeAccountNumber(accNumber)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAccount, err)
		}

		return nil
	case PaymentMethodGCash:
		if strings.TrimSpace(accName) == "" {
			return fmt.Errorf("%w: account name is required", ErrInvalidAccount)
		}

		number := NormalizeAccountNumber(accNumber)
		if len(number) != 11 || !strings.HasPrefix(number, "09") || strings.Trim(number, "0123456789") != "" {
			return fmt.Errorf("%w: gcash number must be 11 digits starting with 09", ErrInvalidAccount)
		}

		return nil
	default:
		return ErrUnknownPaymentMethod
	}
}
