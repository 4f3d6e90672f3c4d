package enums

import "fmt"

// PaymentMethod describes how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodStripe PaymentMethod = "stripe"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodStripe,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
