package types

import (
	"fmt"
	"strings"
)

// ShippingAddress is the structured delivery address snapshotted onto an order.
type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

// Validate reports the first missing required field.
func (a ShippingAddress) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", a.FirstName},
		{"street", a.Street},
		{"city", a.City},
		{"country", a.Country},
		{"phone", a.Phone},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("shipping address: missing %s", field.name)
		}
	}
	return nil
}
