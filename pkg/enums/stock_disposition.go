package enums

import "fmt"

// StockDisposition names the inventory effect applied when an order is cancelled.
type StockDisposition string

const (
	StockDispositionRestore  StockDisposition = "refund"
	StockDispositionZero     StockDisposition = "setZero"
	StockDispositionNoChange StockDisposition = "noChange"
)

var validStockDispositions = []StockDisposition{
	StockDispositionRestore,
	StockDispositionZero,
	StockDispositionNoChange,
}

// String implements fmt.Stringer.
func (s StockDisposition) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockDisposition.
func (s StockDisposition) IsValid() bool {
	for _, candidate := range validStockDispositions {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockDisposition converts raw input into a StockDisposition.
func ParseStockDisposition(value string) (StockDisposition, error) {
	for _, candidate := range validStockDispositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock disposition %q", value)
}
