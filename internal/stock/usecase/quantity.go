package usecase

import (
	"fmt"
	"math"

	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/shopspring/decimal"
)

// maxIntegerDigits is the digit count of math.MaxInt64.
const maxIntegerDigits = 19

var (
	maxQuantity = decimal.NewFromInt(math.MaxInt64)
	minQuantity = decimal.NewFromInt(math.MinInt64)
)

// parseQuantity reads a numeric cell ("7", "12.0", "1e3") and truncates it
// toward zero.
func parseQuantity(raw string) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", stock.ErrInvalidQuantity, raw)
	}
	if d.IsZero() {
		return 0, nil
	}

	// Bound the magnitude from coefficient digits and exponent before
	// Truncate, which rescales to the full width of the exponent.
	intDigits := d.NumDigits() + int(d.Exponent())
	if intDigits <= 0 {
		return 0, nil
	}
	if intDigits > maxIntegerDigits {
		return 0, fmt.Errorf("%w: %q is out of range", stock.ErrInvalidQuantity, raw)
	}

	d = d.Truncate(0)
	if d.GreaterThan(maxQuantity) || d.LessThan(minQuantity) {
		return 0, fmt.Errorf("%w: %q is out of range", stock.ErrInvalidQuantity, raw)
	}
	return d.IntPart(), nil
}
