package negotiation

import "github.com/shopspring/decimal"

// ReportDigits is the number of significant digits used when reporting
// utilities.
const ReportDigits = 4

// Significant rounds f to the given number of significant digits.
func Significant(f float64, digits int32) decimal.Decimal {
	d := decimal.NewFromFloat(f)
	if d.IsZero() {
		return d
	}
	// NumDigits counts the coefficient digits and Exponent scales them, so
	// their sum is the number of digits left of the decimal point.
	intDigits := int32(d.NumDigits()) + d.Exponent()
	return d.Round(digits - intDigits)
}
