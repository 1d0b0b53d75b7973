package opponent

import (
	"github.com/shopspring/decimal"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// EstimatedUtility pairs an opponent utility estimate with a confidence.
type EstimatedUtility struct {
	Utility    float64
	Confidence float64
}

// NoEstimate is returned for absent bids.
var NoEstimate = EstimatedUtility{}

// Meaningful reports whether the estimate carries information.
func (e EstimatedUtility) Meaningful() bool { return e != NoEstimate }

// UtilityDecimal returns the utility rounded to four significant digits.
func (e EstimatedUtility) UtilityDecimal() decimal.Decimal {
	return negotiation.Significant(e.Utility, negotiation.ReportDigits)
}

// ConfidenceDecimal returns the confidence rounded to four significant digits.
func (e EstimatedUtility) ConfidenceDecimal() decimal.Decimal {
	return negotiation.Significant(e.Confidence, negotiation.ReportDigits)
}

// Estimate returns the cumulative utility estimate of bid with full
// confidence, or NoEstimate for a nil bid.
func (m *Model) Estimate(bid *negotiation.Bid) EstimatedUtility {
	if bid == nil {
		return NoEstimate
	}
	return EstimatedUtility{Utility: m.Utility(bid), Confidence: 1}
}
