package filter

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/fundalert/pkg/funding"
)

// Match reports whether fr satisfies every threshold set on c.
// Durations are compared in days. Borrower metrics the marketplace did not
// report never reject a request.
func (c Configuration) Match(fr funding.Request) bool {
	if c.IgnoreDicom && fr.InDicom() {
		return false
	}
	if !atLeast(fr.Score, c.MinimumScore) {
		return false
	}
	if len(c.TargetCreditTypes) > 0 && !slices.Contains(c.TargetCreditTypes, fr.CreditType) {
		return false
	}

	days := fr.Duration.Days()
	if c.MinimumDuration != nil && days < *c.MinimumDuration {
		return false
	}
	if c.MaximumDuration != nil && days > *c.MaximumDuration {
		return false
	}
	if c.MinimumInvestmentAmount != nil && fr.MaximumInvestment < *c.MinimumInvestmentAmount {
		return false
	}

	if !atLeast(fr.IRR, c.MinimumIRR) {
		return false
	}
	if c.MinimumMonthlyProfitRate != nil && !atLeast(fr.MonthlyProfitRate(), c.MinimumMonthlyProfitRate) {
		return false
	}

	if c.MinimumRequestedAmount != nil && fr.Amount < *c.MinimumRequestedAmount {
		return false
	}
	portfolio := fr.Borrower.Portfolio
	if c.MinimumRequestedCredits != nil && portfolio.Total().Count < *c.MinimumRequestedCredits {
		return false
	}
	if c.MaximumAverageDaysDelinquent != nil {
		if avg := fr.Borrower.AverageDaysDelinquent; avg != nil && *avg > *c.MaximumAverageDaysDelinquent {
			return false
		}
	}
	if !atLeast(portfolio.OnTime.Percentage, c.MinimumPaidInTimePercentage) {
		return false
	}
	return true
}

// Any reports whether at least one configuration matches fr.
func Any(configs []Configuration, fr funding.Request) bool {
	for _, c := range configs {
		if c.Match(fr) {
			return true
		}
	}
	return false
}

func atLeast(v decimal.Decimal, min *decimal.Decimal) bool {
	return min == nil || v.GreaterThanOrEqual(*min)
}
