package funding_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/funding"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func unit(pct, amount string, count int) funding.PortfolioUnit {
	return funding.PortfolioUnit{Percentage: d(pct), Amount: d(amount), Count: count}
}

func TestPortfolioDerivedValues(t *testing.T) {
	t.Parallel()

	p := funding.Portfolio{
		Cured:      unit("0.1", "100", 1),
		Active:     unit("0.2", "200", 2),
		Overdue:    unit("0.05", "50", 1),
		OnTime:     unit("0.6", "600", 6),
		Delinquent: unit("0.05", "50", 1),
	}

	paid := p.Paid()
	assert.True(t, paid.Percentage.Equal(d("0.7")))
	assert.True(t, paid.Amount.Equal(d("700")))
	assert.Equal(t, 7, paid.Count)

	outstanding := p.Outstanding()
	assert.True(t, outstanding.Percentage.Equal(d("0.3")))
	assert.True(t, outstanding.Amount.Equal(d("300")))
	assert.Equal(t, 4, outstanding.Count)

	total := p.Total()
	assert.True(t, total.Percentage.Equal(d("1")))
	assert.True(t, total.Amount.Equal(d("1000")))
	assert.Equal(t, 11, total.Count)
}

func TestRequestRates(t *testing.T) {
	t.Parallel()

	fr := funding.Request{
		ID:               77,
		IRR:              d("12"),
		FundedPercentage: d("0.5"),
		Duration:         funding.Duration{Unit: funding.DurationDay, Value: 60},
	}

	assert.Equal(t, "0.0095", fr.MonthlyProfitRate().String())
	assert.Equal(t, "0.0188", fr.ProfitRate().String())
	assert.Equal(t, int64(950), fr.MonthlyProfit(100000))
	assert.False(t, fr.IsCompleted())
	assert.Equal(t, "https://example.com/funding/77", fr.URL("https://example.com/funding/"))

	fr.FundedPercentage = d("1.00")
	assert.True(t, fr.IsCompleted())

	fr.Duration = funding.Duration{Unit: funding.DurationMonth, Value: 3}
	assert.Equal(t, 90, fr.Duration.Days())
	assert.Equal(t, "0.0283", fr.ProfitRate().String())
	assert.Equal(t, "3 months", fr.Duration.String())
}

func TestInDicom(t *testing.T) {
	t.Parallel()

	yes, no := true, false
	assert.False(t, funding.Request{}.InDicom())
	assert.True(t, funding.Request{Borrower: funding.Borrower{Dicom: &yes}}.InDicom())
	assert.True(t, funding.Request{
		Borrower: funding.Borrower{Dicom: &no},
		Debtors:  []funding.Debtor{{Dicom: &no}, {Dicom: &yes}},
	}.InDicom())
}

func TestParseCreditType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want funding.CreditType
	}{
		{in: "WORKING CAPITAL", want: funding.CreditTypeWorkingCapital},
		{in: "working_capital", want: funding.CreditTypeWorkingCapital},
		{in: "factoring", want: funding.CreditTypeFactoring},
		{in: "HUD_SUBSIDY", want: funding.CreditTypeHUDSubsidy},
		{in: "treasury subsidy", want: funding.CreditTypeTreasurySubsidy},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := funding.ParseCreditType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := funding.ParseCreditType("MORTGAGE")
	assert.ErrorIs(t, err, funding.ErrUnknownCreditType)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("funding request", func(t *testing.T) {
		c, err := funding.Decode(event.KindFundingRequest, []byte(`{
			"id": 12345, "amount": 1000000, "irr": 14.5, "score": "0.8",
			"credit_type": "FACTORING",
			"duration": {"unit": "DAY", "value": 45},
			"borrower": {"average_days_delinquent": 3, "portfolio": {}}
		}`))
		require.NoError(t, err)
		fr, ok := c.(funding.Request)
		require.True(t, ok)
		assert.Equal(t, int64(12345), fr.ContentID())
		assert.Equal(t, event.KindFundingRequest, fr.ContentKind())
		assert.True(t, fr.IRR.Equal(d("14.5")))
		assert.Equal(t, funding.CreditTypeFactoring, fr.CreditType)
		require.NotNil(t, fr.Borrower.AverageDaysDelinquent)
		assert.Equal(t, 3, *fr.Borrower.AverageDaysDelinquent)
	})

	t.Run("investment", func(t *testing.T) {
		c, err := funding.Decode(event.KindInvestment, []byte(`{"id": 9, "id_funding_request": 12345, "credit_type": "WORKING CAPITAL"}`))
		require.NoError(t, err)
		assert.Equal(t, int64(9), c.ContentID())
		assert.Equal(t, event.KindInvestment, c.ContentKind())
	})

	t.Run("movement", func(t *testing.T) {
		c, err := funding.Decode(event.KindMovement, []byte(`{"id": 4, "type": "deposit", "amount": 500}`))
		require.NoError(t, err)
		assert.Equal(t, int64(4), c.ContentID())
	})

	t.Run("unsupported kind", func(t *testing.T) {
		_, err := funding.Decode(event.KindUser, []byte(`{}`))
		assert.ErrorIs(t, err, funding.ErrUnsupportedContent)
	})

	t.Run("negative id", func(t *testing.T) {
		for _, kind := range []event.ContentKind{event.KindFundingRequest, event.KindInvestment, event.KindMovement} {
			_, err := funding.Decode(kind, []byte(`{"id": -1}`))
			assert.ErrorIs(t, err, funding.ErrInvalidContent, kind)
		}
	})

	t.Run("bad payload", func(t *testing.T) {
		_, err := funding.Decode(event.KindFundingRequest, []byte(`{"credit_type": "MORTGAGE"}`))
		assert.ErrorIs(t, err, funding.ErrInvalidContent)
		assert.ErrorIs(t, err, funding.ErrUnknownCreditType)
	})
}
