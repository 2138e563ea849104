package funding

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/fundalert/pkg/event"
)

// Installment is one scheduled payment of a simulated investment.
type Installment struct {
	Amount   int64     `json:"amount"`
	Interest int64     `json:"interest"`
	Date     time.Time `json:"date"`
}

// Simulation is the marketplace's return projection for a reference amount.
type Simulation struct {
	NetReturns      int64         `json:"net_returns"`
	UpfrontFee      int64         `json:"upfront_fee"`
	ExitFee         int64         `json:"exit_fee"`
	PaymentSchedule []Installment `json:"payment_schedule,omitempty"`
}

func (s Simulation) Installments() int { return len(s.PaymentSchedule) }

// Request is a funding request open for investment.
type Request struct {
	ID                  int64           `json:"id"`
	Amount              int64           `json:"amount"`
	IRR                 decimal.Decimal `json:"irr"`
	Score               decimal.Decimal `json:"score"`
	Installments        int             `json:"installments"`
	DueDate             string          `json:"due_date"`
	RaisedAmount        int64           `json:"raised_amount"`
	MaximumInvestment   int64           `json:"maximum_investment"`
	Investors           int             `json:"investors"`
	FundedPercentage    decimal.Decimal `json:"funded_percentage"`
	SupportingDocuments []string        `json:"supporting_documents,omitempty"`
	Debtors             []Debtor        `json:"debtors,omitempty"`
	CreditType          CreditType      `json:"credit_type"`
	Simulation          Simulation      `json:"simulation"`
	Duration            Duration        `json:"duration"`
	Borrower            Borrower        `json:"borrower"`
	Currency            string          `json:"currency"`
}

func (r Request) ContentID() int64               { return r.ID }
func (r Request) ContentKind() event.ContentKind { return event.KindFundingRequest }

// ProfitRate compounds the annual IRR over the request's duration.
func (r Request) ProfitRate() decimal.Decimal {
	return compound(r.IRR, float64(r.Duration.Days())/365)
}

// MonthlyProfitRate is the IRR expressed as a monthly rate.
func (r Request) MonthlyProfitRate() decimal.Decimal {
	return compound(r.IRR, 1.0/12)
}

// MonthlyProfit is the expected monthly profit of investing amount, rounded up.
func (r Request) MonthlyProfit(amount int64) int64 {
	return r.MonthlyProfitRate().Mul(decimal.NewFromInt(amount)).Ceil().IntPart()
}

// IsCompleted reports whether the request is fully funded.
func (r Request) IsCompleted() bool {
	return r.FundedPercentage.Equal(decimal.NewFromInt(1))
}

// URL builds the public marketplace link for the request.
func (r Request) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strconv.FormatInt(r.ID, 10)
}

// InDicom reports whether the borrower or any debtor is flagged in the
// credit bureau.
func (r Request) InDicom() bool {
	if r.Borrower.Dicom != nil && *r.Borrower.Dicom {
		return true
	}
	for _, d := range r.Debtors {
		if d.Dicom != nil && *d.Dicom {
			return true
		}
	}
	return false
}

// compound returns (1 + irr/100)^exp - 1 rounded to four places. Fractional
// powers go through float64.
func compound(irr decimal.Decimal, exp float64) decimal.Decimal {
	base, _ := irr.Div(decimal.NewFromInt(100)).Add(decimal.NewFromInt(1)).Float64()
	return decimal.NewFromFloat(math.Pow(base, exp) - 1).Round(4)
}
