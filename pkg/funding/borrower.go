package funding

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioUnit aggregates credits in one repayment state.
type PortfolioUnit struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
}

func (u PortfolioUnit) add(o PortfolioUnit) PortfolioUnit {
	return PortfolioUnit{
		Percentage: u.Percentage.Add(o.Percentage),
		Amount:     u.Amount.Add(o.Amount),
		Count:      u.Count + o.Count,
	}
}

// Portfolio is a borrower's credit history split by repayment state.
// Paid, Outstanding and Total are derived on demand.
type Portfolio struct {
	Cured      PortfolioUnit `json:"cured"`
	Active     PortfolioUnit `json:"active"`
	Overdue    PortfolioUnit `json:"overdue"`
	OnTime     PortfolioUnit `json:"on_time"`
	Delinquent PortfolioUnit `json:"delinquent"`
}

// Paid sums credits repaid on time and cured ones.
func (p Portfolio) Paid() PortfolioUnit {
	return p.OnTime.add(p.Cured)
}

// Outstanding sums active, overdue and delinquent credits.
func (p Portfolio) Outstanding() PortfolioUnit {
	return p.Active.add(p.Overdue).add(p.Delinquent)
}

// Total is Outstanding plus Paid with a percentage of one.
func (p Portfolio) Total() PortfolioUnit {
	t := p.Outstanding().add(p.Paid())
	t.Percentage = decimal.NewFromInt(1)
	return t
}

// Borrower is the company requesting funds.
type Borrower struct {
	ID                    *int64     `json:"id,omitempty"`
	Name                  string     `json:"name,omitempty"`
	EconomicSector        string     `json:"economic_sector,omitempty"`
	Description           string     `json:"description,omitempty"`
	FirstAppearance       *time.Time `json:"first_appearance,omitempty"`
	AverageDaysDelinquent *int       `json:"average_days_delinquent,omitempty"`
	Portfolio             Portfolio  `json:"portfolio"`
	Dicom                 *bool      `json:"dicom,omitempty"`
}

// DebtPortfolio summarises a debtor's history.
type DebtPortfolio struct {
	Active        int   `json:"active"`
	Delinquent    int   `json:"delinquent"`
	Completed     int   `json:"completed"`
	InTime        int   `json:"in_time"`
	TotalAmount   int64 `json:"total_amount"`
	TotalRequests int   `json:"total_requests"`
}

// Debtor owes the invoices backing a factoring request.
type Debtor struct {
	Amount          int64           `json:"amount"`
	Share           decimal.Decimal `json:"share"`
	Name            string          `json:"name,omitempty"`
	Sector          string          `json:"sector,omitempty"`
	Description     string          `json:"description,omitempty"`
	Portfolio       DebtPortfolio   `json:"portfolio"`
	FirstAppearance time.Time       `json:"first_appearance"`
	Dicom           *bool           `json:"dicom,omitempty"`
}
