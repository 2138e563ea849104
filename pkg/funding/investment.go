package funding

import (
	"time"

	"github.com/dmitrymomot/fundalert/pkg/event"
)

// Investment is a user's position in a funding request.
type Investment struct {
	ID               int64      `json:"id"`
	FundingRequestID int64      `json:"id_funding_request"`
	CreditType       CreditType `json:"credit_type"`
	Status           string     `json:"status"`
	Currency         string     `json:"currency"`
	Borrower         string     `json:"borrower"`
	Debtor           string     `json:"debtor"`
	Amount           int64      `json:"amount"`
	ExitFee          int64      `json:"exit_fee"`
	UpfrontFee       int64      `json:"upfront_fee"`
	Interest         int64      `json:"interest"`
	PaidCapital      int64      `json:"paid_capital"`
	InsolventCapital int64      `json:"insolvent_capital"`
	DaysDelinquent   int        `json:"days_delinquent"`
	InvestmentDate   time.Time  `json:"investment_date"`
	DueDate          string     `json:"due_date"`
	Duration         Duration   `json:"duration"`
}

func (i Investment) ContentID() int64               { return i.ID }
func (i Investment) ContentKind() event.ContentKind { return event.KindInvestment }

// Movement is a ledger entry on the user's marketplace account.
type Movement struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

func (m Movement) ContentID() int64               { return m.ID }
func (m Movement) ContentKind() event.ContentKind { return event.KindMovement }
