package filter

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/fundalert/pkg/funding"
)

// Record is the persisted shape of a filter configuration. Decimals are kept
// as strings so every store preserves them exactly.
type Record struct {
	ID                           string   `json:"id" bson:"id"`
	Name                         string   `json:"name,omitempty" bson:"name,omitempty"`
	IgnoreDicom                  bool     `json:"ignore_dicom" bson:"ignore_dicom"`
	MinimumScore                 *string  `json:"minimum_score,omitempty" bson:"minimum_score,omitempty"`
	TargetCreditTypes            []string `json:"target_credit_types,omitempty" bson:"target_credit_types,omitempty"`
	MinimumDuration              *int     `json:"minimum_duration,omitempty" bson:"minimum_duration,omitempty"`
	MaximumDuration              *int     `json:"maximum_duration,omitempty" bson:"maximum_duration,omitempty"`
	MinimumInvestmentAmount      *int64   `json:"minimum_investment_amount,omitempty" bson:"minimum_investment_amount,omitempty"`
	MinimumIRR                   *string  `json:"minimum_irr,omitempty" bson:"minimum_irr,omitempty"`
	MinimumMonthlyProfitRate     *string  `json:"minimum_monthly_profit_rate,omitempty" bson:"minimum_monthly_profit_rate,omitempty"`
	MinimumRequestedAmount       *int64   `json:"minimum_requested_amount,omitempty" bson:"minimum_requested_amount,omitempty"`
	MinimumRequestedCredits      *int     `json:"minimum_requested_credits,omitempty" bson:"minimum_requested_credits,omitempty"`
	MaximumAverageDaysDelinquent *int     `json:"maximum_average_days_delinquent,omitempty" bson:"maximum_average_days_delinquent,omitempty"`
	MinimumPaidInTimePercentage  *string  `json:"minimum_paid_in_time_percentage,omitempty" bson:"minimum_paid_in_time_percentage,omitempty"`
}

func (c Configuration) Record() Record {
	r := Record{
		ID:                           c.ID,
		Name:                         c.Name,
		IgnoreDicom:                  c.IgnoreDicom,
		MinimumScore:                 decString(c.MinimumScore),
		MinimumDuration:              c.MinimumDuration,
		MaximumDuration:              c.MaximumDuration,
		MinimumInvestmentAmount:      c.MinimumInvestmentAmount,
		MinimumIRR:                   decString(c.MinimumIRR),
		MinimumMonthlyProfitRate:     decString(c.MinimumMonthlyProfitRate),
		MinimumRequestedAmount:       c.MinimumRequestedAmount,
		MinimumRequestedCredits:      c.MinimumRequestedCredits,
		MaximumAverageDaysDelinquent: c.MaximumAverageDaysDelinquent,
		MinimumPaidInTimePercentage:  decString(c.MinimumPaidInTimePercentage),
	}
	for _, ct := range c.TargetCreditTypes {
		r.TargetCreditTypes = append(r.TargetCreditTypes, string(ct))
	}
	return r
}

// Decode rebuilds and validates a configuration from its record.
func Decode(r Record) (Configuration, error) {
	var errs []error
	dec := func(field string, s *string) *decimal.Decimal {
		if s == nil {
			return nil
		}
		d, err := decimal.NewFromString(*s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return nil
		}
		return &d
	}

	c := Configuration{
		ID:                           r.ID,
		Name:                         r.Name,
		IgnoreDicom:                  r.IgnoreDicom,
		MinimumScore:                 dec("minimum_score", r.MinimumScore),
		MinimumDuration:              r.MinimumDuration,
		MaximumDuration:              r.MaximumDuration,
		MinimumInvestmentAmount:      r.MinimumInvestmentAmount,
		MinimumIRR:                   dec("minimum_irr", r.MinimumIRR),
		MinimumMonthlyProfitRate:     dec("minimum_monthly_profit_rate", r.MinimumMonthlyProfitRate),
		MinimumRequestedAmount:       r.MinimumRequestedAmount,
		MinimumRequestedCredits:      r.MinimumRequestedCredits,
		MaximumAverageDaysDelinquent: r.MaximumAverageDaysDelinquent,
		MinimumPaidInTimePercentage:  dec("minimum_paid_in_time_percentage", r.MinimumPaidInTimePercentage),
	}
	for _, s := range r.TargetCreditTypes {
		ct, err := funding.ParseCreditType(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.TargetCreditTypes = append(c.TargetCreditTypes, ct)
	}
	if len(errs) > 0 {
		return Configuration{}, errors.Join(append([]error{ErrInvalidFilter}, errs...)...)
	}
	return New(c)
}

// DecodeAll decodes a persisted filter map keyed by id.
func DecodeAll(records map[string]Record) (map[string]Configuration, error) {
	out := make(map[string]Configuration, len(records))
	for key, r := range records {
		if r.ID == "" {
			r.ID = key
		}
		c, err := Decode(r)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", r.ID, err)
		}
		out[c.ID] = c
	}
	return out, nil
}

func decString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
