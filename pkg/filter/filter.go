package filter

import (
	"errors"
	"hash/fnv"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/fundalert/pkg/funding"
	"github.com/dmitrymomot/fundalert/pkg/validator"
)

// Configuration is a user's criteria for a promising funding request.
// Nil thresholds are not applied.
type Configuration struct {
	ID   string
	Name string

	IgnoreDicom       bool
	MinimumScore      *decimal.Decimal
	TargetCreditTypes []funding.CreditType

	MinimumDuration         *int
	MaximumDuration         *int
	MinimumInvestmentAmount *int64

	MinimumIRR               *decimal.Decimal
	MinimumMonthlyProfitRate *decimal.Decimal

	MinimumRequestedAmount  *int64
	MinimumRequestedCredits *int

	MaximumAverageDaysDelinquent *int
	MinimumPaidInTimePercentage  *decimal.Decimal
}

// New validates c, assigning a fresh id when it has none.
func New(c Configuration) (Configuration, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if len(c.TargetCreditTypes) == 0 {
		c.TargetCreditTypes = nil
	}
	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// Validate checks every set threshold is in range.
func (c Configuration) Validate() error {
	var rules []validator.Rule
	if c.MinimumScore != nil {
		rules = append(rules, validator.DecimalBetween("minimum_score", *c.MinimumScore, zero, one))
	}
	if c.MinimumPaidInTimePercentage != nil {
		rules = append(rules, validator.DecimalBetween("minimum_paid_in_time_percentage", *c.MinimumPaidInTimePercentage, zero, one))
	}
	if c.MinimumIRR != nil {
		rules = append(rules, validator.DecimalMin("minimum_irr", *c.MinimumIRR, zero))
	}
	if c.MinimumMonthlyProfitRate != nil {
		rules = append(rules, validator.DecimalMin("minimum_monthly_profit_rate", *c.MinimumMonthlyProfitRate, zero))
	}
	positive := func(field string, v *int) {
		if v != nil {
			rules = append(rules, validator.Min(field, *v, 1))
		}
	}
	positive("minimum_duration", c.MinimumDuration)
	positive("maximum_duration", c.MaximumDuration)
	positive("minimum_requested_credits", c.MinimumRequestedCredits)
	positive("maximum_average_days_delinquent", c.MaximumAverageDaysDelinquent)
	if c.MinimumInvestmentAmount != nil {
		rules = append(rules, validator.Min("minimum_investment_amount", *c.MinimumInvestmentAmount, 1))
	}
	if c.MinimumRequestedAmount != nil {
		rules = append(rules, validator.Min("minimum_requested_amount", *c.MinimumRequestedAmount, 1))
	}
	if c.MinimumDuration != nil && c.MaximumDuration != nil {
		rules = append(rules, validator.Max("minimum_duration", *c.MinimumDuration, *c.MaximumDuration))
	}
	if err := validator.Apply(rules...); err != nil {
		return errors.Join(ErrInvalidFilter, err)
	}
	return nil
}

// Equal compares the thresholds of a and b, ignoring ID and Name.
// Credit types are compared as sets and an empty set equals nil.
func Equal(a, b Configuration) bool {
	return a.Key() == b.Key()
}

// Key is a canonical text form of the thresholds. Two configurations have
// the same key exactly when Equal reports true.
func (c Configuration) Key() string {
	var sb strings.Builder
	field := func(name, value string) {
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(value)
		sb.WriteByte(';')
	}
	dec := func(name string, v *decimal.Decimal) {
		if v != nil {
			field(name, v.String())
		}
	}
	integer := func(name string, v *int) {
		if v != nil {
			field(name, strconv.Itoa(*v))
		}
	}
	integer64 := func(name string, v *int64) {
		if v != nil {
			field(name, strconv.FormatInt(*v, 10))
		}
	}

	field("ignore_dicom", strconv.FormatBool(c.IgnoreDicom))
	dec("minimum_score", c.MinimumScore)
	if len(c.TargetCreditTypes) > 0 {
		types := make([]string, 0, len(c.TargetCreditTypes))
		for _, ct := range c.TargetCreditTypes {
			types = append(types, string(ct))
		}
		slices.Sort(types)
		types = slices.Compact(types)
		field("target_credit_types", strings.Join(types, ","))
	}
	integer("minimum_duration", c.MinimumDuration)
	integer("maximum_duration", c.MaximumDuration)
	integer64("minimum_investment_amount", c.MinimumInvestmentAmount)
	dec("minimum_irr", c.MinimumIRR)
	dec("minimum_monthly_profit_rate", c.MinimumMonthlyProfitRate)
	integer64("minimum_requested_amount", c.MinimumRequestedAmount)
	integer("minimum_requested_credits", c.MinimumRequestedCredits)
	integer("maximum_average_days_delinquent", c.MaximumAverageDaysDelinquent)
	dec("minimum_paid_in_time_percentage", c.MinimumPaidInTimePercentage)
	return sb.String()
}

// Hash is consistent with Equal.
func (c Configuration) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(c.Key()))
	return h.Sum64()
}

// Unique drops configurations equal to an earlier one, keeping order.
func Unique(configs []Configuration) []Configuration {
	seen := make(map[string]struct{}, len(configs))
	out := make([]Configuration, 0, len(configs))
	for _, c := range configs {
		k := c.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}
