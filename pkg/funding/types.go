package funding

import (
	"fmt"
	"strings"
)

// CreditType classifies the credit a funding request finances.
type CreditType string

const (
	CreditTypeHUDSubsidy      CreditType = "HOUSING & URBAN DEVELOPMENT SUBSIDY"
	CreditTypeTreasurySubsidy CreditType = "TREASURY SUBSIDY"
	CreditTypeWorkingCapital  CreditType = "WORKING CAPITAL"
	CreditTypeFactoring       CreditType = "FACTORING"
)

var creditTypes = []CreditType{
	CreditTypeHUDSubsidy,
	CreditTypeTreasurySubsidy,
	CreditTypeWorkingCapital,
	CreditTypeFactoring,
}

// CreditTypes returns every known credit type.
func CreditTypes() []CreditType {
	return append([]CreditType(nil), creditTypes...)
}

// ParseCreditType accepts the display value or the constant-style name
// ("WORKING_CAPITAL"), ignoring case.
func ParseCreditType(s string) (CreditType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for _, ct := range creditTypes {
		if norm == string(ct) || norm == strings.ReplaceAll(string(ct), " ", "_") {
			return ct, nil
		}
	}
	switch norm {
	case "HUD_SUBSIDY":
		return CreditTypeHUDSubsidy, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCreditType, s)
}

func (c *CreditType) UnmarshalText(b []byte) error {
	ct, err := ParseCreditType(string(b))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// DurationUnit is the unit of a Duration.
type DurationUnit string

const (
	DurationMonth DurationUnit = "MONTH"
	DurationDay   DurationUnit = "DAY"
)

// Duration is the term of a credit.
type Duration struct {
	Unit  DurationUnit `json:"unit"`
	Value int          `json:"value"`
}

// Days converts the duration to days, counting a month as 30 days.
func (d Duration) Days() int {
	if d.Unit == DurationMonth {
		return d.Value * 30
	}
	return d.Value
}

func (d Duration) String() string {
	return fmt.Sprintf("%d %ss", d.Value, strings.ToLower(string(d.Unit)))
}
