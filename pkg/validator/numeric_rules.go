package validator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Min checks value >= min.
func Min[T Numeric](field string, value, min T) Rule {
	return Rule{
		Check: func() bool { return value >= min },
		Error: fail(field, "min", fmt.Sprintf("must be at least %v", min)),
	}
}

// Max checks value <= max.
func Max[T Numeric](field string, value, max T) Rule {
	return Rule{
		Check: func() bool { return value <= max },
		Error: fail(field, "max", fmt.Sprintf("must be at most %v", max)),
	}
}

// DecimalBetween checks min <= value <= max.
func DecimalBetween(field string, value, min, max decimal.Decimal) Rule {
	return Rule{
		Check: func() bool { return value.GreaterThanOrEqual(min) && value.LessThanOrEqual(max) },
		Error: fail(field, "range", fmt.Sprintf("must be between %s and %s", min, max)),
	}
}

// DecimalMin checks value >= min.
func DecimalMin(field string, value, min decimal.Decimal) Rule {
	return Rule{
		Check: func() bool { return value.GreaterThanOrEqual(min) },
		Error: fail(field, "min", fmt.Sprintf("must be at least %s", min)),
	}
}
