package event

// Funding request lifecycle.
var (
	FundingRequestAvailable = define("funding_request", "available", KindFundingRequest, false, false)
	FundingRequestPromising = define("funding_request", "promising", KindFundingRequest, true, true)
	FundingRequestFilter    = define("funding_request", "filter", KindFundingRequest, false, false)
)

// Investment lifecycle.
var (
	InvestmentInitialized = define("investment", "initialized", KindInvestment, false, false)
	InvestmentSubmitted   = define("investment", "submitted", KindInvestment, false, false)
	InvestmentConfirmed   = define("investment", "confirmed", KindInvestment, false, false)
	InvestmentFailed      = define("investment", "failed", KindInvestment, false, false)
	InvestmentSuccessful  = define("investment", "successful", KindInvestment, false, false)
	InvestmentRepaid      = define("investment", "repaid", KindInvestment, false, false)
	InvestmentRefunded    = define("investment", "refunded", KindInvestment, false, false)
	InvestmentDelinquent  = define("investment", "delinquent", KindInvestment, false, false)
	InvestmentCredited    = define("investment", "credited", KindInvestment, false, false)
	InvestmentUpdated     = define("investment", "updated", KindInvestment, false, false)
)

// Account movements.
var (
	MovementWithdrawal   = define("movement", "withdrawal", KindMovement, false, false)
	MovementDeposit      = define("movement", "deposit", KindMovement, false, false)
	MovementInvestment   = define("movement", "investment", KindMovement, false, false)
	MovementFeeRetention = define("movement", "fee_retention", KindMovement, false, false)
	MovementFeeCharge    = define("movement", "fee_charge", KindMovement, false, false)
	MovementFeeRefund    = define("movement", "fee_refund", KindMovement, false, false)
	MovementReturn       = define("movement", "return", KindMovement, false, false)
)

// Account changes, published for internal consumers only.
var (
	UserNotificationsUpdated = define("user", "notifications_updated", KindUser, false, false)
	UserCredentialsUpdated   = define("user", "credentials_updated", KindUser, false, false)
	UserChannelsUpdated      = define("user", "channels_updated", KindUser, false, false)
	UserFiltersUpdated       = define("user", "filters_updated", KindUser, false, false)
)

var taxonomy = newRegistry(
	FundingRequestAvailable,
	FundingRequestPromising,
	FundingRequestFilter,
	InvestmentInitialized,
	InvestmentSubmitted,
	InvestmentConfirmed,
	InvestmentFailed,
	InvestmentSuccessful,
	InvestmentRepaid,
	InvestmentRefunded,
	InvestmentDelinquent,
	InvestmentCredited,
	InvestmentUpdated,
	MovementWithdrawal,
	MovementDeposit,
	MovementInvestment,
	MovementFeeRetention,
	MovementFeeCharge,
	MovementFeeRefund,
	MovementReturn,
	UserNotificationsUpdated,
	UserCredentialsUpdated,
	UserChannelsUpdated,
	UserFiltersUpdated,
)

// Resolve looks up an event by its dotted value, ignoring case.
// Unknown values yield ErrUnknownEvent.
func Resolve(value string) (Event, error) {
	return taxonomy.resolve(value)
}

// New resolves an event from its resource and state parts.
func New(resource, state string) (Event, error) {
	return taxonomy.resolve(resource + "." + state)
}

// MustResolve is like Resolve but panics on unknown values.
func MustResolve(value string) Event {
	ev, err := Resolve(value)
	if err != nil {
		panic(err)
	}
	return ev
}

// Members returns every event in declaration order.
func Members() []Event {
	out := make([]Event, len(taxonomy.members))
	copy(out, taxonomy.members)
	return out
}

// Public returns the events that may be forwarded to public channels.
func Public() []Event {
	var out []Event
	for _, ev := range taxonomy.members {
		if ev.IsPublic() {
			out = append(out, ev)
		}
	}
	return out
}

// ResolveAll resolves a list of values, failing on the first unknown one.
func ResolveAll(values []string) ([]Event, error) {
	out := make([]Event, 0, len(values))
	for _, v := range values {
		ev, err := Resolve(v)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
