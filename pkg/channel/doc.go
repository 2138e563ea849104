// Package channel models the destinations a user receives notifications on.
//
// Configuration is a closed sum type with three variants: *Webhook, *IFTTT
// and *WhatsApp. Every variant is validated by its constructor and carries a
// Subscription deciding which events it receives, either all events minus a
// disabled set or an explicit allow-list:
//
//	hook, err := channel.NewWebhook("https://hooks.example.com/cumplo",
//	    channel.WithDisabledEvents(event.MovementDeposit),
//	)
//	channel.EventEnabled(hook, event.FundingRequestPromising) // true
//
// Webhook URLs must be https, carry a host name and, when the host is a
// literal IP, not point into private, loopback or link-local ranges. Host
// names are never resolved here.
//
// Record is the flat persisted form; Decode rebuilds and re-validates a
// variant from it through a table keyed by Type.
package channel
