// Package dispatcher turns events into channel deliveries.
//
// For one user Dispatch reads the user, asks the eligibility rules whether
// the event may be sent, claims recurring notifications with a
// version-checked write and then delivers to every enabled channel that is
// subscribed to the event. When every delivery fails the claim is released
// so a later attempt can send again.
//
//	d := dispatcher.New(users, router, dispatcher.WithBaseURL("https://marketplace.example"))
//	res, err := d.Dispatch(ctx, userID, event.InvestmentConfirmed, inv)
//
// DispatchAll fans an event out to every user, and HandleMessage adapts a
// pubsub envelope to either form.
package dispatcher
