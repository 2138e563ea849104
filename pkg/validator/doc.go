// Package validator provides rule-based validation used by the channel,
// filter, credentials and user packages.
//
// A Rule pairs a deferred check with the ValidationError it reports. Apply
// runs all rules and returns ValidationErrors listing every failure, so
// callers can report all invalid fields at once:
//
//	err := validator.Apply(
//	    validator.HTTPSURL("url", raw),
//	    validator.PublicHost("url", raw),
//	    validator.MaxLen("url", raw, 2000),
//	)
//	if ve := validator.Extract(err); ve.Has("url") {
//	    // ...
//	}
//
// Rules never perform I/O; PublicHost only inspects literal IP addresses.
package validator
