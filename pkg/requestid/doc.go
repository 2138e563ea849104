// Package requestid tags every HTTP request with an id that follows it into
// log records.
//
// Middleware keeps a well formed X-Request-ID header, otherwise it reuses
// the message id of a pushed pubsub envelope so broker redeliveries share
// one id, and falls back to a random UUID. The id is echoed in the response
// header and stored in the request context:
//
//	r.Use(pubsub.Middleware)
//	r.Use(requestid.Middleware)
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
