// Package api is the HTTP surface of the notifier.
//
// Every route sits behind pubsub.Middleware, so push deliveries and plain
// JSON requests share the same handlers. Routes under /me and /users are
// authenticated with the X-API-Key header or, for pushes, with the id_user
// attribute of the envelope. /users additionally requires an admin.
// WithRateLimit throttles the authenticated routes.
//
//	GET    /healthz                          liveness and readiness
//	POST   /events                           dispatch a pushed event
//	GET    /me                               current user
//	PUT    /me/credentials                   replace marketplace login
//	PUT    /me/channels/{id}                 create or replace a channel
//	DELETE /me/channels/{id}
//	PUT    /me/filters/{id}                  create or replace a filter
//	DELETE /me/filters/{id}
//	POST   /me/notifications/{id}/dismiss    stop re-notification
//	GET    /users                            list users (admin)
//	POST   /users                            create a user (admin)
//
// Successful changes to a user publish the matching user.*_updated event.
package api
