package api

import (
	"net/http"

	"github.com/dmitrymomot/fundalert/pkg/handler"
	"github.com/dmitrymomot/fundalert/pkg/pubsub"
)

// handleEvent dispatches a pushed envelope. Malformed messages are answered
// with 4xx so the broker does not redeliver them; dispatch failures with
// 5xx so it does.
func (a *API) handleEvent(ctx handler.Context, _ struct{}) handler.Response {
	env, ok := pubsub.FromContext(ctx)
	if !ok {
		return handler.JSONError(ErrNotEnvelope)
	}
	if err := a.messages.HandleMessage(ctx, env); err != nil {
		return handler.JSONError(httpError(err))
	}
	return handler.EmptyWithStatus(http.StatusAccepted)
}
