package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/credentials"
	"github.com/dmitrymomot/fundalert/pkg/dispatcher"
	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/filter"
	"github.com/dmitrymomot/fundalert/pkg/funding"
	"github.com/dmitrymomot/fundalert/pkg/handler"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/pubsub"
	"github.com/dmitrymomot/fundalert/pkg/store"
	"github.com/dmitrymomot/fundalert/pkg/user"
	"github.com/dmitrymomot/fundalert/pkg/validator"
)

var (
	ErrNotEnvelope     = handler.NewHTTPError(http.StatusBadRequest, "not_an_envelope")
	ErrDuplicateFilter = handler.NewHTTPError(http.StatusConflict, "duplicate_filter")
	ErrDeliveryFailed  = handler.NewHTTPError(http.StatusBadGateway, "delivery_failed")
)

// httpError attaches the HTTP status that err should be answered with.
// Validation errors are returned as they are and rendered as 422.
func httpError(err error) error {
	if validator.IsValidationError(err) {
		return err
	}
	var status handler.HTTPError
	switch {
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, user.ErrChannelNotFound),
		errors.Is(err, user.ErrFilterNotFound),
		errors.Is(err, user.ErrNotificationNotFound):
		status = handler.ErrNotFound
	case errors.Is(err, user.ErrDuplicateFilter):
		status = ErrDuplicateFilter
	case errors.Is(err, store.ErrVersionConflict), errors.Is(err, store.ErrDuplicateAPIKey):
		status = handler.ErrConflict
	case errors.Is(err, channel.ErrInvalidChannelConfiguration),
		errors.Is(err, filter.ErrInvalidFilter),
		errors.Is(err, credentials.ErrInvalidCredentials),
		errors.Is(err, user.ErrInvalidUser):
		status = handler.ErrUnprocessableEntity
	case errors.Is(err, notifications.ErrInvalidIDFormat),
		errors.Is(err, event.ErrUnknownEvent),
		errors.Is(err, funding.ErrInvalidContent),
		errors.Is(err, funding.ErrUnsupportedContent),
		errors.Is(err, pubsub.ErrMissingAttribute),
		errors.Is(err, pubsub.ErrInvalidPayload),
		errors.Is(err, dispatcher.ErrMissingUser),
		errors.Is(err, dispatcher.ErrInvalidContent):
		status = handler.ErrBadRequest
	case errors.Is(err, dispatcher.ErrAllDeliveriesFailed):
		status = ErrDeliveryFailed
	default:
		return err
	}
	return errors.Join(status, err)
}
