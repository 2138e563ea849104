package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/fundalert/pkg/binder"
	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/validator"
)

// Classify maps err to a status code and the detail rendered to clients.
// Errors it does not recognise become a 500 without their message.
func Classify(err error) (int, *ErrorDetail) {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}

	case validator.IsValidationError(err):
		ve := validator.Extract(err)
		details := make(map[string][]string, len(ve))
		for _, e := range ve {
			details[e.Field] = append(details[e.Field], e.Message)
		}
		return http.StatusUnprocessableEntity, &ErrorDetail{
			Code:    "validation_error",
			Message: "validation failed",
			Details: details,
		}

	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return http.StatusUnsupportedMediaType, &ErrorDetail{Code: ErrUnsupportedMediaType.Key, Message: err.Error()}

	case errors.Is(err, binder.ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge, &ErrorDetail{Code: ErrRequestTooLarge.Key, Message: err.Error()}

	case errors.Is(err, binder.ErrFailedToParseJSON), errors.Is(err, binder.ErrFailedToParsePath):
		return http.StatusBadRequest, &ErrorDetail{Code: ErrBadRequest.Key, Message: err.Error()}
	}
	return http.StatusInternalServerError, &ErrorDetail{
		Code:    ErrInternalServerError.Key,
		Message: http.StatusText(http.StatusInternalServerError),
	}
}

// RenderError writes err as a JSON error response.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	_ = JSONError(err).Render(w, r)
}

// NewErrorHandler renders errors like RenderError and logs server errors.
func NewErrorHandler(l *slog.Logger) ErrorHandler {
	if l == nil {
		l = slog.Default()
	}
	return func(ctx Context, err error) {
		status, _ := Classify(err)
		if status >= http.StatusInternalServerError {
			l.LogAttrs(ctx, slog.LevelError, "request failed",
				slog.String("method", ctx.Request().Method),
				slog.String("path", ctx.Request().URL.Path),
				logger.Error(err),
			)
		}
		RenderError(ctx.ResponseWriter(), ctx.Request(), err)
	}
}
