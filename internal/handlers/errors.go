package handlers

import (
	"errors"
	"net/http"

	"artistry-hub/internal/status"

	"github.com/pocketbase/pocketbase/apis"
)

// apiError maps service errors to the structured JSON errors the SPA
// expects. Callback handling never goes through this; it redirects.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrEventNotFound),
		errors.Is(err, status.ErrTicketNotFound),
		errors.Is(err, status.ErrReviewNotFound):
		return apis.NewNotFoundError(err.Error(), nil)

	case errors.Is(err, status.ErrAlreadyTicketed),
		errors.Is(err, status.ErrDuplicateReview),
		errors.Is(err, status.ErrSoldOut):
		return apis.NewApiError(http.StatusConflict, err.Error(), nil)

	case errors.Is(err, status.ErrNotOwner):
		return apis.NewForbiddenError(err.Error(), nil)

	case errors.Is(err, status.ErrUpstream),
		errors.Is(err, status.ErrVerificationFailed):
		return apis.NewApiError(http.StatusBadGateway, err.Error(), nil)

	case errors.Is(err, status.ErrAmountMismatch),
		errors.Is(err, status.ErrFreeEvent),
		errors.Is(err, status.ErrPaymentRequired),
		errors.Is(err, status.ErrEventNotEnded),
		errors.Is(err, status.ErrNotTicketHolder),
		errors.Is(err, status.ErrInvalidRating),
		errors.Is(err, status.ErrBadCheckinCode):
		return apis.NewBadRequestError(err.Error(), nil)

	default:
		return apis.NewApiError(http.StatusInternalServerError, "something went wrong", err)
	}
}
