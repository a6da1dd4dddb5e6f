package handlers

import (
	"errors"
	"net/http"

	"github.com/eventlabs/event-reg-api/engine"
)

// engineErrorStatus maps lifecycle errors to HTTP status codes so every
// handler reports them uniformly.
func engineErrorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrDuplicateRegistration),
		errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrTeamFull),
		errors.Is(err, engine.ErrRegistrationClosed),
		errors.Is(err, engine.ErrEventFull),
		errors.Is(err, engine.ErrNotApproved):
		return http.StatusConflict
	case errors.Is(err, engine.ErrMissingRequiredAnswer),
		errors.Is(err, engine.ErrInvalidPromoCode),
		errors.Is(err, engine.ErrInvalidTeamName),
		errors.Is(err, engine.ErrEventMismatch),
		errors.Is(err, engine.ErrParticipationMode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
