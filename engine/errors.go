package engine

import "errors"

// Typed errors returned by engine operations. Handlers map these onto HTTP
// statuses; the engine never writes responses itself.
var (
	ErrDuplicateRegistration = errors.New("participant already registered for this event")
	ErrRegistrationClosed    = errors.New("registration is closed for this event")
	ErrEventFull             = errors.New("event is at capacity")
	ErrMissingRequiredAnswer = errors.New("a required question is missing an answer")
	ErrTeamNotFound          = errors.New("team not found")
	ErrEventMismatch         = errors.New("invite code belongs to a different event")
	ErrTeamFull              = errors.New("team is full")
	ErrInvalidTeamName       = errors.New("team name must not be blank")
	ErrInvalidPromoCode      = errors.New("promo code not recognized")
	ErrNotApproved           = errors.New("registration is not approved or was already scanned")
	ErrInvalidTransition     = errors.New("registration state does not allow this transition")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("caller is not allowed to perform this action")
	ErrParticipationMode     = errors.New("event does not accept this participation type")
)
