// Package engine owns the registration lifecycle: the state machine moving
// registrations between pending, waitlisted, awaiting-payment, approved and
// rejected, capacity accounting against concurrent attempts, waitlist
// promotion, team formation, and the payment gate. Handlers are thin
// callers; everything state-sensitive lives here.
package engine

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventlabs/event-reg-api/databases"
	"github.com/eventlabs/event-reg-api/models"
)

// Identity is the authenticated caller supplied by the API boundary. The
// engine trusts it and does not authenticate.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Engine wires the registration lifecycle to the event, registration and
// team collections plus the notifier.
type Engine struct {
	events        databases.EventDatabase
	registrations databases.RegistrationDatabase
	teams         databases.TeamDatabase
	notifier      Notifier

	eventLocks *keyedMutex
	teamLocks  *keyedMutex
}

// New creates an Engine. A nil notifier is replaced with a no-op one.
func New(events databases.EventDatabase, registrations databases.RegistrationDatabase, teams databases.TeamDatabase, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{
		events:        events,
		registrations: registrations,
		teams:         teams,
		notifier:      notifier,
		eventLocks:    newKeyedMutex(),
		teamLocks:     newKeyedMutex(),
	}
}

// slotHolderStatuses are the states that count toward event capacity.
var slotHolderStatuses = []string{models.StatusPending, models.StatusApproved, models.StatusAwaitingPayment}

// Event returns the event with the given id.
func (e *Engine) Event(ctx context.Context, eventID string) (*models.Event, error) {
	ev, err := e.events.FindOne(ctx, bson.M{"_id": eventID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ev, nil
}

// Registration returns the registration with the given id.
func (e *Engine) Registration(ctx context.Context, registrationID string) (*models.Registration, error) {
	reg, err := e.registrations.FindOne(ctx, bson.M{"_id": registrationID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

// slotHolderCount counts the registrations currently holding a capacity
// slot for the event. Always recomputed from the store, never cached, so
// promotion stays correct even if another process mutates the store.
func (e *Engine) slotHolderCount(ctx context.Context, eventID string) (int64, error) {
	return e.registrations.CountDocuments(ctx, bson.M{
		"eventId": eventID,
		"status":  bson.M{"$in": slotHolderStatuses},
	})
}

// canManage reports whether the caller is the organizer or a collaborator
// of the event.
func canManage(ev *models.Event, actor Identity) bool {
	if actor.UserID == ev.OrganizerID {
		return true
	}
	for _, id := range ev.CollaboratorIDs {
		if actor.UserID == id {
			return true
		}
	}
	return false
}

// normalizeEmail lowercases and trims an email for the per-event
// uniqueness check.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
