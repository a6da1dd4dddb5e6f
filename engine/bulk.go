package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/eventlabs/event-reg-api/models"
)

// BulkResult is the per-item outcome of a bulk action. Partial failure is
// reported item by item; the caller decides what overall failure means.
type BulkResult struct {
	RegistrationID string               `json:"registrationId"`
	Registration   *models.Registration `json:"registration,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// ApproveMany approves each listed registration, reporting each result
// individually.
func (e *Engine) ApproveMany(ctx context.Context, actor Identity, registrationIDs []string) []BulkResult {
	results := make([]BulkResult, 0, len(registrationIDs))
	for _, id := range registrationIDs {
		reg, err := e.Approve(ctx, actor, id)
		res := BulkResult{RegistrationID: id, Registration: reg}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// DeleteEvent removes the event and cascades deletion of its
// registrations and teams.
func (e *Engine) DeleteEvent(ctx context.Context, actor Identity, eventID string) error {
	ev, err := e.Event(ctx, eventID)
	if err != nil {
		return err
	}
	if !canManage(ev, actor) {
		return ErrUnauthorized
	}

	unlock := e.eventLocks.lock(eventID)
	defer unlock()

	if _, err := e.registrations.DeleteMany(ctx, bson.M{"eventId": eventID}); err != nil {
		return err
	}
	if _, err := e.teams.DeleteMany(ctx, bson.M{"eventId": eventID}); err != nil {
		return err
	}
	return e.events.DeleteOne(ctx, bson.M{"_id": eventID})
}
