package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/models"
)

// PromoteWaitlist fills freed capacity from the waitlist, oldest first.
// Promoted entrants move to pending, not approved; organizer approval is
// still required. Slot counts are recomputed from the store on every call,
// so running it twice back to back promotes nobody the second time.
// Per-item failures are logged and skipped, never fatal to the sweep.
func (e *Engine) PromoteWaitlist(ctx context.Context, eventID string) ([]models.Registration, error) {
	unlock := e.eventLocks.lock(eventID)
	defer unlock()

	return e.promoteWaitlistLocked(ctx, eventID)
}

// promoteWaitlistLocked is PromoteWaitlist without acquiring the event
// lock, for callers that already hold it.
func (e *Engine) promoteWaitlistLocked(ctx context.Context, eventID string) ([]models.Registration, error) {
	ev, err := e.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	held, err := e.slotHolderCount(ctx, eventID)
	if err != nil {
		return nil, err
	}
	available := int64(ev.Capacity) - held
	if available <= 0 {
		return nil, nil
	}

	// Oldest registrations first, ties broken by id for determinism.
	opts := options.Find().
		SetSort(bson.D{{Key: "registeredAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(available)
	waiting, err := e.registrations.Find(ctx, bson.M{
		"eventId": eventID,
		"status":  models.StatusWaitlisted,
	}, opts)
	if err != nil {
		return nil, err
	}

	var promoted []models.Registration
	for _, reg := range waiting {
		err := e.registrations.UpdateOne(ctx, bson.M{"_id": reg.ID}, bson.M{"$set": bson.M{"status": models.StatusPending}})
		if err != nil {
			zap.S().Errorw("failed to promote waitlisted registration",
				"registrationId", reg.ID, "eventId", eventID, "error", err)
			continue
		}
		reg.Status = models.StatusPending
		promoted = append(promoted, reg)

		e.notifier.Emit(KindWaitlistPromoted, map[string]interface{}{
			"registrationId": reg.ID,
			"eventId":        reg.EventID,
			"participantId":  reg.ParticipantID,
			"email":          reg.ParticipantEmail,
			"status":         reg.Status,
		})
	}
	return promoted, nil
}
