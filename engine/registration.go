package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/models"
)

// Team registration modes accepted by Register.
const (
	TeamModeCreate = "create"
	TeamModeJoin   = "join"
)

// TeamChoice selects team participation for a Register call.
type TeamChoice struct {
	Mode       string `json:"mode"`
	TeamName   string `json:"teamName,omitempty"`
	InviteCode string `json:"inviteCode,omitempty"`
}

// RegisterInput carries a registration attempt.
type RegisterInput struct {
	EventID          string            `json:"eventId"`
	ParticipantID    string            `json:"participantId"`
	ParticipantName  string            `json:"participantName"`
	ParticipantEmail string            `json:"participantEmail"`
	PromoCode        string            `json:"promoCode,omitempty"`
	Answers          map[string]string `json:"answers,omitempty"`
	Team             *TeamChoice       `json:"team,omitempty"`
}

// Register creates a new registration. The entrant lands in pending when a
// capacity slot is free, waitlisted otherwise. Team mode delegates to the
// team registry before the record is persisted.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*models.Registration, error) {
	ev, err := e.Event(ctx, in.EventID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !ev.IsRegistrationOpen || !now.Before(ev.StartsAt) {
		return nil, ErrRegistrationClosed
	}

	email := normalizeEmail(in.ParticipantEmail)

	if in.Team != nil && !ev.AllowsTeams() {
		return nil, ErrParticipationMode
	}
	if in.Team == nil && !ev.AllowsIndividuals() {
		return nil, ErrParticipationMode
	}

	if in.PromoCode != "" {
		if _, err := LookupPromo(ev, in.PromoCode); err != nil {
			return nil, err
		}
	}

	for _, q := range ev.Questions {
		if q.Required && strings.TrimSpace(in.Answers[q.ID]) == "" {
			return nil, ErrMissingRequiredAnswer
		}
	}

	unlock := e.eventLocks.lock(ev.ID)
	defer unlock()

	dupes, err := e.registrations.CountDocuments(ctx, bson.M{
		"eventId":          ev.ID,
		"participantEmail": email,
		"status":           bson.M{"$ne": models.StatusRejected},
	})
	if err != nil {
		return nil, err
	}
	if dupes > 0 {
		return nil, ErrDuplicateRegistration
	}

	reg := models.Registration{
		ID:                uuid.New().String(),
		EventID:           ev.ID,
		ParticipantID:     in.ParticipantID,
		ParticipantName:   in.ParticipantName,
		ParticipantEmail:  email,
		ParticipationType: models.ParticipationIndividual,
		AppliedPromoCode:  in.PromoCode,
		Answers:           in.Answers,
		RegisteredAt:      now,
	}

	if in.Team != nil {
		team, err := e.teamForRegistration(ctx, ev, in)
		if err != nil {
			return nil, err
		}
		reg.ParticipationType = models.ParticipationTeam
		reg.TeamID = team.ID
		reg.TeamName = team.Name
		reg.IsTeamLeader = team.LeaderID == in.ParticipantID
	}

	held, err := e.slotHolderCount(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	if held >= int64(ev.Capacity) {
		reg.Status = models.StatusWaitlisted
	} else {
		reg.Status = models.StatusPending
	}

	if _, err := e.registrations.InsertOne(ctx, reg); err != nil {
		return nil, err
	}

	e.notifier.Emit(KindStatusChanged, map[string]interface{}{
		"registrationId": reg.ID,
		"eventId":        reg.EventID,
		"participantId":  reg.ParticipantID,
		"email":          reg.ParticipantEmail,
		"status":         reg.Status,
	})
	return &reg, nil
}

// teamForRegistration resolves the team side of a Register call.
func (e *Engine) teamForRegistration(ctx context.Context, ev *models.Event, in RegisterInput) (*models.Team, error) {
	member := models.TeamMember{
		UserID: in.ParticipantID,
		Name:   in.ParticipantName,
		Email:  normalizeEmail(in.ParticipantEmail),
	}
	switch in.Team.Mode {
	case TeamModeCreate:
		return e.CreateTeam(ctx, ev.ID, member, in.Team.TeamName)
	case TeamModeJoin:
		return e.JoinTeam(ctx, in.Team.InviteCode, ev.ID, member)
	default:
		return nil, ErrTeamNotFound
	}
}

// Approve moves a registration toward approved. Paid events gate on the
// payment callback: until payment completes the target state is
// awaiting-payment. Re-approving recomputes the target from current
// payment state, so repeated calls are harmless.
func (e *Engine) Approve(ctx context.Context, actor Identity, registrationID string) (*models.Registration, error) {
	reg, err := e.Registration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	ev, err := e.Event(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if !canManage(ev, actor) {
		return nil, ErrUnauthorized
	}
	if reg.Status == models.StatusRejected {
		return nil, ErrInvalidTransition
	}

	unlock := e.eventLocks.lock(ev.ID)
	defer unlock()

	// A waitlisted registration holds no capacity slot. Approving it
	// claims one, so the count must be re-derived under the event lock
	// or a concurrent Register could push holders past capacity.
	if reg.Status == models.StatusWaitlisted {
		held, err := e.slotHolderCount(ctx, ev.ID)
		if err != nil {
			return nil, err
		}
		if held >= int64(ev.Capacity) {
			return nil, ErrEventFull
		}
	}

	target := models.StatusApproved
	if !reg.IsPaid() {
		owed, err := EffectivePrice(ev, reg.AppliedPromoCode)
		if err != nil {
			owed = ev.Price
		}
		if owed > 0 {
			target = models.StatusAwaitingPayment
		}
	}

	if err := e.registrations.UpdateOne(ctx, bson.M{"_id": reg.ID}, bson.M{"$set": bson.M{"status": target}}); err != nil {
		return nil, err
	}
	reg.Status = target

	e.notifier.Emit(KindStatusChanged, map[string]interface{}{
		"registrationId": reg.ID,
		"eventId":        reg.EventID,
		"participantId":  reg.ParticipantID,
		"email":          reg.ParticipantEmail,
		"status":         reg.Status,
	})
	return reg, nil
}

// Reject marks a registration rejected. Rejected is terminal. When the
// rejected entrant held a capacity slot, the freed slot is offered to the
// waitlist.
func (e *Engine) Reject(ctx context.Context, actor Identity, registrationID string) (*models.Registration, error) {
	reg, err := e.Registration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	ev, err := e.Event(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if !canManage(ev, actor) {
		return nil, ErrUnauthorized
	}
	if reg.Status == models.StatusRejected {
		return nil, ErrInvalidTransition
	}

	heldSlot := reg.HoldsSlot()

	if err := e.registrations.UpdateOne(ctx, bson.M{"_id": reg.ID}, bson.M{"$set": bson.M{"status": models.StatusRejected}}); err != nil {
		return nil, err
	}
	reg.Status = models.StatusRejected

	e.notifier.Emit(KindStatusChanged, map[string]interface{}{
		"registrationId": reg.ID,
		"eventId":        reg.EventID,
		"participantId":  reg.ParticipantID,
		"email":          reg.ParticipantEmail,
		"status":         reg.Status,
	})

	if heldSlot {
		if _, err := e.PromoteWaitlist(ctx, reg.EventID); err != nil {
			zap.S().Errorw("waitlist promotion after reject failed",
				"eventId", reg.EventID, "error", err)
		}
	}
	return reg, nil
}

// Cancel removes the registration outright. The caller must be the
// participant themselves. A freed slot triggers waitlist promotion. The
// call either fully removes the record or fails leaving it intact.
func (e *Engine) Cancel(ctx context.Context, actor Identity, registrationID string) error {
	reg, err := e.Registration(ctx, registrationID)
	if err != nil {
		return err
	}
	if actor.UserID != reg.ParticipantID {
		return ErrUnauthorized
	}
	if reg.Status == models.StatusRejected {
		return ErrInvalidTransition
	}

	heldSlot := reg.HoldsSlot()

	deleted, err := e.registrations.DeleteOne(ctx, bson.M{"_id": reg.ID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}

	e.notifier.Emit(KindStatusChanged, map[string]interface{}{
		"registrationId": reg.ID,
		"eventId":        reg.EventID,
		"participantId":  reg.ParticipantID,
		"email":          reg.ParticipantEmail,
		"status":         "cancelled",
	})

	if heldSlot {
		if _, err := e.PromoteWaitlist(ctx, reg.EventID); err != nil {
			zap.S().Errorw("waitlist promotion after cancel failed",
				"eventId", reg.EventID, "error", err)
		}
	}
	return nil
}

// MarkAttendance records that an approved registrant showed up. Repeated
// scans and scans of non-approved registrations both fail with
// ErrNotApproved so the scanning UI reports them the same way.
func (e *Engine) MarkAttendance(ctx context.Context, actor Identity, registrationID string) (*models.Registration, error) {
	reg, err := e.Registration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	ev, err := e.Event(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if !canManage(ev, actor) {
		return nil, ErrUnauthorized
	}
	if reg.Status != models.StatusApproved || reg.Attended {
		return nil, ErrNotApproved
	}

	now := time.Now().UTC()
	if err := e.registrations.UpdateOne(ctx, bson.M{"_id": reg.ID}, bson.M{"$set": bson.M{
		"attended":       true,
		"attendanceTime": now,
	}}); err != nil {
		return nil, err
	}
	reg.Attended = true
	reg.AttendanceTime = &now
	return reg, nil
}
