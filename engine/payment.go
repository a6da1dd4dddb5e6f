package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/eventlabs/event-reg-api/models"
)

// PaymentProof is what the payment gateway callback reports. The engine
// records it verbatim; it never infers payment completion from any other
// signal.
type PaymentProof struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	TransactionID string  `json:"transactionId"`
	PromoCode     string  `json:"promoCode,omitempty"`
}

// CompletePayment records payment and moves the registration from
// awaiting-payment to approved. Idempotent: a registration already paid
// returns success without re-recording or re-notifying.
func (e *Engine) CompletePayment(ctx context.Context, registrationID string, proof PaymentProof) (*models.Registration, error) {
	reg, err := e.Registration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.IsPaid() {
		return reg, nil
	}
	if reg.Status != models.StatusAwaitingPayment {
		return nil, ErrInvalidTransition
	}

	details := &models.PaymentDetails{
		Status:           models.PaymentCompleted,
		Amount:           proof.Amount,
		Currency:         proof.Currency,
		TransactionID:    proof.TransactionID,
		PromoCodeApplied: proof.PromoCode,
	}
	if err := e.registrations.UpdateOne(ctx, bson.M{"_id": reg.ID}, bson.M{"$set": bson.M{
		"status":         models.StatusApproved,
		"paymentDetails": details,
	}}); err != nil {
		return nil, err
	}
	reg.Status = models.StatusApproved
	reg.PaymentDetails = details

	e.notifier.Emit(KindPaymentCompleted, map[string]interface{}{
		"registrationId": reg.ID,
		"eventId":        reg.EventID,
		"participantId":  reg.ParticipantID,
		"email":          reg.ParticipantEmail,
		"status":         reg.Status,
		"amount":         proof.Amount,
		"transactionId":  proof.TransactionID,
	})
	return reg, nil
}
