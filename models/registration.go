package models

import "time"

// Registration lifecycle states.
const (
	StatusPending         = "pending"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusWaitlisted      = "waitlisted"
	StatusAwaitingPayment = "awaitingPayment"
)

// Payment status recorded by the payment callback.
const PaymentCompleted = "completed"

// Registration holds the structure for the registration collection in mongo
type Registration struct {
	ID                string            `json:"_id" bson:"_id"`
	EventID           string            `json:"eventId" bson:"eventId"`
	ParticipantID     string            `json:"participantId" bson:"participantId"`
	ParticipantName   string            `json:"participantName" bson:"participantName"`
	ParticipantEmail  string            `json:"participantEmail" bson:"participantEmail"`
	Status            string            `json:"status" bson:"status"`
	ParticipationType string            `json:"participationType" bson:"participationType"`
	TeamID            string            `json:"teamId,omitempty" bson:"teamId,omitempty"`
	TeamName          string            `json:"teamName,omitempty" bson:"teamName,omitempty"`
	IsTeamLeader      bool              `json:"isTeamLeader,omitempty" bson:"isTeamLeader,omitempty"`
	Attended          bool              `json:"attended" bson:"attended"`
	AttendanceTime    *time.Time        `json:"attendanceTime,omitempty" bson:"attendanceTime,omitempty"`
	RegisteredAt      time.Time         `json:"registeredAt" bson:"registeredAt"`
	AppliedPromoCode  string            `json:"appliedPromoCode,omitempty" bson:"appliedPromoCode,omitempty"`
	Answers           map[string]string `json:"answers,omitempty" bson:"answers,omitempty"`
	PaymentDetails    *PaymentDetails   `json:"paymentDetails,omitempty" bson:"paymentDetails,omitempty"`
}

// PaymentDetails records a completed payment for a registration. Absence
// means not paid or not applicable.
type PaymentDetails struct {
	Status           string  `json:"status" bson:"status"`
	Amount           float64 `json:"amount" bson:"amount"`
	Currency         string  `json:"currency" bson:"currency"`
	TransactionID    string  `json:"transactionId" bson:"transactionId"`
	PromoCodeApplied string  `json:"promoCodeApplied,omitempty" bson:"promoCodeApplied,omitempty"`
}

// IsPaid reports whether payment has been recorded as completed.
func (r *Registration) IsPaid() bool {
	return r.PaymentDetails != nil && r.PaymentDetails.Status == PaymentCompleted
}

// HoldsSlot reports whether the registration counts toward event capacity.
// Waitlisted and rejected registrations do not hold a slot.
func (r *Registration) HoldsSlot() bool {
	switch r.Status {
	case StatusPending, StatusApproved, StatusAwaitingPayment:
		return true
	}
	return false
}
