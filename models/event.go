package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participation modes accepted by an event.
const (
	ParticipationIndividual = "individual"
	ParticipationTeam       = "team"
	ParticipationBoth       = "both"
)

// Promo code kinds.
const (
	PromoKindPercentage = "percentage"
	PromoKindFixed      = "fixed"
)

// Event holds the structure for the event collection in mongo
type Event struct {
	ID                 string             `json:"_id" bson:"_id"`
	Name               string             `json:"name" bson:"name"`
	OrganizerID        string             `json:"organizerId" bson:"organizerId"`
	CollaboratorIDs    []string           `json:"collaboratorIds" bson:"collaboratorIds"`
	Capacity           int                `json:"capacity" bson:"capacity"`
	StartsAt           time.Time          `json:"startsAt" bson:"startsAt"`
	EndsAt             time.Time          `json:"endsAt" bson:"endsAt"`
	IsRegistrationOpen bool               `json:"isRegistrationOpen" bson:"isRegistrationOpen"`
	ParticipationMode  string             `json:"participationMode" bson:"participationMode"`
	MaxTeamSize        int                `json:"maxTeamSize,omitempty" bson:"maxTeamSize,omitempty"`
	IsPaid             bool               `json:"isPaid" bson:"isPaid"`
	Price              float64            `json:"price" bson:"price"`
	Currency           string             `json:"currency,omitempty" bson:"currency,omitempty"`
	PromoCodes         []PromoCode        `json:"promoCodes,omitempty" bson:"promoCodes,omitempty"`
	Questions          []CustomQuestion   `json:"questions,omitempty" bson:"questions,omitempty"`
	ReminderSentAt     *time.Time         `json:"reminderSentAt,omitempty" bson:"reminderSentAt,omitempty"`
	CreatedAt          primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt          primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// PromoCode is a discount code attached to an event. Codes are unique
// within their event, compared case-insensitively.
type PromoCode struct {
	Code  string  `json:"code" bson:"code"`
	Kind  string  `json:"kind" bson:"kind"`
	Value float64 `json:"value" bson:"value"`
}

// CustomQuestion is an organizer-defined question answered at registration time.
type CustomQuestion struct {
	ID       string `json:"id" bson:"id"`
	Prompt   string `json:"prompt" bson:"prompt"`
	Required bool   `json:"required" bson:"required"`
}

// AllowsTeams reports whether the event accepts team registrations.
func (e *Event) AllowsTeams() bool {
	return e.ParticipationMode == ParticipationTeam || e.ParticipationMode == ParticipationBoth
}

// AllowsIndividuals reports whether the event accepts individual registrations.
func (e *Event) AllowsIndividuals() bool {
	return e.ParticipationMode == ParticipationIndividual || e.ParticipationMode == ParticipationBoth
}
