package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team holds the structure for the team collection in mongo. The leader is
// always the first member.
type Team struct {
	ID         string             `json:"_id" bson:"_id"`
	EventID    string             `json:"eventId" bson:"eventId"`
	Name       string             `json:"name" bson:"name"`
	LeaderID   string             `json:"leaderId" bson:"leaderId"`
	InviteCode string             `json:"inviteCode" bson:"inviteCode"`
	Members    []TeamMember       `json:"members" bson:"members"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// TeamMember is one entrant on a team roster.
type TeamMember struct {
	UserID string `json:"userId" bson:"userId"`
	Name   string `json:"name" bson:"name"`
	Email  string `json:"email" bson:"email"`
}

// HasMember reports whether the given user is already on the roster.
func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
