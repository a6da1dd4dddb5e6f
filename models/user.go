package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles recognized by the API boundary.
const (
	RoleOrganizer = "organizer"
	RoleAttendee  = "attendee"
)

// User holds the structure for the user collection in mongo. The engine
// trusts the authenticated identity supplied by the middleware; this record
// exists only to back the auth boundary.
type User struct {
	ID        string             `json:"_id" bson:"_id"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	Role      string             `json:"role" bson:"role"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
