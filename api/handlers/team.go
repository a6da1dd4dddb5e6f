package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/api"
	"github.com/eventlabs/event-reg-api/config"
	"github.com/eventlabs/event-reg-api/databases"
	"github.com/eventlabs/event-reg-api/engine"
	"github.com/eventlabs/event-reg-api/models"
)

// Team exported for testing purposes
type Team struct {
	DB     databases.TeamDatabase
	Engine *engine.Engine
}

// CreateTeamHandler creates a team for an event with the caller as leader
func (t Team) CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	actor := callerIdentity(r)
	leader := models.TeamMember{UserID: actor.UserID, Email: actor.Email}

	team, err := t.Engine.CreateTeam(r.Context(), eventID, leader, body.Name)
	if err != nil {
		config.ErrorStatus("failed to create team", engineErrorStatus(err), w, err)
		return
	}

	b, err := json.Marshal(team)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// JoinTeamHandler adds the caller to the team behind an invite code
func (t Team) JoinTeamHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]

	var body struct {
		InviteCode string `json:"inviteCode"`
		Name       string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	actor := callerIdentity(r)
	member := models.TeamMember{UserID: actor.UserID, Name: body.Name, Email: actor.Email}

	team, err := t.Engine.JoinTeam(r.Context(), body.InviteCode, eventID, member)
	if err != nil {
		config.ErrorStatus("failed to join team", engineErrorStatus(err), w, err)
		return
	}

	b, err := json.Marshal(team)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// TeamByIDHandler returns a team by ID
func (t Team) TeamByIDHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["team_id"]

	zap.S().Debugf("team_id: %v", teamID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := t.DB.FindOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		config.ErrorStatus("failed to get team by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// TeamsByEventHandler returns all teams registered for an event
func (t Team) TeamsByEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := t.DB.Find(ctx, bson.M{"eventId": eventID})
	if err != nil {
		config.ErrorStatus("failed to get teams by event", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Team{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
