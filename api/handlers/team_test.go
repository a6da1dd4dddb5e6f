package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventlabs/event-reg-api/api/handlers"
	"github.com/eventlabs/event-reg-api/models"
)

func TestTeam_CreateTeamHandler(t *testing.T) {
	eng, _, _, teams := newHandlerEngine()

	teams.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	teams.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	body, _ := json.Marshal(map[string]string{"name": "Gophers"})
	req, _ := http.NewRequest("POST", "/api/v1/event/event-1/teams", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"event_id": "event-1"})
	req = authenticate(req, "user-a", "ada@example.com")

	h := handlers.Team{Engine: eng}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateTeamHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Team
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Gophers", got.Name)
	assert.Equal(t, "user-a", got.LeaderID)
	assert.Len(t, got.InviteCode, 8)
}

func TestTeam_CreateTeamHandlerBlankName(t *testing.T) {
	eng, _, _, _ := newHandlerEngine()

	body, _ := json.Marshal(map[string]string{"name": "  "})
	req, _ := http.NewRequest("POST", "/api/v1/event/event-1/teams", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"event_id": "event-1"})
	req = authenticate(req, "user-a", "ada@example.com")

	h := handlers.Team{Engine: eng}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateTeamHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTeam_JoinTeamHandlerFull(t *testing.T) {
	eng, events, _, teams := newHandlerEngine()

	ev := openTestEvent()
	ev.ParticipationMode = models.ParticipationTeam
	ev.MaxTeamSize = 2
	events.On("FindOne", mock.Anything, bson.M{"_id": "event-1"}).Return(ev, nil)

	team := &models.Team{
		ID: "team-1", EventID: "event-1", InviteCode: "ABCD2345",
		Members: []models.TeamMember{{UserID: "user-a"}, {UserID: "user-b"}},
	}
	teams.On("FindOne", mock.Anything, bson.M{"inviteCode": "ABCD2345"}).Return(team, nil)

	body, _ := json.Marshal(map[string]string{"inviteCode": "ABCD2345"})
	req, _ := http.NewRequest("POST", "/api/v1/event/event-1/teams/join", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"event_id": "event-1"})
	req = authenticate(req, "user-c", "carol@example.com")

	h := handlers.Team{Engine: eng}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.JoinTeamHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestTeam_JoinTeamHandlerUnknownCode(t *testing.T) {
	eng, _, _, teams := newHandlerEngine()

	teams.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	body, _ := json.Marshal(map[string]string{"inviteCode": "NOPE2345"})
	req, _ := http.NewRequest("POST", "/api/v1/event/event-1/teams/join", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"event_id": "event-1"})
	req = authenticate(req, "user-c", "carol@example.com")

	h := handlers.Team{Engine: eng}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.JoinTeamHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
