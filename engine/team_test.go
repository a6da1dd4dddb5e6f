package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventlabs/event-reg-api/engine"
	"github.com/eventlabs/event-reg-api/models"
)

func teamLeader() models.TeamMember {
	return models.TeamMember{UserID: "user-a", Name: "Ada", Email: "ada@example.com"}
}

func TestCreateTeam(t *testing.T) {
	e, _, _, teams := newTestEngine()

	teams.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	teams.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	team, err := e.CreateTeam(context.Background(), "event-1", teamLeader(), "Gophers")
	assert.NoError(t, err)
	assert.Equal(t, "Gophers", team.Name)
	assert.Equal(t, "user-a", team.LeaderID)
	assert.Len(t, team.Members, 1)
	assert.Len(t, team.InviteCode, 8)
}

func TestCreateTeamBlankNameFails(t *testing.T) {
	e, _, _, teams := newTestEngine()

	_, err := e.CreateTeam(context.Background(), "event-1", teamLeader(), "   ")
	assert.ErrorIs(t, err, engine.ErrInvalidTeamName)
	teams.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCreateTeamRetriesOnInviteCodeCollision(t *testing.T) {
	e, _, _, teams := newTestEngine()

	teams.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil).Twice()
	teams.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil).Once()
	teams.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	team, err := e.CreateTeam(context.Background(), "event-1", teamLeader(), "Gophers")
	assert.NoError(t, err)
	assert.NotEmpty(t, team.InviteCode)
	teams.AssertNumberOfCalls(t, "CountDocuments", 3)
}

func TestCreateTeamGivesUpAfterRepeatedCollisions(t *testing.T) {
	e, _, _, teams := newTestEngine()

	teams.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)

	_, err := e.CreateTeam(context.Background(), "event-1", teamLeader(), "Gophers")
	assert.Error(t, err)
	teams.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestJoinTeam(t *testing.T) {
	e, events, _, teams := newTestEngine()

	team := &models.Team{
		ID: "team-1", EventID: "event-1", Name: "Gophers", LeaderID: "user-a",
		InviteCode: "ABCD2345",
		Members:    []models.TeamMember{teamLeader()},
	}
	teams.On("FindOne", mock.Anything, bson.M{"inviteCode": "ABCD2345"}).Return(team, nil)
	events.On("FindOne", mock.Anything, bson.M{"_id": "event-1"}).Return(openEvent(), nil)
	teams.On("UpdateOne", mock.Anything, bson.M{"_id": "team-1"}, mock.Anything).Return(nil)

	joiner := models.TeamMember{UserID: "user-b", Name: "Bob", Email: "bob@example.com"}
	got, err := e.JoinTeam(context.Background(), "abcd2345", "event-1", joiner)
	assert.NoError(t, err)
	assert.Len(t, got.Members, 2)
	assert.True(t, got.HasMember("user-b"))
}

func TestJoinTeamUnknownCode(t *testing.T) {
	e, _, _, teams := newTestEngine()

	teams.On("FindOne", mock.Anything, bson.M{"inviteCode": "NOPE2345"}).Return(nil, mongo.ErrNoDocuments)

	_, err := e.JoinTeam(context.Background(), "NOPE2345", "event-1", teamLeader())
	assert.ErrorIs(t, err, engine.ErrTeamNotFound)
}

func TestJoinTeamWrongEvent(t *testing.T) {
	e, _, _, teams := newTestEngine()

	team := &models.Team{ID: "team-1", EventID: "event-2", InviteCode: "ABCD2345"}
	teams.On("FindOne", mock.Anything, bson.M{"inviteCode": "ABCD2345"}).Return(team, nil)

	_, err := e.JoinTeam(context.Background(), "ABCD2345", "event-1", teamLeader())
	assert.ErrorIs(t, err, engine.ErrEventMismatch)
}

func TestJoinTeamAtCapacityFails(t *testing.T) {
	// Scenario: max team size 3, roster already holds three. A fourth
	// join fails without touching the roster.
	e, events, _, teams := newTestEngine()

	team := &models.Team{
		ID: "team-1", EventID: "event-1", InviteCode: "ABCD2345",
		Members: []models.TeamMember{
			{UserID: "user-a"}, {UserID: "user-b"}, {UserID: "user-c"},
		},
	}
	teams.On("FindOne", mock.Anything, bson.M{"inviteCode": "ABCD2345"}).Return(team, nil)
	events.On("FindOne", mock.Anything, bson.M{"_id": "event-1"}).Return(openEvent(), nil)

	_, err := e.JoinTeam(context.Background(), "ABCD2345", "event-1", models.TeamMember{UserID: "user-d"})
	assert.ErrorIs(t, err, engine.ErrTeamFull)
	teams.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinTeamTwiceIsNoop(t *testing.T) {
	e, _, _, teams := newTestEngine()

	team := &models.Team{
		ID: "team-1", EventID: "event-1", InviteCode: "ABCD2345",
		Members: []models.TeamMember{teamLeader()},
	}
	teams.On("FindOne", mock.Anything, bson.M{"inviteCode": "ABCD2345"}).Return(team, nil)

	got, err := e.JoinTeam(context.Background(), "ABCD2345", "event-1", teamLeader())
	assert.NoError(t, err)
	assert.Len(t, got.Members, 1)
	teams.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}
