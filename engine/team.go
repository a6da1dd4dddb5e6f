package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventlabs/event-reg-api/models"
)

const (
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLength   = 8
	inviteCodeRetries  = 5
)

// CreateTeam creates a team for the event with the leader as its first
// member. The invite code is collision-checked against every existing
// team, not just this event's.
func (e *Engine) CreateTeam(ctx context.Context, eventID string, leader models.TeamMember, teamName string) (*models.Team, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return nil, ErrInvalidTeamName
	}

	code, err := e.newInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	team := models.Team{
		ID:         uuid.New().String(),
		EventID:    eventID,
		Name:       teamName,
		LeaderID:   leader.UserID,
		InviteCode: code,
		Members:    []models.TeamMember{leader},
		CreatedAt:  primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := e.teams.InsertOne(ctx, team); err != nil {
		return nil, err
	}

	e.notifier.Emit(KindTeamCreated, map[string]interface{}{
		"teamId":     team.ID,
		"eventId":    team.EventID,
		"teamName":   team.Name,
		"leaderId":   team.LeaderID,
		"inviteCode": team.InviteCode,
	})
	return &team, nil
}

// JoinTeam adds member to the team behind inviteCode. Joins are serialized
// per code so two simultaneous joins cannot both squeeze into the last
// roster spot. Re-joining with the same user id is a no-op success.
func (e *Engine) JoinTeam(ctx context.Context, inviteCode, eventID string, member models.TeamMember) (*models.Team, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return nil, ErrTeamNotFound
	}

	unlock := e.teamLocks.lock(code)
	defer unlock()

	team, err := e.teams.FindOne(ctx, bson.M{"inviteCode": code})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if team.EventID != eventID {
		return nil, ErrEventMismatch
	}
	if team.HasMember(member.UserID) {
		return team, nil
	}

	ev, err := e.Event(ctx, team.EventID)
	if err != nil {
		return nil, err
	}
	if ev.MaxTeamSize >= 2 && len(team.Members) >= ev.MaxTeamSize {
		return nil, ErrTeamFull
	}

	if err := e.teams.UpdateOne(ctx, bson.M{"_id": team.ID}, bson.M{"$push": bson.M{"members": member}}); err != nil {
		return nil, err
	}
	team.Members = append(team.Members, member)

	e.notifier.Emit(KindTeamJoined, map[string]interface{}{
		"teamId":   team.ID,
		"eventId":  team.EventID,
		"teamName": team.Name,
		"userId":   member.UserID,
		"email":    member.Email,
	})
	return team, nil
}

// newInviteCode generates a globally unique invite code.
func (e *Engine) newInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < inviteCodeRetries; attempt++ {
		code, err := randomInviteCode()
		if err != nil {
			return "", err
		}
		count, err := e.teams.CountDocuments(ctx, bson.M{"inviteCode": code})
		if err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique invite code after %d attempts", inviteCodeRetries)
}

func randomInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(buf), nil
}
