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

	"github.com/eventlabs/event-reg-api/api/handlers"
	"github.com/eventlabs/event-reg-api/models"
)

func TestCheckIn_TokenRoundTripMarksAttendance(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	eng, events, regs, _ := newHandlerEngine()

	reg := &models.Registration{ID: "reg-1", EventID: "event-1", ParticipantID: "user-a", Status: models.StatusApproved}
	regs.On("FindOne", mock.Anything, bson.M{"_id": "reg-1"}).Return(reg, nil)
	events.On("FindOne", mock.Anything, bson.M{"_id": "event-1"}).Return(openTestEvent(), nil)
	regs.On("UpdateOne", mock.Anything, bson.M{"_id": "reg-1"}, mock.Anything).Return(nil)

	h := handlers.CheckIn{Engine: eng}

	// mint a token for the approved registration
	mintReq, _ := http.NewRequest("GET", "/api/v1/registration/reg-1/checkin-token", nil)
	mintReq = mux.SetURLVars(mintReq, map[string]string{"registration_id": "reg-1"})
	mintReq = authenticate(mintReq, "user-a", "ada@example.com")

	mintRR := httptest.NewRecorder()
	http.HandlerFunc(h.CreateCheckInTokenHandler).ServeHTTP(mintRR, mintReq)
	assert.Equal(t, http.StatusOK, mintRR.Code)

	var minted map[string]string
	assert.NoError(t, json.Unmarshal(mintRR.Body.Bytes(), &minted))
	assert.NotEmpty(t, minted["token"])

	// scan it at the door as the organizer
	body, _ := json.Marshal(map[string]string{"token": minted["token"]})
	scanReq, _ := http.NewRequest("POST", "/api/v1/checkin/scan", bytes.NewReader(body))
	scanReq = authenticate(scanReq, "org-1", "org@example.com")

	scanRR := httptest.NewRecorder()
	http.HandlerFunc(h.ScanCheckInHandler).ServeHTTP(scanRR, scanReq)
	assert.Equal(t, http.StatusOK, scanRR.Code)

	var got models.Registration
	assert.NoError(t, json.Unmarshal(scanRR.Body.Bytes(), &got))
	assert.True(t, got.Attended)
}

func TestCheckIn_TokenForPendingRegistrationRefused(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	eng, _, regs, _ := newHandlerEngine()

	reg := &models.Registration{ID: "reg-1", EventID: "event-1", Status: models.StatusPending}
	regs.On("FindOne", mock.Anything, bson.M{"_id": "reg-1"}).Return(reg, nil)

	h := handlers.CheckIn{Engine: eng}

	req, _ := http.NewRequest("GET", "/api/v1/registration/reg-1/checkin-token", nil)
	req = mux.SetURLVars(req, map[string]string{"registration_id": "reg-1"})
	req = authenticate(req, "user-a", "ada@example.com")

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateCheckInTokenHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCheckIn_ScanGarbageTokenRefused(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	eng, _, _, _ := newHandlerEngine()
	h := handlers.CheckIn{Engine: eng}

	body, _ := json.Marshal(map[string]string{"token": "not-a-jwt"})
	req, _ := http.NewRequest("POST", "/api/v1/checkin/scan", bytes.NewReader(body))
	req = authenticate(req, "org-1", "org@example.com")

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.ScanCheckInHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
