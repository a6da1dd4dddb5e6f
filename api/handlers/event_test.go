package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shaj13/go-guardian/auth"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/eventlabs/event-reg-api/api"
	"github.com/eventlabs/event-reg-api/api/handlers"
	"github.com/eventlabs/event-reg-api/databases"
	"github.com/eventlabs/event-reg-api/databases/mocks"
	"github.com/eventlabs/event-reg-api/models"
)

// authenticate stamps the request with a caller the way the auth
// middleware would after a successful token check.
func authenticate(req *http.Request, userID, email string) *http.Request {
	info := auth.NewDefaultUser(email, userID, nil, nil)
	return req.WithContext(api.WithCaller(req.Context(), info))
}

func TestEvent_EventByIDHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/event/1234", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"event_id": "1234"})
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &mocks.DatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*mocks.DatabaseHelper).On("Collection", "events").Return(conn)

	eventDatabase := databases.NewEventDatabase(db)
	e := handlers.Event{
		DB: eventDatabase,
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.EventByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
	}

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "failed to get event by ID", Error: "mongo: no documents in result"}}
	b, _ := json.Marshal(expected)
	if rr.Body.String() != string(b) {
		t.Errorf("handler returned unexpected body: \ngot: %v \nwant: %v", rr.Body.String(), expected)
	}
}

func TestEvent_EventByIDHandlerSuccess(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/event/event-1", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"event_id": "event-1"})
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &mocks.DatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Event)
		(*arg).ID = "event-1"
		(*arg).Name = "Go Conference"
		(*arg).Capacity = 100
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*mocks.DatabaseHelper).On("Collection", "events").Return(conn)

	eventDatabase := databases.NewEventDatabase(db)
	e := handlers.Event{
		DB: eventDatabase,
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.EventByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	var got models.Event
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if got.Name != "Go Conference" {
		t.Errorf("handler returned unexpected event name: got %v want %v", got.Name, "Go Conference")
	}
}

func TestEvent_CreateEventHandlerRejectsInvalidCapacity(t *testing.T) {
	body, _ := json.Marshal(models.Event{
		Name:              "Go Conference",
		Capacity:          0,
		StartsAt:          time.Now().Add(24 * time.Hour),
		EndsAt:            time.Now().Add(30 * time.Hour),
		ParticipationMode: models.ParticipationIndividual,
	})
	req, err := http.NewRequest("POST", "/api/v1/event", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = authenticate(req, "org-1", "org@example.com")

	e := handlers.Event{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.CreateEventHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

func TestEvent_CreateEventHandlerRejectsTeamEventWithoutTeamSize(t *testing.T) {
	body, _ := json.Marshal(models.Event{
		Name:              "Hackathon",
		Capacity:          50,
		StartsAt:          time.Now().Add(24 * time.Hour),
		EndsAt:            time.Now().Add(30 * time.Hour),
		ParticipationMode: models.ParticipationTeam,
		MaxTeamSize:       1,
	})
	req, err := http.NewRequest("POST", "/api/v1/event", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = authenticate(req, "org-1", "org@example.com")

	e := handlers.Event{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.CreateEventHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

func TestEvent_UpdateEventHandlerAllowsCollaborator(t *testing.T) {
	eng, events, _, _ := newHandlerEngine()

	current := openTestEvent()
	current.CollaboratorIDs = []string{"collab-1"}
	events.On("FindOne", mock.Anything, bson.M{"_id": "event-1"}).Return(current, nil)
	events.On("UpdateOne", mock.Anything, bson.M{"_id": "event-1"}, mock.Anything).Return(nil)

	body, _ := json.Marshal(models.Event{
		Name:              "Go Conference",
		Capacity:          100,
		StartsAt:          time.Now().Add(24 * time.Hour),
		EndsAt:            time.Now().Add(30 * time.Hour),
		ParticipationMode: models.ParticipationIndividual,
	})
	req, err := http.NewRequest("PUT", "/api/v1/event/event-1", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"event_id": "event-1"})
	req = authenticate(req, "collab-1", "collab@example.com")

	e := handlers.Event{DB: events, Engine: eng}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.UpdateEventHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	events.AssertCalled(t, "UpdateOne", mock.Anything, bson.M{"_id": "event-1"}, mock.Anything)
}

func TestEvent_UpdateEventHandlerRejectsNonStaff(t *testing.T) {
	eng, events, _, _ := newHandlerEngine()

	current := openTestEvent()
	current.CollaboratorIDs = []string{"collab-1"}
	events.On("FindOne", mock.Anything, bson.M{"_id": "event-1"}).Return(current, nil)

	body, _ := json.Marshal(models.Event{
		Name:              "Go Conference",
		Capacity:          100,
		StartsAt:          time.Now().Add(24 * time.Hour),
		EndsAt:            time.Now().Add(30 * time.Hour),
		ParticipationMode: models.ParticipationIndividual,
	})
	req, err := http.NewRequest("PUT", "/api/v1/event/event-1", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"event_id": "event-1"})
	req = authenticate(req, "someone-else", "other@example.com")

	e := handlers.Event{DB: events, Engine: eng}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.UpdateEventHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusForbidden {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusForbidden)
	}
	events.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvent_CreateEventHandlerRejectsZeroPercentagePromo(t *testing.T) {
	body, _ := json.Marshal(models.Event{
		Name:              "Go Conference",
		Capacity:          100,
		StartsAt:          time.Now().Add(24 * time.Hour),
		EndsAt:            time.Now().Add(30 * time.Hour),
		ParticipationMode: models.ParticipationIndividual,
		IsPaid:            true,
		Price:             50,
		PromoCodes: []models.PromoCode{
			{Code: "NOOP", Kind: models.PromoKindPercentage, Value: 0},
		},
	})
	req, err := http.NewRequest("POST", "/api/v1/event", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = authenticate(req, "org-1", "org@example.com")

	e := handlers.Event{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.CreateEventHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

func TestEvent_CreateEventHandlerRejectsFixedPromoExceedingPrice(t *testing.T) {
	body, _ := json.Marshal(models.Event{
		Name:              "Go Conference",
		Capacity:          100,
		StartsAt:          time.Now().Add(24 * time.Hour),
		EndsAt:            time.Now().Add(30 * time.Hour),
		ParticipationMode: models.ParticipationIndividual,
		IsPaid:            true,
		Price:             50,
		PromoCodes: []models.PromoCode{
			{Code: "BIGOFF", Kind: models.PromoKindFixed, Value: 75},
		},
	})
	req, err := http.NewRequest("POST", "/api/v1/event", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = authenticate(req, "org-1", "org@example.com")

	e := handlers.Event{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.CreateEventHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

func TestEvent_CreateEventHandlerRejectsDuplicatePromoCodes(t *testing.T) {
	body, _ := json.Marshal(models.Event{
		Name:              "Go Conference",
		Capacity:          100,
		StartsAt:          time.Now().Add(24 * time.Hour),
		EndsAt:            time.Now().Add(30 * time.Hour),
		ParticipationMode: models.ParticipationIndividual,
		IsPaid:            true,
		Price:             50,
		PromoCodes: []models.PromoCode{
			{Code: "HALF", Kind: models.PromoKindPercentage, Value: 50},
			{Code: "half", Kind: models.PromoKindFixed, Value: 10},
		},
	})
	req, err := http.NewRequest("POST", "/api/v1/event", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = authenticate(req, "org-1", "org@example.com")

	e := handlers.Event{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.CreateEventHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}
