package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/api"
	"github.com/eventlabs/event-reg-api/config"
	"github.com/eventlabs/event-reg-api/databases"
	"github.com/eventlabs/event-reg-api/engine"
	"github.com/eventlabs/event-reg-api/models"
)

// Registration exported for testing purposes
type Registration struct {
	DB     databases.RegistrationDatabase
	Engine *engine.Engine
}

// CreateRegistrationHandler registers the caller for an event
func (reg Registration) CreateRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	var in engine.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	in.EventID = mux.Vars(r)["event_id"]

	actor := callerIdentity(r)
	if in.ParticipantID == "" {
		in.ParticipantID = actor.UserID
	}
	if in.ParticipantEmail == "" {
		in.ParticipantEmail = actor.Email
	}

	created, err := reg.Engine.Register(r.Context(), in)
	if err != nil {
		config.ErrorStatus("failed to register", engineErrorStatus(err), w, err)
		return
	}

	b, err := json.Marshal(created)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// RegistrationByIDHandler returns a registration by ID
func (reg Registration) RegistrationByIDHandler(w http.ResponseWriter, r *http.Request) {
	registrationID := mux.Vars(r)["registration_id"]

	zap.S().Debugf("registration_id: %v", registrationID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := reg.DB.FindOne(ctx, bson.M{"_id": registrationID})
	if err != nil {
		config.ErrorStatus("failed to get registration by ID", http.StatusNotFound, w, err)
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

// RegistrationsByEventHandler returns the registrations for an event,
// optionally filtered by status
func (reg Registration) RegistrationsByEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]
	status := r.URL.Query().Get("status")
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	filter := bson.M{"eventId": eventID}
	if status != "" {
		filter["status"] = status
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := reg.DB.Find(ctx, filter, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get registrations by event", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Registration{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MyRegistrationHandler returns the caller's own registration for an event
func (reg Registration) MyRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]
	actor := callerIdentity(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := reg.DB.FindOne(ctx, bson.M{
		"eventId":          eventID,
		"participantEmail": strings.ToLower(actor.Email),
	})
	if err != nil {
		config.ErrorStatus("no registration for caller", http.StatusNotFound, w, err)
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

// ApproveRegistrationHandler approves a registration
func (reg Registration) ApproveRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	registrationID := mux.Vars(r)["registration_id"]
	actor := callerIdentity(r)

	updated, err := reg.Engine.Approve(r.Context(), actor, registrationID)
	if err != nil {
		config.ErrorStatus("failed to approve registration", engineErrorStatus(err), w, err)
		return
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RejectRegistrationHandler rejects a registration
func (reg Registration) RejectRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	registrationID := mux.Vars(r)["registration_id"]
	actor := callerIdentity(r)

	updated, err := reg.Engine.Reject(r.Context(), actor, registrationID)
	if err != nil {
		config.ErrorStatus("failed to reject registration", engineErrorStatus(err), w, err)
		return
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CancelRegistrationHandler lets a participant cancel their own registration
func (reg Registration) CancelRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	registrationID := mux.Vars(r)["registration_id"]
	actor := callerIdentity(r)

	if err := reg.Engine.Cancel(r.Context(), actor, registrationID); err != nil {
		config.ErrorStatus("failed to cancel registration", engineErrorStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"cancelled": "%s"}`, registrationID)))
}

// BulkApproveHandler approves a batch of registrations, reporting each
// outcome individually
func (reg Registration) BulkApproveHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RegistrationIDs []string `json:"registrationIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if len(body.RegistrationIDs) == 0 {
		config.ErrorStatus("no registration ids given", http.StatusBadRequest, w, fmt.Errorf("registrationIds is empty"))
		return
	}

	actor := callerIdentity(r)
	results := reg.Engine.ApproveMany(r.Context(), actor, body.RegistrationIDs)

	b, err := json.Marshal(results)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// PromoteWaitlistHandler sweeps the event waitlist into freed capacity
func (reg Registration) PromoteWaitlistHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]
	actor := callerIdentity(r)

	ev, err := reg.Engine.Event(r.Context(), eventID)
	if err != nil {
		config.ErrorStatus("failed to get event by ID", engineErrorStatus(err), w, err)
		return
	}
	if actor.UserID != ev.OrganizerID && !contains(ev.CollaboratorIDs, actor.UserID) {
		config.ErrorStatus("only event staff may promote the waitlist", http.StatusForbidden, w, engine.ErrUnauthorized)
		return
	}

	promoted, err := reg.Engine.PromoteWaitlist(r.Context(), eventID)
	if err != nil {
		config.ErrorStatus("failed to promote waitlist", engineErrorStatus(err), w, err)
		return
	}
	if len(promoted) == 0 {
		promoted = []models.Registration{}
	}

	b, err := json.Marshal(promoted)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkAttendanceHandler marks an approved registrant as attended
func (reg Registration) MarkAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	registrationID := mux.Vars(r)["registration_id"]
	actor := callerIdentity(r)

	updated, err := reg.Engine.MarkAttendance(r.Context(), actor, registrationID)
	if err != nil {
		config.ErrorStatus("failed to mark attendance", engineErrorStatus(err), w, err)
		return
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
