package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/api"
	"github.com/eventlabs/event-reg-api/config"
	"github.com/eventlabs/event-reg-api/databases"
	"github.com/eventlabs/event-reg-api/engine"
	"github.com/eventlabs/event-reg-api/models"
)

var (
	// Page denotes the starting Page for pagination results
	Page = 0
)

// Event exported for testing purposes
type Event struct {
	DB     databases.EventDatabase
	Engine *engine.Engine
}

// CreateEventHandler creates a new event owned by the caller
func (e Event) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validateEvent(&ev); err != nil {
		config.ErrorStatus("invalid event", http.StatusBadRequest, w, err)
		return
	}

	actor := callerIdentity(r)
	now := primitive.NewDateTimeFromTime(time.Now())
	ev.ID = uuid.New().String()
	ev.OrganizerID = actor.UserID
	ev.CreatedAt = now
	ev.UpdatedAt = now

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := e.DB.InsertOne(ctx, ev); err != nil {
		config.ErrorStatus("failed to create event", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(ev)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// EventByIDHandler returns an event by ID
func (e Event) EventByIDHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]

	zap.S().Debugf("event_id: %v", eventID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := e.DB.FindOne(ctx, bson.M{"_id": eventID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
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

// EventsByOrganizerHandler returns all events owned by the given organizer
func (e Event) EventsByOrganizerHandler(w http.ResponseWriter, r *http.Request) {
	organizerID := mux.Vars(r)["organizer_id"]
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := e.DB.Find(ctx, bson.M{"organizerId": organizerID}, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get events by organizer", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Event{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateEventHandler updates the mutable fields of an event. A capacity
// increase immediately offers the new slots to the waitlist.
func (e Event) UpdateEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]
	actor := callerIdentity(r)

	current, err := e.Engine.Event(r.Context(), eventID)
	if err != nil {
		config.ErrorStatus("failed to get event by ID", engineErrorStatus(err), w, err)
		return
	}
	if actor.UserID != current.OrganizerID && !contains(current.CollaboratorIDs, actor.UserID) {
		config.ErrorStatus("only event staff may update the event", http.StatusForbidden, w, engine.ErrUnauthorized)
		return
	}

	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validateEvent(&ev); err != nil {
		config.ErrorStatus("invalid event", http.StatusBadRequest, w, err)
		return
	}

	update := bson.M{"$set": bson.M{
		"name":               ev.Name,
		"capacity":           ev.Capacity,
		"startsAt":           ev.StartsAt,
		"endsAt":             ev.EndsAt,
		"isRegistrationOpen": ev.IsRegistrationOpen,
		"participationMode":  ev.ParticipationMode,
		"maxTeamSize":        ev.MaxTeamSize,
		"isPaid":             ev.IsPaid,
		"price":              ev.Price,
		"currency":           ev.Currency,
		"promoCodes":         ev.PromoCodes,
		"questions":          ev.Questions,
		"collaboratorIds":    ev.CollaboratorIDs,
		"updatedAt":          primitive.NewDateTimeFromTime(time.Now()),
	}}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if err := e.DB.UpdateOne(ctx, bson.M{"_id": eventID}, update); err != nil {
		config.ErrorStatus("failed to update event", http.StatusInternalServerError, w, err)
		return
	}

	if ev.Capacity > current.Capacity {
		promoted, err := e.Engine.PromoteWaitlist(r.Context(), eventID)
		if err != nil {
			zap.S().Errorw("waitlist promotion after capacity increase failed",
				"eventId", eventID, "error", err)
		} else if len(promoted) > 0 {
			zap.S().Infow("promoted waitlisted registrations after capacity increase",
				"eventId", eventID, "count", len(promoted))
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"updated": "%s"}`, eventID)))
}

// DeleteEventHandler deletes an event and cascades to its registrations and teams
func (e Event) DeleteEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]
	actor := callerIdentity(r)

	if err := e.Engine.DeleteEvent(r.Context(), actor, eventID); err != nil {
		config.ErrorStatus("failed to delete event", engineErrorStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, eventID)))
}

// validateEvent enforces the structural constraints on an event document.
func validateEvent(ev *models.Event) error {
	if ev.Name == "" {
		return fmt.Errorf("name is required")
	}
	if ev.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1")
	}
	if !ev.EndsAt.After(ev.StartsAt) {
		return fmt.Errorf("endsAt must be after startsAt")
	}
	switch ev.ParticipationMode {
	case models.ParticipationIndividual, models.ParticipationTeam, models.ParticipationBoth:
	default:
		return fmt.Errorf("participationMode must be individual, team or both")
	}
	if ev.AllowsTeams() && ev.MaxTeamSize < 2 {
		return fmt.Errorf("maxTeamSize must be at least 2 for team events")
	}
	if ev.IsPaid && ev.Price <= 0 {
		return fmt.Errorf("price must be positive for paid events")
	}
	seen := map[string]bool{}
	for _, p := range ev.PromoCodes {
		switch p.Kind {
		case models.PromoKindPercentage:
			if p.Value <= 0 || p.Value > 100 {
				return fmt.Errorf("promo code %q percentage must be greater than 0 and at most 100", p.Code)
			}
		case models.PromoKindFixed:
			if p.Value <= 0 {
				return fmt.Errorf("promo code %q discount must be positive", p.Code)
			}
			if p.Value > ev.Price {
				return fmt.Errorf("promo code %q discount exceeds the event price", p.Code)
			}
		default:
			return fmt.Errorf("promo code %q has unknown kind %q", p.Code, p.Kind)
		}
		key := normalizePromo(p.Code)
		if seen[key] {
			return fmt.Errorf("duplicate promo code %q", p.Code)
		}
		seen[key] = true
	}
	return nil
}

func normalizePromo(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}
