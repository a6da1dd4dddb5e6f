package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/eventlabs/event-reg-api/api"
	"github.com/eventlabs/event-reg-api/config"
	"github.com/eventlabs/event-reg-api/databases"
	"github.com/eventlabs/event-reg-api/engine"
)

// Promo exported for testing purposes
type Promo struct {
	DB databases.EventDatabase
}

// PreviewPromoHandler returns what the caller would owe for the event
// after applying a promo code, without registering
func (p Promo) PreviewPromoHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]
	code := r.URL.Query().Get("code")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	ev, err := p.DB.FindOne(ctx, bson.M{"_id": eventID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
		return
	}

	price, err := engine.EffectivePrice(ev, code)
	if err != nil {
		config.ErrorStatus("invalid promo code", engineErrorStatus(err), w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"eventId":   eventID,
		"promoCode": code,
		"listPrice": ev.Price,
		"owed":      price,
		"currency":  ev.Currency,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
