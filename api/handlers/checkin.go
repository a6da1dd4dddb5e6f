package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/eventlabs/event-reg-api/config"
	"github.com/eventlabs/event-reg-api/engine"
	"github.com/eventlabs/event-reg-api/models"
)

// CheckIn exported for testing purposes
type CheckIn struct {
	Engine *engine.Engine
}

// CreateCheckInTokenHandler mints a short-lived token encoding the
// registration, for the participant's check-in QR code
func (c CheckIn) CreateCheckInTokenHandler(w http.ResponseWriter, r *http.Request) {
	registrationID := mux.Vars(r)["registration_id"]

	reg, err := c.Engine.Registration(r.Context(), registrationID)
	if err != nil {
		config.ErrorStatus("failed to get registration by ID", engineErrorStatus(err), w, err)
		return
	}
	if reg.Status != models.StatusApproved {
		config.ErrorStatus("registration is not approved", http.StatusConflict, w, engine.ErrNotApproved)
		return
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, fmt.Errorf("JWT_SECRET is not set"))
		return
	}

	claims := jwt.MapClaims{
		"sub":     reg.ID,
		"eventId": reg.EventID,
		"scope":   "checkin",
		"typ":     "access",
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(48 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		config.ErrorStatus("token generation failed", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]string{
		"registrationId": reg.ID,
		"token":          signed,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ScanCheckInHandler validates a check-in token presented at the door and
// marks the registrant attended
func (c CheckIn) ScanCheckInHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, fmt.Errorf("JWT_SECRET is not set"))
		return
	}

	token, err := jwt.Parse(body.Token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		config.ErrorStatus("invalid check-in token", http.StatusUnauthorized, w, err)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["scope"] != "checkin" {
		config.ErrorStatus("invalid check-in token", http.StatusUnauthorized, w, fmt.Errorf("missing checkin scope"))
		return
	}
	registrationID, _ := claims["sub"].(string)

	actor := callerIdentity(r)
	updated, err := c.Engine.MarkAttendance(r.Context(), actor, registrationID)
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
