package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/config"
	"github.com/eventlabs/event-reg-api/engine"
	"github.com/eventlabs/event-reg-api/models"
)

// Payment exported for testing purposes
type Payment struct {
	Engine *engine.Engine
	Config config.Config
}

// amountInCents converts a price in major units to Stripe's integer
// cents. Rounded, not truncated: 10.10*100 is 1009.99... in float64.
func amountInCents(owed float64) int64 {
	return int64(math.Round(owed * 100))
}

// CreateCheckoutSessionHandler creates a Stripe checkout session for a
// registration awaiting payment and returns the redirect URL
func (p Payment) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	registrationID := mux.Vars(r)["registration_id"]

	reg, err := p.Engine.Registration(r.Context(), registrationID)
	if err != nil {
		config.ErrorStatus("failed to get registration by ID", engineErrorStatus(err), w, err)
		return
	}
	if reg.Status != models.StatusAwaitingPayment {
		config.ErrorStatus("registration is not awaiting payment", http.StatusConflict, w, engine.ErrInvalidTransition)
		return
	}

	ev, err := p.Engine.Event(r.Context(), reg.EventID)
	if err != nil {
		config.ErrorStatus("failed to get event by ID", engineErrorStatus(err), w, err)
		return
	}

	owed, err := engine.EffectivePrice(ev, reg.AppliedPromoCode)
	if err != nil {
		config.ErrorStatus("invalid promo code", engineErrorStatus(err), w, err)
		return
	}
	if owed <= 0 {
		config.ErrorStatus("nothing is owed for this registration", http.StatusConflict, w, engine.ErrInvalidTransition)
		return
	}

	currency := ev.Currency
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Registration for %s", ev.Name)),
					},
					UnitAmount: stripe.Int64(amountInCents(owed)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(reg.ParticipantEmail),
		SuccessURL:    stripe.String(fmt.Sprintf("%s/api/v1/payments/success?session_id={CHECKOUT_SESSION_ID}", p.Config.BaseURL)),
		CancelURL:     stripe.String(fmt.Sprintf("%s/api/v1/payments/cancel?registration_id=%s", p.Config.BaseURL, reg.ID)),
	}
	params.AddMetadata("registrationId", reg.ID)
	params.AddMetadata("promoCode", reg.AppliedPromoCode)

	s, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]string{
		"sessionId": s.ID,
		"url":       s.URL,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// HandleSuccessRedirect finalizes a registration after Stripe redirects
// back from a completed checkout
func (p Payment) HandleSuccessRedirect(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		config.ErrorStatus("missing session_id", http.StatusBadRequest, w, fmt.Errorf("session_id query param is required"))
		return
	}

	s, err := session.Get(sessionID, nil)
	if err != nil {
		config.ErrorStatus("failed to retrieve checkout session", http.StatusBadRequest, w, err)
		return
	}
	if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		config.ErrorStatus("checkout session is not paid", http.StatusConflict, w, fmt.Errorf("payment status %s", s.PaymentStatus))
		return
	}

	registrationID := s.Metadata["registrationId"]
	proof := engine.PaymentProof{
		Amount:        float64(s.AmountTotal) / 100,
		Currency:      string(s.Currency),
		TransactionID: s.ID,
		PromoCode:     s.Metadata["promoCode"],
	}

	updated, err := p.Engine.CompletePayment(r.Context(), registrationID, proof)
	if err != nil {
		config.ErrorStatus("failed to complete payment", engineErrorStatus(err), w, err)
		return
	}

	zap.S().Infow("payment completed via checkout",
		"registrationId", updated.ID,
		"sessionId", s.ID,
		"amount", proof.Amount,
	)

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// HandleCancelRedirect reports an abandoned checkout. The registration
// stays in awaiting-payment so the participant can retry.
func (p Payment) HandleCancelRedirect(w http.ResponseWriter, r *http.Request) {
	registrationID := r.URL.Query().Get("registration_id")
	zap.S().Infow("checkout cancelled", "registrationId", registrationID)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"cancelled checkout": "%s"}`, registrationID)))
}

// CompletePaymentHandler records a payment reported directly by a
// gateway callback
func (p Payment) CompletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	registrationID := mux.Vars(r)["registration_id"]

	var proof engine.PaymentProof
	if err := json.NewDecoder(r.Body).Decode(&proof); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	updated, err := p.Engine.CompletePayment(r.Context(), registrationID, proof)
	if err != nil {
		config.ErrorStatus("failed to complete payment", engineErrorStatus(err), w, err)
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
