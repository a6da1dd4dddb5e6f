package engine

import (
	"strings"

	"github.com/eventlabs/event-reg-api/models"
)

// LookupPromo returns the promo code on the event matching code,
// compared case-insensitively. Returns ErrInvalidPromoCode when no
// code matches.
func LookupPromo(event *models.Event, code string) (*models.PromoCode, error) {
	want := strings.ToLower(strings.TrimSpace(code))
	if want == "" {
		return nil, ErrInvalidPromoCode
	}
	for i := range event.PromoCodes {
		if strings.ToLower(event.PromoCodes[i].Code) == want {
			return &event.PromoCodes[i], nil
		}
	}
	return nil, ErrInvalidPromoCode
}

// DiscountedPrice computes the price after applying promo to basePrice.
// The result is floored at zero. Every caller that previews or finalizes
// a price goes through this single function.
func DiscountedPrice(basePrice float64, promo *models.PromoCode) float64 {
	if promo == nil {
		return basePrice
	}
	var discounted float64
	switch promo.Kind {
	case models.PromoKindPercentage:
		discounted = basePrice - basePrice*promo.Value/100
	case models.PromoKindFixed:
		discounted = basePrice - promo.Value
	default:
		discounted = basePrice
	}
	if discounted < 0 {
		return 0
	}
	return discounted
}

// EffectivePrice returns what a registrant owes for the event after
// applying the optional promo code. A blank code means list price.
func EffectivePrice(event *models.Event, promoCode string) (float64, error) {
	if !event.IsPaid {
		return 0, nil
	}
	if strings.TrimSpace(promoCode) == "" {
		return event.Price, nil
	}
	promo, err := LookupPromo(event, promoCode)
	if err != nil {
		return 0, err
	}
	return DiscountedPrice(event.Price, promo), nil
}
