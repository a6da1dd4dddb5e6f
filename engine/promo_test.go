package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventlabs/event-reg-api/engine"
	"github.com/eventlabs/event-reg-api/models"
)

func paidEvent() *models.Event {
	return &models.Event{
		ID:     "event-1",
		IsPaid: true,
		Price:  100,
		PromoCodes: []models.PromoCode{
			{Code: "HALF", Kind: models.PromoKindPercentage, Value: 50},
			{Code: "TENOFF", Kind: models.PromoKindFixed, Value: 10},
		},
	}
}

func TestLookupPromoIsCaseInsensitive(t *testing.T) {
	ev := paidEvent()

	promo, err := engine.LookupPromo(ev, "half")
	assert.NoError(t, err)
	assert.Equal(t, "HALF", promo.Code)

	promo, err = engine.LookupPromo(ev, "  TenOff ")
	assert.NoError(t, err)
	assert.Equal(t, "TENOFF", promo.Code)
}

func TestLookupPromoUnknownCode(t *testing.T) {
	_, err := engine.LookupPromo(paidEvent(), "NOPE")
	assert.ErrorIs(t, err, engine.ErrInvalidPromoCode)

	_, err = engine.LookupPromo(paidEvent(), "")
	assert.ErrorIs(t, err, engine.ErrInvalidPromoCode)
}

func TestDiscountedPrice(t *testing.T) {
	percentage := &models.PromoCode{Kind: models.PromoKindPercentage, Value: 50}
	assert.Equal(t, 50.0, engine.DiscountedPrice(100, percentage))

	fixed := &models.PromoCode{Kind: models.PromoKindFixed, Value: 10}
	assert.Equal(t, 90.0, engine.DiscountedPrice(100, fixed))

	// never below zero
	bigFixed := &models.PromoCode{Kind: models.PromoKindFixed, Value: 500}
	assert.Equal(t, 0.0, engine.DiscountedPrice(100, bigFixed))

	assert.Equal(t, 100.0, engine.DiscountedPrice(100, nil))
}

func TestEffectivePrice(t *testing.T) {
	free := &models.Event{ID: "event-2", IsPaid: false, Price: 0}
	price, err := engine.EffectivePrice(free, "")
	assert.NoError(t, err)
	assert.Equal(t, 0.0, price)

	price, err = engine.EffectivePrice(paidEvent(), "")
	assert.NoError(t, err)
	assert.Equal(t, 100.0, price)

	price, err = engine.EffectivePrice(paidEvent(), "HALF")
	assert.NoError(t, err)
	assert.Equal(t, 50.0, price)

	_, err = engine.EffectivePrice(paidEvent(), "BOGUS")
	assert.ErrorIs(t, err, engine.ErrInvalidPromoCode)
}
