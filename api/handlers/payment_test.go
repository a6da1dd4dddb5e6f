package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountInCents(t *testing.T) {
	assert.Equal(t, int64(1010), amountInCents(10.10))
	assert.Equal(t, int64(1999), amountInCents(19.99))
	assert.Equal(t, int64(5000), amountInCents(50))
	assert.Equal(t, int64(0), amountInCents(0))
}
