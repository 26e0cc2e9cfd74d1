package models_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/models"
)

func TestRateOrderRejectsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := models.RateOrder(ctx, "SL1", nil)
	assert.Error(t, err)

	for _, rating := range []int{0, -1, 6} {
		_, err := models.RateOrder(ctx, "SL1", &models.RateOrderInput{Rating: rating})
		assert.Error(t, err, "rating %d", rating)
	}
}

func TestReturnOrderRejectsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := models.ReturnOrder(ctx, "SL1", nil)
	assert.Error(t, err)

	_, err = models.ReturnOrder(ctx, "SL1", &models.ReturnOrderInput{Reason: "   "})
	assert.Error(t, err)
}
