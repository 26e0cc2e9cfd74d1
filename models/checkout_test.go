package models_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/models"
)

func validDelivery() models.AddressDetails {
	return models.AddressDetails{
		FullName:     "Juan Dela Cruz",
		Phone:        "+639171234567",
		AddressLine1: "123 Mango St",
		City:         "Cebu City",
		Province:     "Cebu",
		PostalCode:   "6000",
	}
}

func validCheckout() *models.NewCheckout {
	return &models.NewCheckout{
		ShippingMethod:        models.ShippingMethodStandard,
		PaymentMethod:         models.PaymentMethodCashOnDelivery,
		Delivery:              validDelivery(),
		BillingSameAsShipping: true,
	}
}

func TestBuildOrderSnapshotTotals(t *testing.T) {
	items := []*models.CartItem{
		{
			ProductId:  1,
			VariantKey: "1-M",
			Name:       "Classic Logo Tee",
			UnitPrice:  decimal.NewFromInt(500),
			Quantity:   2,
			Size:       "M",
		},
	}

	snapshot := models.BuildOrderSnapshot("SL100", "cust-1", items, validCheckout())

	require.Len(t, snapshot.Items, 1)
	assert.True(t, snapshot.Subtotal.Equal(decimal.NewFromInt(1000)), "subtotal = %s", snapshot.Subtotal)
	assert.True(t, snapshot.ShippingFee.IsZero(), "standard shipping is free")
	assert.True(t, snapshot.Tax.IsZero())
	assert.True(t, snapshot.Total.Equal(decimal.NewFromInt(1000)), "total = %s", snapshot.Total)
	assert.Equal(t, models.PaymentStatusPending, snapshot.PaymentStatus)
	assert.Equal(t, "SL100", snapshot.OrderNumber)
	assert.Equal(t, "cust-1", snapshot.CustomerId)
}

func TestBuildOrderSnapshotExpressFee(t *testing.T) {
	items := []*models.CartItem{
		{ProductId: 1, Name: "Work Jacket", UnitPrice: decimal.NewFromInt(2100), Quantity: 1},
	}
	input := validCheckout()
	input.ShippingMethod = models.ShippingMethodExpress

	snapshot := models.BuildOrderSnapshot("SL101", "cust-1", items, input)

	assert.True(t, snapshot.ShippingFee.Equal(decimal.NewFromInt(150)))
	assert.True(t, snapshot.Total.Equal(decimal.NewFromInt(2250)), "total = %s", snapshot.Total)
}

func TestBuildOrderSnapshotWalletDemoCapturesPayment(t *testing.T) {
	items := []*models.CartItem{
		{ProductId: 1, Name: "Five-Panel Cap", UnitPrice: decimal.NewFromInt(450), Quantity: 1},
	}
	input := validCheckout()
	input.PaymentMethod = models.PaymentMethodWalletDemo

	snapshot := models.BuildOrderSnapshot("SL102", "cust-1", items, input)

	assert.Equal(t, models.PaymentStatusPaid, snapshot.PaymentStatus)
}

func TestBuildOrderSnapshotSeparateBilling(t *testing.T) {
	billing := validDelivery()
	billing.FullName = "Maria Clara"
	input := validCheckout()
	input.BillingSameAsShipping = false
	input.Billing = &billing

	snapshot := models.BuildOrderSnapshot("SL103", "cust-1", nil, input)

	assert.Equal(t, "Maria Clara", snapshot.Billing.FullName)
	assert.Equal(t, "Juan Dela Cruz", snapshot.Delivery.FullName)
}

func TestShippingFeeFor(t *testing.T) {
	assert.True(t, models.ShippingFeeFor(models.ShippingMethodStandard).IsZero())
	assert.True(t, models.ShippingFeeFor(models.ShippingMethodExpress).Equal(decimal.NewFromInt(150)))
}

func TestValidateCheckoutAcceptsValidInput(t *testing.T) {
	assert.Nil(t, models.ValidateCheckout(validCheckout()))
}

func TestValidateCheckoutMissingDeliveryFields(t *testing.T) {
	input := validCheckout()
	input.Delivery.FullName = ""
	input.Delivery.City = ""

	fieldErrors := models.ValidateCheckout(input)

	require.NotNil(t, fieldErrors)
	assert.Contains(t, fieldErrors, "FullName")
	assert.Contains(t, fieldErrors, "City")
}

func TestValidateCheckoutRejectsBadPhone(t *testing.T) {
	input := validCheckout()
	input.Delivery.Phone = "12345"

	fieldErrors := models.ValidateCheckout(input)

	require.NotNil(t, fieldErrors)
	assert.Equal(t, "mobile", fieldErrors["Phone"])
}

func TestValidateCheckoutRequiresBillingWhenNotShared(t *testing.T) {
	input := validCheckout()
	input.BillingSameAsShipping = false
	input.Billing = nil

	fieldErrors := models.ValidateCheckout(input)

	require.NotNil(t, fieldErrors)
	assert.Equal(t, "required", fieldErrors["Billing"])
}

func TestValidateCheckoutBillingFieldErrorsArePrefixed(t *testing.T) {
	billing := validDelivery()
	billing.PostalCode = ""
	billing.Phone = "not-a-phone"
	input := validCheckout()
	input.BillingSameAsShipping = false
	input.Billing = &billing

	fieldErrors := models.ValidateCheckout(input)

	require.NotNil(t, fieldErrors)
	assert.Contains(t, fieldErrors, "Billing.PostalCode")
	assert.Equal(t, "mobile", fieldErrors["Billing.Phone"])
}

func TestValidateCheckoutRejectsUnknownMethods(t *testing.T) {
	input := validCheckout()
	input.ShippingMethod = "pigeon"
	input.PaymentMethod = "barter"

	fieldErrors := models.ValidateCheckout(input)

	require.NotNil(t, fieldErrors)
	assert.Contains(t, fieldErrors, "ShippingMethod")
	assert.Contains(t, fieldErrors, "PaymentMethod")
}
