package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
)

// AddressDetails is the delivery or billing contact block of a checkout.
type AddressDetails struct {
	FullName     string `json:"full_name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	AddressLine1 string `json:"address_line1" validate:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" validate:"required"`
	Province     string `json:"province" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
}

type NewCheckout struct {
	// CartItemIds selects which cart rows to order; empty means all.
	CartItemIds           []int           `json:"cart_item_ids"`
	ShippingMethod        ShippingMethod  `json:"shipping_method" validate:"required,oneof=standard express"`
	PaymentMethod         PaymentMethod   `json:"payment_method" validate:"required,oneof=cash-on-delivery wallet-demo"`
	Delivery              AddressDetails  `json:"delivery"`
	BillingSameAsShipping bool            `json:"billing_same_as_shipping"`
	Billing               *AddressDetails `json:"billing"`
}

// OrderSnapshot is the assembler's output: computed totals and sanitized
// line items, not yet persisted anywhere.
type OrderSnapshot struct {
	OrderNumber    string          `json:"order_number"`
	CustomerId     string          `json:"customer_id"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	ShippingMethod ShippingMethod  `json:"shipping_method"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Delivery       AddressDetails  `json:"delivery"`
	Billing        AddressDetails  `json:"billing"`
}

var inputValidator = validator.New()

// expressShippingFee is flat; standard shipping is free.
var expressShippingFee = decimal.NewFromInt(150)

func ShippingFeeFor(method ShippingMethod) decimal.Decimal {
	if method == ShippingMethodExpress {
		return expressShippingFee
	}
	return decimal.Zero
}

// ValidateCheckout returns a field-level error map; nil means the input is
// valid. Billing fields are only checked when not copied from delivery.
func ValidateCheckout(input *NewCheckout) map[string]string {
	fieldErrors := make(map[string]string)

	if err := inputValidator.Struct(input); err != nil {
		for field, tag := range utils.ProcessValidationErrors(err) {
			fieldErrors[field] = tag
		}
	}

	if input.Delivery.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Delivery.Phone, utils.CountryCode); err != nil {
			fieldErrors["Phone"] = "mobile"
		}
	}

	if !input.BillingSameAsShipping {
		if input.Billing == nil {
			fieldErrors["Billing"] = "required"
		} else {
			if err := inputValidator.Struct(input.Billing); err != nil {
				for field, tag := range utils.ProcessValidationErrors(err) {
					fieldErrors["Billing."+field] = tag
				}
			}
			if input.Billing.Phone != "" {
				if err := utils.ValidatePhoneNumber(input.Billing.Phone, utils.CountryCode); err != nil {
					fieldErrors["Billing.Phone"] = "mobile"
				}
			}
		}
	}

	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

// BuildOrderSnapshot computes totals over the selected cart items. Pure:
// no reads, no writes, safe to call repeatedly.
func BuildOrderSnapshot(orderNumber string, customerId string, items []*CartItem, input *NewCheckout) *OrderSnapshot {
	snapshot := OrderSnapshot{
		OrderNumber:    orderNumber,
		CustomerId:     customerId,
		ShippingMethod: input.ShippingMethod,
		PaymentMethod:  input.PaymentMethod,
		PaymentStatus:  PaymentStatusPending,
		Delivery:       input.Delivery,
		Billing:        input.Delivery,
	}
	if !input.BillingSameAsShipping && input.Billing != nil {
		snapshot.Billing = *input.Billing
	}

	subtotal := decimal.Zero
	for _, item := range items {
		snapshot.Items = append(snapshot.Items, OrderItem{
			ProductId:  item.ProductId,
			VariantKey: item.VariantKey,
			Name:       item.Name,
			ImageUrl:   item.ImageUrl,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			Size:       item.Size,
			Color:      item.Color,
		})
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	snapshot.Subtotal = subtotal
	snapshot.ShippingFee = ShippingFeeFor(input.ShippingMethod)
	snapshot.Tax = decimal.Zero
	snapshot.Total = snapshot.Subtotal.Add(snapshot.ShippingFee).Add(snapshot.Tax)

	// simulated payment capture
	if input.PaymentMethod == PaymentMethodWalletDemo {
		snapshot.PaymentStatus = PaymentStatusPaid
	}

	return &snapshot
}

// AssembleOrder validates the checkout input and turns the selected cart
// items into an OrderSnapshot. On validation failure the field error map is
// returned and nothing is written.
func AssembleOrder(ctx context.Context, input *NewCheckout) (*OrderSnapshot, map[string]string, error) {
	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, nil, errors.New("customer id is required")
	}

	if fieldErrors := ValidateCheckout(input); fieldErrors != nil {
		return nil, fieldErrors, utils.ErrorInvalidOrder
	}

	cartItems, err := GetCartItems(ctx)
	if err != nil {
		return nil, nil, err
	}

	selected := cartItems
	if len(input.CartItemIds) > 0 {
		wanted := make(map[int]bool, len(input.CartItemIds))
		for _, id := range input.CartItemIds {
			wanted[id] = true
		}
		selected = nil
		for _, item := range cartItems {
			if wanted[item.ID] {
				selected = append(selected, item)
			}
		}
		if len(selected) != len(wanted) {
			return nil, nil, fmt.Errorf("%w: cart item not found", utils.ErrorInvalidOrder)
		}
	}

	if len(selected) == 0 {
		return nil, map[string]string{"CartItemIds": "required"}, utils.ErrorInvalidOrder
	}

	snapshot := BuildOrderSnapshot(utils.GenerateOrderNumber(ctx), customerId, selected, input)
	return snapshot, nil, nil
}
