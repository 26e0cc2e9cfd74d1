package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
)

// ProductReview is one customer rating of one product, attributed from a
// delivered order. Reviews key on product_id so product aggregates survive
// renames and order-item snapshots going stale.
type ProductReview struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ProductId   int       `gorm:"index;not null" json:"product_id"`
	OrderNumber string    `gorm:"size:64;index;not null" json:"order_number"`
	CustomerId  string    `gorm:"size:64;index;not null" json:"customer_id"`
	Rating      int       `gorm:"not null" json:"rating"`
	Feedback    string    `gorm:"type:text" json:"feedback"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ReturnRecord captures a return request against one product of a
// delivered order.
type ReturnRecord struct {
	ID          int       `gorm:"primary_key" json:"id"`
	OrderNumber string    `gorm:"size:64;not null;uniqueIndex:idx_return_order_product" json:"order_number"`
	ProductId   int       `gorm:"not null;uniqueIndex:idx_return_order_product" json:"product_id"`
	CustomerId  string    `gorm:"size:64;index;not null" json:"customer_id"`
	Reason      string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type RateOrderInput struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback"`
}

type ReturnOrderInput struct {
	Reason string `json:"reason" validate:"required"`
}

// lockCustomerOrderForAction loads the order pair and enforces the one-shot
// closing-action guard shared by rating and return.
func lockCustomerOrderForAction(ctx context.Context, tx *gorm.DB, orderNumber string) (*FulfillmentOrder, *CustomerOrder, error) {
	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, nil, errors.New("customer id is required")
	}

	fulfillmentOrder, customerOrder, err := lockOrderPairForChange(tx, orderNumber)
	if err != nil {
		return nil, nil, err
	}
	if customerOrder.CustomerId != customerId {
		return nil, nil, utils.ErrorRecordNotFound
	}

	received := customerOrder.OrderReceived != nil && *customerOrder.OrderReceived
	completed := customerOrder.ActionCompleted != nil && *customerOrder.ActionCompleted
	if !CanSubmitAction(customerOrder.CurrentStatus, received, completed) {
		return nil, nil, fmt.Errorf("%w: rate/return on %s order (received=%t, action_completed=%t)",
			utils.ErrorIllegalTransition, customerOrder.CurrentStatus, received, completed)
	}

	return fulfillmentOrder, customerOrder, nil
}

// closeOrderAfterAction marks the action consumed and moves both copies to
// Completed inside the caller's transaction.
func closeOrderAfterAction(tx *gorm.DB, fulfillmentOrder *FulfillmentOrder, customerOrder *CustomerOrder, extra map[string]interface{}) error {
	updates := map[string]interface{}{"action_completed": true}
	for k, v := range extra {
		updates[k] = v
	}
	if err := tx.Model(customerOrder).Updates(updates).Error; err != nil {
		return err
	}
	customerOrder.ActionCompleted = utils.NewTrue()

	return transitionOrderPair(tx, fulfillmentOrder, customerOrder, OrderStatusCompleted, "closing action submitted")
}

// RateOrder records the customer's rating for a delivered, received order.
// One review row is written per distinct product in the order, the
// product-level averages are recomputed, and the order pair moves to
// Completed. The whole action is one transaction and can run once.
func RateOrder(ctx context.Context, orderNumber string, input *RateOrderInput) (*CustomerOrder, error) {
	db := config.GetDB()

	if input == nil {
		return nil, errors.New("rating must be between 1 and 5")
	}
	if err := inputValidator.Struct(input); err != nil {
		return nil, errors.New("rating must be between 1 and 5")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, tx.Error)
	}

	fulfillmentOrder, customerOrder, err := lockCustomerOrderForAction(ctx, tx.WithContext(ctx), orderNumber)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	seen := make(map[int]bool)
	for _, item := range customerOrder.Items {
		if seen[item.ProductId] {
			continue
		}
		seen[item.ProductId] = true

		review := ProductReview{
			ProductId:   item.ProductId,
			OrderNumber: orderNumber,
			CustomerId:  customerOrder.CustomerId,
			Rating:      input.Rating,
			Feedback:    strings.TrimSpace(input.Feedback),
		}
		if err := tx.WithContext(ctx).Create(&review).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := recomputeProductRating(tx.WithContext(ctx), item.ProductId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := closeOrderAfterAction(tx.WithContext(ctx), fulfillmentOrder, customerOrder, map[string]interface{}{
		"rating":   input.Rating,
		"feedback": strings.TrimSpace(input.Feedback),
	}); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, err)
	}

	customerOrder.Rating = input.Rating
	customerOrder.Feedback = strings.TrimSpace(input.Feedback)
	return customerOrder, nil
}

// ReturnOrder records a return request for a delivered, received order and
// moves the pair to Completed. Refund handling past the record itself is
// out of band.
func ReturnOrder(ctx context.Context, orderNumber string, input *ReturnOrderInput) (*CustomerOrder, error) {
	db := config.GetDB()

	if input == nil {
		return nil, errors.New("return reason is required")
	}
	input.Reason = strings.TrimSpace(input.Reason)
	if err := inputValidator.Struct(input); err != nil {
		return nil, errors.New("return reason is required")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, tx.Error)
	}

	fulfillmentOrder, customerOrder, err := lockCustomerOrderForAction(ctx, tx.WithContext(ctx), orderNumber)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	seen := map[int]bool{}
	for _, item := range customerOrder.Items {
		if seen[item.ProductId] {
			continue
		}
		seen[item.ProductId] = true
		record := ReturnRecord{
			OrderNumber: orderNumber,
			ProductId:   item.ProductId,
			CustomerId:  customerOrder.CustomerId,
			Reason:      input.Reason,
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := closeOrderAfterAction(tx.WithContext(ctx), fulfillmentOrder, customerOrder, nil); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, err)
	}
	return customerOrder, nil
}

// recomputeProductRating refreshes the denormalized average and count on
// the product row from the full review set.
func recomputeProductRating(tx *gorm.DB, productId int) error {
	return tx.Exec(
		`UPDATE products
		 SET average_rating = (SELECT COALESCE(AVG(rating), 0) FROM product_reviews WHERE product_id = ?),
		     review_count = (SELECT COUNT(*) FROM product_reviews WHERE product_id = ?)
		 WHERE id = ?`,
		productId, productId, productId,
	).Error
}

// GetProductReviews lists reviews for a product, newest first.
func GetProductReviews(ctx context.Context, productId int) ([]*ProductReview, error) {
	if err := utils.ValidateResourceId[Product](ctx, productId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*ProductReview
	err := db.WithContext(ctx).
		Where("product_id = ?", productId).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
