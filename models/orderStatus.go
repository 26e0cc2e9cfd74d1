package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
)

// Operator-side movement is free among the active statuses, including
// backwards (a mis-click on Shipped can be pulled back to Processing).
// Completed and Cancelled are terminal and only reachable through the
// customer-side actions (rate/return) and cancellation respectively.
func CanOperatorTransition(from, to OrderStatus) bool {
	active := map[OrderStatus]bool{
		OrderStatusPending:    true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    true,
		OrderStatusDelivered:  true,
	}
	return active[from] && active[to] && from != to
}

// Cancellation is only allowed before fulfillment starts.
func CanCancel(from OrderStatus) bool {
	return from == OrderStatusPending
}

func CanMarkReceived(from OrderStatus) bool {
	return from == OrderStatusDelivered
}

// A rate or return is the single closing action on a delivered order: it
// needs the customer's receipt confirmation first and can happen once.
func CanSubmitAction(from OrderStatus, orderReceived, actionCompleted bool) bool {
	return from == OrderStatusDelivered && orderReceived && !actionCompleted
}

// transitionOrderPair applies a status change to both copies inside the
// caller's transaction: appends a history event, mirrors the status, stamps
// DeliveredAt on arrival at Delivered, and bumps sync_version on both rows
// in lockstep.
func transitionOrderPair(tx *gorm.DB, fulfillmentOrder *FulfillmentOrder, customerOrder *CustomerOrder, to OrderStatus, note string) error {
	event := OrderStatusEvent{
		FulfillmentOrderId: fulfillmentOrder.ID,
		Status:             to,
		Note:               note,
	}
	if err := tx.Create(&event).Error; err != nil {
		return err
	}

	capturePayment := to == OrderStatusDelivered &&
		fulfillmentOrder.PaymentMethod == PaymentMethodCashOnDelivery &&
		fulfillmentOrder.PaymentStatus == PaymentStatusPending

	fulfillmentUpdates := map[string]interface{}{
		"current_status": to,
		"sync_version":   gorm.Expr("sync_version + 1"),
	}
	customerUpdates := map[string]interface{}{
		"current_status": to,
		"sync_version":   gorm.Expr("sync_version + 1"),
	}
	if capturePayment {
		fulfillmentUpdates["payment_status"] = PaymentStatusPaid
		customerUpdates["payment_status"] = PaymentStatusPaid
	}
	if to == OrderStatusDelivered && customerOrder.DeliveredAt == nil {
		now := time.Now()
		customerUpdates["delivered_at"] = &now
		customerOrder.DeliveredAt = &now
	}
	if err := tx.Model(fulfillmentOrder).Updates(fulfillmentUpdates).Error; err != nil {
		return err
	}
	if err := tx.Model(customerOrder).Updates(customerUpdates).Error; err != nil {
		return err
	}

	fulfillmentOrder.CurrentStatus = to
	fulfillmentOrder.SyncVersion++
	customerOrder.CurrentStatus = to
	customerOrder.SyncVersion++
	if capturePayment {
		fulfillmentOrder.PaymentStatus = PaymentStatusPaid
		customerOrder.PaymentStatus = PaymentStatusPaid
	}
	return nil
}

// UpdateOrderStatus moves an order between active statuses on behalf of an
// operator.
func UpdateOrderStatus(ctx context.Context, orderNumber string, to OrderStatus, note string) (*FulfillmentOrder, error) {
	db := config.GetDB()

	if isOperator, _ := utils.GetIsOperatorFromContext(ctx); !isOperator {
		return nil, errors.New("operator access is required")
	}
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", utils.ErrorIllegalTransition, to)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, tx.Error)
	}

	fulfillmentOrder, customerOrder, err := lockOrderPairForChange(tx.WithContext(ctx), orderNumber)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if !CanOperatorTransition(fulfillmentOrder.CurrentStatus, to) {
		tx.Rollback()
		return nil, fmt.Errorf("%w: %s -> %s", utils.ErrorIllegalTransition, fulfillmentOrder.CurrentStatus, to)
	}

	if err := transitionOrderPair(tx.WithContext(ctx), fulfillmentOrder, customerOrder, to, "status updated by operator"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, err)
	}
	return fulfillmentOrder, nil
}

// CancelOrder cancels a pending order on behalf of its customer and puts
// the reserved stock back.
func CancelOrder(ctx context.Context, orderNumber string) (*CustomerOrder, error) {
	db := config.GetDB()

	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, errors.New("customer id is required")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, tx.Error)
	}

	fulfillmentOrder, customerOrder, err := lockOrderPairForChange(tx.WithContext(ctx), orderNumber)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if customerOrder.CustomerId != customerId {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	if !CanCancel(fulfillmentOrder.CurrentStatus) {
		tx.Rollback()
		return nil, fmt.Errorf("%w: cancel from %s", utils.ErrorIllegalTransition, fulfillmentOrder.CurrentStatus)
	}

	// take the product locks in the same order placement does before
	// touching size rows
	productIds := make([]int, 0, len(customerOrder.Items))
	for _, item := range customerOrder.Items {
		productIds = append(productIds, item.ProductId)
	}
	if _, err := lockProductsForUpdate(tx.WithContext(ctx), productIds); err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, item := range customerOrder.Items {
		if err := restoreSizeStock(tx.WithContext(ctx), item.ProductId, item.Size, decimal.NewFromInt(int64(item.Quantity))); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := transitionOrderPair(tx.WithContext(ctx), fulfillmentOrder, customerOrder, OrderStatusCancelled, "cancelled by customer"); err != nil {
		tx.Rollback()
		return nil, err
	}

	refunds := map[string]interface{}{}
	if customerOrder.PaymentStatus == PaymentStatusPaid {
		refunds["payment_status"] = PaymentStatusRefunded
	}
	if len(refunds) > 0 {
		if err := tx.WithContext(ctx).Model(customerOrder).Updates(refunds).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := tx.WithContext(ctx).Model(fulfillmentOrder).Updates(refunds).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		customerOrder.PaymentStatus = PaymentStatusRefunded
		fulfillmentOrder.PaymentStatus = PaymentStatusRefunded
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, err)
	}
	return customerOrder, nil
}

// MarkOrderReceived records the customer's confirmation that a delivered
// order arrived, unlocking the rate/return action.
func MarkOrderReceived(ctx context.Context, orderNumber string) (*CustomerOrder, error) {
	db := config.GetDB()

	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, errors.New("customer id is required")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, tx.Error)
	}

	_, customerOrder, err := lockOrderPairForChange(tx.WithContext(ctx), orderNumber)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if customerOrder.CustomerId != customerId {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	if !CanMarkReceived(customerOrder.CurrentStatus) {
		tx.Rollback()
		return nil, fmt.Errorf("%w: receive confirmation from %s", utils.ErrorIllegalTransition, customerOrder.CurrentStatus)
	}

	if err := tx.WithContext(ctx).Model(customerOrder).Updates(map[string]interface{}{
		"order_received": true,
		"sync_version":   gorm.Expr("sync_version + 1"),
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	// receipt confirmation is customer-copy state; bump the fulfillment
	// copy too so the versions stay aligned
	if err := tx.WithContext(ctx).Model(&FulfillmentOrder{}).
		Where("order_number = ?", orderNumber).
		Update("sync_version", gorm.Expr("sync_version + 1")).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, err)
	}

	customerOrder.OrderReceived = utils.NewTrue()
	customerOrder.SyncVersion++
	return customerOrder, nil
}
