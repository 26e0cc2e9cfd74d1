package workflow

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/models"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
)

// ProcessOrderPlaced runs the post-commit reconciliation for one placed
// order: fold the order's totals into the weekly and monthly sales
// summaries and bump the per-product purchased counters.
//
// A Redis lock serializes workers racing on the same order; the sales
// event's unique order number makes redelivery a no-op, so the outbox's
// at-least-once delivery is applied at most once.
func ProcessOrderPlaced(ctx context.Context, db *gorm.DB, logger *logrus.Logger, record *models.OutboxRecord) error {
	lock, err := utils.ObtainReconcileLock(ctx, logger, record.OrderNumber)
	if err != nil {
		return fmt.Errorf("obtain reconcile lock for %s: %w", record.OrderNumber, err)
	}
	if lock != nil {
		defer lock.Release(ctx)
	}

	order, err := models.GetFulfillmentOrder(ctx, record.OrderNumber)
	if err != nil {
		return fmt.Errorf("load order %s: %w", record.OrderNumber, err)
	}

	totalQuantity := 0
	for _, item := range order.Items {
		totalQuantity += item.Quantity
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recorded, err := models.RecordSalesEvent(tx, order.OrderNumber, order.Total, totalQuantity, order.CreatedAt)
		if err != nil {
			return err
		}
		if !recorded {
			// redelivered record, already folded
			logger.WithFields(logrus.Fields{
				"module":       "workflow",
				"order_number": order.OrderNumber,
			}).Info("sales event already recorded, skipping fold")
			return nil
		}

		if err := models.FoldSalesIntoSummaries(tx, order.CreatedAt, order.Total, totalQuantity); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := models.IncrementPurchasedCount(tx, item.ProductId, decimal.NewFromInt(int64(item.Quantity))); err != nil {
				return err
			}
		}
		return nil
	})
}
