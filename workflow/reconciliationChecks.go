package workflow

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/models"
)

// OrderPairDivergence is one order whose two copies disagree.
type OrderPairDivergence struct {
	OrderNumber            string             `json:"order_number"`
	FulfillmentStatus      models.OrderStatus `json:"fulfillment_status"`
	CustomerStatus         models.OrderStatus `json:"customer_status"`
	FulfillmentSyncVersion int                `json:"fulfillment_sync_version"`
	CustomerSyncVersion    int                `json:"customer_sync_version"`
	Repaired               bool               `json:"repaired"`
}

// CheckOrderPairDivergence scans for order pairs whose status or
// sync_version disagree. Both copies are written in one transaction, so a
// divergence means a bug or manual edit; the scan reports them and, when
// repair is requested, copies the state of the higher sync_version onto the
// other side. Meant for a nightly run or an admin trigger.
func CheckOrderPairDivergence(ctx context.Context, db *gorm.DB, logger *logrus.Logger, repair bool) ([]OrderPairDivergence, error) {
	type pairRow struct {
		OrderNumber       string
		FulfillmentStatus models.OrderStatus
		CustomerStatus    models.OrderStatus
		FulfillmentSync   int
		CustomerSync      int
	}

	var rows []pairRow
	err := db.WithContext(ctx).Raw(`
		SELECT f.order_number AS order_number,
		       f.current_status AS fulfillment_status,
		       c.current_status AS customer_status,
		       f.sync_version AS fulfillment_sync,
		       c.sync_version AS customer_sync
		FROM fulfillment_orders f
		JOIN customer_orders c ON c.order_number = f.order_number
		WHERE f.current_status <> c.current_status
		   OR f.sync_version <> c.sync_version`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var findings []OrderPairDivergence
	for _, row := range rows {
		finding := OrderPairDivergence{
			OrderNumber:            row.OrderNumber,
			FulfillmentStatus:      row.FulfillmentStatus,
			CustomerStatus:         row.CustomerStatus,
			FulfillmentSyncVersion: row.FulfillmentSync,
			CustomerSyncVersion:    row.CustomerSync,
		}

		if repair {
			if err := repairOrderPair(ctx, db, row.OrderNumber, row.FulfillmentSync >= row.CustomerSync); err != nil {
				logger.WithFields(logrus.Fields{
					"module":       "workflow",
					"order_number": row.OrderNumber,
				}).WithError(err).Error("order pair repair failed")
			} else {
				finding.Repaired = true
			}
		}

		findings = append(findings, finding)
	}

	if len(findings) > 0 {
		logger.WithFields(logrus.Fields{
			"module":   "workflow",
			"diverged": len(findings),
			"repair":   repair,
		}).Warn("order pair divergence detected")
	}

	return findings, nil
}

// repairOrderPair copies status and sync_version from the fresher copy onto
// the staler one. fulfillmentWins picks the direction.
func repairOrderPair(ctx context.Context, db *gorm.DB, orderNumber string, fulfillmentWins bool) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fulfillmentOrder models.FulfillmentOrder
		if err := tx.Where("order_number = ?", orderNumber).First(&fulfillmentOrder).Error; err != nil {
			return err
		}
		var customerOrder models.CustomerOrder
		if err := tx.Where("order_number = ?", orderNumber).First(&customerOrder).Error; err != nil {
			return err
		}

		if fulfillmentWins {
			return tx.Model(&customerOrder).Updates(map[string]interface{}{
				"current_status": fulfillmentOrder.CurrentStatus,
				"sync_version":   fulfillmentOrder.SyncVersion,
			}).Error
		}
		return tx.Model(&fulfillmentOrder).Updates(map[string]interface{}{
			"current_status": customerOrder.CurrentStatus,
			"sync_version":   customerOrder.SyncVersion,
		}).Error
	})
}

// VerifyStockConsistency recomputes each product's total stock from its
// size buckets and reports rows where the denormalized total drifted.
func VerifyStockConsistency(ctx context.Context, db *gorm.DB) ([]string, error) {
	type driftRow struct {
		Name       string
		TotalStock string
		BucketSum  string
	}

	var rows []driftRow
	err := db.WithContext(ctx).Raw(`
		SELECT p.name AS name,
		       p.total_stock AS total_stock,
		       COALESCE(SUM(s.stock), 0) AS bucket_sum
		FROM products p
		LEFT JOIN product_sizes s ON s.product_id = p.id
		GROUP BY p.id, p.name, p.total_stock
		HAVING p.total_stock <> COALESCE(SUM(s.stock), 0)`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var findings []string
	for _, row := range rows {
		findings = append(findings, fmt.Sprintf("product %q: total_stock=%s bucket_sum=%s", row.Name, row.TotalStock, row.BucketSum))
	}
	return findings, nil
}
