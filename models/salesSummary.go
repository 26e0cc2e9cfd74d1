package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
)

// SalesEvent is the per-order analytics fact. The unique order number makes
// the reconciliation worker's fold at-most-once: a redelivered outbox
// record sees the event already exists and skips.
type SalesEvent struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OrderNumber string          `gorm:"size:64;not null;uniqueIndex" json:"order_number"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`
	OccurredAt  time.Time       `gorm:"not null" json:"occurred_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// SalesSummary is one weekly or monthly rollup bucket.
type SalesSummary struct {
	ID            int                `gorm:"primary_key" json:"id"`
	Period        SummaryPeriod      `gorm:"size:1;not null;uniqueIndex:idx_summary_bucket" json:"period"`
	BucketKey     string             `gorm:"size:20;not null;uniqueIndex:idx_summary_bucket" json:"bucket_key"`
	TotalAmount   decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	TotalQuantity int                `gorm:"not null;default:0" json:"total_quantity"`
	Slots         []SalesSummarySlot `gorm:"foreignKey:SummaryId" json:"slots"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// SalesSummarySlot is one breakdown slot inside a bucket: a weekday for
// weekly buckets, a day of month for monthly ones.
type SalesSummarySlot struct {
	ID            int             `gorm:"primary_key" json:"id"`
	SummaryId     int             `gorm:"not null;uniqueIndex:idx_summary_slot" json:"summary_id"`
	SlotLabel     string          `gorm:"size:10;not null;uniqueIndex:idx_summary_slot" json:"slot_label"`
	SlotOrder     int             `gorm:"not null;default:0" json:"slot_order"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	TotalQuantity int             `gorm:"not null;default:0" json:"total_quantity"`
}

// WeeklyBucketKey formats an ISO year-week key, e.g. "2026-W35".
func WeeklyBucketKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthlyBucketKey formats a year-month key, e.g. "2026-08".
func MonthlyBucketKey(t time.Time) string {
	return t.Format("2006-01")
}

var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func weeklySlotLabel(t time.Time) string {
	return t.Format("Mon")
}

func monthlySlotLabel(t time.Time) string {
	return fmt.Sprintf("%d", t.Day())
}

func daysInMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// ensureSummary returns the bucket row for period+key, creating it with a
// full set of zeroed slots on first touch. Creation races resolve on the
// unique index; the loser re-reads the winner's row.
func ensureSummary(tx *gorm.DB, period SummaryPeriod, bucketKey string, occurredAt time.Time) (*SalesSummary, error) {
	var summary SalesSummary
	err := tx.Where("period = ? AND bucket_key = ?", period, bucketKey).First(&summary).Error
	if err == nil {
		return &summary, nil
	}

	summary = SalesSummary{
		Period:        period,
		BucketKey:     bucketKey,
		TotalAmount:   decimal.Zero,
		TotalQuantity: 0,
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("Slots").Create(&summary)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// lost the creation race; pick up the existing row
		if err := tx.Where("period = ? AND bucket_key = ?", period, bucketKey).First(&summary).Error; err != nil {
			return nil, err
		}
		return &summary, nil
	}

	var slots []SalesSummarySlot
	if period == SummaryPeriodWeekly {
		for i, label := range weekdayLabels {
			slots = append(slots, SalesSummarySlot{
				SummaryId: summary.ID, SlotLabel: label, SlotOrder: i + 1, TotalAmount: decimal.Zero,
			})
		}
	} else {
		for day := 1; day <= daysInMonth(occurredAt); day++ {
			slots = append(slots, SalesSummarySlot{
				SummaryId: summary.ID, SlotLabel: fmt.Sprintf("%d", day), SlotOrder: day, TotalAmount: decimal.Zero,
			})
		}
	}
	if err := tx.Create(&slots).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func foldIntoBucket(tx *gorm.DB, period SummaryPeriod, bucketKey, slotLabel string, occurredAt time.Time, amount decimal.Decimal, quantity int) error {
	summary, err := ensureSummary(tx, period, bucketKey, occurredAt)
	if err != nil {
		return err
	}

	if err := tx.Model(&SalesSummary{}).
		Where("id = ?", summary.ID).
		Updates(map[string]interface{}{
			"total_amount":   gorm.Expr("total_amount + ?", amount),
			"total_quantity": gorm.Expr("total_quantity + ?", quantity),
		}).Error; err != nil {
		return err
	}

	return tx.Model(&SalesSummarySlot{}).
		Where("summary_id = ? AND slot_label = ?", summary.ID, slotLabel).
		Updates(map[string]interface{}{
			"total_amount":   gorm.Expr("total_amount + ?", amount),
			"total_quantity": gorm.Expr("total_quantity + ?", quantity),
		}).Error
}

// FoldSalesIntoSummaries adds one order's totals to its weekly and monthly
// buckets. Bucket and slot totals move by atomic SQL increments so
// concurrent folds never lose updates. The fold itself is additive; the
// at-most-once property comes from the SalesEvent the caller records first.
func FoldSalesIntoSummaries(tx *gorm.DB, occurredAt time.Time, amount decimal.Decimal, quantity int) error {
	if err := foldIntoBucket(tx, SummaryPeriodWeekly, WeeklyBucketKey(occurredAt), weeklySlotLabel(occurredAt), occurredAt, amount, quantity); err != nil {
		return err
	}
	return foldIntoBucket(tx, SummaryPeriodMonthly, MonthlyBucketKey(occurredAt), monthlySlotLabel(occurredAt), occurredAt, amount, quantity)
}

// RecordSalesEvent inserts the per-order fact, returning false when an
// event for the order already exists.
func RecordSalesEvent(tx *gorm.DB, orderNumber string, amount decimal.Decimal, quantity int, occurredAt time.Time) (bool, error) {
	event := SalesEvent{
		OrderNumber: orderNumber,
		Amount:      amount,
		Quantity:    quantity,
		OccurredAt:  occurredAt,
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetSalesSummary reads one bucket with its slots in display order.
func GetSalesSummary(ctx context.Context, period SummaryPeriod, bucketKey string) (*SalesSummary, error) {
	db := config.GetDB()
	var summary SalesSummary
	err := db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("slot_order") }).
		Where("period = ? AND bucket_key = ?", period, bucketKey).
		First(&summary).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &summary, nil
}

// RebuildSalesSummaries drops all buckets and refolds every recorded sales
// event. Meant for operational repair after the additive fold has been
// damaged (crash mid-fold, manual edits), not for routine use.
func RebuildSalesSummaries(ctx context.Context) error {
	db := config.GetDB()

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, tx.Error)
	}

	if err := tx.WithContext(ctx).Exec("DELETE FROM sales_summary_slots").Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.WithContext(ctx).Exec("DELETE FROM sales_summaries").Error; err != nil {
		tx.Rollback()
		return err
	}

	var events []SalesEvent
	if err := tx.WithContext(ctx).Order("occurred_at").Find(&events).Error; err != nil {
		tx.Rollback()
		return err
	}
	for _, event := range events {
		if err := FoldSalesIntoSummaries(tx.WithContext(ctx), event.OccurredAt, event.Amount, event.Quantity); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, err)
	}
	return nil
}
