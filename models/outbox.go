package models

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
)

// OutboxRecord is a unit of post-commit work written inside the placement
// transaction. The dispatcher claims PENDING rows and hands them to the
// reconciliation worker; delivery is at-least-once, so handlers must cope
// with redelivery.
type OutboxRecord struct {
	ID            int                `gorm:"primary_key" json:"id"`
	ReferenceType string             `gorm:"size:50;index;not null" json:"reference_type"`
	ReferenceId   int                `gorm:"index;not null" json:"reference_id"`
	OrderNumber   string             `gorm:"size:64;index" json:"order_number"`
	Status        OutboxRecordStatus `gorm:"size:20;index;not null;default:'PENDING'" json:"status"`
	Attempts      int                `gorm:"not null;default:0" json:"attempts"`
	LastError     string             `gorm:"size:1024" json:"last_error"`
	LockedBy      string             `gorm:"size:64" json:"locked_by"`
	LockedAt      *time.Time         `json:"locked_at"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// queueOutboxRecord writes the record inside the caller's transaction so it
// commits or rolls back with the business change.
func queueOutboxRecord(tx *gorm.DB, referenceType string, referenceId int, orderNumber string) error {
	record := OutboxRecord{
		ReferenceType: referenceType,
		ReferenceId:   referenceId,
		OrderNumber:   orderNumber,
		Status:        OutboxStatusPending,
	}
	return tx.Create(&record).Error
}

// staleClaimAge is how long a PROCESSING claim may sit before another
// dispatcher may steal it (crashed worker).
const staleClaimAge = 5 * time.Minute

// ClaimOutboxRecords moves up to limit claimable records to PROCESSING
// under workerId and returns them. The rows are taken under FOR UPDATE
// SKIP LOCKED so concurrent dispatchers never fight over the same batch.
func ClaimOutboxRecords(ctx context.Context, workerId string, limit int) ([]*OutboxRecord, error) {
	db := config.GetDB()
	now := time.Now()
	staleBefore := now.Add(-staleClaimAge)

	var claimed []*OutboxRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("status = ? OR (status = ? AND locked_at <= ?)",
				OutboxStatusPending, OutboxStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		for _, record := range claimed {
			record.Status = OutboxStatusProcessing
			record.LockedBy = workerId
			record.LockedAt = &now
			record.Attempts++
			if err := tx.Model(&OutboxRecord{}).
				Where("id = ?", record.ID).
				Updates(map[string]interface{}{
					"status":    OutboxStatusProcessing,
					"locked_by": workerId,
					"locked_at": &now,
					"attempts":  record.Attempts,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// maxOutboxAttempts is the point past which a record parks as FAILED and
// waits for manual attention.
const maxOutboxAttempts = 5

func MarkOutboxDone(ctx context.Context, record *OutboxRecord) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
		"status":     OutboxStatusDone,
		"last_error": "",
	}).Error
}

func MarkOutboxFailed(ctx context.Context, record *OutboxRecord, processErr error) error {
	db := config.GetDB()

	status := OutboxStatusPending
	if record.Attempts >= maxOutboxAttempts {
		status = OutboxStatusFailed
	}

	message := ""
	if processErr != nil {
		message = processErr.Error()
		if len(message) > 1024 {
			message = message[:1024]
		}
	}

	return db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
		"status":     status,
		"last_error": message,
	}).Error
}
