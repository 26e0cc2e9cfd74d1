package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/models"
)

// OutboxDispatcher polls the outbox table and runs the post-commit work for
// each record in-process. Delivery is at-least-once; the handlers are
// written to tolerate redelivery.
type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string

	BatchSize    int
	PollInterval time.Duration
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:           db,
		Logger:       logger,
		DispatcherID: uuid.NewString(),
		BatchSize:    50,
		PollInterval: 500 * time.Millisecond,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.DB == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.dispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

func (d *OutboxDispatcher) dispatchOnce(ctx context.Context) {
	claimed, err := models.ClaimOutboxRecords(ctx, d.DispatcherID, d.BatchSize)
	if err != nil {
		config.LogError(d.Logger, "workflow", "dispatchOnce", "claim outbox records", nil, err)
		return
	}

	for _, record := range claimed {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processErr := d.process(ctx, record)
		if processErr != nil {
			config.LogError(d.Logger, "workflow", "dispatchOnce",
				fmt.Sprintf("process outbox record %d (%s)", record.ID, record.ReferenceType),
				record.OrderNumber, processErr)
			if err := models.MarkOutboxFailed(ctx, record, processErr); err != nil {
				config.LogError(d.Logger, "workflow", "dispatchOnce", "mark outbox record failed", record.ID, err)
			}
			continue
		}

		if err := models.MarkOutboxDone(ctx, record); err != nil {
			config.LogError(d.Logger, "workflow", "dispatchOnce", "mark outbox record done", record.ID, err)
		}
	}
}

func (d *OutboxDispatcher) process(ctx context.Context, record *models.OutboxRecord) error {
	switch record.ReferenceType {
	case models.OutboxReferenceTypeOrderPlaced:
		return ProcessOrderPlaced(ctx, d.DB, d.Logger, record)
	default:
		return fmt.Errorf("unknown outbox reference type %q", record.ReferenceType)
	}
}
