package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"barberpro-backend/events"

	"gorm.io/gorm"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	DB        *gorm.DB
	Logger    *slog.Logger
	Publisher events.Publisher
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// withTx runs fn as one unit of work. Any error or panic rolls back;
// fn must use tx for every query and must not commit.
func withTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// publish emits an event after commit. Failures are logged only.
func (d Deps) publish(ctx context.Context, e events.Event) {
	if err := d.Publisher.Publish(ctx, e); err != nil {
		d.Logger.Warn("event publish failed", "type", e.Type, "tenant_id", e.TenantID, "err", err)
	}
}
