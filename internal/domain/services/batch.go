package services

import (
	"context"
	"errors"
	"fmt"
	Logger "hoa-http-service/pkg/logger"

	"gorm.io/gorm"
)

// ErrSkipped is returned by a batch step that had nothing to do for its row
var ErrSkipped = errors.New("skipped")

// AfterCommit runs once the batch transaction has committed
type AfterCommit func(ctx context.Context) *NotificationReport

// BatchStep processes one row inside its own savepoint
type BatchStep func(tx *gorm.DB, id uint) (AfterCommit, error)

// BatchResult counts the rows of a batch run
type BatchResult struct {
	Processed     int                 `json:"processed"`
	Skipped       int                 `json:"skipped"`
	Failed        int                 `json:"failed"`
	Errors        map[uint]string     `json:"errors,omitempty"`
	Notifications *NotificationReport `json:"notifications,omitempty"`
}

// RunBatch runs step for every id inside one outer transaction. Each row gets
// a nested transaction, so a failing row is rolled back alone and the batch
// continues. AfterCommit hooks run only when the outer transaction commits.
func RunBatch(ctx context.Context, db *gorm.DB, ids []uint, step BatchStep) (*BatchResult, error) {
	result := &BatchResult{Errors: map[uint]string{}, Notifications: NewNotificationReport()}
	var pending []AfterCommit

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}

			var hook AfterCommit
			err := tx.Transaction(func(sp *gorm.DB) error {
				var err error
				hook, err = step(sp, id)
				return err
			})
			switch {
			case err == nil:
				result.Processed++
				if hook != nil {
					pending = append(pending, hook)
				}
			case errors.Is(err, ErrSkipped):
				result.Skipped++
			default:
				result.Failed++
				result.Errors[id] = err.Error()
				Logger.Warning("batch: row %d failed: %v", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("batch transaction: %w", err)
	}

	for _, hook := range pending {
		result.Notifications.Merge(hook(ctx))
	}
	return result, nil
}
