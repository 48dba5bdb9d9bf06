package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRunBatch(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	hooks := 0
	result, err := services.RunBatch(ctx, db, []uint{1, 2, 3}, func(tx *gorm.DB, id uint) (services.AfterCommit, error) {
		if id == 3 {
			return nil, services.ErrSkipped
		}
		role := models.BoardMemberRole{Name: fmt.Sprintf("Role %d", id)}
		if err := tx.Create(&role).Error; err != nil {
			return nil, err
		}
		if id == 2 {
			return nil, errors.New("row two is broken")
		}
		return func(ctx context.Context) *services.NotificationReport {
			hooks++
			return &services.NotificationReport{Sent: []uint{id}}
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "row two is broken", result.Errors[2])
	assert.Equal(t, 1, hooks)
	assert.Equal(t, []uint{1}, result.Notifications.Sent)

	var names []string
	require.NoError(t, db.Model(&models.BoardMemberRole{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"Role 1"}, names)
}

func TestRunBatchCanceled(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := services.RunBatch(ctx, db, []uint{1}, func(tx *gorm.DB, id uint) (services.AfterCommit, error) {
		called = true
		return nil, nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}
