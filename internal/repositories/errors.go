package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outfitter/internal/apperr"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// storeError converts a driver error from operation op into an apperr kind.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	cause := fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.NotFound, "document not found", cause)
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return apperr.Wrap(apperr.StoreTimeout, "store did not respond in time", cause)
	default:
		return apperr.Wrap(apperr.Internal, "store operation failed", cause)
	}
}

// boundedSession returns db bound to ctx, with a deadline of timeout when positive.
func boundedSession(ctx context.Context, db *gorm.DB, timeout time.Duration) (*gorm.DB, context.CancelFunc) {
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	return db.WithContext(ctx), cancel
}
