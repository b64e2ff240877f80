package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// concurrentModification is returned when SaveWithLock finds a newer version in the database
func concurrentModification(entity string, id uuid.UUID) error {
	return shared.NewDomainError(shared.CodeConcurrentModification,
		fmt.Sprintf("The %s has been modified by another user", entity)).
		WithEntity(entity, id)
}

// updateVersioned writes every column of model except created_at and associations,
// provided the stored row still carries expectedVersion. The caller sets the
// model's Version to expectedVersion+1 beforehand.
func updateVersioned(tx *gorm.DB, model any, tenantID, id uuid.UUID, expectedVersion int, entity string) error {
	result := tx.Model(model).
		Select("*").
		Omit(clause.Associations, "created_at").
		Where("tenant_id = ? AND version = ?", tenantID, expectedVersion).
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", entity, result.Error)
	}
	if result.RowsAffected == 0 {
		return concurrentModification(entity, id)
	}
	return nil
}

// nextDocumentNo returns PREFIX-YYYYMMDD-NNNNNN, one past the highest number issued
// for the tenant on that date. The unique index on the column rejects a racing duplicate.
func nextDocumentNo(ctx context.Context, db *gorm.DB, model any, column string, tenantID uuid.UUID, prefix string, date time.Time) (string, error) {
	stem := fmt.Sprintf("%s-%s-", prefix, date.Format("20060102"))
	var last string
	if err := db.WithContext(ctx).
		Model(model).
		Select(column).
		Where("tenant_id = ? AND "+column+" LIKE ?", tenantID, stem+"%").
		Order(column + " DESC").
		Limit(1).
		Scan(&last).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to read last %s: %w", column, err)
	}

	seq := 1
	if last != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, stem)); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%06d", stem, seq), nil
}

// notFoundAsNil maps gorm.ErrRecordNotFound to a nil error
func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
