package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequence is one named, monotonically increasing counter per business.
// CurrentValue always holds the NEXT value to assign; allocation returns it and
// advances the row in the same locked transaction.
type NumberSequence struct {
	ID            int       `gorm:"primary_key" json:"id"`
	BusinessId    string    `gorm:"uniqueIndex:idx_number_sequences_scope;size:36;not null" json:"business_id" binding:"required"`
	Namespace     string    `gorm:"uniqueIndex:idx_number_sequences_scope;size:100;not null" json:"namespace" binding:"required"`
	CurrentValue  int64     `gorm:"not null;default:0" json:"current_value"`
	DisplayWidth  int       `gorm:"not null;default:6" json:"display_width"`
	StartingValue int64     `gorm:"not null;default:1" json:"starting_value"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type sequenceConfig struct {
	Start int64
	Width int
}

// Per-namespace numbering conventions. Party codes start high so they never
// collide with legacy hand-assigned codes; document numbers start at 1000.
var sequenceConfigs = map[string]sequenceConfig{
	"customers":         {Start: 50000000, Width: 9},
	"suppliers":         {Start: 50000000, Width: 9},
	"sales":             {Start: 1000, Width: 6},
	"purchases":         {Start: 1000, Width: 6},
	"customer_payments": {Start: 1000, Width: 6},
	"supplier_payments": {Start: 1000, Width: 6},
	"sales_returns":     {Start: 1000, Width: 6},
	"purchase_returns":  {Start: 1000, Width: 6},
	"customer_notes":    {Start: 1000, Width: 6},
	"supplier_notes":    {Start: 1000, Width: 6},
}

var defaultSequenceConfig = sequenceConfig{Start: 1, Width: 6}

func getSequenceConfig(namespace string) sequenceConfig {
	if cfg, ok := sequenceConfigs[namespace]; ok {
		return cfg
	}
	return defaultSequenceConfig
}

// FormatSequenceValue zero-pads value to at least width digits.
// Values wider than the configured width are never truncated.
func FormatSequenceValue(value int64, width int) string {
	return fmt.Sprintf("%0*d", width, value)
}

// PeekNextNumber returns the value the next allocation would assign, without
// advancing the counter. The row is created lazily on first use.
func PeekNextNumber(ctx context.Context, namespace string) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", errors.New("business id is required")
	}

	db := config.GetDB()
	var seq NumberSequence
	err := db.WithContext(ctx).
		Where("business_id = ? AND namespace = ?", businessId, namespace).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created, cerr := createSequenceRow(ctx, db, businessId, namespace)
		if cerr != nil {
			return "", cerr
		}
		seq = *created
	} else if err != nil {
		return "", err
	}

	return FormatSequenceValue(seq.CurrentValue, seq.DisplayWidth), nil
}

// NextNumber atomically allocates the next value in the namespace and returns
// it formatted. Safe under concurrent callers across processes: the counter row
// is read under a row lock and advanced before commit, so no two callers can
// ever receive the same value and no value is skipped.
func NextNumber(ctx context.Context, namespace string) (string, error) {
	db := config.GetDB()
	tx := db.Begin()
	if tx.Error != nil {
		return "", tx.Error
	}

	number, err := NextNumberTx(ctx, tx, namespace)
	if err != nil {
		tx.Rollback()
		return "", err
	}
	if err := tx.Commit().Error; err != nil {
		return "", err
	}
	return number, nil
}

// NextNumberTx allocates inside the caller's transaction so a document insert
// and its number assignment commit (or roll back) together.
func NextNumberTx(ctx context.Context, tx *gorm.DB, namespace string) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", errors.New("business id is required")
	}

	seq, err := lockSequenceRow(ctx, tx, businessId, namespace)
	if err != nil {
		return "", err
	}

	assigned := seq.CurrentValue
	if err := tx.WithContext(ctx).Model(&NumberSequence{}).
		Where("id = ?", seq.ID).
		UpdateColumn("current_value", gorm.Expr("current_value + 1")).Error; err != nil {
		return "", err
	}

	return FormatSequenceValue(assigned, seq.DisplayWidth), nil
}

// lockSequenceRow returns the namespace's counter row locked FOR UPDATE,
// creating it first when the namespace has never been used. A create race
// between two transactions is resolved by the unique index: the loser re-reads
// the winner's row under the lock.
func lockSequenceRow(ctx context.Context, tx *gorm.DB, businessId string, namespace string) (*NumberSequence, error) {
	var seq NumberSequence
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND namespace = ?", businessId, namespace).
		First(&seq).Error
	if err == nil {
		return &seq, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := createSequenceRow(ctx, tx, businessId, namespace); err != nil {
		return nil, err
	}

	// Re-read under the lock; the row may have been created by a racing caller.
	err = tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND namespace = ?", businessId, namespace).
		First(&seq).Error
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

// createSequenceRow seeds a namespace with its configured starting value.
// Losing a duplicate-key race is not an error.
func createSequenceRow(ctx context.Context, tx *gorm.DB, businessId string, namespace string) (*NumberSequence, error) {
	cfg := getSequenceConfig(namespace)
	seq := NumberSequence{
		BusinessId:    businessId,
		Namespace:     namespace,
		CurrentValue:  cfg.Start,
		DisplayWidth:  cfg.Width,
		StartingValue: cfg.Start,
	}
	if err := tx.WithContext(ctx).Create(&seq).Error; err != nil {
		if isDuplicateKeyError(err) {
			var existing NumberSequence
			if ferr := tx.WithContext(ctx).
				Where("business_id = ? AND namespace = ?", businessId, namespace).
				First(&existing).Error; ferr != nil {
				return nil, ferr
			}
			return &existing, nil
		}
		return nil, err
	}
	return &seq, nil
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
