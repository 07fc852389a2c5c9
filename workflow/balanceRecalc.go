package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/models"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	PartyKindCustomers = "customers"
	PartyKindSuppliers = "suppliers"

	defaultRecalcBatchSize = 100
	recalcLockTTL          = 10 * time.Minute
)

type RecalcOptions struct {
	BusinessId string
	// PartyKind narrows the run to "customers" or "suppliers"; empty runs both.
	PartyKind string
	// PartyIds narrows the run to specific ids within the selected kind(s).
	PartyIds  []int
	BatchSize int
}

type RecalculationReport struct {
	RunId          string    `json:"run_id"`
	BusinessId     string    `json:"business_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	TotalParties   int       `json:"total_parties"`
	UpdatedCount   int       `json:"updated_count"`
	UnchangedCount int       `json:"unchanged_count"`
	FailedCount    int       `json:"failed_count"`
	Updated        []string  `json:"updated"`
}

// RecalculateBalances walks the active customers and suppliers of a business in
// id-keyset batches and rewrites each stored current balance from the party's
// transaction history. Parties whose stored balance already matches are left
// untouched. A per-business redis lock keeps concurrent runs from stepping on
// each other; when redis is not configured the run proceeds unguarded.
func RecalculateBalances(ctx context.Context, opts RecalcOptions) (*RecalculationReport, error) {
	logger := config.GetLogger()

	if opts.BusinessId == "" {
		return nil, errors.New("business id is required")
	}
	if opts.PartyKind != "" && opts.PartyKind != PartyKindCustomers && opts.PartyKind != PartyKindSuppliers {
		return nil, fmt.Errorf("invalid party kind: %s", opts.PartyKind)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultRecalcBatchSize
	}

	if locker := config.GetRedisLock(); locker != nil {
		lockKey := "balance_recalc:" + opts.BusinessId
		lock, err := locker.Obtain(ctx, lockKey, recalcLockTTL, nil)
		if err == redislock.ErrNotObtained {
			return nil, errors.New("a balance recalculation is already running for this business")
		} else if err != nil {
			config.LogError(logger, "Workflow", "RecalculateBalances", "Error obtaining recalc lock", opts.BusinessId, err)
			return nil, err
		}
		defer func() {
			_ = lock.Release(ctx)
		}()
	} else {
		logger.WithFields(logrus.Fields{"business_id": opts.BusinessId}).
			Warn("balance_recalc.lock_unavailable")
	}

	ctx = utils.SetBusinessIdInContext(ctx, opts.BusinessId)

	// The run id doubles as the correlation id; reuse the caller's when set.
	runId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || runId == "" {
		runId = uuid.NewString()
		ctx = utils.SetCorrelationIdInContext(ctx, runId)
	}

	report := RecalculationReport{
		RunId:      runId,
		BusinessId: opts.BusinessId,
		StartedAt:  time.Now(),
		Updated:    []string{},
	}

	logger.WithFields(logrus.Fields{
		"run_id":      report.RunId,
		"business_id": opts.BusinessId,
		"party_kind":  opts.PartyKind,
		"batch_size":  opts.BatchSize,
	}).Info("balance_recalc.start")

	if opts.PartyKind == "" || opts.PartyKind == PartyKindCustomers {
		if err := recalcCustomers(ctx, logger, &opts, &report); err != nil {
			return nil, err
		}
	}
	if opts.PartyKind == "" || opts.PartyKind == PartyKindSuppliers {
		if err := recalcSuppliers(ctx, logger, &opts, &report); err != nil {
			return nil, err
		}
	}

	report.FinishedAt = time.Now()

	logger.WithFields(logrus.Fields{
		"run_id":          report.RunId,
		"business_id":     opts.BusinessId,
		"total_parties":   report.TotalParties,
		"updated_count":   report.UpdatedCount,
		"unchanged_count": report.UnchangedCount,
		"failed_count":    report.FailedCount,
		"duration":        report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("balance_recalc.end")

	return &report, nil
}

func recalcCustomers(ctx context.Context, logger *logrus.Logger, opts *RecalcOptions, report *RecalculationReport) error {
	db := config.GetDB()
	lastId := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var batch []models.Customer
		query := db.WithContext(ctx).
			Where("business_id = ? AND id > ?", opts.BusinessId, lastId)
		if len(opts.PartyIds) > 0 {
			// Explicitly requested ids are recalculated even when deactivated.
			query = query.Where("id IN ?", opts.PartyIds)
		} else {
			query = query.Where("is_active = ?", true)
		}
		if err := query.Order("id").Limit(opts.BatchSize).Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		lastId = batch[len(batch)-1].ID

		for i := range batch {
			customer := &batch[i]
			report.TotalParties++

			result, err := models.RecalculateCustomerBalance(ctx, customer)
			if err != nil {
				report.FailedCount++
				config.LogError(logger, "Workflow", "RecalculateBalances", "Customer recalc failed", customer.ID, err)
				continue
			}
			if result.Changed {
				report.UpdatedCount++
				report.Updated = append(report.Updated,
					fmt.Sprintf("customer:%d %s %s -> %s", customer.ID, customer.Name, result.Before.String(), result.After.String()))
			} else {
				report.UnchangedCount++
			}
		}
	}
}

func recalcSuppliers(ctx context.Context, logger *logrus.Logger, opts *RecalcOptions, report *RecalculationReport) error {
	db := config.GetDB()
	lastId := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var batch []models.Supplier
		query := db.WithContext(ctx).
			Where("business_id = ? AND id > ?", opts.BusinessId, lastId)
		if len(opts.PartyIds) > 0 {
			// Explicitly requested ids are recalculated even when deactivated.
			query = query.Where("id IN ?", opts.PartyIds)
		} else {
			query = query.Where("is_active = ?", true)
		}
		if err := query.Order("id").Limit(opts.BatchSize).Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		lastId = batch[len(batch)-1].ID

		for i := range batch {
			supplier := &batch[i]
			report.TotalParties++

			result, err := models.RecalculateSupplierBalance(ctx, supplier)
			if err != nil {
				report.FailedCount++
				config.LogError(logger, "Workflow", "RecalculateBalances", "Supplier recalc failed", supplier.ID, err)
				continue
			}
			if result.Changed {
				report.UpdatedCount++
				report.Updated = append(report.Updated,
					fmt.Sprintf("supplier:%d %s %s -> %s", supplier.ID, supplier.Name, result.Before.String(), result.After.String()))
			} else {
				report.UnchangedCount++
			}
		}
	}
}
