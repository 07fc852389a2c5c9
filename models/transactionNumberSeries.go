package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"gorm.io/gorm"
)

// TransactionNumberSeries maps document namespaces to display prefixes
// (e.g. sales -> "INV-"). The numeric part always comes from NumberSequence.
type TransactionNumberSeries struct {
	ID         int                             `gorm:"primary_key" json:"id"`
	BusinessId string                          `gorm:"index;not null" json:"business_id" binding:"required"`
	Name       string                          `gorm:"size:100;not null" json:"name" binding:"required"`
	Modules    []TransactionNumberSeriesModule `gorm:"foreignKey:SeriesId" json:"modules"`
	CreatedAt  time.Time                       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time                       `gorm:"autoUpdateTime" json:"updated_at"`
}

type TransactionNumberSeriesModule struct {
	SeriesId   int    `gorm:"primaryKey;autoIncrement:false" json:"series_id" binding:"required"`
	ModuleName string `gorm:"primaryKey;autoIncrement:false" json:"module_name" binding:"required"`
	Prefix     string `gorm:"size:10" json:"prefix"`
}

type NewTransactionNumberSeries struct {
	Name    string                             `json:"name" binding:"required" validate:"required"`
	Modules []NewTransactionNumberSeriesModule `json:"modules"`
}

type NewTransactionNumberSeriesModule struct {
	ModuleName string `json:"module_name" binding:"required" validate:"required"`
	Prefix     string `json:"prefix"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewTransactionNumberSeries) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateUnique[TransactionNumberSeries](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func mapTransactionNumberSeriesModules(input []NewTransactionNumberSeriesModule) []TransactionNumberSeriesModule {
	modules := make([]TransactionNumberSeriesModule, 0)
	for _, m := range input {
		modules = append(modules, TransactionNumberSeriesModule{
			ModuleName: m.ModuleName,
			Prefix:     m.Prefix,
		})
	}
	return modules
}

func CreateTransactionNumberSeries(ctx context.Context, input *NewTransactionNumberSeries) (*TransactionNumberSeries, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	series := TransactionNumberSeries{
		BusinessId: businessId,
		Name:       input.Name,
		Modules:    mapTransactionNumberSeriesModules(input.Modules),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&series).Error; err != nil {
		return nil, err
	}
	// the prefix map for this business is stale now
	if err := clearTransactionPrefixCache(businessId); err != nil {
		return nil, err
	}
	return &series, nil
}

func UpdateTransactionNumberSeries(ctx context.Context, id int, input *NewTransactionNumberSeries) (*TransactionNumberSeries, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	series, err := utils.FetchModel[TransactionNumberSeries](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	modules := mapTransactionNumberSeriesModules(input.Modules)

	db := config.GetDB()
	tx := db.Begin()
	if err = tx.WithContext(ctx).Model(&series).
		Updates(map[string]interface{}{
			"Name": input.Name,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err = tx.WithContext(ctx).Model(&series).
		Session(&gorm.Session{FullSaveAssociations: true, SkipHooks: true}).
		Association("Modules").
		Unscoped().Replace(&modules); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := clearTransactionPrefixCache(businessId); err != nil {
		return nil, err
	}
	return series, nil
}

func GetTransactionNumberSeries(ctx context.Context, id int) (*TransactionNumberSeries, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[TransactionNumberSeries](ctx, businessId, id, "Modules")
}

func GetTransactionNumberSeriesAll(ctx context.Context, name *string) ([]*TransactionNumberSeries, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*TransactionNumberSeries

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if n := utils.DereferencePtr(name); n != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+n+"%")
	}
	err := dbCtx.Preload("Modules").Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// getTransactionPrefix resolves the display prefix for a namespace, redis or db.
// Missing mappings resolve to an empty prefix, not an error.
func getTransactionPrefix(ctx context.Context, businessId string, moduleName string) (string, error) {
	transactionPrefixes := make(map[string]string, 0) // moduleName => prefix
	redisKey := "tnsPrefixMap:" + businessId
	exists, err := config.GetRedisObject(redisKey, &transactionPrefixes)
	if err != nil {
		return "", err
	}
	if !exists {
		db := config.GetDB()
		var seriesIds []int
		if err := db.WithContext(ctx).Model(&TransactionNumberSeries{}).
			Where("business_id = ?", businessId).Select("id").Scan(&seriesIds).Error; err != nil {
			return "", err
		}
		if len(seriesIds) > 0 {
			var tnsModules []*TransactionNumberSeriesModule
			if err := db.WithContext(ctx).Model(&TransactionNumberSeriesModule{}).
				Where("series_id IN ?", seriesIds).Find(&tnsModules).Error; err != nil {
				return "", err
			}
			for _, modulePrefix := range tnsModules {
				transactionPrefixes[modulePrefix.ModuleName] = modulePrefix.Prefix
			}
		}
		if err := config.SetRedisObject(redisKey, &transactionPrefixes, 0); err != nil {
			return "", err
		}
	}

	prefix, ok := transactionPrefixes[moduleName]
	if !ok {
		return "", nil
	}
	return prefix, nil
}

func clearTransactionPrefixCache(businessId string) error {
	return config.RemoveRedisKey("tnsPrefixMap:" + businessId)
}

// NextDocumentNumber allocates the next number in the namespace and applies the
// business's configured prefix. Runs inside the caller's transaction.
func NextDocumentNumber(ctx context.Context, tx *gorm.DB, namespace string) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", errors.New("business id is required")
	}
	prefix, err := getTransactionPrefix(ctx, businessId, namespace)
	if err != nil {
		return "", err
	}
	number, err := NextNumberTx(ctx, tx, namespace)
	if err != nil {
		return "", err
	}
	return prefix + number, nil
}
