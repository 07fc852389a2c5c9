package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId          int             `gorm:"index;not null" json:"supplier_id" binding:"required"`
	PurchaseNumber      string          `gorm:"size:255;not null" json:"purchase_number"`
	ReferenceNumber     string          `gorm:"size:255" json:"reference_number"`
	PurchaseDate        time.Time       `gorm:"not null" json:"purchase_date"`
	PurchaseSubject     string          `gorm:"size:255" json:"purchase_subject"`
	Notes               string          `gorm:"type:text" json:"notes"`
	PurchaseTotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_total_amount"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPurchase struct {
	SupplierId          int             `json:"supplier_id" binding:"required" validate:"required"`
	PurchaseDate        time.Time       `json:"purchase_date" binding:"required" validate:"required"`
	ReferenceNumber     string          `json:"reference_number"`
	PurchaseSubject     string          `json:"purchase_subject"`
	Notes               string          `json:"notes"`
	PurchaseTotalAmount decimal.Decimal `json:"purchase_total_amount"`
}

func CreatePurchase(ctx context.Context, input *NewPurchase) (*Purchase, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Supplier](ctx, businessId, input.SupplierId); err != nil {
		return nil, errors.New("supplier not found")
	}
	if input.PurchaseTotalAmount.IsNegative() {
		return nil, errors.New("purchase total amount cannot be negative")
	}

	db := config.GetDB()
	tx := db.Begin()

	purchaseNumber, err := NextDocumentNumber(ctx, tx, "purchases")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	purchase := Purchase{
		BusinessId:          businessId,
		SupplierId:          input.SupplierId,
		PurchaseNumber:      purchaseNumber,
		ReferenceNumber:     input.ReferenceNumber,
		PurchaseDate:        input.PurchaseDate,
		PurchaseSubject:     input.PurchaseSubject,
		Notes:               input.Notes,
		PurchaseTotalAmount: input.PurchaseTotalAmount,
	}
	if err = tx.WithContext(ctx).Create(&purchase).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err = tx.Commit().Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Purchase](ctx, businessId, id)
}
