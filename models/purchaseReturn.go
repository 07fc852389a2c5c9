package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

type PurchaseReturn struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId      int             `gorm:"index;not null" json:"supplier_id" binding:"required"`
	ReturnNumber    string          `gorm:"size:255;not null" json:"return_number"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	ReturnDate      time.Time       `gorm:"not null" json:"return_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	ReturnTotal     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"return_total"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPurchaseReturn struct {
	SupplierId      int             `json:"supplier_id" binding:"required" validate:"required"`
	ReturnDate      time.Time       `json:"return_date" binding:"required" validate:"required"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
	ReturnTotal     decimal.Decimal `json:"return_total"`
}

func CreatePurchaseReturn(ctx context.Context, input *NewPurchaseReturn) (*PurchaseReturn, error) {
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
	if input.ReturnTotal.IsNegative() {
		return nil, errors.New("return total cannot be negative")
	}

	db := config.GetDB()
	tx := db.Begin()

	returnNumber, err := NextDocumentNumber(ctx, tx, "purchase_returns")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	purchaseReturn := PurchaseReturn{
		BusinessId:      businessId,
		SupplierId:      input.SupplierId,
		ReturnNumber:    returnNumber,
		ReferenceNumber: input.ReferenceNumber,
		ReturnDate:      input.ReturnDate,
		Notes:           input.Notes,
		ReturnTotal:     input.ReturnTotal,
	}
	if err = tx.WithContext(ctx).Create(&purchaseReturn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err = tx.Commit().Error; err != nil {
		return nil, err
	}
	return &purchaseReturn, nil
}

func GetPurchaseReturn(ctx context.Context, id int) (*PurchaseReturn, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[PurchaseReturn](ctx, businessId, id)
}
