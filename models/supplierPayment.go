package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

type SupplierPayment struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId      int             `gorm:"index;not null" json:"supplier_id" binding:"required"`
	PaymentNumber   string          `gorm:"size:255;not null" json:"payment_number"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	PaymentDate     time.Time       `gorm:"not null" json:"payment_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplierPayment struct {
	SupplierId      int             `json:"supplier_id" binding:"required" validate:"required"`
	PaymentDate     time.Time       `json:"payment_date" binding:"required" validate:"required"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
	Amount          decimal.Decimal `json:"amount"`
}

func CreateSupplierPayment(ctx context.Context, input *NewSupplierPayment) (*SupplierPayment, error) {
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
	if input.Amount.IsNegative() {
		return nil, errors.New("payment amount cannot be negative")
	}

	db := config.GetDB()
	tx := db.Begin()

	paymentNumber, err := NextDocumentNumber(ctx, tx, "supplier_payments")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	payment := SupplierPayment{
		BusinessId:      businessId,
		SupplierId:      input.SupplierId,
		PaymentNumber:   paymentNumber,
		ReferenceNumber: input.ReferenceNumber,
		PaymentDate:     input.PaymentDate,
		Notes:           input.Notes,
		Amount:          input.Amount,
	}
	if err = tx.WithContext(ctx).Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err = tx.Commit().Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func GetSupplierPayment(ctx context.Context, id int) (*SupplierPayment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[SupplierPayment](ctx, businessId, id)
}
