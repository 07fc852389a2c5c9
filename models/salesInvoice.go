package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

type SalesInvoice struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	BusinessId         string          `gorm:"index;not null" json:"business_id" binding:"required"`
	CustomerId         int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	InvoiceNumber      string          `gorm:"size:255;not null" json:"invoice_number"`
	ReferenceNumber    string          `gorm:"size:255" json:"reference_number"`
	InvoiceDate        time.Time       `gorm:"not null" json:"invoice_date"`
	InvoiceSubject     string          `gorm:"size:255" json:"invoice_subject"`
	Notes              string          `gorm:"type:text" json:"notes"`
	InvoiceTotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"invoice_total_amount"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSalesInvoice struct {
	CustomerId         int             `json:"customer_id" binding:"required" validate:"required"`
	InvoiceDate        time.Time       `json:"invoice_date" binding:"required" validate:"required"`
	ReferenceNumber    string          `json:"reference_number"`
	InvoiceSubject     string          `json:"invoice_subject"`
	Notes              string          `json:"notes"`
	InvoiceTotalAmount decimal.Decimal `json:"invoice_total_amount"`
}

// CreateSalesInvoice allocates the invoice number from the "sales" namespace
// inside the insert transaction.
func CreateSalesInvoice(ctx context.Context, input *NewSalesInvoice) (*SalesInvoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
		return nil, errors.New("customer not found")
	}
	if input.InvoiceTotalAmount.IsNegative() {
		return nil, errors.New("invoice total amount cannot be negative")
	}

	db := config.GetDB()
	tx := db.Begin()

	invoiceNumber, err := NextDocumentNumber(ctx, tx, "sales")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	invoice := SalesInvoice{
		BusinessId:         businessId,
		CustomerId:         input.CustomerId,
		InvoiceNumber:      invoiceNumber,
		ReferenceNumber:    input.ReferenceNumber,
		InvoiceDate:        input.InvoiceDate,
		InvoiceSubject:     input.InvoiceSubject,
		Notes:              input.Notes,
		InvoiceTotalAmount: input.InvoiceTotalAmount,
	}
	if err = tx.WithContext(ctx).Create(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err = tx.Commit().Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetSalesInvoice(ctx context.Context, id int) (*SalesInvoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[SalesInvoice](ctx, businessId, id)
}
