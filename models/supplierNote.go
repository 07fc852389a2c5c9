package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

// SupplierNote is a balance adjustment against a supplier: a credit note
// reduces what the business owes, a debit note increases it.
type SupplierNote struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId      int             `gorm:"index;not null" json:"supplier_id" binding:"required"`
	NoteNumber      string          `gorm:"size:255;not null" json:"note_number"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	NoteType        NoteType        `gorm:"type:enum('Credit','Debit');not null" json:"note_type" binding:"required"`
	NoteDate        time.Time       `gorm:"not null" json:"note_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	NoteTotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"note_total"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplierNote struct {
	SupplierId      int             `json:"supplier_id" binding:"required" validate:"required"`
	NoteType        NoteType        `json:"note_type" binding:"required" validate:"required,oneof=Credit Debit"`
	NoteDate        time.Time       `json:"note_date" binding:"required" validate:"required"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
	NoteTotal       decimal.Decimal `json:"note_total"`
}

func CreateSupplierNote(ctx context.Context, input *NewSupplierNote) (*SupplierNote, error) {
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
	if input.NoteTotal.IsNegative() {
		return nil, errors.New("note total cannot be negative")
	}

	db := config.GetDB()
	tx := db.Begin()

	noteNumber, err := NextDocumentNumber(ctx, tx, "supplier_notes")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	note := SupplierNote{
		BusinessId:      businessId,
		SupplierId:      input.SupplierId,
		NoteNumber:      noteNumber,
		ReferenceNumber: input.ReferenceNumber,
		NoteType:        input.NoteType,
		NoteDate:        input.NoteDate,
		Notes:           input.Notes,
		NoteTotal:       input.NoteTotal,
	}
	if err = tx.WithContext(ctx).Create(&note).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err = tx.Commit().Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func GetSupplierNote(ctx context.Context, id int) (*SupplierNote, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[SupplierNote](ctx, businessId, id)
}
