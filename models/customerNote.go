package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

// CustomerNote is a balance adjustment against a customer: a credit note
// reduces what the customer owes, a debit note increases it.
type CustomerNote struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id" binding:"required"`
	CustomerId      int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	NoteNumber      string          `gorm:"size:255;not null" json:"note_number"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	NoteType        NoteType        `gorm:"type:enum('Credit','Debit');not null" json:"note_type" binding:"required"`
	NoteDate        time.Time       `gorm:"not null" json:"note_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	NoteTotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"note_total"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomerNote struct {
	CustomerId      int             `json:"customer_id" binding:"required" validate:"required"`
	NoteType        NoteType        `json:"note_type" binding:"required" validate:"required,oneof=Credit Debit"`
	NoteDate        time.Time       `json:"note_date" binding:"required" validate:"required"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
	NoteTotal       decimal.Decimal `json:"note_total"`
}

func CreateCustomerNote(ctx context.Context, input *NewCustomerNote) (*CustomerNote, error) {
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
	if input.NoteTotal.IsNegative() {
		return nil, errors.New("note total cannot be negative")
	}

	db := config.GetDB()
	tx := db.Begin()

	noteNumber, err := NextDocumentNumber(ctx, tx, "customer_notes")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	note := CustomerNote{
		BusinessId:      businessId,
		CustomerId:      input.CustomerId,
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

func GetCustomerNote(ctx context.Context, id int) (*CustomerNote, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[CustomerNote](ctx, businessId, id)
}
