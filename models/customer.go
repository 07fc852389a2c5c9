package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id" binding:"required"`
	Code           string          `gorm:"size:20;index;not null" json:"code"`
	Name           string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Email          string          `gorm:"size:100" json:"email"`
	Phone          string          `gorm:"size:20" json:"phone"`
	Currency       string          `gorm:"size:3;default:MMK" json:"currency"`
	Notes          string          `gorm:"type:text" json:"notes"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_balance"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name           string          `json:"name" binding:"required" validate:"required"`
	Email          string          `json:"email" validate:"omitempty,email"`
	Phone          string          `json:"phone"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	Notes          string          `json:"notes"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func (input *NewCustomer) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, businessId, id); err != nil {
			return err
		}
	}
	// validate unique name
	if err := utils.ValidateUnique[Customer](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// validate email
	if input.Email != "" {
		if err := utils.ValidateUnique[Customer](ctx, businessId, "email", input.Email, id); err != nil {
			return err
		}
	}
	return nil
}

// CreateCustomer assigns the customer code from the "customers" namespace
// inside the insert transaction so code and row commit together.
func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	code, err := NextNumberTx(ctx, tx, "customers")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	customer := Customer{
		BusinessId:     businessId,
		Code:           code,
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Currency:       input.Currency,
		Notes:          input.Notes,
		OpeningBalance: input.OpeningBalance,
		CurrentBalance: input.OpeningBalance,
		IsActive:       utils.NewTrue(),
	}
	if err = tx.WithContext(ctx).Create(&customer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// A non-zero opening balance is recorded as an opening invoice so the
	// statement recomputation reproduces the seeded current balance.
	if !input.OpeningBalance.IsZero() {
		opening := SalesInvoice{
			BusinessId:         businessId,
			CustomerId:         customer.ID,
			InvoiceNumber:      "Customer Opening Balance",
			InvoiceDate:        time.Now(),
			InvoiceSubject:     "Opening Balance",
			InvoiceTotalAmount: input.OpeningBalance,
		}
		if err = tx.WithContext(ctx).Create(&opening).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err = tx.Commit().Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&customer).Updates(map[string]interface{}{
		"Name":     input.Name,
		"Email":    input.Email,
		"Phone":    input.Phone,
		"Currency": input.Currency,
		"Notes":    input.Notes,
	}).Error
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Customer](ctx, businessId, id)
}

// GetCustomers filters by name or code substring.
func GetCustomers(ctx context.Context, name *string, code *string) ([]*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*Customer

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if n := utils.DereferencePtr(name); n != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+n+"%")
	}
	if c := utils.DereferencePtr(code); c != "" {
		dbCtx = dbCtx.Where("code LIKE ?", "%"+c+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveCustomer(ctx context.Context, id int, isActive bool) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	customer, err := utils.FetchModel[Customer](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&customer).
		UpdateColumn("IsActive", isActive).Error; err != nil {
		return nil, err
	}
	return customer, nil
}
