package models

import (
	"context"
	"errors"
	"strconv"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

// GetCustomerStatement merges the customer's invoices, payments, returns and
// notes into one balance-annotated sequence with summary totals. When the view
// is unfiltered the computed ending balance is written back to the customer.
func GetCustomerStatement(ctx context.Context, customerId int, filter StatementFilter, page, limit int) (*StatementResponse, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := filter.validate(); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, businessId, customerId)
	if err != nil {
		return nil, err
	}

	transactions, err := fetchCustomerStatementTransactions(ctx, businessId, customerId, &filter)
	if err != nil {
		return nil, err
	}

	summary := applyRunningBalance(transactions)

	// Filtered views must never touch the canonical balance.
	if filter.isEmpty() {
		if _, err := syncCustomerBalance(ctx, customer, summary.EndingBalance); err != nil {
			return nil, err
		}
	}

	orderStatement(transactions, filter.SortDirection)

	totalCount := int64(len(transactions))
	paginated := paginateStatement(transactions, page, limit)

	return &StatementResponse{
		Transactions: paginated,
		TotalCount:   totalCount,
		Summary:      summary,
	}, nil
}

// RecalculateCustomerBalance runs the unfiltered statement computation and
// converges the stored balance. Used by the bulk recalculation job.
func RecalculateCustomerBalance(ctx context.Context, customer *Customer) (*BalanceSyncResult, error) {
	transactions, err := fetchCustomerStatementTransactions(ctx, customer.BusinessId, customer.ID, &StatementFilter{})
	if err != nil {
		return nil, err
	}
	summary := applyRunningBalance(transactions)
	return syncCustomerBalance(ctx, customer, summary.EndingBalance)
}

// syncCustomerBalance updates the stored balance when it differs from the
// computed one. A single-column write keeps the update atomic; two concurrent
// unfiltered builds over the same committed set write the same value.
func syncCustomerBalance(ctx context.Context, customer *Customer, endingBalance decimal.Decimal) (*BalanceSyncResult, error) {
	result := BalanceSyncResult{
		Before: customer.CurrentBalance,
		After:  endingBalance,
	}
	if customer.CurrentBalance.Equal(endingBalance) {
		return &result, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Customer{}).
		Where("business_id = ? AND id = ?", customer.BusinessId, customer.ID).
		UpdateColumn("current_balance", endingBalance).Error; err != nil {
		return nil, err
	}
	result.Changed = true
	customer.CurrentBalance = endingBalance
	return &result, nil
}

func fetchCustomerStatementTransactions(ctx context.Context, businessId string, customerId int, filter *StatementFilter) ([]StatementTransaction, error) {
	db := config.GetDB()
	var transactions []StatementTransaction

	// 1. Sales invoices (debit)
	if filter.includes(StatementDocTypeInvoice) {
		var invoices []SalesInvoice
		query := db.WithContext(ctx).Where("business_id = ? AND customer_id = ?", businessId, customerId)
		if filter.FromDate != nil {
			query = query.Where("invoice_date >= ?", filter.FromDate)
		}
		if filter.ToDate != nil {
			query = query.Where("invoice_date <= ?", filter.ToDate)
		}
		if filter.Search != "" {
			search := "%" + filter.Search + "%"
			query = query.Where("(invoice_number LIKE ? OR reference_number LIKE ? OR invoice_subject LIKE ? OR notes LIKE ?)", search, search, search, search)
		}
		if err := query.Find(&invoices).Error; err != nil {
			return nil, err
		}
		for _, inv := range invoices {
			transactions = append(transactions, StatementTransaction{
				ID:          "IV:" + strconv.Itoa(inv.ID),
				Kind:        TransactionKindInvoice,
				SourceID:    inv.ID,
				Date:        inv.InvoiceDate,
				Number:      inv.InvoiceNumber,
				Description: inv.InvoiceSubject,
				Debit:       inv.InvoiceTotalAmount,
				Credit:      decimal.Zero,
				CreatedAt:   inv.CreatedAt,
			})
		}
	}

	// 2. Customer payments (credit)
	if filter.includes(StatementDocTypePayment) {
		var payments []CustomerPayment
		query := db.WithContext(ctx).Where("business_id = ? AND customer_id = ?", businessId, customerId)
		if filter.FromDate != nil {
			query = query.Where("payment_date >= ?", filter.FromDate)
		}
		if filter.ToDate != nil {
			query = query.Where("payment_date <= ?", filter.ToDate)
		}
		if filter.Search != "" {
			search := "%" + filter.Search + "%"
			query = query.Where("(payment_number LIKE ? OR reference_number LIKE ? OR notes LIKE ?)", search, search, search)
		}
		if err := query.Find(&payments).Error; err != nil {
			return nil, err
		}
		for _, pay := range payments {
			transactions = append(transactions, StatementTransaction{
				ID:          "CP:" + strconv.Itoa(pay.ID),
				Kind:        TransactionKindPayment,
				SourceID:    pay.ID,
				Date:        pay.PaymentDate,
				Number:      pay.PaymentNumber,
				Description: pay.Notes,
				Debit:       decimal.Zero,
				Credit:      pay.Amount,
				CreatedAt:   pay.CreatedAt,
			})
		}
	}

	// 3. Sales returns (credit)
	if filter.includes(StatementDocTypeReturn) {
		var returns []SalesReturn
		query := db.WithContext(ctx).Where("business_id = ? AND customer_id = ?", businessId, customerId)
		if filter.FromDate != nil {
			query = query.Where("return_date >= ?", filter.FromDate)
		}
		if filter.ToDate != nil {
			query = query.Where("return_date <= ?", filter.ToDate)
		}
		if filter.Search != "" {
			search := "%" + filter.Search + "%"
			query = query.Where("(return_number LIKE ? OR reference_number LIKE ? OR notes LIKE ?)", search, search, search)
		}
		if err := query.Find(&returns).Error; err != nil {
			return nil, err
		}
		for _, ret := range returns {
			transactions = append(transactions, StatementTransaction{
				ID:          "SR:" + strconv.Itoa(ret.ID),
				Kind:        TransactionKindReturn,
				SourceID:    ret.ID,
				Date:        ret.ReturnDate,
				Number:      ret.ReturnNumber,
				Description: ret.Notes,
				Debit:       decimal.Zero,
				Credit:      ret.ReturnTotal,
				CreatedAt:   ret.CreatedAt,
			})
		}
	}

	// 4. Credit/debit notes (credit notes credit, debit notes debit)
	if filter.includes(StatementDocTypeNote) {
		var notes []CustomerNote
		query := db.WithContext(ctx).Where("business_id = ? AND customer_id = ?", businessId, customerId)
		if filter.FromDate != nil {
			query = query.Where("note_date >= ?", filter.FromDate)
		}
		if filter.ToDate != nil {
			query = query.Where("note_date <= ?", filter.ToDate)
		}
		if filter.Search != "" {
			search := "%" + filter.Search + "%"
			query = query.Where("(note_number LIKE ? OR reference_number LIKE ? OR notes LIKE ?)", search, search, search)
		}
		if err := query.Find(&notes).Error; err != nil {
			return nil, err
		}
		for _, note := range notes {
			transactions = append(transactions, normalizeCustomerNote(note))
		}
	}

	return transactions, nil
}

func normalizeCustomerNote(note CustomerNote) StatementTransaction {
	t := StatementTransaction{
		SourceID:    note.ID,
		Date:        note.NoteDate,
		Number:      note.NoteNumber,
		Description: note.Notes,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
		CreatedAt:   note.CreatedAt,
	}
	if note.NoteType == NoteTypeDebit {
		t.ID = "DN:" + strconv.Itoa(note.ID)
		t.Kind = TransactionKindDebitNote
		t.Debit = note.NoteTotal
	} else {
		t.ID = "CN:" + strconv.Itoa(note.ID)
		t.Kind = TransactionKindCreditNote
		t.Credit = note.NoteTotal
	}
	return t
}
