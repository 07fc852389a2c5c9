package models

import (
	"context"
	"errors"
	"strconv"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

// GetSupplierStatement is the payable-side counterpart of GetCustomerStatement:
// purchases and debit notes increase what the business owes the supplier,
// payments, returns and credit notes decrease it. The sign convention is the
// same signed fold; only the direction of "owed" is read differently.
func GetSupplierStatement(ctx context.Context, supplierId int, filter StatementFilter, page, limit int) (*StatementResponse, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := filter.validate(); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, businessId, supplierId)
	if err != nil {
		return nil, err
	}

	transactions, err := fetchSupplierStatementTransactions(ctx, businessId, supplierId, &filter)
	if err != nil {
		return nil, err
	}

	summary := applyRunningBalance(transactions)

	if filter.isEmpty() {
		if _, err := syncSupplierBalance(ctx, supplier, summary.EndingBalance); err != nil {
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

func RecalculateSupplierBalance(ctx context.Context, supplier *Supplier) (*BalanceSyncResult, error) {
	transactions, err := fetchSupplierStatementTransactions(ctx, supplier.BusinessId, supplier.ID, &StatementFilter{})
	if err != nil {
		return nil, err
	}
	summary := applyRunningBalance(transactions)
	return syncSupplierBalance(ctx, supplier, summary.EndingBalance)
}

func syncSupplierBalance(ctx context.Context, supplier *Supplier, endingBalance decimal.Decimal) (*BalanceSyncResult, error) {
	result := BalanceSyncResult{
		Before: supplier.CurrentBalance,
		After:  endingBalance,
	}
	if supplier.CurrentBalance.Equal(endingBalance) {
		return &result, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Supplier{}).
		Where("business_id = ? AND id = ?", supplier.BusinessId, supplier.ID).
		UpdateColumn("current_balance", endingBalance).Error; err != nil {
		return nil, err
	}
	result.Changed = true
	supplier.CurrentBalance = endingBalance
	return &result, nil
}

func fetchSupplierStatementTransactions(ctx context.Context, businessId string, supplierId int, filter *StatementFilter) ([]StatementTransaction, error) {
	db := config.GetDB()
	var transactions []StatementTransaction

	// 1. Purchases (debit)
	if filter.includes(StatementDocTypeInvoice) {
		var purchases []Purchase
		query := db.WithContext(ctx).Where("business_id = ? AND supplier_id = ?", businessId, supplierId)
		if filter.FromDate != nil {
			query = query.Where("purchase_date >= ?", filter.FromDate)
		}
		if filter.ToDate != nil {
			query = query.Where("purchase_date <= ?", filter.ToDate)
		}
		if filter.Search != "" {
			search := "%" + filter.Search + "%"
			query = query.Where("(purchase_number LIKE ? OR reference_number LIKE ? OR purchase_subject LIKE ? OR notes LIKE ?)", search, search, search, search)
		}
		if err := query.Find(&purchases).Error; err != nil {
			return nil, err
		}
		for _, pur := range purchases {
			transactions = append(transactions, StatementTransaction{
				ID:          "PU:" + strconv.Itoa(pur.ID),
				Kind:        TransactionKindPurchase,
				SourceID:    pur.ID,
				Date:        pur.PurchaseDate,
				Number:      pur.PurchaseNumber,
				Description: pur.PurchaseSubject,
				Debit:       pur.PurchaseTotalAmount,
				Credit:      decimal.Zero,
				CreatedAt:   pur.CreatedAt,
			})
		}
	}

	// 2. Supplier payments (credit)
	if filter.includes(StatementDocTypePayment) {
		var payments []SupplierPayment
		query := db.WithContext(ctx).Where("business_id = ? AND supplier_id = ?", businessId, supplierId)
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
				ID:          "SP:" + strconv.Itoa(pay.ID),
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

	// 3. Purchase returns (credit)
	if filter.includes(StatementDocTypeReturn) {
		var returns []PurchaseReturn
		query := db.WithContext(ctx).Where("business_id = ? AND supplier_id = ?", businessId, supplierId)
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
				ID:          "PR:" + strconv.Itoa(ret.ID),
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

	// 4. Credit/debit notes
	if filter.includes(StatementDocTypeNote) {
		var notes []SupplierNote
		query := db.WithContext(ctx).Where("business_id = ? AND supplier_id = ?", businessId, supplierId)
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
			transactions = append(transactions, normalizeSupplierNote(note))
		}
	}

	return transactions, nil
}

func normalizeSupplierNote(note SupplierNote) StatementTransaction {
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
		t.ID = "SDN:" + strconv.Itoa(note.ID)
		t.Kind = TransactionKindDebitNote
		t.Debit = note.NoteTotal
	} else {
		t.ID = "SCN:" + strconv.Itoa(note.ID)
		t.Kind = TransactionKindCreditNote
		t.Credit = note.NoteTotal
	}
	return t
}
