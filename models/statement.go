package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StatementTransaction is the normalized view of one ledger-affecting document.
// Debit increases what the party owes the business, credit decreases it.
type StatementTransaction struct {
	ID          string          `json:"id"` // e.g. "IV:12"
	Kind        TransactionKind `json:"kind"`
	SourceID    int             `json:"source_id"`
	Date        time.Time       `json:"date"`
	Number      string          `json:"number"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"created_at"`
}

type StatementFilter struct {
	FromDate      *time.Time
	ToDate        *time.Time
	Search        string
	DocType       *StatementDocType
	SortDirection SortDirection
}

func (f *StatementFilter) validate() error {
	if f.DocType != nil {
		if err := f.DocType.validate(); err != nil {
			return err
		}
	}
	return f.SortDirection.validate()
}

// isEmpty reports whether the view is narrowed. Sort direction and pagination
// never count: they re-arrange the full set, they don't narrow it.
func (f *StatementFilter) isEmpty() bool {
	return f.FromDate == nil && f.ToDate == nil && f.Search == "" && f.DocType == nil
}

func (f *StatementFilter) includes(docType StatementDocType) bool {
	return f.DocType == nil || *f.DocType == docType
}

type StatementSummary struct {
	TotalDebit    decimal.Decimal `json:"total_debit"`
	TotalCredit   decimal.Decimal `json:"total_credit"`
	EndingBalance decimal.Decimal `json:"ending_balance"`
}

type StatementResponse struct {
	Transactions []StatementTransaction `json:"transactions"`
	TotalCount   int64                  `json:"total_count"`
	Summary      StatementSummary       `json:"summary"`
}

// BalanceSyncResult records one party balance write-back.
type BalanceSyncResult struct {
	Changed bool            `json:"changed"`
	Before  decimal.Decimal `json:"before"`
	After   decimal.Decimal `json:"after"`
}

// sortStatementChronological orders ascending by date, breaking ties by
// creation timestamp then id so the order is deterministic regardless of
// the interleaving of per-source fetches.
func sortStatementChronological(transactions []StatementTransaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		if !transactions[i].Date.Equal(transactions[j].Date) {
			return transactions[i].Date.Before(transactions[j].Date)
		}
		if !transactions[i].CreatedAt.Equal(transactions[j].CreatedAt) {
			return transactions[i].CreatedAt.Before(transactions[j].CreatedAt)
		}
		return transactions[i].ID < transactions[j].ID
	})
}

// applyRunningBalance sorts the transactions chronologically ascending and
// folds balance += debit - credit over them. The running balance is always
// chronological; display order is applied afterwards. Returns the summary
// over the whole set.
func applyRunningBalance(transactions []StatementTransaction) StatementSummary {
	sortStatementChronological(transactions)

	balance := decimal.Zero
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i := range transactions {
		balance = balance.Add(transactions[i].Debit).Sub(transactions[i].Credit)
		transactions[i].Balance = balance
		totalDebit = totalDebit.Add(transactions[i].Debit)
		totalCredit = totalCredit.Add(transactions[i].Credit)
	}

	return StatementSummary{
		TotalDebit:    totalDebit,
		TotalCredit:   totalCredit,
		EndingBalance: balance,
	}
}

// orderStatement arranges an already chronologically sorted slice for display.
// Descending is the exact reverse of ascending, so tie-breaks stay deterministic.
func orderStatement(transactions []StatementTransaction, direction SortDirection) {
	if direction == SortDirectionAsc {
		return
	}
	// default is descending
	for i, j := 0, len(transactions)-1; i < j; i, j = i+1, j-1 {
		transactions[i], transactions[j] = transactions[j], transactions[i]
	}
}

// paginateStatement slices the fully computed sequence. Page numbers start at 1;
// limit <= 0 returns the whole sequence.
func paginateStatement(transactions []StatementTransaction, page, limit int) []StatementTransaction {
	if limit <= 0 {
		return transactions
	}
	start := (page - 1) * limit
	if start < 0 {
		start = 0
	}
	if start >= len(transactions) {
		return []StatementTransaction{}
	}
	end := start + limit
	if end > len(transactions) {
		end = len(transactions)
	}
	return transactions[start:end]
}
