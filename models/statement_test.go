package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They validate the statement
// fold semantics over already-fetched transactions:
// - the running balance is always computed in chronological order
// - display order and pagination never change any balance
//
// Full DB integration coverage lives in statement_regression_test.go.

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func tx(id string, date time.Time, debit, credit int64) StatementTransaction {
	return StatementTransaction{
		ID:        id,
		Date:      date,
		Debit:     decimal.NewFromInt(debit),
		Credit:    decimal.NewFromInt(credit),
		CreatedAt: date,
	}
}

func TestApplyRunningBalance_SignedFold(t *testing.T) {
	transactions := []StatementTransaction{
		tx("IV:1", day(1), 800, 0),
		tx("CP:1", day(2), 0, 500),
		tx("CN:1", day(3), 0, 100),
	}

	summary := applyRunningBalance(transactions)

	wantBalances := []int64{800, 300, 200}
	for i, want := range wantBalances {
		if transactions[i].Balance.Cmp(decimal.NewFromInt(want)) != 0 {
			t.Fatalf("transaction %d: expected balance %d, got %s", i, want, transactions[i].Balance)
		}
	}
	if summary.TotalDebit.Cmp(decimal.NewFromInt(800)) != 0 {
		t.Fatalf("expected total debit 800, got %s", summary.TotalDebit)
	}
	if summary.TotalCredit.Cmp(decimal.NewFromInt(600)) != 0 {
		t.Fatalf("expected total credit 600, got %s", summary.TotalCredit)
	}
	if summary.EndingBalance.Cmp(decimal.NewFromInt(200)) != 0 {
		t.Fatalf("expected ending balance 200, got %s", summary.EndingBalance)
	}
}

func TestApplyRunningBalance_InputOrderIrrelevant(t *testing.T) {
	transactions := []StatementTransaction{
		tx("CN:1", day(3), 0, 100),
		tx("IV:1", day(1), 800, 0),
		tx("CP:1", day(2), 0, 500),
	}

	applyRunningBalance(transactions)

	if transactions[0].ID != "IV:1" || transactions[1].ID != "CP:1" || transactions[2].ID != "CN:1" {
		t.Fatalf("expected chronological order IV:1, CP:1, CN:1; got %s, %s, %s",
			transactions[0].ID, transactions[1].ID, transactions[2].ID)
	}
	if transactions[2].Balance.Cmp(decimal.NewFromInt(200)) != 0 {
		t.Fatalf("expected final balance 200, got %s", transactions[2].Balance)
	}
}

func TestApplyRunningBalance_BalanceCanGoNegative(t *testing.T) {
	transactions := []StatementTransaction{
		tx("IV:1", day(1), 100, 0),
		tx("CP:1", day(2), 0, 300),
	}

	summary := applyRunningBalance(transactions)

	if summary.EndingBalance.Cmp(decimal.NewFromInt(-200)) != 0 {
		t.Fatalf("expected ending balance -200, got %s", summary.EndingBalance)
	}
	if transactions[1].Balance.Cmp(decimal.NewFromInt(-200)) != 0 {
		t.Fatalf("expected running balance -200, got %s", transactions[1].Balance)
	}
}

func TestApplyRunningBalance_EmptySet(t *testing.T) {
	summary := applyRunningBalance(nil)

	if !summary.TotalDebit.IsZero() || !summary.TotalCredit.IsZero() || !summary.EndingBalance.IsZero() {
		t.Fatalf("expected zero summary for empty set, got %+v", summary)
	}
}

func TestSortStatementChronological_TieBreaks(t *testing.T) {
	sameDate := day(5)
	earlier := sameDate.Add(1 * time.Hour)
	later := sameDate.Add(2 * time.Hour)

	transactions := []StatementTransaction{
		{ID: "SR:9", Date: sameDate, CreatedAt: later},
		{ID: "IV:2", Date: sameDate, CreatedAt: earlier},
		{ID: "IV:1", Date: sameDate, CreatedAt: earlier},
	}

	sortStatementChronological(transactions)

	got := []string{transactions[0].ID, transactions[1].ID, transactions[2].ID}
	want := []string{"IV:1", "IV:2", "SR:9"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestOrderStatement_DescIsExactReverse(t *testing.T) {
	asc := []StatementTransaction{
		tx("IV:1", day(1), 100, 0),
		tx("IV:2", day(2), 100, 0),
		tx("IV:3", day(3), 100, 0),
	}
	applyRunningBalance(asc)

	desc := make([]StatementTransaction, len(asc))
	copy(desc, asc)
	orderStatement(desc, SortDirectionDesc)

	for i := range asc {
		mirror := desc[len(desc)-1-i]
		if asc[i].ID != mirror.ID {
			t.Fatalf("descending order is not the reverse of ascending at index %d", i)
		}
		if asc[i].Balance.Cmp(mirror.Balance) != 0 {
			t.Fatalf("reordering changed a balance at index %d", i)
		}
	}

	// Unset direction defaults to descending.
	def := make([]StatementTransaction, len(asc))
	copy(def, asc)
	orderStatement(def, "")
	if def[0].ID != "IV:3" {
		t.Fatalf("expected default order to be descending, got first id %s", def[0].ID)
	}
}

func TestPaginateStatement(t *testing.T) {
	transactions := []StatementTransaction{
		tx("IV:1", day(1), 100, 0),
		tx("IV:2", day(2), 100, 0),
		tx("IV:3", day(3), 100, 0),
		tx("IV:4", day(4), 100, 0),
		tx("IV:5", day(5), 100, 0),
	}

	page1 := paginateStatement(transactions, 1, 2)
	if len(page1) != 2 || page1[0].ID != "IV:1" || page1[1].ID != "IV:2" {
		t.Fatalf("unexpected page 1: %+v", page1)
	}

	page3 := paginateStatement(transactions, 3, 2)
	if len(page3) != 1 || page3[0].ID != "IV:5" {
		t.Fatalf("unexpected page 3: %+v", page3)
	}

	page4 := paginateStatement(transactions, 4, 2)
	if len(page4) != 0 {
		t.Fatalf("expected empty page past the end, got %+v", page4)
	}

	all := paginateStatement(transactions, 1, 0)
	if len(all) != 5 {
		t.Fatalf("expected limit 0 to return all, got %d", len(all))
	}
}

func TestStatementFilterIsEmpty(t *testing.T) {
	empty := StatementFilter{SortDirection: SortDirectionDesc}
	if !empty.isEmpty() {
		t.Fatal("sort direction alone must not count as a narrowing filter")
	}

	from := day(1)
	if (&StatementFilter{FromDate: &from}).isEmpty() {
		t.Fatal("from date must count as a narrowing filter")
	}
	if (&StatementFilter{Search: "INV"}).isEmpty() {
		t.Fatal("search must count as a narrowing filter")
	}
	docType := StatementDocTypePayment
	if (&StatementFilter{DocType: &docType}).isEmpty() {
		t.Fatal("doc type must count as a narrowing filter")
	}
}

func TestStatementFilterValidate(t *testing.T) {
	bad := StatementDocType("Voucher")
	if err := (&StatementFilter{DocType: &bad}).validate(); err == nil {
		t.Fatal("expected error for unknown document type")
	}
	if err := (&StatementFilter{SortDirection: "descending"}).validate(); err == nil {
		t.Fatal("expected error for unknown sort direction")
	}

	docType := StatementDocTypeNote
	good := StatementFilter{DocType: &docType, SortDirection: SortDirectionAsc}
	if err := good.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeNoteSides(t *testing.T) {
	credit := normalizeCustomerNote(CustomerNote{ID: 7, NoteType: NoteTypeCredit, NoteTotal: decimal.NewFromInt(100)})
	if credit.ID != "CN:7" || credit.Kind != TransactionKindCreditNote {
		t.Fatalf("unexpected customer credit note row: %+v", credit)
	}
	if !credit.Debit.IsZero() || credit.Credit.Cmp(decimal.NewFromInt(100)) != 0 {
		t.Fatalf("customer credit note must post to the credit side: %+v", credit)
	}

	debit := normalizeCustomerNote(CustomerNote{ID: 8, NoteType: NoteTypeDebit, NoteTotal: decimal.NewFromInt(40)})
	if debit.ID != "DN:8" || debit.Kind != TransactionKindDebitNote {
		t.Fatalf("unexpected customer debit note row: %+v", debit)
	}
	if debit.Debit.Cmp(decimal.NewFromInt(40)) != 0 || !debit.Credit.IsZero() {
		t.Fatalf("customer debit note must post to the debit side: %+v", debit)
	}

	supplierDebit := normalizeSupplierNote(SupplierNote{ID: 9, NoteType: NoteTypeDebit, NoteTotal: decimal.NewFromInt(60)})
	if supplierDebit.ID != "SDN:9" || supplierDebit.Debit.Cmp(decimal.NewFromInt(60)) != 0 {
		t.Fatalf("unexpected supplier debit note row: %+v", supplierDebit)
	}
	supplierCredit := normalizeSupplierNote(SupplierNote{ID: 10, NoteType: NoteTypeCredit, NoteTotal: decimal.NewFromInt(60)})
	if supplierCredit.ID != "SCN:10" || supplierCredit.Credit.Cmp(decimal.NewFromInt(60)) != 0 {
		t.Fatalf("unexpected supplier credit note row: %+v", supplierCredit)
	}
}

func TestStatementFilterIncludes(t *testing.T) {
	var f StatementFilter
	if !f.includes(StatementDocTypeInvoice) || !f.includes(StatementDocTypeNote) {
		t.Fatal("nil doc type must include every source")
	}

	docType := StatementDocTypePayment
	f.DocType = &docType
	if !f.includes(StatementDocTypePayment) {
		t.Fatal("expected payment source to be included")
	}
	if f.includes(StatementDocTypeInvoice) {
		t.Fatal("expected invoice source to be excluded")
	}
}
