package models

import "errors"

// TransactionKind tags one normalized statement row with the document
// category it came from.
type TransactionKind string

const (
	TransactionKindInvoice    TransactionKind = "Invoice"
	TransactionKindPurchase   TransactionKind = "Purchase"
	TransactionKindPayment    TransactionKind = "Payment"
	TransactionKindReturn     TransactionKind = "Return"
	TransactionKindCreditNote TransactionKind = "CreditNote"
	TransactionKindDebitNote  TransactionKind = "DebitNote"
)

// StatementDocType restricts a statement to one source kind.
// Credit notes and debit notes share the "Note" source.
type StatementDocType string

const (
	StatementDocTypeInvoice StatementDocType = "Invoice"
	StatementDocTypePayment StatementDocType = "Payment"
	StatementDocTypeReturn  StatementDocType = "Return"
	StatementDocTypeNote    StatementDocType = "Note"
)

func (t StatementDocType) validate() error {
	switch t {
	case StatementDocTypeInvoice, StatementDocTypePayment, StatementDocTypeReturn, StatementDocTypeNote:
		return nil
	}
	return errors.New("invalid statement document type")
}

type NoteType string

const (
	NoteTypeCredit NoteType = "Credit"
	NoteTypeDebit  NoteType = "Debit"
)

type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

func (d SortDirection) validate() error {
	switch d {
	case SortDirectionAsc, SortDirectionDesc, "":
		return nil
	}
	return errors.New("invalid sort direction")
}
