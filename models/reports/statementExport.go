package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/erp_backend/models"
	"github.com/xuri/excelize/v2"
)

var statementHeadings = []string{"Date", "Number", "Type", "Description", "Debit", "Credit", "Balance"}

// ExportCustomerStatementXlsx renders the full (unpaginated) statement of a
// customer into a workbook. The filter is passed through unchanged, so an
// empty filter also refreshes the stored balance the same way the statement
// query does.
func ExportCustomerStatementXlsx(ctx context.Context, customerId int, filter models.StatementFilter) (*excelize.File, error) {
	statement, err := models.GetCustomerStatement(ctx, customerId, filter, 1, 0)
	if err != nil {
		return nil, err
	}
	return buildStatementXlsx(statement)
}

func ExportSupplierStatementXlsx(ctx context.Context, supplierId int, filter models.StatementFilter) (*excelize.File, error) {
	statement, err := models.GetSupplierStatement(ctx, supplierId, filter, 1, 0)
	if err != nil {
		return nil, err
	}
	return buildStatementXlsx(statement)
}

func buildStatementXlsx(statement *models.StatementResponse) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Sheet1"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}

	// Add headers
	col := 'A'
	for _, h := range statementHeadings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	// Add data
	rowNo := 2
	for _, t := range statement.Transactions {
		f.SetCellValue(sheetName, "A"+fmt.Sprint(rowNo), t.Date.Format("2006-01-02"))
		f.SetCellValue(sheetName, "B"+fmt.Sprint(rowNo), t.Number)
		f.SetCellValue(sheetName, "C"+fmt.Sprint(rowNo), string(t.Kind))
		f.SetCellValue(sheetName, "D"+fmt.Sprint(rowNo), t.Description)
		f.SetCellValue(sheetName, "E"+fmt.Sprint(rowNo), t.Debit.InexactFloat64())
		f.SetCellValue(sheetName, "F"+fmt.Sprint(rowNo), t.Credit.InexactFloat64())
		f.SetCellValue(sheetName, "G"+fmt.Sprint(rowNo), t.Balance.InexactFloat64())
		rowNo++
	}

	// Summary
	rowNo++
	f.SetCellValue(sheetName, "D"+fmt.Sprint(rowNo), "Total")
	f.SetCellValue(sheetName, "E"+fmt.Sprint(rowNo), statement.Summary.TotalDebit.InexactFloat64())
	f.SetCellValue(sheetName, "F"+fmt.Sprint(rowNo), statement.Summary.TotalCredit.InexactFloat64())
	f.SetCellValue(sheetName, "G"+fmt.Sprint(rowNo), statement.Summary.EndingBalance.InexactFloat64())

	return f, nil
}
