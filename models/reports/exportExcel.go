package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

const reportSheet = "Sheet1"

// ExportPaymentsReceivedExcel renders the payments-received report as an
// xlsx workbook. The caller streams the file to the response.
func ExportPaymentsReceivedExcel(records []*PaymentReceived) (*excelize.File, error) {
	f := excelize.NewFile()
	if _, err := f.NewSheet(reportSheet); err != nil {
		return nil, err
	}

	headers := []string{"PaymentNumber", "PaymentDate", "CustomerName", "PaymentMode", "ReferenceNumber", "InvoiceNumbers", "PaymentAmount", "UnusedAmount"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(reportSheet, cell, h)
	}

	for i, d := range records {
		row := i + 2
		f.SetCellValue(reportSheet, "A"+fmt.Sprint(row), d.PaymentNumber)
		f.SetCellValue(reportSheet, "B"+fmt.Sprint(row), d.PaymentDate.Format("2006-01-02"))
		f.SetCellValue(reportSheet, "C"+fmt.Sprint(row), d.CustomerName)
		f.SetCellValue(reportSheet, "D"+fmt.Sprint(row), utils.DereferencePtr(d.PaymentMode, ""))
		f.SetCellValue(reportSheet, "E"+fmt.Sprint(row), utils.DereferencePtr(d.ReferenceNumber, ""))
		f.SetCellValue(reportSheet, "F"+fmt.Sprint(row), utils.DereferencePtr(d.InvoiceNumbers, ""))
		f.SetCellValue(reportSheet, "G"+fmt.Sprint(row), d.PaymentAmount.InexactFloat64())
		f.SetCellValue(reportSheet, "H"+fmt.Sprint(row), d.UnusedAmount.InexactFloat64())
	}

	return f, nil
}

// ExportInvoiceBalancesExcel renders the invoice-balances report as an xlsx
// workbook.
func ExportInvoiceBalancesExcel(records []*InvoiceBalance) (*excelize.File, error) {
	f := excelize.NewFile()
	if _, err := f.NewSheet(reportSheet); err != nil {
		return nil, err
	}

	headers := []string{"InvoiceNumber", "CustomerName", "IssueDate", "DueDate", "Status", "TotalAmount", "PaidAmount", "BalanceDue", "DaysOverdue"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(reportSheet, cell, h)
	}

	for i, d := range records {
		row := i + 2
		f.SetCellValue(reportSheet, "A"+fmt.Sprint(row), d.InvoiceNumber)
		f.SetCellValue(reportSheet, "B"+fmt.Sprint(row), d.CustomerName)
		f.SetCellValue(reportSheet, "C"+fmt.Sprint(row), d.IssueDate.Format("2006-01-02"))
		f.SetCellValue(reportSheet, "D"+fmt.Sprint(row), d.DueDate.Format("2006-01-02"))
		f.SetCellValue(reportSheet, "E"+fmt.Sprint(row), d.Status)
		f.SetCellValue(reportSheet, "F"+fmt.Sprint(row), d.TotalAmount.InexactFloat64())
		f.SetCellValue(reportSheet, "G"+fmt.Sprint(row), d.PaidAmount.InexactFloat64())
		f.SetCellValue(reportSheet, "H"+fmt.Sprint(row), d.BalanceDue.InexactFloat64())
		f.SetCellValue(reportSheet, "I"+fmt.Sprint(row), d.DaysOverdue)
	}

	return f, nil
}
