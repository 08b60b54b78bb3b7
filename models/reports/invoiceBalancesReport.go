package reports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

type InvoiceBalance struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	CustomerId    int             `json:"customerId"`
	CustomerName  string          `json:"customerName"`
	IssueDate     time.Time       `json:"issueDate"`
	DueDate       time.Time       `json:"dueDate"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	BalanceDue    decimal.Decimal `json:"balanceDue"`
	DaysOverdue   int             `json:"daysOverdue"`
}

// GetInvoiceBalancesReport lists open invoices with their outstanding
// balances. Paid amounts are re-derived from verified allocations so the
// report stays truthful even if a stored column lags.
func GetInvoiceBalancesReport(ctx context.Context, asOf time.Time) ([]*InvoiceBalance, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	sql := `
SELECT
    i.invoice_number,
    i.customer_id,
    customers.name AS customer_name,
    i.issue_date,
    i.due_date,
    i.status,
    i.invoice_total_amount AS total_amount,
    COALESCE(paid.amount_paid, 0) AS paid_amount,
    GREATEST(i.invoice_total_amount - COALESCE(paid.amount_paid, 0), 0) AS balance_due,
    GREATEST(DATEDIFF(@asOf, i.due_date), 0) AS days_overdue
FROM
    invoices i
    LEFT JOIN customers ON customers.id = i.customer_id
    LEFT JOIN (
        SELECT
            payment_allocations.invoice_id,
            SUM(payment_allocations.applied_amount) AS amount_paid
        FROM
            payment_allocations
            INNER JOIN payments ON payments.id = payment_allocations.payment_id
        WHERE
            payments.business_id = @businessId
            AND payments.status = 'Verified'
        GROUP BY
            payment_allocations.invoice_id
    ) paid ON paid.invoice_id = i.id
WHERE
    i.business_id = @businessId
    AND NOT i.status IN ('Draft', 'Void', 'Paid')
ORDER BY
    i.due_date, i.id
`

	var records []*InvoiceBalance
	db := config.GetDB()
	err := db.WithContext(ctx).Raw(sql,
		map[string]interface{}{
			"businessId": businessId,
			"asOf":       asOf,
		}).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
