package reports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

type PaymentReceived struct {
	PaymentNumber   string          `json:"paymentNumber"`
	PaymentDate     time.Time       `json:"paymentDate"`
	ReferenceNumber *string         `json:"referenceNumber,omitempty"`
	CustomerId      int             `json:"customerId"`
	CustomerName    string          `json:"customerName"`
	PaymentMode     *string         `json:"paymentMode,omitempty"`
	Status          string          `json:"status"`
	Notes           *string         `json:"notes,omitempty"`
	InvoiceNumbers  *string         `json:"invoiceNumbers"`
	PaymentAmount   decimal.Decimal `json:"paymentAmount"`
	UnusedAmount    decimal.Decimal `json:"unusedAmount"`
}

// GetPaymentsReceivedReport lists verified payments in the window with the
// invoice numbers they were applied to.
func GetPaymentsReceivedReport(ctx context.Context, fromDate time.Time, toDate time.Time) ([]*PaymentReceived, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	sql := `
SELECT
    p.payment_number,
    p.payment_date,
    p.reference_number,
    p.customer_id,
    customers.name AS customer_name,
    payment_modes.name AS payment_mode,
    p.status,
    p.notes,
    GROUP_CONCAT(invoices.invoice_number) AS invoice_numbers,
    p.amount AS payment_amount,
    p.unused_amount
FROM
    payments p
    LEFT JOIN customers ON customers.id = p.customer_id
    LEFT JOIN payment_modes ON payment_modes.id = p.payment_mode_id
    LEFT JOIN payment_allocations ON payment_allocations.payment_id = p.id
    LEFT JOIN invoices ON invoices.id = payment_allocations.invoice_id
WHERE
    p.business_id = @businessId
    AND p.status = 'Verified'
    AND p.payment_date BETWEEN @fromDate AND @toDate
GROUP BY
    p.id
ORDER BY
    p.payment_date, p.id
`

	var records []*PaymentReceived
	db := config.GetDB()
	err := db.WithContext(ctx).Raw(sql,
		map[string]interface{}{
			"businessId": businessId,
			"fromDate":   fromDate,
			"toDate":     toDate,
		}).Scan(&records).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return records, nil
}
