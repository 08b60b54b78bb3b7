package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/middlewares"
	"bitbucket.org/mmdatafocus/billing_portal/models"
	"bitbucket.org/mmdatafocus/billing_portal/models/reports"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
	"bitbucket.org/mmdatafocus/billing_portal/workflow"
)

func registerAdminRoutes(r *gin.Engine) {
	admin := r.Group("/api/admin")
	admin.Use(middlewares.RequireRole(string(models.UserRoleAdmin), string(models.UserRoleOwner)))

	admin.GET("/customers", listCustomersHandler)
	admin.GET("/customers/:id", getCustomerHandler)

	admin.GET("/items", listAllItemsHandler)
	admin.GET("/items/:id", getItemHandler)
	admin.POST("/items", createItemHandler)
	admin.PUT("/items/:id", updateItemHandler)

	admin.GET("/quotes", listQuotesHandler)
	admin.GET("/quotes/:id", getQuoteHandler)
	admin.POST("/quotes/:id/send", sendQuoteHandler)
	admin.POST("/quotes/:id/scrap", scrapQuoteHandler)

	admin.GET("/sales-orders", listSalesOrdersHandler)
	admin.GET("/sales-orders/:id", getSalesOrderHandler)
	admin.POST("/sales-orders/:id/send", sendSalesOrderHandler)
	admin.PUT("/sales-orders/:id/status", updateSalesOrderStatusHandler)
	admin.POST("/sales-orders/:id/generate-invoice", generateInvoiceHandler)

	admin.GET("/invoices", listInvoicesHandler)
	admin.GET("/invoices/:id", getInvoiceHandler)
	admin.POST("/invoices/:id/void", voidInvoiceHandler)

	admin.GET("/payments", listPaymentsHandler)
	admin.GET("/payments/:id", getPaymentHandler)
	admin.POST("/payments/:id/verify", verifyPaymentHandler)
	admin.POST("/payments/:id/reject", rejectPaymentHandler)

	admin.GET("/item-requests", listItemRequestsHandler)
	admin.GET("/item-requests/:id", getItemRequestHandler)
	admin.POST("/item-requests/:id/approve", approveItemRequestHandler)
	admin.POST("/item-requests/:id/reject", rejectItemRequestHandler)

	admin.GET("/payment-modes", listPaymentModesHandler)
	admin.GET("/payment-modes/:id", getPaymentModeHandler)
	admin.POST("/payment-modes", createPaymentModeHandler)
	admin.PUT("/payment-modes/:id", updatePaymentModeHandler)

	admin.GET("/reports/payments-received", paymentsReceivedReportHandler)
	admin.GET("/reports/invoice-balances", invoiceBalancesReportHandler)
}

func listCustomersHandler(c *gin.Context) {
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	customers, err := models.GetCustomers(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func getCustomerHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	customer, err := models.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

func listAllItemsHandler(c *gin.Context) {
	items, err := models.GetItems(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func getItemHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := models.GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func createItemHandler(c *gin.Context) {
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}
	item, err := models.CreateItem(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func updateItemHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}
	item, err := models.UpdateItem(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func listQuotesHandler(c *gin.Context) {
	var status *models.QuoteStatus
	if v := c.Query("status"); v != "" {
		parsed, err := models.ParseQuoteStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = &parsed
	}
	quotes, err := models.GetQuotes(c.Request.Context(), 0, false, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

func getQuoteHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	quote, err := models.GetQuote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

func sendQuoteHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	quote, err := models.SendQuote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

func scrapQuoteHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	quote, err := models.ScrapQuote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

func getSalesOrderHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	order, err := models.GetSalesOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales_order": order})
}

func listSalesOrdersHandler(c *gin.Context) {
	orders, err := models.GetSalesOrders(c.Request.Context(), 0, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales_orders": orders})
}

func sendSalesOrderHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	order, err := models.SendSalesOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales_order": order})
}

type salesOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
}

func updateSalesOrderStatusHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input salesOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}
	status, err := models.ParseSalesOrderStatus(input.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := models.UpdateSalesOrderStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales_order": order})
}

func generateInvoiceHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := models.GenerateInvoiceFromSalesOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
}

// pageLimit parses a ?limit= value and clamps it to config.SearchLimit.
func pageLimit(v string) (int, error) {
	limit, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		return 0, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if limit > config.SearchLimit {
		limit = config.SearchLimit
	}
	return limit, nil
}

// listInvoicesHandler lists invoices, optionally filtered by ?status=. When
// ?limit= is set the listing is cursor-paged (?after= carries the cursor).
func listInvoicesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var status *models.InvoiceStatus
	if v := c.Query("status"); v != "" {
		parsed, err := models.ParseInvoiceStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = &parsed
	}

	if v := c.Query("limit"); v != "" {
		limit, err := pageLimit(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		var after *string
		if a := c.Query("after"); a != "" {
			after = &a
		}
		edges, pageInfo, err := models.GetInvoicesPage(ctx, limit, after, status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"edges": edges, "page_info": pageInfo})
		return
	}

	invoices, err := models.GetInvoices(ctx, 0, false, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func getInvoiceHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := models.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

func voidInvoiceHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := models.VoidInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

func listPaymentsHandler(c *gin.Context) {
	var status *models.PaymentStatus
	if v := c.Query("status"); v != "" {
		normalized := models.NormalizePaymentStatus(v)
		status = &normalized
	}
	payments, err := models.GetPayments(c.Request.Context(), 0, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func getPaymentHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	payment, err := models.GetPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

func verifyPaymentHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	payment, err := workflow.VerifyPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

type rejectInput struct {
	Reason string `json:"reason" binding:"required"`
}

func rejectPaymentHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input rejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}
	payment, err := workflow.RejectPayment(c.Request.Context(), id, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

func listItemRequestsHandler(c *gin.Context) {
	var status *models.ItemRequestStatus
	if v := c.Query("status"); v != "" {
		parsed, err := models.ParseItemRequestStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = &parsed
	}
	requests, err := models.GetItemRequests(c.Request.Context(), status, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_requests": requests})
}

func getItemRequestHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	request, err := models.GetItemRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_request": request})
}

type approveItemRequestInput struct {
	Rate decimal.Decimal `json:"rate" binding:"required"`
}

func approveItemRequestHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input approveItemRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}
	request, err := models.ApproveItemRequest(c.Request.Context(), id, input.Rate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_request": request})
}

func rejectItemRequestHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input rejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}
	request, err := models.RejectItemRequest(c.Request.Context(), id, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_request": request})
}

func getPaymentModeHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	paymentMode, err := models.GetPaymentMode(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_mode": paymentMode})
}

func createPaymentModeHandler(c *gin.Context) {
	var input models.NewPaymentMode
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}
	paymentMode, err := models.CreatePaymentMode(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment_mode": paymentMode})
}

func updatePaymentModeHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewPaymentMode
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}
	paymentMode, err := models.UpdatePaymentMode(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_mode": paymentMode})
}

func dateQuery(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func paymentsReceivedReportHandler(c *gin.Context) {
	now := time.Now()
	fromDate, ok := dateQuery(c, "from", now.AddDate(0, -1, 0))
	if !ok {
		return
	}
	toDate, ok := dateQuery(c, "to", now)
	if !ok {
		return
	}

	records, err := reports.GetPaymentsReceivedReport(c.Request.Context(), fromDate, toDate)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		f, err := reports.ExportPaymentsReceivedExcel(records)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=payments-received.xlsx")
		if err := f.Write(c.Writer); err != nil {
			respondError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments_received": records})
}

func invoiceBalancesReportHandler(c *gin.Context) {
	asOf, ok := dateQuery(c, "as_of", time.Now())
	if !ok {
		return
	}

	records, err := reports.GetInvoiceBalancesReport(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		f, err := reports.ExportInvoiceBalancesExcel(records)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=invoice-balances.xlsx")
		if err := f.Write(c.Writer); err != nil {
			respondError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice_balances": records})
}
