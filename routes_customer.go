package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/billing_portal/middlewares"
	"bitbucket.org/mmdatafocus/billing_portal/models"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

func registerCustomerRoutes(r *gin.Engine) {
	flow := r.Group("/api/flow")
	flow.Use(middlewares.RequireRole(string(models.UserRoleCustomer)))

	flow.GET("/profile", getProfileHandler)
	flow.PUT("/profile", upsertProfileHandler)

	flow.GET("/items", listItemsHandler)
	flow.POST("/document-requests", documentRequestHandler)

	flow.GET("/quotes", listCustomerQuotesHandler)
	flow.POST("/quotes/:id/approve", quoteDecisionHandler(true))
	flow.POST("/quotes/:id/reject", quoteDecisionHandler(false))

	flow.GET("/sales-orders", listCustomerSalesOrdersHandler)
	flow.POST("/sales-orders/:id/approve", salesOrderDecisionHandler(true))
	flow.POST("/sales-orders/:id/reject", salesOrderDecisionHandler(false))

	flow.GET("/invoices", listCustomerInvoicesHandler)
	flow.GET("/invoices/:id", getCustomerInvoiceHandler)

	flow.POST("/payments", createPaymentHandler)
	flow.GET("/payments", listCustomerPaymentsHandler)
	flow.GET("/payments/:id", getCustomerPaymentHandler)
	flow.GET("/receipts", listCustomerReceiptsHandler)

	flow.POST("/item-requests", createItemRequestHandler)
	flow.GET("/item-requests", listCustomerItemRequestsHandler)

	flow.GET("/payment-modes", listPaymentModesHandler)
}

func getProfileHandler(c *gin.Context) {
	customer, err := models.GetCustomerForUser(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

func upsertProfileHandler(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}

	customer, err := models.UpsertCustomerProfile(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

func listItemsHandler(c *gin.Context) {
	items, err := models.GetItems(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type documentRequestInput struct {
	RequestType models.RequestType       `json:"request_type" binding:"required"`
	Lines       []models.NewDocumentLine `json:"lines" binding:"required"`
	Notes       *string                  `json:"notes"`
}

// documentRequestHandler turns a customer's line request into a draft quote,
// a draft sales order, or both.
func documentRequestHandler(c *gin.Context) {
	var input documentRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}
	if !input.RequestType.WantsQuote() && !input.RequestType.WantsSalesOrder() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request_type"})
		return
	}

	ctx := c.Request.Context()
	customer, err := models.GetCustomerForUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{}
	var quoteId *int
	if input.RequestType.WantsQuote() {
		quote, err := models.CreateQuote(ctx, customer.ID, input.Lines, input.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		quoteId = &quote.ID
		response["quote"] = quote
	}
	if input.RequestType.WantsSalesOrder() {
		order, err := models.CreateSalesOrder(ctx, customer.ID, input.Lines, quoteId, input.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		response["sales_order"] = order
	}
	c.JSON(http.StatusCreated, response)
}

func listCustomerQuotesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	customer, err := models.GetCustomerForUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	quotes, err := models.GetQuotes(ctx, customer.ID, true, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

func quoteDecisionHandler(approve bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		quote, err := models.CustomerDecideQuote(c.Request.Context(), id, approve)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"quote": quote})
	}
}

func listCustomerSalesOrdersHandler(c *gin.Context) {
	ctx := c.Request.Context()
	customer, err := models.GetCustomerForUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	orders, err := models.GetSalesOrders(ctx, customer.ID, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales_orders": orders})
}

func salesOrderDecisionHandler(approve bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		order, err := models.CustomerDecideSalesOrder(c.Request.Context(), id, approve)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sales_order": order})
	}
}

func listCustomerInvoicesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	customer, err := models.GetCustomerForUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	invoices, err := models.GetInvoices(ctx, customer.ID, true, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func getCustomerInvoiceHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := models.GetInvoiceForCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

func createPaymentHandler(c *gin.Context) {
	var input models.NewPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}

	payment, err := models.CreatePayment(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

func listCustomerPaymentsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	customer, err := models.GetCustomerForUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	payments, err := models.GetPayments(ctx, customer.ID, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func getCustomerPaymentHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	payment, err := models.GetPaymentForCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// listCustomerReceiptsHandler lists the caller's verified payments. A receipt
// is a payment the business has confirmed against its invoices.
func listCustomerReceiptsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	customer, err := models.GetCustomerForUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	status := models.PaymentStatusVerified
	receipts, err := models.GetPayments(ctx, customer.ID, &status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}

func createItemRequestHandler(c *gin.Context) {
	var input models.NewItemRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		return
	}

	request, err := models.CreateItemRequest(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item_request": request})
}

func listCustomerItemRequestsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	customer, err := models.GetCustomerForUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	requests, err := models.GetItemRequests(ctx, nil, customer.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_requests": requests})
}

func listPaymentModesHandler(c *gin.Context) {
	paymentModes, err := models.GetPaymentModes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_modes": paymentModes})
}
