package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/billing_portal/models"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

func newCustomerTestRouter(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if role != "" {
		r.Use(func(c *gin.Context) {
			ctx := utils.SetUserRoleInContext(c.Request.Context(), role)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
	registerCustomerRoutes(r)
	return r
}

func TestCustomerRouteSurface(t *testing.T) {
	r := newCustomerTestRouter("")

	wanted := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/flow/profile"},
		{http.MethodGet, "/api/flow/quotes"},
		{http.MethodGet, "/api/flow/sales-orders"},
		{http.MethodGet, "/api/flow/invoices"},
		{http.MethodGet, "/api/flow/payments"},
		{http.MethodGet, "/api/flow/receipts"},
		{http.MethodGet, "/api/flow/payment-modes"},
	}

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, w := range wanted {
		if !registered[w.method+" "+w.path] {
			t.Errorf("route %s %s not registered", w.method, w.path)
		}
	}
}

func TestReceiptsRejectsUnauthenticated(t *testing.T) {
	r := newCustomerTestRouter("")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/flow/receipts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestReceiptsRejectsNonCustomerRole(t *testing.T) {
	r := newCustomerTestRouter(string(models.UserRoleAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/flow/receipts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected %d, got %d", http.StatusForbidden, w.Code)
	}
}
