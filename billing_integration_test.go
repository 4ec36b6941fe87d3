package main

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/database"
	"github.com/annapurna-pos/backend/models"
	"github.com/annapurna-pos/backend/router"
	"github.com/annapurna-pos/backend/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndBillingFlow drives the main fulfillment path:
// 1. Start a ready order
// 2. Complete it with cash -> paid invoice FY24-25/000001
// 3. Regenerate the invoice -> renumbered, prior voided
// 4. Cancel a second order -> stock restored, its invoice voided
// 5. Record a credit payment and reconcile the ledger
func TestEndToEndBillingFlow(t *testing.T) {
	db := setupIntegrationDB()
	r := router.SetupRouter(db)

	startOrderTest(t, r, 1)
	completeOrderCashTest(t, r, 1)
	regenerateInvoiceTest(t, r, 1)

	generateInvoiceTest(t, r, 2)
	cancelOrderTest(t, r, 2)
	verifyStockRestoredTest(t, db)

	creditPaymentTest(t, r, 1)
}

// setupIntegrationDB -> in-memory SQLite, full migration, seed data.
func setupIntegrationDB() *gorm.DB {
	dsn := "file:billing_integration?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Restaurant{},
		&models.RestaurantProfile{},
		&models.Order{},
		&models.OrderLineItem{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.InvoiceCounter{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeItem{},
		&models.CreditCustomer{},
		&models.CreditTransaction{},
	)
	if err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	if err := database.EnsureConstraints(db); err != nil {
		log.Fatalf("failed to ensure constraints: %v", err)
	}

	restaurant := models.Restaurant{Name: "Annapurna Bhavan", Status: "active"}
	db.Create(&restaurant)
	db.Create(&models.RestaurantProfile{
		RestaurantID:   restaurant.ID,
		GSTEnabled:     true,
		DefaultTaxRate: 18,
	})

	// Paneer Tikka (menu item 10) consumes 0.5 kg paneer per plate.
	paneer := models.Ingredient{
		RestaurantID:     restaurant.ID,
		Name:             "paneer",
		Unit:             "kg",
		CurrentStock:     10,
		ReorderThreshold: 2,
	}
	db.Create(&paneer)
	recipe := models.Recipe{RestaurantID: restaurant.ID, MenuItemID: 10}
	db.Create(&recipe)
	db.Create(&models.RecipeItem{RecipeID: recipe.ID, IngredientID: paneer.ID, Quantity: 0.5})

	createdAt := time.Date(2024, time.July, 15, 13, 0, 0, 0, time.UTC)
	menuItemID := uint(10)

	// Order 1: started and completed through the happy path.
	order1 := models.Order{RestaurantID: restaurant.ID, Status: "new", OrderType: "dine_in", CreatedAt: createdAt}
	db.Create(&order1)
	db.Create(&models.OrderLineItem{OrderID: order1.ID, ItemName: "Masala Dosa", Quantity: 2, UnitPrice: 100})

	// Order 2: billed then cancelled, driving the stock restore.
	order2 := models.Order{RestaurantID: restaurant.ID, Status: "ready", OrderType: "dine_in", CreatedAt: createdAt}
	db.Create(&order2)
	db.Create(&models.OrderLineItem{
		OrderID: order2.ID, ItemName: "Paneer Tikka", MenuItemID: &menuItemID, Quantity: 4, UnitPrice: 150,
	})

	db.Create(&models.CreditCustomer{
		RestaurantID:   restaurant.ID,
		Name:           "Sharma Traders",
		Phone:          "9876543210",
		Status:         "active",
		CurrentBalance: 0,
	})
	db.Create(&models.CreditTransaction{
		RestaurantID:     restaurant.ID,
		CreditCustomerID: 1,
		TransactionType:  "credit",
		Amount:           500,
		TransactionDate:  createdAt,
	})
	db.Model(&models.CreditCustomer{}).Where("id = ?", 1).Update("current_balance", 500)

	return db
}

// startOrderTest -> POST /orders/:id/start => in_progress
func startOrderTest(t *testing.T, r *gin.Engine, orderID uint) {
	w := doRequest(r, http.MethodPost, "/orders/"+uintToString(orderID)+"/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("startOrderTest: code=%d, body=%s", w.Code, w.Body.String())
	}
	if got := fetchOrderStatus(t, r, orderID); got != "in_progress" {
		t.Fatalf("startOrderTest: want 'in_progress', got %s", got)
	}
}

// completeOrderCashTest -> POST /orders/:id/complete => paid invoice.
func completeOrderCashTest(t *testing.T, r *gin.Engine, orderID uint) {
	body := map[string]interface{}{"method": "cash"}
	w := doRequest(r, http.MethodPost, "/orders/"+uintToString(orderID)+"/complete", body)
	if w.Code != http.StatusOK {
		t.Fatalf("completeOrderCashTest: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			InvoiceNo   string  `json:"invoice_no"`
			Status      string  `json:"status"`
			TotalIncTax float64 `json:"total_inc_tax"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.InvoiceNo != "FY24-25/000001" {
		t.Fatalf("completeOrderCashTest: want FY24-25/000001, got %s", resp.Data.InvoiceNo)
	}
	if resp.Data.Status != "paid" {
		t.Fatalf("completeOrderCashTest: want invoice status 'paid', got %s", resp.Data.Status)
	}
	if resp.Data.TotalIncTax != 236 {
		t.Fatalf("completeOrderCashTest: want total 236, got %.2f", resp.Data.TotalIncTax)
	}
}

// regenerateInvoiceTest -> new number, old invoice voided in place.
func regenerateInvoiceTest(t *testing.T, r *gin.Engine, orderID uint) {
	body := map[string]interface{}{"reason": "customer requested gstin on invoice"}
	w := doRequest(r, http.MethodPost, "/orders/"+uintToString(orderID)+"/invoice/regenerate", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("regenerateInvoiceTest: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			InvoiceNo        string `json:"invoice_no"`
			GenerationMethod string `json:"generation_method"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.InvoiceNo != "FY24-25/000002" {
		t.Fatalf("regenerateInvoiceTest: want FY24-25/000002, got %s", resp.Data.InvoiceNo)
	}
	if resp.Data.GenerationMethod != "manual_regeneration" {
		t.Fatalf("regenerateInvoiceTest: want manual_regeneration, got %s", resp.Data.GenerationMethod)
	}

	// The first invoice keeps its number but is void now.
	wList := doRequest(r, http.MethodGet, "/invoices?status=void", nil)
	var listResp struct {
		Data []struct {
			InvoiceNo string `json:"invoice_no"`
		} `json:"data"`
	}
	json.Unmarshal(wList.Body.Bytes(), &listResp)
	if len(listResp.Data) != 1 || listResp.Data[0].InvoiceNo != "FY24-25/000001" {
		t.Fatalf("regenerateInvoiceTest: want one void invoice FY24-25/000001, got %+v", listResp.Data)
	}
}

// generateInvoiceTest -> pre-billing before the order is completed.
func generateInvoiceTest(t *testing.T, r *gin.Engine, orderID uint) {
	w := doRequest(r, http.MethodPost, "/orders/"+uintToString(orderID)+"/invoice", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("generateInvoiceTest: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			InvoiceNo string `json:"invoice_no"`
			Status    string `json:"status"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.InvoiceNo != "FY24-25/000003" {
		t.Fatalf("generateInvoiceTest: want FY24-25/000003, got %s", resp.Data.InvoiceNo)
	}
	if resp.Data.Status != "open" {
		t.Fatalf("generateInvoiceTest: want 'open', got %s", resp.Data.Status)
	}
}

// cancelOrderTest -> cancelled order, its open invoice voided.
func cancelOrderTest(t *testing.T, r *gin.Engine, orderID uint) {
	body := map[string]interface{}{"reason": "guest left before serving"}
	w := doRequest(r, http.MethodPost, "/orders/"+uintToString(orderID)+"/cancel", body)
	if w.Code != http.StatusOK {
		t.Fatalf("cancelOrderTest: code=%d, body=%s", w.Code, w.Body.String())
	}
	if got := fetchOrderStatus(t, r, orderID); got != "cancelled" {
		t.Fatalf("cancelOrderTest: want 'cancelled', got %s", got)
	}

	wList := doRequest(r, http.MethodGet, "/invoices?status=void", nil)
	var listResp struct {
		Data []struct {
			InvoiceNo string `json:"invoice_no"`
		} `json:"data"`
	}
	json.Unmarshal(wList.Body.Bytes(), &listResp)
	if len(listResp.Data) != 2 {
		t.Fatalf("cancelOrderTest: want 2 void invoices, got %d", len(listResp.Data))
	}
}

// verifyStockRestoredTest -> Paneer Tikka x4 at 0.5 kg gives back 2 kg.
func verifyStockRestoredTest(t *testing.T, db *gorm.DB) {
	var paneer models.Ingredient
	if err := db.Where("name = ?", "paneer").First(&paneer).Error; err != nil {
		t.Fatalf("verifyStockRestoredTest: %v", err)
	}
	if paneer.CurrentStock != 12 {
		t.Fatalf("verifyStockRestoredTest: want stock 12, got %.2f", paneer.CurrentStock)
	}
}

// creditPaymentTest -> settle part of the khata and reconcile.
func creditPaymentTest(t *testing.T, r *gin.Engine, customerID uint) {
	body := map[string]interface{}{"amount": 300, "method": "cash"}
	w := doRequest(r, http.MethodPost, "/credit-customers/"+uintToString(customerID)+"/payments", body)
	if w.Code != http.StatusOK {
		t.Fatalf("creditPaymentTest: code=%d, body=%s", w.Code, w.Body.String())
	}

	wRec := doRequest(r, http.MethodGet, "/credit-customers/"+uintToString(customerID)+"/reconcile", nil)
	if wRec.Code != http.StatusOK {
		t.Fatalf("creditPaymentTest reconcile: code=%d, body=%s", wRec.Code, wRec.Body.String())
	}

	var resp struct {
		Data struct {
			LedgerBalance float64 `json:"ledger_balance"`
			CachedBalance float64 `json:"cached_balance"`
			Drift         float64 `json:"drift"`
		} `json:"data"`
	}
	json.Unmarshal(wRec.Body.Bytes(), &resp)
	if resp.Data.LedgerBalance != 200 || resp.Data.CachedBalance != 200 {
		t.Fatalf("creditPaymentTest: want balance 200/200, got %.2f/%.2f",
			resp.Data.LedgerBalance, resp.Data.CachedBalance)
	}
	if resp.Data.Drift != 0 {
		t.Fatalf("creditPaymentTest: want zero drift, got %.2f", resp.Data.Drift)
	}
}

func fetchOrderStatus(t *testing.T, r *gin.Engine, orderID uint) string {
	w := doRequest(r, http.MethodGet, "/orders/"+uintToString(orderID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fetchOrderStatus: code=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Data.Status
}

func doRequest(r *gin.Engine, method, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func uintToString(num uint) string {
	return strconv.FormatUint(uint64(num), 10)
}
