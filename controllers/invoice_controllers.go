package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/models"
	"github.com/annapurna-pos/backend/services"
	"github.com/annapurna-pos/backend/utils"
)

type InvoiceController struct {
	DB       *gorm.DB
	Invoices *services.InvoiceService
}

func NewInvoiceController(db *gorm.DB, invoices *services.InvoiceService) *InvoiceController {
	return &InvoiceController{DB: db, Invoices: invoices}
}

// GetAllInvoices -> list invoices, optionally by restaurant and fiscal year.
func (ic *InvoiceController) GetAllInvoices(c *gin.Context) {
	query := ic.DB.Order("invoice_no desc")
	if restaurantID := c.Query("restaurant_id"); restaurantID != "" {
		query = query.Where("restaurant_id = ?", restaurantID)
	}
	if fy := c.Query("fy"); fy != "" {
		query = query.Where("invoice_no LIKE ?", fy+"/%")
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of invoices", invoices)
}

// GetInvoiceByID -> one invoice with its lines.
func (ic *InvoiceController) GetInvoiceByID(c *gin.Context) {
	id, err := invoiceParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var invoice models.Invoice
	if err := ic.DB.Preload("InvoiceItems").First(&invoice, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Invoice detail", invoice)
}

// GenerateInvoice -> create (or idempotently return) the order's invoice.
func (ic *InvoiceController) GenerateInvoice(c *gin.Context) {
	orderID, err := orderParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	invoice, err := ic.Invoices.CreateFromOrder(orderID)
	if err != nil {
		if errors.Is(err, services.ErrAllocateExhausted) {
			utils.RespondError(c, http.StatusServiceUnavailable, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Invoice generated", invoice)
}

// RegenerateInvoice -> void the active invoice and issue a renumbered one.
func (ic *InvoiceController) RegenerateInvoice(c *gin.Context) {
	orderID, err := orderParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	invoice, err := ic.Invoices.Regenerate(orderID, body.Reason)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Invoice regenerated", invoice)
}

// VoidInvoice -> mark an invoice void, keeping its row and number.
func (ic *InvoiceController) VoidInvoice(c *gin.Context) {
	id, err := invoiceParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ic.Invoices.Void(id, body.Reason); err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Invoice voided", gin.H{"invoice_id": id})
}

func invoiceParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("invoice_id"), 10, 32)
	if err != nil {
		return 0, errors.New("invalid invoice id")
	}
	return uint(id), nil
}
