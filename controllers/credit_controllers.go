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

type CreditController struct {
	DB     *gorm.DB
	Ledger *services.CreditLedger
}

func NewCreditController(db *gorm.DB, ledger *services.CreditLedger) *CreditController {
	return &CreditController{DB: db, Ledger: ledger}
}

// GetAllCustomers -> credit customers with cached balances.
func (cc *CreditController) GetAllCustomers(c *gin.Context) {
	query := cc.DB.Order("name asc")
	if restaurantID := c.Query("restaurant_id"); restaurantID != "" {
		query = query.Where("restaurant_id = ?", restaurantID)
	}

	var customers []models.CreditCustomer
	if err := query.Find(&customers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of credit customers", customers)
}

// GetCustomerTransactions -> the append-only ledger for one customer.
func (cc *CreditController) GetCustomerTransactions(c *gin.Context) {
	id, err := customerParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var txns []models.CreditTransaction
	if err := cc.DB.Where("credit_customer_id = ?", id).
		Order("transaction_date desc").Find(&txns).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Credit transactions", txns)
}

// RecordPayment -> book a payment against the outstanding balance.
func (cc *CreditController) RecordPayment(c *gin.Context) {
	id, err := customerParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Amount float64 `json:"amount" binding:"required"`
		Method string  `json:"method"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Method == "" {
		body.Method = services.PaymentMethodCash
	}

	if err := cc.Ledger.RecordPayment(id, body.Amount, body.Method); err != nil {
		switch {
		case errors.Is(err, services.ErrCustomerNotFound):
			utils.RespondError(c, http.StatusNotFound, err)
		case errors.Is(err, services.ErrPaymentExceedsBalance),
			errors.Is(err, services.ErrAmountNotPositive):
			utils.RespondError(c, http.StatusBadRequest, err)
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment recorded", gin.H{"customer_id": id})
}

// ReconcileCustomer -> compare the cached balance with the ledger sum.
func (cc *CreditController) ReconcileCustomer(c *gin.Context) {
	id, err := customerParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	report, err := cc.Ledger.Reconcile(id)
	if err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reconciliation report", report)
}

func customerParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("customer_id"), 10, 32)
	if err != nil {
		return 0, errors.New("invalid customer id")
	}
	return uint(id), nil
}
