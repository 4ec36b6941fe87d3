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

type OrderController struct {
	DB     *gorm.DB
	Orders *services.OrderService
}

func NewOrderController(db *gorm.DB, orders *services.OrderService) *OrderController {
	return &OrderController{DB: db, Orders: orders}
}

// GetAllOrders -> list orders with items, optionally filtered by status.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	query := oc.DB.Preload("LineItems").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if restaurantID := c.Query("restaurant_id"); restaurantID != "" {
		query = query.Where("restaurant_id = ?", restaurantID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail of one order.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := orderParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	if err := oc.DB.Preload("LineItems").First(&order, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// StartOrder -> new => in_progress.
func (oc *OrderController) StartOrder(c *gin.Context) {
	id, err := orderParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := oc.Orders.Start(id); err != nil {
		respondTransitionError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order started", gin.H{"order_id": id})
}

// CancelOrder -> * => cancelled; voids the invoice and restores stock.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	id, err := orderParam(c)
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

	if err := oc.Orders.Cancel(id, body.Reason); err != nil {
		respondTransitionError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", gin.H{"order_id": id})
}

// CompleteOrder -> in_progress|ready => completed; settles and invoices.
func (oc *OrderController) CompleteOrder(c *gin.Context) {
	id, err := orderParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var conf services.PaymentConfirmation
	if err := c.ShouldBindJSON(&conf); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	invoice, err := oc.Orders.Complete(id, conf)
	if err != nil {
		respondTransitionError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order completed", invoice)
}

// EditOrderItems -> replace line items while new|in_progress.
func (oc *OrderController) EditOrderItems(c *gin.Context) {
	id, err := orderParam(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Items []services.LineItemInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.EditItems(id, body.Items)
	if err != nil {
		respondTransitionError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

func orderParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		return 0, errors.New("invalid order id")
	}
	return uint(id), nil
}

// respondTransitionError maps service errors onto the response envelope:
// validation 400, state conflicts 409, missing rows 404.
func respondTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrUnknownPaymentMethod),
		errors.Is(err, services.ErrSplitMismatch),
		errors.Is(err, services.ErrPaymentExceedsBalance),
		errors.Is(err, services.ErrCustomerSuspended),
		errors.Is(err, services.ErrAmountNotPositive):
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}
