package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/services"
	"github.com/annapurna-pos/backend/utils"
)

type IngredientController struct {
	DB    *gorm.DB
	Stock *services.StockLedger
}

func NewIngredientController(db *gorm.DB, stock *services.StockLedger) *IngredientController {
	return &IngredientController{DB: db, Stock: stock}
}

// GetLowStock -> ingredients at or below their reorder threshold.
func (ic *IngredientController) GetLowStock(c *gin.Context) {
	restaurantID, err := strconv.ParseUint(c.Query("restaurant_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ingredients, err := ic.Stock.LowStock(uint(restaurantID))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Low stock ingredients", ingredients)
}
