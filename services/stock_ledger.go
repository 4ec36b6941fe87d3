package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/models"
	"github.com/annapurna-pos/backend/utils"
)

// StockLedger owns every mutation of ingredient stock during fulfillment.
// The UI never writes stock directly; restoration happens here, on order
// cancellation only (consumption is booked upstream when the order is
// raised).
type StockLedger struct {
	db *gorm.DB
}

func NewStockLedger(db *gorm.DB) *StockLedger {
	return &StockLedger{db: db}
}

// Restore adds the recipe quantities for the given line items back to
// ingredient stock, all in one transaction. Packaged goods have no
// ingredient linkage and are skipped; a line item without a recipe is a
// valid untracked item and a silent no-op. At-most-once application is the
// state machine's job — this method is an unconditional additive update.
func (l *StockLedger) Restore(restaurantID uint, items []models.OrderLineItem) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		return l.RestoreTx(tx, restaurantID, items)
	})
}

// RestoreTx is Restore inside a caller-owned transaction, so cancellation
// can flip the order status and restore stock atomically.
func (l *StockLedger) RestoreTx(tx *gorm.DB, restaurantID uint, items []models.OrderLineItem) error {
	for _, item := range items {
		if item.IsPackagedGood || item.MenuItemID == nil {
			continue
		}

		var recipe models.Recipe
		err := tx.Preload("RecipeItems").
			Where("restaurant_id = ? AND menu_item_id = ?", restaurantID, *item.MenuItemID).
			First(&recipe).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		for _, ri := range recipe.RecipeItems {
			delta := ri.Quantity * float64(item.Quantity)
			if delta <= 0 {
				continue
			}
			if err := tx.Model(&models.Ingredient{}).
				Where("id = ? AND restaurant_id = ?", ri.IngredientID, restaurantID).
				Update("current_stock", gorm.Expr("current_stock + ?", delta)).Error; err != nil {
				return err
			}
			utils.InfoLogger.Printf("restored %.3f of ingredient %d for item %q",
				delta, ri.IngredientID, item.ItemName)
		}
	}
	return nil
}

// LowStock lists ingredients at or below their reorder threshold.
func (l *StockLedger) LowStock(restaurantID uint) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := l.db.
		Where("restaurant_id = ? AND current_stock <= reorder_threshold", restaurantID).
		Order("name asc").
		Find(&ingredients).Error
	return ingredients, err
}
