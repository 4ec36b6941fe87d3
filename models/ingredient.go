package models

import "time"

// Ingredient stock is mutated only through the stock ledger, never by
// direct UI edits during fulfillment.
type Ingredient struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"not null;index" json:"restaurant_id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Unit         string `gorm:"type:varchar(20);not null" json:"unit"`

	CurrentStock     float64 `gorm:"type:decimal(12,3);not null;default:0" json:"current_stock"`
	ReorderThreshold float64 `gorm:"type:decimal(12,3);not null;default:0" json:"reorder_threshold"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Recipe links a menu item to the ingredients it consumes. Read-only input
// to the stock ledger; a menu item without a recipe is a valid untracked
// item.
type Recipe struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RestaurantID uint `gorm:"not null;uniqueIndex:idx_recipe_menu_item" json:"restaurant_id"`
	MenuItemID   uint `gorm:"not null;uniqueIndex:idx_recipe_menu_item" json:"menu_item_id"`

	RecipeItems []RecipeItem `gorm:"foreignKey:RecipeID" json:"recipe_items"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

type RecipeItem struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RecipeID     uint       `gorm:"not null;index" json:"recipe_id"`
	Recipe       Recipe     `gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	IngredientID uint       `gorm:"not null;index" json:"ingredient_id"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"ingredient"`

	// Consumption per single unit of the menu item.
	Quantity float64 `gorm:"type:decimal(12,3);not null" json:"quantity"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
