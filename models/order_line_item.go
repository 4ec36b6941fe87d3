package models

import "time"

// OrderLineItem is the normalized line-item shape. Incoming payloads are
// validated into this struct once at the controller boundary; nothing
// downstream deals with optional fields.
type OrderLineItem struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	ItemName       string  `gorm:"type:varchar(255);not null" json:"item_name"`
	MenuItemID     *uint   `gorm:"index" json:"menu_item_id,omitempty"`
	Quantity       int     `gorm:"not null" json:"quantity"`
	UnitPrice      float64 `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate        float64 `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	IsPackagedGood bool    `gorm:"not null;default:false" json:"is_packaged_good"`
	HSN            string  `gorm:"type:varchar(20)" json:"hsn"`
	Notes          string  `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
