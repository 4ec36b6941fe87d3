package models

import "time"

type Restaurant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// RestaurantProfile carries the billing configuration and the letterhead
// fields the document renderer needs.
type RestaurantProfile struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"not null;uniqueIndex" json:"restaurant_id"`
	Restaurant   Restaurant `gorm:"foreignKey:RestaurantID" json:"-"`

	GSTEnabled       bool    `gorm:"not null;default:false" json:"gst_enabled"`
	PricesIncludeTax bool    `gorm:"not null;default:false" json:"prices_include_tax"`
	DefaultTaxRate   float64 `gorm:"type:decimal(5,2);not null;default:0" json:"default_tax_rate"`

	GSTIN        string `gorm:"type:varchar(20)" json:"gstin"`
	Phone        string `gorm:"type:varchar(20)" json:"phone"`
	SupportEmail string `gorm:"type:varchar(255)" json:"support_email"`
	AddressLine1 string `gorm:"type:varchar(255)" json:"address_line1"`
	AddressLine2 string `gorm:"type:varchar(255)" json:"address_line2"`
	City         string `gorm:"type:varchar(100)" json:"city"`
	State        string `gorm:"type:varchar(100)" json:"state"`
	Pincode      string `gorm:"type:varchar(10)" json:"pincode"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
