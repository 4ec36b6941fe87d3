package models

import "time"

// CreditCustomer holds a cached running balance. The balance is a
// projection of the transaction log and must always reconcile with it.
type CreditCustomer struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"not null;index" json:"restaurant_id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Phone        string `gorm:"type:varchar(20)" json:"phone"`

	CurrentBalance float64 `gorm:"type:decimal(12,2);not null;default:0" json:"current_balance"`
	Status         string  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// CreditTransaction is one row of the append-only credit ledger. Rows are
// never updated or deleted.
type CreditTransaction struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	RestaurantID     uint           `gorm:"not null;index" json:"restaurant_id"`
	CreditCustomerID uint           `gorm:"not null;index" json:"credit_customer_id"`
	CreditCustomer   CreditCustomer `gorm:"foreignKey:CreditCustomerID" json:"-"`

	OrderID *uint `gorm:"index" json:"order_id,omitempty"`

	// credit and adjustment raise the balance, payment lowers it.
	TransactionType string  `gorm:"type:varchar(20);not null" json:"transaction_type"`
	Amount          float64 `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod   string  `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	Description     string  `gorm:"type:text" json:"description,omitempty"`

	TransactionDate time.Time `gorm:"not null" json:"transaction_date"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}
