package models

import "time"

// Order is the fulfillment aggregate. Orders are created by the ordering
// endpoint (out of scope here) and only ever transitioned by the state
// machine; they are never deleted.
type Order struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"not null;index" json:"restaurant_id"`
	Restaurant   Restaurant `gorm:"foreignKey:RestaurantID" json:"-"`

	Status      string  `gorm:"type:varchar(20);not null;default:'new'" json:"status"`
	OrderType   string  `gorm:"type:varchar(20);not null;default:'dine_in'" json:"order_type"`
	TableNumber *string `gorm:"type:varchar(10)" json:"table_number,omitempty"`

	PaymentMethod string `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`
	// Cash/online portions of a mixed payment, recorded at completion.
	MixedCashAmount   float64 `gorm:"type:decimal(12,2);not null;default:0" json:"mixed_cash_amount"`
	MixedOnlineAmount float64 `gorm:"type:decimal(12,2);not null;default:0" json:"mixed_online_amount"`

	IsCredit         bool            `gorm:"not null;default:false" json:"is_credit"`
	CreditCustomerID *uint           `gorm:"index" json:"credit_customer_id,omitempty"`
	CreditCustomer   *CreditCustomer `gorm:"foreignKey:CreditCustomerID" json:"credit_customer,omitempty"`

	TotalAmount  float64 `gorm:"type:decimal(12,2);not null;default:0.00" json:"total_amount"`
	CancelReason string  `gorm:"type:text" json:"cancel_reason,omitempty"`

	LineItems []OrderLineItem `gorm:"foreignKey:OrderID" json:"line_items"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}
