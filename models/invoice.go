package models

import "time"

// Invoice is the legally-issued billing record for one order. At most one
// non-void invoice exists per order; voided invoices keep their rows and
// their numbers forever.
type Invoice struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"not null;uniqueIndex:idx_invoice_no" json:"restaurant_id"`
	Restaurant   Restaurant `gorm:"foreignKey:RestaurantID" json:"-"`
	OrderID      uint       `gorm:"not null;index" json:"order_id"`

	// Format: FY{YY}-{YY+1}/{000001}, sequence scoped per restaurant per
	// fiscal year. The unique index is the allocator's conflict detector.
	InvoiceNo   string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_invoice_no" json:"invoice_no"`
	InvoiceDate time.Time `gorm:"not null" json:"invoice_date"`

	PricingMode string `gorm:"type:varchar(10);not null;default:'exclusive'" json:"pricing_mode"`

	SubtotalExTax float64 `gorm:"type:decimal(12,2);not null" json:"subtotal_ex_tax"`
	TotalTax      float64 `gorm:"type:decimal(12,2);not null" json:"total_tax"`
	TotalIncTax   float64 `gorm:"type:decimal(12,2);not null" json:"total_inc_tax"`
	CGST          float64 `gorm:"type:decimal(12,2);not null;default:0" json:"cgst"`
	SGST          float64 `gorm:"type:decimal(12,2);not null;default:0" json:"sgst"`
	IGST          float64 `gorm:"type:decimal(12,2);not null;default:0" json:"igst"`

	PaymentMethod    string `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`
	Status           string `gorm:"type:varchar(10);not null;default:'open'" json:"status"`
	GenerationMethod string `gorm:"type:varchar(30);not null;default:'auto'" json:"generation_method"`
	VoidReason       string `gorm:"type:text" json:"void_reason,omitempty"`

	CreditCustomerID *uint `gorm:"index" json:"credit_customer_id,omitempty"`

	// Opaque artifact reference returned by the document renderer.
	PdfURL string `gorm:"type:varchar(512)" json:"pdf_url,omitempty"`

	InvoiceItems []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"invoice_items"`

	ClosedDate *time.Time `json:"closed_date,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

// InvoiceItem rows are replaced wholesale on regeneration and immutable
// otherwise. LineNo is 1-based and dense within an invoice.
type InvoiceItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	InvoiceID uint    `gorm:"not null;index" json:"invoice_id"`
	Invoice   Invoice `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	LineNo   int    `gorm:"not null" json:"line_no"`
	ItemName string `gorm:"type:varchar(255);not null" json:"item_name"`
	HSN      string `gorm:"type:varchar(20)" json:"hsn"`
	Qty      int    `gorm:"not null" json:"qty"`

	UnitRateExTax   float64 `gorm:"type:decimal(12,2);not null" json:"unit_rate_ex_tax"`
	TaxRate         float64 `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	TaxAmount       float64 `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	LineTotalExTax  float64 `gorm:"type:decimal(12,2);not null" json:"line_total_ex_tax"`
	LineTotalIncTax float64 `gorm:"type:decimal(12,2);not null" json:"line_total_inc_tax"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// InvoiceCounter is the durable sequence cursor for one (restaurant, fiscal
// year) pair. LastNumber is monotonically non-decreasing.
type InvoiceCounter struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"not null;uniqueIndex:idx_counter_scope" json:"restaurant_id"`
	FYStart      string `gorm:"type:varchar(10);not null;uniqueIndex:idx_counter_scope" json:"fy_start"`
	LastNumber   int64  `gorm:"not null;default:0" json:"last_number"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
