package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/models"
	"github.com/annapurna-pos/backend/utils"
)

// Invoice statuses
const (
	InvoiceStatusPaid = "paid"
	InvoiceStatusOpen = "open"
	InvoiceStatusVoid = "void"
)

// Generation methods
const (
	GenerationAuto   = "auto"
	GenerationManual = "manual_regeneration"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// InvoiceService composes the tax engine and the sequence allocator to
// create, regenerate and void invoices for orders. Document rendering is
// delegated to the external collaborator after commit.
type InvoiceService struct {
	db        *gorm.DB
	allocator *SequenceAllocator
	renderer  DocumentRenderer
}

func NewInvoiceService(db *gorm.DB, renderer DocumentRenderer) *InvoiceService {
	return &InvoiceService{
		db:        db,
		allocator: NewSequenceAllocator(db),
		renderer:  renderer,
	}
}

// billedLine pairs an order line with its resolved rate, pricing mode and
// computed amounts.
type billedLine struct {
	item    models.OrderLineItem
	taxRate float64
	amounts LineAmounts
}

// billLines resolves the effective tax treatment per line and runs the tax
// engine. Packaged goods carry their own (MRP-inclusive) rate; service items
// take the profile default, honoring the profile's pricing mode. With GST
// disabled everything is flat.
func billLines(profile *models.RestaurantProfile, items []models.OrderLineItem) []billedLine {
	lines := make([]billedLine, 0, len(items))
	for _, it := range items {
		rate := 0.0
		mode := PricingExclusive
		if profile.GSTEnabled {
			if it.IsPackagedGood {
				rate = it.TaxRate
				mode = PricingInclusive
			} else {
				rate = profile.DefaultTaxRate
				if profile.PricesIncludeTax {
					mode = PricingInclusive
				}
			}
		}
		lines = append(lines, billedLine{
			item:    it,
			taxRate: rate,
			amounts: ComputeLine(it.Quantity, it.UnitPrice, rate, mode),
		})
	}
	return lines
}

// OrderGrandTotal computes the tax-inclusive total an invoice for these
// lines would carry, without persisting anything. The state machine uses it
// to validate mixed payment splits before committing.
func OrderGrandTotal(profile *models.RestaurantProfile, items []models.OrderLineItem) float64 {
	lines := billLines(profile, items)
	amounts := make([]LineAmounts, len(lines))
	for i, l := range lines {
		amounts[i] = l.amounts
	}
	_, _, inc := SumLines(amounts)
	return inc
}

// CreateFromOrder creates the invoice for an order, or returns the existing
// active one — calling it twice never allocates a second number.
func (s *InvoiceService) CreateFromOrder(orderID uint) (*models.Invoice, error) {
	return s.create(orderID, GenerationAuto)
}

// Regenerate voids the order's active invoice and issues a fresh one under a
// new number. Issued numbers are never reused: renumbering keeps the audit
// trail legally safe, the old record stays on file as void.
func (s *InvoiceService) Regenerate(orderID uint, reason string) (*models.Invoice, error) {
	if reason == "" {
		return nil, fmt.Errorf("regeneration requires a reason")
	}
	var existing models.Invoice
	err := s.db.Where("order_id = ? AND status != ?", orderID, InvoiceStatusVoid).
		First(&existing).Error
	if err == nil {
		if err := s.Void(existing.ID, "regenerated: "+reason); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.create(orderID, GenerationManual)
}

func (s *InvoiceService) create(orderID uint, generationMethod string) (*models.Invoice, error) {
	// Idempotent entry: an active invoice short-circuits.
	var existing models.Invoice
	err := s.db.Preload("InvoiceItems").
		Where("order_id = ? AND status != ?", orderID, InvoiceStatusVoid).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var order models.Order
	if err := s.db.Preload("LineItems").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("order %d not found: %w", orderID, err)
	}
	var restaurant models.Restaurant
	if err := s.db.First(&restaurant, order.RestaurantID).Error; err != nil {
		return nil, fmt.Errorf("restaurant %d not found: %w", order.RestaurantID, err)
	}
	profile, err := s.profileFor(order.RestaurantID)
	if err != nil {
		return nil, err
	}

	lines := billLines(profile, order.LineItems)
	amounts := make([]LineAmounts, len(lines))
	for i, l := range lines {
		amounts[i] = l.amounts
	}
	subtotalEx, totalTax, totalInc := SumLines(amounts)

	pricingMode := PricingExclusive
	if profile.PricesIncludeTax {
		pricingMode = PricingInclusive
	}

	// The fiscal year comes from the order's creation time, not from
	// today: a bill settled past midnight still belongs to the year it
	// was raised in.
	fy := FiscalYear(order.CreatedAt)

	invoice := models.Invoice{
		RestaurantID:     order.RestaurantID,
		OrderID:          order.ID,
		InvoiceDate:      time.Now(),
		PricingMode:      pricingMode,
		SubtotalExTax:    subtotalEx,
		TotalTax:         totalTax,
		TotalIncTax:      totalInc,
		PaymentMethod:    order.PaymentMethod,
		Status:           InvoiceStatusOpen,
		GenerationMethod: generationMethod,
		CreditCustomerID: order.CreditCustomerID,
	}
	if profile.GSTEnabled {
		// Intra-state sale: tax splits evenly into CGST and SGST.
		invoice.CGST = totalTax / 2
		invoice.SGST = totalTax / 2
	}

	_, attempts, err := s.allocator.Allocate(order.RestaurantID, fy, func(tx *gorm.DB, seq int64) error {
		// Reset per attempt: a retried insert must not carry over state
		// from the aborted one.
		invoice.ID = 0
		invoice.InvoiceItems = nil
		invoice.InvoiceNo = FormatInvoiceNo(fy, seq)
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		for i, l := range lines {
			item := models.InvoiceItem{
				InvoiceID:       invoice.ID,
				LineNo:          i + 1,
				ItemName:        l.item.ItemName,
				HSN:             l.item.HSN,
				Qty:             l.item.Quantity,
				UnitRateExTax:   l.amounts.UnitRateExTax,
				TaxRate:         l.taxRate,
				TaxAmount:       l.amounts.TaxAmount,
				LineTotalExTax:  l.amounts.LineTotalExTax,
				LineTotalIncTax: l.amounts.LineTotalIncTax,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			invoice.InvoiceItems = append(invoice.InvoiceItems, item)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAllocateExhausted) || errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent caller may have won the active-invoice slot for
			// this order; idempotence says hand theirs back.
			var winner models.Invoice
			lookupErr := s.db.Preload("InvoiceItems").
				Where("order_id = ? AND status != ?", orderID, InvoiceStatusVoid).
				First(&winner).Error
			if lookupErr == nil {
				return &winner, nil
			}
		}
		return nil, err
	}
	if attempts > 1 {
		utils.InfoLogger.Printf("invoice %s allocated after %d attempts", invoice.InvoiceNo, attempts)
	}

	// Fire-and-forget: the invoice is committed, rendering must never undo
	// that.
	go s.renderAndAttach(invoice, restaurant, *profile)

	return &invoice, nil
}

// Void marks an invoice permanently inactive. The row and its number are
// kept forever; voiding an already-void invoice is a no-op.
func (s *InvoiceService) Void(invoiceID uint, reason string) error {
	var invoice models.Invoice
	if err := s.db.First(&invoice, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvoiceNotFound
		}
		return err
	}
	if invoice.Status == InvoiceStatusVoid {
		return nil
	}
	now := time.Now()
	return s.db.Model(&invoice).Updates(map[string]interface{}{
		"status":      InvoiceStatusVoid,
		"void_reason": reason,
		"closed_date": &now,
	}).Error
}

// ActiveInvoiceForOrder returns the order's non-void invoice, if any.
func (s *InvoiceService) ActiveInvoiceForOrder(orderID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.Where("order_id = ? AND status != ?", orderID, InvoiceStatusVoid).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *InvoiceService) profileFor(restaurantID uint) (*models.RestaurantProfile, error) {
	var profile models.RestaurantProfile
	err := s.db.Where("restaurant_id = ?", restaurantID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// A restaurant without a profile bills flat with no tax.
		return &models.RestaurantProfile{RestaurantID: restaurantID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *InvoiceService) renderAndAttach(invoice models.Invoice, restaurant models.Restaurant, profile models.RestaurantProfile) {
	ref, err := s.renderer.Render(RenderPayload{
		Invoice:      invoice,
		Items:        invoice.InvoiceItems,
		Restaurant:   restaurant,
		Profile:      profile,
		DisplayTotal: utils.FormatCurrencyINR(invoice.TotalIncTax),
	})
	if err != nil {
		utils.ErrorLogger.Printf("renderer failed for invoice %s: %v", invoice.InvoiceNo, err)
		return
	}
	if err := s.db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Update("pdf_url", ref).Error; err != nil {
		utils.ErrorLogger.Printf("failed to record artifact for invoice %s: %v", invoice.InvoiceNo, err)
	}
}
