package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/models"
	"github.com/annapurna-pos/backend/utils"
)

// Order statuses
const (
	OrderStatusNew        = "new"
	OrderStatusInProgress = "in_progress"
	OrderStatusReady      = "ready"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Payment methods
const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"
	PaymentMethodMixed  = "mixed"
	PaymentMethodCredit = "credit"
)

// A mixed split must match the invoice total to the paisa.
const splitTolerance = 0.01

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidTransition    = errors.New("invalid order transition")
	ErrReasonRequired       = errors.New("cancellation requires a reason")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrSplitMismatch        = errors.New("mixed payment split does not match invoice total")
	errConcurrentTransition = errors.New("order transitioned concurrently")
)

// PaymentConfirmation carries the staff-confirmed settlement for a
// completion. For mixed payments the cash and online portions must sum to
// the invoice total.
type PaymentConfirmation struct {
	Method       string  `json:"method"`
	CashAmount   float64 `json:"cash_amount"`
	OnlineAmount float64 `json:"online_amount"`
}

// LineItemInput is the loosely-typed shape arriving from clients. It is
// normalized into models.OrderLineItem exactly once, at this boundary.
type LineItemInput struct {
	ItemName       string  `json:"item_name"`
	MenuItemID     *uint   `json:"menu_item_id,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	TaxRate        float64 `json:"tax_rate"`
	IsPackagedGood bool    `json:"is_packaged_good"`
	HSN            string  `json:"hsn"`
	Notes          string  `json:"notes"`
}

// NormalizeLineItems validates client line items into the canonical shape,
// rejecting bad fields instead of letting nullable access spread downstream.
func NormalizeLineItems(inputs []LineItemInput) ([]models.OrderLineItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("order must have at least one line item")
	}
	items := make([]models.OrderLineItem, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.ItemName)
		if name == "" {
			return nil, fmt.Errorf("line %d: item name is required", i+1)
		}
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("line %d: quantity must be positive", i+1)
		}
		if in.UnitPrice < 0 {
			return nil, fmt.Errorf("line %d: unit price cannot be negative", i+1)
		}
		if in.TaxRate < 0 {
			in.TaxRate = 0
		}
		items = append(items, models.OrderLineItem{
			ItemName:       name,
			MenuItemID:     in.MenuItemID,
			Quantity:       in.Quantity,
			UnitPrice:      in.UnitPrice,
			TaxRate:        in.TaxRate,
			IsPackagedGood: in.IsPackagedGood,
			HSN:            strings.TrimSpace(in.HSN),
			Notes:          in.Notes,
		})
	}
	return items, nil
}

// OrderService drives the fulfillment state machine. It is the only
// component with cross-cutting side effects: invoices, stock and credit are
// touched from here and nowhere else. Every transition is gated by a
// conditional UPDATE on the persisted status, so duplicate UI events and
// concurrent terminals collapse into no-ops server-side.
type OrderService struct {
	db       *gorm.DB
	invoices *InvoiceService
	stock    *StockLedger
	credit   *CreditLedger
	printer  TicketPrinter
}

func NewOrderService(db *gorm.DB, invoices *InvoiceService, stock *StockLedger, credit *CreditLedger, printer TicketPrinter) *OrderService {
	return &OrderService{
		db:       db,
		invoices: invoices,
		stock:    stock,
		credit:   credit,
		printer:  printer,
	}
}

// Start moves a new order into preparation. No side effects beyond status
// and timestamp; starting an already-started order is a no-op.
func (s *OrderService) Start(orderID uint) error {
	res := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, OrderStatusNew).
		Update("status", OrderStatusInProgress)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	status, err := s.currentStatus(orderID)
	if err != nil {
		return err
	}
	if status == OrderStatusInProgress {
		return nil
	}
	return fmt.Errorf("%w: cannot start order in status %q", ErrInvalidTransition, status)
}

// Cancel terminates an order from any non-terminal state. The status flip
// and the stock restoration commit atomically; voiding the invoice is
// best-effort afterwards — a failed void must never block the cancellation.
func (s *OrderService) Cancel(orderID uint, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	var order models.Order
	if err := s.db.Preload("LineItems").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", orderID,
				[]string{OrderStatusNew, OrderStatusInProgress, OrderStatusReady}).
			Updates(map[string]interface{}{
				"status":        OrderStatusCancelled,
				"cancel_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentTransition
		}
		// Stock comes back inside the same transaction: if restoration
		// fails the order stays cancellable and nothing was applied.
		return s.stock.RestoreTx(tx, order.RestaurantID, order.LineItems)
	})
	if errors.Is(err, errConcurrentTransition) {
		status, statusErr := s.currentStatus(orderID)
		if statusErr != nil {
			return statusErr
		}
		if status == OrderStatusCancelled {
			return nil
		}
		return fmt.Errorf("%w: cannot cancel order in status %q", ErrInvalidTransition, status)
	}
	if err != nil {
		return err
	}

	if inv, invErr := s.invoices.ActiveInvoiceForOrder(orderID); invErr == nil && inv != nil {
		if voidErr := s.invoices.Void(inv.ID, "order cancelled: "+reason); voidErr != nil {
			utils.ErrorLogger.Printf("failed to void invoice %s for cancelled order %d: %v",
				inv.InvoiceNo, orderID, voidErr)
		}
	} else if invErr != nil {
		utils.ErrorLogger.Printf("invoice lookup failed for cancelled order %d: %v", orderID, invErr)
	}

	return nil
}

// Complete settles an order. Credit sales force the credit payment method
// and leave the invoice open for later reconciliation; everything else is
// marked paid with the confirmed method. Calling Complete twice is a no-op
// returning the already-issued invoice — no second number, no second credit
// entry, no double charge.
func (s *OrderService) Complete(orderID uint, conf PaymentConfirmation) (*models.Invoice, error) {
	var order models.Order
	if err := s.db.Preload("LineItems").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status == OrderStatusCompleted {
		return s.invoices.ActiveInvoiceForOrder(orderID)
	}
	if order.Status != OrderStatusInProgress && order.Status != OrderStatusReady {
		return nil, fmt.Errorf("%w: cannot complete order in status %q", ErrInvalidTransition, order.Status)
	}

	isCredit := order.IsCredit && order.CreditCustomerID != nil
	method := conf.Method
	if isCredit {
		// The account sale wins over whatever the terminal had selected.
		method = PaymentMethodCredit
	} else {
		switch method {
		case PaymentMethodCash, PaymentMethodOnline:
		case PaymentMethodMixed:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, conf.Method)
		}
	}

	// Validate the split against what the invoice will say, before any
	// write happens. Online-prepaid orders already carry an invoice.
	invoice, err := s.invoices.ActiveInvoiceForOrder(orderID)
	if err != nil {
		return nil, err
	}
	if method == PaymentMethodMixed {
		expected := 0.0
		if invoice != nil {
			expected = invoice.TotalIncTax
		} else {
			profile, profErr := s.invoices.profileFor(order.RestaurantID)
			if profErr != nil {
				return nil, profErr
			}
			expected = OrderGrandTotal(profile, order.LineItems)
		}
		if math.Abs(conf.CashAmount+conf.OnlineAmount-expected) > splitTolerance {
			return nil, fmt.Errorf("%w: cash %.2f + online %.2f != %.2f",
				ErrSplitMismatch, conf.CashAmount, conf.OnlineAmount, expected)
		}
	}

	if invoice == nil {
		invoice, err = s.invoices.CreateFromOrder(orderID)
		if err != nil {
			return nil, err
		}
	}

	invoiceStatus := InvoiceStatusPaid
	if isCredit {
		invoiceStatus = InvoiceStatusOpen
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"status":         OrderStatusCompleted,
			"payment_method": method,
			"completed_at":   &now,
		}
		if method == PaymentMethodMixed {
			updates["mixed_cash_amount"] = conf.CashAmount
			updates["mixed_online_amount"] = conf.OnlineAmount
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", orderID,
				[]string{OrderStatusInProgress, OrderStatusReady}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentTransition
		}

		if err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
			Updates(map[string]interface{}{
				"payment_method": method,
				"status":         invoiceStatus,
			}).Error; err != nil {
			return err
		}

		if isCredit {
			return s.credit.RecordExtensionTx(tx, *order.CreditCustomerID, invoice.TotalIncTax, &order.ID)
		}
		return nil
	})
	if errors.Is(err, errConcurrentTransition) {
		status, statusErr := s.currentStatus(orderID)
		if statusErr != nil {
			return nil, statusErr
		}
		if status == OrderStatusCompleted {
			return s.invoices.ActiveInvoiceForOrder(orderID)
		}
		return nil, fmt.Errorf("%w: cannot complete order in status %q", ErrInvalidTransition, status)
	}
	if err != nil {
		return nil, err
	}

	invoice.Status = invoiceStatus
	invoice.PaymentMethod = method
	return invoice, nil
}

// EditItems replaces an order's line items while it is still editable and
// recomputes the running total. Stock and credit are untouched — stock is
// only ever adjusted on cancellation — and no invoice is raised; the kitchen
// just gets a fresh ticket.
func (s *OrderService) EditItems(orderID uint, inputs []LineItemInput) (*models.Order, error) {
	items, err := NormalizeLineItems(inputs)
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status != OrderStatusNew && order.Status != OrderStatusInProgress {
		return nil, fmt.Errorf("%w: cannot edit order in status %q", ErrInvalidTransition, order.Status)
	}

	profile, err := s.invoices.profileFor(order.RestaurantID)
	if err != nil {
		return nil, err
	}
	total := OrderGrandTotal(profile, items)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", orderID,
				[]string{OrderStatusNew, OrderStatusInProgress}).
			Update("total_amount", total)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d left editable state", ErrInvalidTransition, orderID)
		}
		if err := tx.Where("order_id = ?", orderID).
			Delete(&models.OrderLineItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = orderID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated models.Order
	if err := s.db.Preload("LineItems").First(&updated, orderID).Error; err != nil {
		return nil, err
	}

	if err := s.printer.PrintTicket(updated); err != nil {
		utils.ErrorLogger.Printf("kitchen ticket reprint failed for order %d: %v", orderID, err)
	}

	return &updated, nil
}

func (s *OrderService) currentStatus(orderID uint) (string, error) {
	var order models.Order
	if err := s.db.Select("status").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrOrderNotFound
		}
		return "", err
	}
	return order.Status, nil
}
