package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/models"
)

// Credit transaction types
const (
	CreditTxnCredit     = "credit"
	CreditTxnPayment    = "payment"
	CreditTxnAdjustment = "adjustment"
)

// Credit customer statuses
const (
	CreditCustomerActive    = "active"
	CreditCustomerSuspended = "suspended"
)

var (
	ErrAmountNotPositive     = errors.New("amount must be greater than zero")
	ErrPaymentExceedsBalance = errors.New("payment cannot exceed outstanding balance")
	ErrCustomerSuspended     = errors.New("credit customer is suspended")
	ErrCustomerNotFound      = errors.New("credit customer not found")
)

// CreditLedger maintains per-customer balances as an append-only transaction
// log plus a cached projection on the customer row. The two are written in
// the same transaction and the projection must always reconcile with the
// log.
type CreditLedger struct {
	db *gorm.DB
}

func NewCreditLedger(db *gorm.DB) *CreditLedger {
	return &CreditLedger{db: db}
}

// RecordExtension books a credit sale against the customer's account.
func (l *CreditLedger) RecordExtension(customerID uint, amount float64, orderID *uint) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		return l.RecordExtensionTx(tx, customerID, amount, orderID)
	})
}

// RecordExtensionTx is RecordExtension inside a caller-owned transaction, so
// order completion can extend credit atomically with the status flip.
func (l *CreditLedger) RecordExtensionTx(tx *gorm.DB, customerID uint, amount float64, orderID *uint) error {
	if amount <= 0 {
		return ErrAmountNotPositive
	}
	customer, err := loadCustomer(tx, customerID)
	if err != nil {
		return err
	}
	if customer.Status == CreditCustomerSuspended {
		return ErrCustomerSuspended
	}

	txn := models.CreditTransaction{
		RestaurantID:     customer.RestaurantID,
		CreditCustomerID: customerID,
		OrderID:          orderID,
		TransactionType:  CreditTxnCredit,
		Amount:           amount,
		Description:      fmt.Sprintf("Credit extended to %s", customer.Name),
		TransactionDate:  time.Now(),
	}
	if err := tx.Create(&txn).Error; err != nil {
		return err
	}
	return tx.Model(&models.CreditCustomer{}).Where("id = ?", customerID).
		Update("current_balance", gorm.Expr("current_balance + ?", amount)).Error
}

// RecordPayment books a payment against the outstanding balance. Payments
// larger than the balance are rejected outright, never clamped.
func (l *CreditLedger) RecordPayment(customerID uint, amount float64, method string) error {
	if amount <= 0 {
		return ErrAmountNotPositive
	}
	return l.db.Transaction(func(tx *gorm.DB) error {
		customer, err := loadCustomer(tx, customerID)
		if err != nil {
			return err
		}
		if amount > customer.CurrentBalance {
			return ErrPaymentExceedsBalance
		}

		txn := models.CreditTransaction{
			RestaurantID:     customer.RestaurantID,
			CreditCustomerID: customerID,
			TransactionType:  CreditTxnPayment,
			Amount:           amount,
			PaymentMethod:    method,
			Description:      fmt.Sprintf("Payment received from %s", customer.Name),
			TransactionDate:  time.Now(),
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}

		// The balance guard re-checks inside the UPDATE: a concurrent
		// payment between our read and write must not drive the balance
		// negative.
		res := tx.Model(&models.CreditCustomer{}).
			Where("id = ? AND current_balance >= ?", customerID, amount).
			Update("current_balance", gorm.Expr("current_balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPaymentExceedsBalance
		}
		return nil
	})
}

// RecordAdjustment books a manual balance correction (always upward; use
// payments to reduce).
func (l *CreditLedger) RecordAdjustment(customerID uint, amount float64, note string) error {
	if amount <= 0 {
		return ErrAmountNotPositive
	}
	return l.db.Transaction(func(tx *gorm.DB) error {
		customer, err := loadCustomer(tx, customerID)
		if err != nil {
			return err
		}
		txn := models.CreditTransaction{
			RestaurantID:     customer.RestaurantID,
			CreditCustomerID: customerID,
			TransactionType:  CreditTxnAdjustment,
			Amount:           amount,
			Description:      note,
			TransactionDate:  time.Now(),
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		return tx.Model(&models.CreditCustomer{}).Where("id = ?", customerID).
			Update("current_balance", gorm.Expr("current_balance + ?", amount)).Error
	})
}

// ReconciliationReport compares the cached balance with the balance
// recomputed from the transaction log.
type ReconciliationReport struct {
	CustomerID    uint    `json:"customer_id"`
	CachedBalance float64 `json:"cached_balance"`
	LedgerBalance float64 `json:"ledger_balance"`
	Drift         float64 `json:"drift"`
}

// Reconcile recomputes Σcredit + Σadjustment − Σpayment from the log. Any
// nonzero drift means the cached projection was written outside this ledger.
func (l *CreditLedger) Reconcile(customerID uint) (ReconciliationReport, error) {
	customer, err := loadCustomer(l.db, customerID)
	if err != nil {
		return ReconciliationReport{}, err
	}

	var ledgerBalance float64
	err = l.db.Model(&models.CreditTransaction{}).
		Where("credit_customer_id = ?", customerID).
		Select(`COALESCE(SUM(CASE
			WHEN transaction_type = 'payment' THEN -amount
			ELSE amount END), 0)`).
		Scan(&ledgerBalance).Error
	if err != nil {
		return ReconciliationReport{}, err
	}

	return ReconciliationReport{
		CustomerID:    customerID,
		CachedBalance: customer.CurrentBalance,
		LedgerBalance: ledgerBalance,
		Drift:         customer.CurrentBalance - ledgerBalance,
	}, nil
}

// Repair overwrites the cached balance with the ledger sum. Used by the
// nightly sweep after a drift alert.
func (l *CreditLedger) Repair(customerID uint) (ReconciliationReport, error) {
	report, err := l.Reconcile(customerID)
	if err != nil {
		return report, err
	}
	if math.Abs(report.Drift) < 0.005 {
		return report, nil
	}
	err = l.db.Model(&models.CreditCustomer{}).Where("id = ?", customerID).
		Update("current_balance", report.LedgerBalance).Error
	return report, err
}

func loadCustomer(tx *gorm.DB, customerID uint) (*models.CreditCustomer, error) {
	var customer models.CreditCustomer
	if err := tx.First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}
