package services

import (
	"math"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/models"
	"github.com/annapurna-pos/backend/utils"
)

// LedgerMonitor periodically reconciles every cached credit balance against
// the transaction log and repairs drift. Drift should never happen while all
// writes go through CreditLedger; an alert here means something wrote the
// projection directly.
type LedgerMonitor struct {
	db     *gorm.DB
	ledger *CreditLedger
	cron   *cron.Cron
	// Cron spec for the sweep; defaults to 02:30 daily.
	Schedule string
}

func NewLedgerMonitor(db *gorm.DB) *LedgerMonitor {
	return &LedgerMonitor{
		db:       db,
		ledger:   NewCreditLedger(db),
		Schedule: "30 2 * * *",
	}
}

func (m *LedgerMonitor) Start() error {
	m.cron = cron.New()
	if _, err := m.cron.AddFunc(m.Schedule, m.Sweep); err != nil {
		return err
	}
	m.cron.Start()
	utils.InfoLogger.Printf("credit ledger reconciliation scheduled (%s)", m.Schedule)
	return nil
}

func (m *LedgerMonitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// Sweep runs one reconciliation pass over all credit customers.
func (m *LedgerMonitor) Sweep() {
	var customers []models.CreditCustomer
	if err := m.db.Find(&customers).Error; err != nil {
		utils.ErrorLogger.Printf("reconciliation sweep failed to list customers: %v", err)
		return
	}

	repaired := 0
	for _, customer := range customers {
		report, err := m.ledger.Repair(customer.ID)
		if err != nil {
			utils.ErrorLogger.Printf("reconciliation failed for customer %d: %v", customer.ID, err)
			continue
		}
		if math.Abs(report.Drift) >= 0.005 {
			utils.ErrorLogger.Printf(
				"ALERT: credit balance drift for customer %d: cached %.2f, ledger %.2f (repaired)",
				customer.ID, report.CachedBalance, report.LedgerBalance)
			repaired++
		}
	}
	utils.InfoLogger.Printf("reconciliation sweep done: %d customers, %d repaired",
		len(customers), repaired)
}
