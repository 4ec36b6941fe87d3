package database

import (
	"github.com/annapurna-pos/backend/utils"
	"gorm.io/gorm"
)

// EnsureConstraints installs the billing integrity constraints that
// AutoMigrate cannot express. Runs after migration on every boot; all
// statements are idempotent.
//
// The critical one is the partial unique index on invoices.order_id: it
// allows any number of voided invoices per order but at most one active one,
// which is what makes regeneration safe.
func EnsureConstraints(db *gorm.DB) error {
	dialect := db.Dialector.Name()

	switch dialect {
	case "sqlite", "postgres":
		stmts := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_active_order
				ON invoices (order_id) WHERE status != 'void'`,
		}
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
		}
	case "mysql":
		// MySQL has no partial indexes. Approximate with a generated column
		// that is NULL for voided invoices; NULLs never collide in a unique
		// index.
		if !db.Migrator().HasColumn("invoices", "active_order_id") {
			if err := db.Exec(
				`ALTER TABLE invoices ADD COLUMN active_order_id BIGINT UNSIGNED
					GENERATED ALWAYS AS (IF(status = 'void', NULL, order_id)) STORED`,
			).Error; err != nil {
				return err
			}
		}
		if err := db.Exec(
			`CREATE UNIQUE INDEX idx_invoices_active_order ON invoices (active_order_id)`,
		).Error; err != nil {
			// Index already present on reboot.
			utils.InfoLogger.Printf("active-order index: %v", err)
		}
	default:
		utils.InfoLogger.Printf("no active-order constraint for dialect %s", dialect)
	}

	utils.InfoLogger.Println("billing constraints ensured")
	return nil
}
