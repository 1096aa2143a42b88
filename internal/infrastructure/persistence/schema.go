package persistence

import (
	"fmt"

	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// Unique indexes that back the ledger invariants. The SQL migrations create
// the same names so constraint violations classify identically everywhere.
const (
	IndexActiveLease   = "uq_leases_active_unit"
	IndexLeaseNo       = "uq_leases_account_year_no"
	IndexReadingPerDay = "uq_meter_readings_series_day"
	IndexPaymentTxn    = "uq_payments_account_txn"
)

// backstopIndexes need partial or expression syntax GORM tags cannot express.
// The statements run on both PostgreSQL and SQLite.
var backstopIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexActiveLease +
		` ON leases (unit_id) WHERE status = 'active'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexLeaseNo +
		` ON leases (account_id, lease_year, lease_no)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexReadingPerDay +
		` ON meter_readings (meter_id, COALESCE(submeter_id, '00000000-0000-0000-0000-000000000000'), reading_date) WHERE NOT is_deleted`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexPaymentTxn +
		` ON payments (account_id, transaction_id) WHERE transaction_id IS NOT NULL`,
}

// Models lists every table the ledger owns, in dependency order
func Models() []any {
	return []any{
		&models.PropertyModel{},
		&models.UnitModel{},
		&models.TenantModel{},
		&models.UserModel{},
		&models.MeterModel{},
		&models.SubmeterModel{},
		&models.ExpenseCategoryModel{},
		&models.BillModel{},
		&models.ExpenseModel{},
		&models.PaymentModel{},
		&models.MeterReadingModel{},
		&models.LeaseModel{},
		&models.LeaseYearLockModel{},
		&models.OutboxEntryModel{},
	}
}

// AutoMigrate creates the ledger schema from the models. Production schemas
// come from the SQL migrations; this serves tests and local tooling.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}
	for _, stmt := range backstopIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
