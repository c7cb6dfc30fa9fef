package database

import (
	"fmt"
	"log/slog"

	"github.com/sugarcrumb/storefront-api/config"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to PostgreSQL and configures the connection pool.
func Open(cfg config.Database, log *slog.Logger) (*gorm.DB, error) {
	log.Info("Establishing database connection", "host", cfg.Host, "database", cfg.Name)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Debug("Database connection pool configured",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
		"conn_max_lifetime", cfg.ConnMaxLifetime)
	return db, nil
}

// Tables lists every model managed by AutoMigrate, parents first.
func Tables() []any {
	return []any{
		&models.Size{},
		&models.City{},
		&models.Zone{},
		&models.Customer{},
		&models.CustomerAddress{},
		&models.Product{},
		&models.Flavor{},
		&models.Cart{},
		&models.CartItem{},
		&models.CartItemFlavor{},
		&models.PromoCode{},
		&models.DeliveryTimeSlot{},
		&models.Order{},
		&models.ProductInstance{},
		&models.ProductInstanceFlavor{},
		&models.OrderItem{},
	}
}

// uniqueIndex on customers.email does not catch case variants.
const customerEmailIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_email_lower ON customers (LOWER(email))`

// Migrate creates the schema and seeds the sizes lookup table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := db.Exec(customerEmailIndex).Error; err != nil {
		return fmt.Errorf("create customer email index: %w", err)
	}

	sizes := models.Sizes()
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&sizes).Error; err != nil {
		return fmt.Errorf("seed sizes: %w", err)
	}
	return nil
}
