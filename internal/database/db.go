package database

import (
	"fmt"

	"japoke-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the database and migrates every table.
func Init(dsn string) (*gorm.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("no se pudo conectar a la base de datos: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("AutoMigrate falló: %w", err)
	}
	return db, nil
}

// Open connects with translated errors so duplicate keys surface as
// gorm.ErrDuplicatedKey.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.AdminUser{},
		&models.Category{},
		&models.Item{},
		&models.Supply{},
		&models.PokeType{},
		&models.Order{},
		&models.StockMovement{},
		&models.Purchase{},
		&models.ExchangeRate{},
		&models.BsProtection{},
		&models.WalletTransaction{},
		&models.StoreSettings{},
		&models.WhatsAppLog{},
		&models.SupplierPurchase{},
		&models.SupplierPurchaseLine{},
	)
}
