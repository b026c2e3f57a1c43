package db

import (
	"context"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/config"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/retry"
)

// AllModels lists every table managed by AutoMigrate, in dependency order.
func AllModels() []any {
	return []any{
		&models.Barbershop{},
		&models.User{},
		&models.Service{},
		&models.Product{},
		&models.BusinessHours{},
		&models.Client{},
		&models.Appointment{},
		&models.Command{},
		&models.CommandItem{},
		&models.CashRegister{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Commission{},
		&models.SubscriptionPlan{},
		&models.ClientSubscription{},
		&models.SubscriptionPayment{},
		&models.WhatsAppInstance{},
		&models.WhatsAppConversation{},
		&models.WhatsAppMessage{},
		&models.Review{},
		&models.AuditLog{},
	}
}

func NewDB(cfg *config.Config) *gorm.DB {
	var db *gorm.DB

	policy := retry.Policy{
		MaxAttempts: 10,
		Initial:     500 * time.Millisecond,
		Max:         5 * time.Second,
		Multiplier:  2,
		Budget:      time.Minute,
	}

	err := retry.Do(context.Background(), policy, func(ctx context.Context) error {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
			PrepareStmt:    true,
			TranslateError: true,
		})
		if err != nil {
			log.Printf("[db] connect failed, retrying: %v", err)
		}
		return err
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(AllModels()...); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	if cfg.Migrations {
		if err := RunSQLMigrations(cfg.DBUrl); err != nil {
			log.Fatalf("failed to run sql migrations: %v", err)
		}
	}

	db.Exec(`
        UPDATE barbershops
        SET timezone = 'America/Sao_Paulo'
        WHERE timezone IS NULL OR timezone = ''
    `)

	return db
}
