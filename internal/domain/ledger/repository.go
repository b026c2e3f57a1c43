package ledger

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// Repository covers commands, sales, commissions, cash registers and the
// client subscriptions they consume. Multi-step writes run inside
// Transaction and must use the repository handed to fn.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// -------- Lookups --------
	GetAppointment(ctx context.Context, barbershopID, appointmentID uint) (*models.Appointment, error)
	GetService(ctx context.Context, barbershopID, serviceID uint) (*models.Service, error)
	GetProduct(ctx context.Context, barbershopID, productID uint) (*models.Product, error)
	GetBarber(ctx context.Context, barbershopID, barberID uint) (*models.User, error)
	GetClient(ctx context.Context, barbershopID, clientID uint) (*models.Client, error)

	// -------- Command --------
	CreateCommand(ctx context.Context, cmd *models.Command) error
	// GetCommand locks the row when running inside a transaction.
	GetCommand(ctx context.Context, barbershopID, commandID uint) (*models.Command, error)
	FindCommandForAppointment(ctx context.Context, barbershopID, appointmentID uint) (*models.Command, error)
	ListCommands(ctx context.Context, f CommandFilter) ([]models.Command, error)
	SaveCommand(ctx context.Context, cmd *models.Command) error

	ListItems(ctx context.Context, commandID uint) ([]models.CommandItem, error)
	CreateItem(ctx context.Context, it *models.CommandItem) error
	GetItem(ctx context.Context, commandID, itemID uint) (*models.CommandItem, error)
	DeleteItem(ctx context.Context, it *models.CommandItem) error

	// AdjustStock adds delta to a product's stock. It fails with
	// out_of_stock instead of going negative.
	AdjustStock(ctx context.Context, productID uint, delta int) error

	// -------- Subscription quota --------
	FindActiveSubscription(ctx context.Context, barbershopID, clientID uint) (*models.ClientSubscription, error)
	// ConsumeService decrements the quota if any is left. ok is false when
	// another request used the last one first.
	ConsumeService(ctx context.Context, subscriptionID uint) (ok bool, err error)
	RestoreService(ctx context.Context, subscriptionID uint) error
	// SaveSubscriptionPeriod stores the period, quota and queue of sub.
	SaveSubscriptionPeriod(ctx context.Context, sub *models.ClientSubscription) error

	// -------- Sale / commission --------
	GetSaleByCommand(ctx context.Context, commandID uint) (*models.Sale, error)
	CreateSale(ctx context.Context, sale *models.Sale) error
	CreateCommissions(ctx context.Context, rows []models.Commission) error
	ListSales(ctx context.Context, barbershopID uint, from, to time.Time) ([]models.Sale, error)
	ListCommissions(ctx context.Context, barbershopID uint, from, to time.Time) ([]models.Commission, error)

	// -------- Side effects of a close --------
	SaveAppointment(ctx context.Context, ap *models.Appointment) error
	TouchClientVisit(ctx context.Context, clientID uint, at time.Time) error

	// -------- Cash register --------
	// GetOpenCashRegister returns nil, nil when no session is open.
	GetOpenCashRegister(ctx context.Context, barbershopID uint) (*models.CashRegister, error)
	GetCashRegister(ctx context.Context, barbershopID, id uint) (*models.CashRegister, error)
	CreateCashRegister(ctx context.Context, reg *models.CashRegister) error
	SaveCashRegister(ctx context.Context, reg *models.CashRegister) error
	ListCashRegisters(ctx context.Context, barbershopID uint, limit int) ([]models.CashRegister, error)
	ListRegisterSales(ctx context.Context, registerID uint) ([]models.Sale, error)
}

type CommandFilter struct {
	BarbershopID uint
	Status       string
	BarberID     uint
	From         *time.Time
	To           *time.Time
}
