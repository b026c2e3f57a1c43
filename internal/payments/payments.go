// Package payments wraps the Mercado Pago checkout used to charge
// subscription plans.
package payments

import (
	"context"
	"errors"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"
)

// Payment statuses reported by the gateway that matter to us.
const (
	StatusApproved = "approved"
	StatusPending  = "pending"
	StatusRejected = "rejected"
)

var ErrDisabled = errors.New("payments: gateway not configured")

type CheckoutRequest struct {
	Title             string
	Amount            decimal.Decimal
	ExternalReference string
	NotificationURL   string
}

type Checkout struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}

type PaymentInfo struct {
	ID                string
	Status            string
	ExternalReference string
	Amount            decimal.Decimal
}

// Gateway is what the subscription use cases depend on.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
}

// ======================================================
// MERCADO PAGO
// ======================================================

type MercadoPago struct {
	preferences preference.Client
	payments    payment.Client
}

func NewMercadoPago(accessToken string) (*MercadoPago, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, err
	}
	return &MercadoPago{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
	}, nil
}

func (m *MercadoPago) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	amount, _ := req.Amount.Float64()

	res, err := m.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      req.Title,
				Quantity:   1,
				UnitPrice:  amount,
				CurrencyID: "BRL",
			},
		},
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
	})
	if err != nil {
		return nil, err
	}

	return &Checkout{PreferenceID: res.ID, InitPoint: res.InitPoint}, nil
}

func (m *MercadoPago) GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, err
	}

	res, err := m.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &PaymentInfo{
		ID:                strconv.Itoa(res.ID),
		Status:            res.Status,
		ExternalReference: res.ExternalReference,
		Amount:            decimal.NewFromFloat(res.TransactionAmount).Round(2),
	}, nil
}

// ======================================================
// DISABLED
// ======================================================

// Disabled is used when no access token is configured.
type Disabled struct{}

func (Disabled) CreateCheckout(context.Context, CheckoutRequest) (*Checkout, error) {
	return nil, ErrDisabled
}

func (Disabled) GetPayment(context.Context, string) (*PaymentInfo, error) {
	return nil, ErrDisabled
}

// New picks the Mercado Pago gateway when a token is set.
func New(accessToken string) Gateway {
	if accessToken == "" {
		return Disabled{}
	}
	mp, err := NewMercadoPago(accessToken)
	if err != nil {
		return Disabled{}
	}
	return mp
}
