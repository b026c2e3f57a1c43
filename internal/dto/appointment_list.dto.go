package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type AppointmentListDTO struct {
	ID          uint            `json:"id"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Status      string          `json:"status"`
	Source      string          `json:"source"`
	NoShow      bool            `json:"no_show"`
	Price       decimal.Decimal `json:"price"`
	BarberID    uint            `json:"barber_id"`
	BarberName  string          `json:"barber_name"`
	ClientName  string          `json:"client_name"`
	ClientPhone string          `json:"client_phone"`
	ServiceName string          `json:"service_name"`
}
