package models

import "time"

type Review struct {
	ID            uint  `gorm:"primaryKey" json:"id"`
	BarbershopID  uint  `gorm:"index" json:"barbershop_id"`
	ClientID      *uint `json:"client_id"`
	BarberID      *uint `json:"barber_id"`
	AppointmentID *uint `gorm:"uniqueIndex" json:"appointment_id"`

	NPSScore int    `json:"nps_score"`
	Rating   *int   `json:"rating"`
	Comment  string `gorm:"type:text" json:"comment"`

	Name  string `gorm:"size:100" json:"name"`
	Phone string `gorm:"size:20" json:"phone"`
	Email string `gorm:"size:100" json:"email"`

	CreatedAt time.Time `json:"created_at"`
}
