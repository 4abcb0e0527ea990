package models

import (
	"strings"
	"time"
)

const (
	CustomerTable = "dc_customers"
	BookingTable  = "dc_bookings"
)

type Customer struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `gorm:"size:120;not null" json:"firstName"`
	LastName  string    `gorm:"size:120" json:"lastName,omitempty"`
	Email     string    `gorm:"size:255;index" json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Customer) TableName() string { return CustomerTable }

func (c Customer) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Booking is the dive booking equipment can be attached to directly.
type Booking struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID string    `gorm:"type:uuid;index;not null" json:"customerId"`
	DiveDate   time.Time `gorm:"type:date;not null" json:"diveDate"`
	Notes      string    `gorm:"size:255" json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Booking) TableName() string { return BookingTable }
