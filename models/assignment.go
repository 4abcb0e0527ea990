// models/assignment.go
package models

import (
	"fmt"
	"time"
)

const AssignmentTable = "dc_booking_equipment"

type EquipmentSource string

const (
	SourceCenter      EquipmentSource = "center"
	SourceCustomerOwn EquipmentSource = "customer_own"
)

func (s EquipmentSource) Valid() bool {
	switch s {
	case SourceCenter, SourceCustomerOwn:
		return true
	}
	return false
}

type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentCheckedOut AssignmentStatus = "checked_out"
	AssignmentReturned   AssignmentStatus = "returned"
	AssignmentLost       AssignmentStatus = "lost"
)

// OpenAssignmentStatuses hold an item for their date window.
var OpenAssignmentStatuses = []AssignmentStatus{AssignmentPending, AssignmentCheckedOut}

func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentReturned || s == AssignmentLost
}

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentPending, AssignmentCheckedOut, AssignmentReturned, AssignmentLost:
		return true
	}
	return false
}

// TransitionTo validates a single step of
// pending -> checked_out -> {returned | lost}.
func (s AssignmentStatus) TransitionTo(next AssignmentStatus) error {
	ok := false
	switch s {
	case AssignmentPending:
		ok = next == AssignmentCheckedOut
	case AssignmentCheckedOut:
		ok = next == AssignmentReturned || next == AssignmentLost
	case AssignmentReturned, AssignmentLost:
		ok = false
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, s, next)
	}
	return nil
}

// CustomerGear describes equipment the diver brought along.
type CustomerGear struct {
	Brand  string `gorm:"size:80" json:"brand,omitempty"`
	Type   string `gorm:"size:80" json:"type,omitempty"`
	Serial string `gorm:"size:120" json:"serial,omitempty"`
}

// Assignment is one piece of equipment on a basket or a booking.
type Assignment struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	BasketID  *string         `gorm:"type:uuid;index" json:"basketId,omitempty"`
	BookingID *string         `gorm:"type:uuid;index" json:"bookingId,omitempty"`
	Source    EquipmentSource `gorm:"size:20;not null" json:"source"`

	ItemID *string      `gorm:"type:uuid;index" json:"equipmentItemId,omitempty"`
	Own    CustomerGear `gorm:"embedded;embeddedPrefix:own_" json:"customerGear"`

	CheckoutDate     time.Time        `gorm:"type:date;not null;index" json:"checkoutDate"`
	ReturnDate       time.Time        `gorm:"type:date;not null;index" json:"returnDate"`
	CheckedOutAt     *time.Time       `json:"checkedOutAt,omitempty"`
	ActualReturnDate *time.Time       `gorm:"type:date" json:"actualReturnDate,omitempty"`
	Status           AssignmentStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ReturnedBy       string           `gorm:"size:120" json:"returnedBy,omitempty"`
	Notes            string           `gorm:"size:255" json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`

	Item *EquipmentItem `gorm:"foreignKey:ItemID" json:"equipmentItem,omitempty"`
}

func (Assignment) TableName() string { return AssignmentTable }

// Overlaps reports whether two closed day ranges share at least one day.
// A return on the same day as the next checkout counts as a conflict.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return !start1.After(end2) && !start2.After(end1)
}
