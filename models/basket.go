package models

import "time"

const BasketTable = "dc_equipment_baskets"

type BasketStatus string

const (
	BasketActive   BasketStatus = "active"
	BasketReturned BasketStatus = "returned"
	BasketLost     BasketStatus = "lost"
)

type Basket struct {
	ID                 string       `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID         string       `gorm:"type:uuid;index;not null" json:"customerId"`
	BasketNumber       string       `gorm:"size:40;uniqueIndex;not null" json:"basketNumber"`
	BucketNumber       *string      `gorm:"size:40" json:"bucketNumber,omitempty"`
	CheckoutDate       time.Time    `gorm:"type:date;not null" json:"checkoutDate"`
	ExpectedReturnDate time.Time    `gorm:"type:date;not null" json:"expectedReturnDate"`
	ActualReturnDate   *time.Time   `gorm:"type:date" json:"actualReturnDate,omitempty"`
	Status             BasketStatus `gorm:"size:20;not null;default:'active';index" json:"status"`
	Notes              string       `gorm:"size:255" json:"notes,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`

	Assignments []Assignment `gorm:"foreignKey:BasketID" json:"assignments,omitempty"`
}

func (Basket) TableName() string { return BasketTable }

// SettledStatus returns the basket status implied by its assignments and
// whether every one of them reached a terminal state.
func SettledStatus(statuses []AssignmentStatus) (BasketStatus, bool) {
	lost := 0
	for _, s := range statuses {
		if !s.Terminal() {
			return BasketActive, false
		}
		if s == AssignmentLost {
			lost++
		}
	}
	if len(statuses) > 0 && lost == len(statuses) {
		return BasketLost, true
	}
	return BasketReturned, true
}
