// models/equipment.go
package models

import "time"

const (
	EquipmentTypeTable = "dc_equipment_types"
	ItemTable          = "dc_equipment_items"
)

// ServiceStatus is the operational state staff set by hand.
type ServiceStatus string

const (
	ServiceInService   ServiceStatus = "in_service"
	ServiceMaintenance ServiceStatus = "maintenance"
	ServiceRetired     ServiceStatus = "retired"
)

func (s ServiceStatus) Valid() bool {
	switch s {
	case ServiceInService, ServiceMaintenance, ServiceRetired:
		return true
	}
	return false
}

// ItemStatus is what the dashboard shows. It is derived from the service
// status and the item's assignments and only the repository writes it.
type ItemStatus string

const (
	ItemAvailable   ItemStatus = "available"
	ItemRented      ItemStatus = "rented"
	ItemMaintenance ItemStatus = "maintenance"
	ItemLost        ItemStatus = "lost"
	ItemRetired     ItemStatus = "retired"
)

type EquipmentType struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Category    string    `gorm:"size:60" json:"category,omitempty"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type EquipmentItem struct {
	ID            string        `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID        string        `gorm:"type:uuid;index;not null" json:"equipmentTypeId"`
	SerialNumber  *string       `gorm:"size:120;uniqueIndex" json:"serialNumber,omitempty"`
	InventoryCode *string       `gorm:"size:60;uniqueIndex" json:"inventoryCode,omitempty"`
	Size          string        `gorm:"size:30" json:"size,omitempty"`
	Brand         string        `gorm:"size:80" json:"brand,omitempty"`
	ServiceStatus ServiceStatus `gorm:"size:20;not null;default:'in_service'" json:"serviceStatus"`
	Status        ItemStatus    `gorm:"size:20;not null;default:'available';index" json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	Type *EquipmentType `gorm:"foreignKey:TypeID" json:"equipmentType,omitempty"`
}

func (EquipmentType) TableName() string { return EquipmentTypeTable }
func (EquipmentItem) TableName() string { return ItemTable }

// DisplayCode is the label printed on tags and lists: serial number first,
// inventory code second, a short id when neither was recorded.
func (it EquipmentItem) DisplayCode() string {
	if it.SerialNumber != nil && *it.SerialNumber != "" {
		return *it.SerialNumber
	}
	if it.InventoryCode != nil && *it.InventoryCode != "" {
		return *it.InventoryCode
	}
	if len(it.ID) > 8 {
		return it.ID[:8]
	}
	return it.ID
}

// DeriveItemStatus computes the materialized item status. open holds the
// statuses of the item's checked out and lost assignments.
func DeriveItemStatus(service ServiceStatus, open []AssignmentStatus) ItemStatus {
	rented := false
	for _, s := range open {
		switch s {
		case AssignmentLost:
			return ItemLost
		case AssignmentCheckedOut:
			rented = true
		case AssignmentPending, AssignmentReturned:
		}
	}
	if rented {
		return ItemRented
	}
	switch service {
	case ServiceMaintenance:
		return ItemMaintenance
	case ServiceRetired:
		return ItemRetired
	default:
		return ItemAvailable
	}
}
