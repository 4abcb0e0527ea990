package db

import (
	"context"
	"dive_center_rental/models"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AvailabilityQuery asks for Quantity items of one type over the closed
// day range [Start, End].
type AvailabilityQuery struct {
	TypeID   string
	Quantity int
	Start    time.Time
	End      time.Time
}

func (q *AvailabilityQuery) normalize() error {
	if q.TypeID == "" {
		return fmt.Errorf("%w: equipment type is required", models.ErrInvalidInput)
	}
	if q.Quantity <= 0 {
		q.Quantity = 1
	}
	q.Start, q.End = models.Day(q.Start), models.Day(q.End)
	if q.End.Before(q.Start) {
		return fmt.Errorf("%w: return date before checkout date", models.ErrInvalidInput)
	}
	return nil
}

// CheckAvailability returns every item of the requested type that is
// available and has no pending or checked out assignment overlapping the
// range. It fails with ErrInsufficientAvailability when fewer than
// Quantity items qualify. Nothing is reserved.
func (r *Repo) CheckAvailability(ctx context.Context, q AvailabilityQuery) ([]models.EquipmentItem, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	if _, err := r.FindEquipmentTypeByID(ctx, q.TypeID); err != nil {
		return nil, err
	}
	return availableItems(r.DB.WithContext(ctx), q)
}

func availableItems(tx *gorm.DB, q AvailabilityQuery) ([]models.EquipmentItem, error) {
	busy := tx.Model(&models.Assignment{}).
		Select("1").
		Where(models.AssignmentTable + ".item_id = " + models.ItemTable + ".id").
		Where(models.AssignmentTable+".status IN ?", statusStrings(models.OpenAssignmentStatuses)).
		Where(models.AssignmentTable+".checkout_date <= ? AND "+models.AssignmentTable+".return_date >= ?", q.End, q.Start)

	var items []models.EquipmentItem
	if err := tx.Model(&models.EquipmentItem{}).
		Where("type_id = ? AND status = ?", q.TypeID, string(models.ItemAvailable)).
		Where("NOT EXISTS (?)", busy).
		Order("COALESCE(serial_number, inventory_code, CAST(id AS TEXT))").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) < q.Quantity {
		return items, fmt.Errorf("%w: requested %d, %d free between %s and %s",
			models.ErrInsufficientAvailability, q.Quantity, len(items),
			q.Start.Format(models.DateLayout), q.End.Format(models.DateLayout))
	}
	return items, nil
}

// reserveItem locks one item and confirms it can take a new assignment
// over [start, end].
func reserveItem(tx *gorm.DB, itemID string, start, end time.Time) (*models.EquipmentItem, error) {
	return lockItemWindow(tx, itemID, start, end, "", func(it *models.EquipmentItem) bool {
		return it.Status == models.ItemAvailable
	})
}

// rescheduleItem locks the item of a pending assignment being moved to
// [start, end]. The item may be out with another customer today; only
// its service status and the other assignments' windows matter.
func rescheduleItem(tx *gorm.DB, itemID string, start, end time.Time, assignmentID string) (*models.EquipmentItem, error) {
	return lockItemWindow(tx, itemID, start, end, assignmentID, func(it *models.EquipmentItem) bool {
		return it.ServiceStatus == models.ServiceInService && it.Status != models.ItemLost
	})
}

func lockItemWindow(tx *gorm.DB, itemID string, start, end time.Time, except string,
	usable func(*models.EquipmentItem) bool) (*models.EquipmentItem, error) {
	var it models.EquipmentItem
	if err := first(forUpdate(tx), &it, "equipment item", itemID); err != nil {
		return nil, err
	}
	if !usable(&it) {
		return nil, fmt.Errorf("%w: %s is %s", models.ErrItemUnavailable, it.DisplayCode(), it.Status)
	}
	n, err := countOverlapping(tx, itemID, start, end, except)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: %s is already assigned between %s and %s", models.ErrItemUnavailable,
			it.DisplayCode(), start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
	return &it, nil
}

func countOverlapping(tx *gorm.DB, itemID string, start, end time.Time, except string) (int64, error) {
	qry := tx.Model(&models.Assignment{}).
		Where("item_id = ? AND status IN ?", itemID, statusStrings(models.OpenAssignmentStatuses)).
		Where("checkout_date <= ? AND return_date >= ?", end, start)
	if except != "" {
		qry = qry.Where("id <> ?", except)
	}
	var n int64
	err := qry.Count(&n).Error
	return n, err
}
