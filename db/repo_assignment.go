package db

import (
	"context"
	"dive_center_rental/models"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemSelection picks what goes on a basket or booking. Center equipment
// is chosen by ItemID, or by EquipmentTypeID and Quantity; customer owned
// gear carries its own description.
type ItemSelection struct {
	Source          models.EquipmentSource
	ItemID          string
	EquipmentTypeID string
	Quantity        int
	Gear            models.CustomerGear
}

type AddAssignmentInput struct {
	BasketID     string
	BookingID    string
	Selection    ItemSelection
	CheckoutDate *time.Time // defaults to the basket / booking window
	ReturnDate   *time.Time
	Notes        string
}

// assignmentParent resolves the basket or booking an assignment hangs off
// and the default day window it inherits.
type assignmentParent struct {
	basketID  *string
	bookingID *string
	start     time.Time
	end       time.Time
}

func resolveParent(tx *gorm.DB, basketID, bookingID string) (*assignmentParent, error) {
	switch {
	case basketID != "" && bookingID != "":
		return nil, fmt.Errorf("%w: assignment belongs to a basket or a booking, not both", models.ErrInvalidInput)
	case basketID != "":
		var b models.Basket
		if err := first(forUpdate(tx), &b, "basket", basketID); err != nil {
			return nil, err
		}
		if b.Status != models.BasketActive {
			return nil, fmt.Errorf("%w: basket %s is %s", models.ErrInvalidStateTransition, b.BasketNumber, b.Status)
		}
		return &assignmentParent{basketID: &b.ID, start: b.CheckoutDate, end: b.ExpectedReturnDate}, nil
	case bookingID != "":
		var bk models.Booking
		if err := first(tx, &bk, "booking", bookingID); err != nil {
			return nil, err
		}
		return &assignmentParent{bookingID: &bk.ID, start: bk.DiveDate, end: bk.DiveDate}, nil
	default:
		return nil, fmt.Errorf("%w: basketId or bookingId is required", models.ErrInvalidInput)
	}
}

// AddAssignment creates pending assignments. Availability check, item lock
// and insert share one transaction so two requests can never both take the
// same item for overlapping days.
func (r *Repo) AddAssignment(ctx context.Context, in AddAssignmentInput) ([]models.Assignment, error) {
	var created []models.Assignment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := resolveParent(tx, in.BasketID, in.BookingID)
		if err != nil {
			return err
		}
		start, end := p.start, p.end
		if in.CheckoutDate != nil {
			start = *in.CheckoutDate
		}
		if in.ReturnDate != nil {
			end = *in.ReturnDate
		}
		start, end = models.Day(start), models.Day(end)
		if end.Before(start) {
			return fmt.Errorf("%w: return date before checkout date", models.ErrInvalidInput)
		}

		newAssignment := func() models.Assignment {
			return models.Assignment{
				ID:           uuid.NewString(),
				BasketID:     p.basketID,
				BookingID:    p.bookingID,
				Source:       in.Selection.Source,
				CheckoutDate: start,
				ReturnDate:   end,
				Status:       models.AssignmentPending,
				Notes:        in.Notes,
			}
		}

		sel := in.Selection
		switch sel.Source {
		case models.SourceCustomerOwn:
			if strings.TrimSpace(sel.Gear.Type) == "" && strings.TrimSpace(sel.Gear.Brand) == "" {
				return fmt.Errorf("%w: customer gear needs a type or brand", models.ErrInvalidInput)
			}
			a := newAssignment()
			a.Own = sel.Gear
			created = append(created, a)

		case models.SourceCenter:
			items, err := pickItems(tx, sel, start, end)
			if err != nil {
				return err
			}
			for i := range items {
				a := newAssignment()
				a.ItemID = &items[i].ID
				created = append(created, a)
			}

		default:
			return fmt.Errorf("%w: unknown equipment source %q", models.ErrInvalidInput, sel.Source)
		}

		for i := range created {
			if err := tx.Create(&created[i]).Error; err != nil {
				if isOverlapViolation(err) {
					return fmt.Errorf("%w: %v", models.ErrItemUnavailable, err)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// pickItems locks the center items for a selection. A candidate taken by a
// concurrent request between the availability query and the lock is
// skipped in favor of the next one.
func pickItems(tx *gorm.DB, sel ItemSelection, start, end time.Time) ([]models.EquipmentItem, error) {
	if sel.ItemID != "" {
		if sel.Quantity > 1 {
			return nil, fmt.Errorf("%w: quantity applies to equipmentTypeId, not to a specific item", models.ErrInvalidInput)
		}
		it, err := reserveItem(tx, sel.ItemID, start, end)
		if err != nil {
			return nil, err
		}
		return []models.EquipmentItem{*it}, nil
	}

	q := AvailabilityQuery{TypeID: sel.EquipmentTypeID, Quantity: sel.Quantity, Start: start, End: end}
	if err := q.normalize(); err != nil {
		return nil, err
	}
	var t models.EquipmentType
	if err := first(tx, &t, "equipment type", q.TypeID); err != nil {
		return nil, err
	}
	candidates, err := availableItems(tx, q)
	if err != nil {
		return nil, err
	}
	picked := make([]models.EquipmentItem, 0, q.Quantity)
	for _, c := range candidates {
		it, err := reserveItem(tx, c.ID, start, end)
		if errors.Is(err, models.ErrItemUnavailable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		picked = append(picked, *it)
		if len(picked) == q.Quantity {
			return picked, nil
		}
	}
	return nil, fmt.Errorf("%w: requested %d %s, %d could be reserved",
		models.ErrInsufficientAvailability, q.Quantity, t.Name, len(picked))
}

func (r *Repo) FindAssignmentByID(ctx context.Context, id string) (*models.Assignment, error) {
	var a models.Assignment
	if err := first(r.DB.WithContext(ctx).Preload("Item"), &a, "assignment", id); err != nil {
		return nil, err
	}
	return &a, nil
}

type AssignmentQuery struct {
	BasketID  string
	BookingID string
	ItemID    string
	Status    string
}

func (r *Repo) ListAssignments(ctx context.Context, q AssignmentQuery) ([]models.Assignment, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Assignment{}).Preload("Item")
	if q.BasketID != "" {
		tx = tx.Where("basket_id = ?", q.BasketID)
	}
	if q.BookingID != "" {
		tx = tx.Where("booking_id = ?", q.BookingID)
	}
	if q.ItemID != "" {
		tx = tx.Where("item_id = ?", q.ItemID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	var as []models.Assignment
	err := tx.Order("created_at, id").Find(&as).Error
	return as, err
}

type UpdateAssignmentInput struct {
	CheckoutDate *time.Time
	ReturnDate   *time.Time
	Notes        *string
}

// UpdateAssignment reschedules or annotates a pending assignment. A new
// window is checked against the item's other assignments.
func (r *Repo) UpdateAssignment(ctx context.Context, id string, in UpdateAssignmentInput) (*models.Assignment, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lockAssignment(tx, id)
		if err != nil {
			return err
		}
		update := map[string]any{"updated_at": time.Now()}
		if in.Notes != nil {
			update["notes"] = *in.Notes
		}
		if in.CheckoutDate != nil || in.ReturnDate != nil {
			if a.Status != models.AssignmentPending {
				return fmt.Errorf("%w: only pending assignments can be rescheduled", models.ErrInvalidStateTransition)
			}
			start, end := a.CheckoutDate, a.ReturnDate
			if in.CheckoutDate != nil {
				start = models.Day(*in.CheckoutDate)
			}
			if in.ReturnDate != nil {
				end = models.Day(*in.ReturnDate)
			}
			if end.Before(start) {
				return fmt.Errorf("%w: return date before checkout date", models.ErrInvalidInput)
			}
			if a.ItemID != nil {
				if _, err := rescheduleItem(tx, *a.ItemID, start, end, a.ID); err != nil {
					return err
				}
			}
			update["checkout_date"] = start
			update["return_date"] = end
		}
		return tx.Model(&models.Assignment{}).Where("id = ?", id).Updates(update).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindAssignmentByID(ctx, id)
}

// DeleteAssignment removes an assignment that never left the center.
// Anything checked out stays for the audit trail.
func (r *Repo) DeleteAssignment(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lockAssignment(tx, id)
		if err != nil {
			return err
		}
		if a.Status != models.AssignmentPending {
			return fmt.Errorf("%w: %s assignments are kept, not deleted", models.ErrInvalidStateTransition, a.Status)
		}
		return tx.Delete(&models.Assignment{}, "id = ?", id).Error
	})
}

// lockAssignment takes the basket lock before the assignment lock so every
// write path locks basket -> assignment -> item in that order.
func lockAssignment(tx *gorm.DB, id string) (*models.Assignment, error) {
	var a models.Assignment
	if err := first(tx, &a, "assignment", id); err != nil {
		return nil, err
	}
	if a.BasketID != nil {
		var b models.Basket
		if err := first(forUpdate(tx), &b, "basket", *a.BasketID); err != nil {
			return nil, err
		}
	}
	var locked models.Assignment
	if err := first(forUpdate(tx), &locked, "assignment", id); err != nil {
		return nil, err
	}
	return &locked, nil
}

// Transition is one state change requested by staff.
type Transition struct {
	To               models.AssignmentStatus
	ActualReturnDate time.Time
	By               string
}

// applyTransition moves a locked assignment one step and keeps the backing
// item's status in step with it inside the same transaction.
func applyTransition(tx *gorm.DB, a *models.Assignment, t Transition) error {
	if err := a.Status.TransitionTo(t.To); err != nil {
		return err
	}
	if a.ItemID != nil {
		var it models.EquipmentItem
		if err := first(forUpdate(tx), &it, "equipment item", *a.ItemID); err != nil {
			return err
		}
		if t.To == models.AssignmentCheckedOut && it.Status != models.ItemAvailable {
			return fmt.Errorf("%w: %s is %s", models.ErrItemUnavailable, it.DisplayCode(), it.Status)
		}
	}

	now := time.Now()
	update := map[string]any{"status": string(t.To), "updated_at": now}
	switch t.To {
	case models.AssignmentCheckedOut:
		update["checked_out_at"] = now
	case models.AssignmentReturned:
		if t.ActualReturnDate.IsZero() {
			return fmt.Errorf("%w: actual return date is required", models.ErrInvalidInput)
		}
		d := models.Day(t.ActualReturnDate)
		update["actual_return_date"] = d
		update["returned_by"] = t.By
		a.ActualReturnDate = &d
	case models.AssignmentLost:
		update["returned_by"] = t.By
	case models.AssignmentPending:
	}
	if err := tx.Model(&models.Assignment{}).Where("id = ?", a.ID).Updates(update).Error; err != nil {
		return err
	}
	a.Status = t.To
	a.ReturnedBy = t.By

	if a.ItemID != nil {
		if _, err := refreshItemStatus(tx, *a.ItemID); err != nil {
			return err
		}
	}
	return nil
}

// CheckoutAssignment hands a pending assignment to the customer.
func (r *Repo) CheckoutAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lockAssignment(tx, id)
		if err != nil {
			return err
		}
		return applyTransition(tx, a, Transition{To: models.AssignmentCheckedOut})
	})
	if err != nil {
		return nil, err
	}
	return r.FindAssignmentByID(ctx, id)
}

// ReturnAssignment books a checked out assignment back in. Returning an
// assignment twice is a no-op.
func (r *Repo) ReturnAssignment(ctx context.Context, id string, actual time.Time, by string) (*models.Assignment, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lockAssignment(tx, id)
		if err != nil {
			return err
		}
		if a.Status == models.AssignmentReturned {
			return nil
		}
		if err := applyTransition(tx, a, Transition{To: models.AssignmentReturned, ActualReturnDate: actual, By: by}); err != nil {
			return err
		}
		if a.BasketID != nil {
			_, err = settleBasket(tx, *a.BasketID, actual)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.FindAssignmentByID(ctx, id)
}

// MarkAssignmentLost closes a checked out assignment whose equipment did
// not come back. The item stays lost.
func (r *Repo) MarkAssignmentLost(ctx context.Context, id string, reported time.Time, by string) (*models.Assignment, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lockAssignment(tx, id)
		if err != nil {
			return err
		}
		if err := applyTransition(tx, a, Transition{To: models.AssignmentLost, By: by}); err != nil {
			return err
		}
		if a.BasketID != nil {
			_, err = settleBasket(tx, *a.BasketID, reported)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.FindAssignmentByID(ctx, id)
}
