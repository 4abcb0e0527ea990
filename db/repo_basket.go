package db

import (
	"context"
	"dive_center_rental/models"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const basketNumberAttempts = 5

var ErrBasketNumberExhausted = errors.New("could not allocate a unique basket number")

type CreateBasketInput struct {
	CustomerID         string
	CheckoutDate       time.Time
	ExpectedReturnDate time.Time
	BucketNumber       *string
	Notes              string
}

// CreateBasket opens an active basket for a customer under a fresh basket
// number.
func (r *Repo) CreateBasket(ctx context.Context, in CreateBasketInput) (*models.Basket, error) {
	start, end := models.Day(in.CheckoutDate), models.Day(in.ExpectedReturnDate)
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: checkout and expected return dates are required", models.ErrInvalidInput)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: expected return date before checkout date", models.ErrInvalidInput)
	}
	if _, err := r.FindCustomerByID(ctx, in.CustomerID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < basketNumberAttempts; attempt++ {
		number, err := r.numbers.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("basket number: %w", err)
		}
		var n int64
		if err := r.DB.WithContext(ctx).Model(&models.Basket{}).
			Where("basket_number = ?", number).Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			continue
		}
		b := &models.Basket{
			ID:                 uuid.NewString(),
			CustomerID:         in.CustomerID,
			BasketNumber:       number,
			BucketNumber:       in.BucketNumber,
			CheckoutDate:       start,
			ExpectedReturnDate: end,
			Status:             models.BasketActive,
			Notes:              in.Notes,
		}
		err = r.DB.WithContext(ctx).Create(b).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, ErrBasketNumberExhausted
}

// HighestBasketSequence returns the largest n among stored basket numbers
// of the form PREFIX-n, or 0 when there is none. Random numbers
// (PREFIX-YYMMDD-XXXX) are ignored.
func (r *Repo) HighestBasketSequence(ctx context.Context, prefix string) (int64, error) {
	var numbers []string
	if err := r.DB.WithContext(ctx).Model(&models.Basket{}).
		Where("basket_number LIKE ?", prefix+"-%").
		Pluck("basket_number", &numbers).Error; err != nil {
		return 0, err
	}
	var highest int64
	for _, number := range numbers {
		n, err := strconv.ParseInt(strings.TrimPrefix(number, prefix+"-"), 10, 64)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

type BasketDetail struct {
	models.Basket
	CustomerName string `json:"customerName"`
}

func (r *Repo) GetBasket(ctx context.Context, id string) (*BasketDetail, error) {
	var b models.Basket
	err := first(r.DB.WithContext(ctx).
		Preload("Assignments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, id") }).
		Preload("Assignments.Item"), &b, "basket", id)
	if err != nil {
		return nil, err
	}
	name, err := r.CustomerDisplayName(ctx, b.CustomerID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	return &BasketDetail{Basket: b, CustomerName: name}, nil
}

type BasketRow struct {
	ID                 string              `json:"id"`
	CustomerID         string              `json:"customerId"`
	CustomerName       string              `json:"customerName"`
	BasketNumber       string              `json:"basketNumber"`
	BucketNumber       *string             `json:"bucketNumber,omitempty"`
	CheckoutDate       time.Time           `json:"checkoutDate"`
	ExpectedReturnDate time.Time           `json:"expectedReturnDate"`
	ActualReturnDate   *time.Time          `json:"actualReturnDate,omitempty"`
	Status             models.BasketStatus `json:"status"`
	AssignmentCount    int64               `json:"assignmentCount"`
	OpenCount          int64               `json:"openCount"`
	CreatedAt          time.Time           `json:"createdAt"`
}

type BasketQuery struct {
	Q          string // basket / bucket number or customer name
	Status     string
	CustomerID string
	Page       int
	Size       int
}

type PagedBaskets struct {
	Total   int64       `json:"total"`
	Baskets []BasketRow `json:"baskets"`
}

func (r *Repo) ListBaskets(ctx context.Context, q BasketQuery) (*PagedBaskets, error) {
	page, size := pageBounds(q.Page, q.Size, 200)
	db := r.DB.WithContext(ctx)

	filter := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Joins("LEFT JOIN " + models.CustomerTable + " c ON c.id = b.customer_id")
		if q.Status != "" {
			tx = tx.Where("b.status = ?", q.Status)
		}
		if q.CustomerID != "" {
			tx = tx.Where("b.customer_id = ?", q.CustomerID)
		}
		if s := strings.TrimSpace(q.Q); s != "" {
			pat := "%" + strings.ToLower(s) + "%"
			tx = tx.Where(`(LOWER(b.basket_number) LIKE ? OR LOWER(COALESCE(b.bucket_number, '')) LIKE ?
				OR LOWER(c.first_name || ' ' || COALESCE(c.last_name, '')) LIKE ?)`, pat, pat, pat)
		}
		return tx
	}

	var total int64
	if err := filter(db.Table(models.BasketTable + " b")).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []BasketRow
	err := filter(db.Table(models.BasketTable+" b")).
		Select(fmt.Sprintf(`
			b.id, b.customer_id, b.basket_number, b.bucket_number,
			b.checkout_date, b.expected_return_date, b.actual_return_date,
			b.status, b.created_at,
			TRIM(COALESCE(c.first_name, '') || ' ' || COALESCE(c.last_name, '')) AS customer_name,
			(SELECT COUNT(*) FROM %[1]s a WHERE a.basket_id = b.id) AS assignment_count,
			(SELECT COUNT(*) FROM %[1]s a WHERE a.basket_id = b.id AND a.status IN ('pending', 'checked_out')) AS open_count
		`, models.AssignmentTable)).
		Order("b.created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return &PagedBaskets{Total: total, Baskets: rows}, nil
}

type UpdateBasketInput struct {
	BucketNumber       *string
	ExpectedReturnDate *time.Time
	Notes              *string
}

// UpdateBasket edits an active basket. Moving the expected return date
// moves the open assignments that followed it, after checking their items
// are free for the longer window.
func (r *Repo) UpdateBasket(ctx context.Context, id string, in UpdateBasketInput) (*BasketDetail, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Basket
		if err := first(forUpdate(tx), &b, "basket", id); err != nil {
			return err
		}
		if b.Status != models.BasketActive {
			return fmt.Errorf("%w: basket %s is %s", models.ErrInvalidStateTransition, b.BasketNumber, b.Status)
		}
		update := map[string]any{"updated_at": time.Now()}
		if in.BucketNumber != nil {
			update["bucket_number"] = *in.BucketNumber
		}
		if in.Notes != nil {
			update["notes"] = *in.Notes
		}
		if in.ExpectedReturnDate != nil {
			end := models.Day(*in.ExpectedReturnDate)
			if end.Before(b.CheckoutDate) {
				return fmt.Errorf("%w: expected return date before checkout date", models.ErrInvalidInput)
			}
			if err := moveReturnDate(tx, b, end); err != nil {
				return err
			}
			update["expected_return_date"] = end
		}
		return tx.Model(&models.Basket{}).Where("id = ?", id).Updates(update).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetBasket(ctx, id)
}

func moveReturnDate(tx *gorm.DB, b models.Basket, end time.Time) error {
	var open []models.Assignment
	if err := forUpdate(tx).
		Where("basket_id = ? AND status IN ? AND return_date = ?", b.ID,
			statusStrings(models.OpenAssignmentStatuses), b.ExpectedReturnDate).
		Order("id").
		Find(&open).Error; err != nil {
		return err
	}
	for _, a := range open {
		if end.Before(a.CheckoutDate) {
			return fmt.Errorf("%w: assignment %s starts %s, after the new return date",
				models.ErrInvalidInput, a.ID, a.CheckoutDate.Format(models.DateLayout))
		}
		if a.ItemID != nil && end.After(a.ReturnDate) {
			n, err := countOverlapping(tx, *a.ItemID, a.CheckoutDate, end, a.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: item on assignment %s is booked before %s",
					models.ErrItemUnavailable, a.ID, end.Format(models.DateLayout))
			}
		}
		if err := tx.Model(&models.Assignment{}).Where("id = ?", a.ID).
			Updates(map[string]any{"return_date": end, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteBasket removes a basket whose equipment never left the center,
// together with its pending assignments.
func (r *Repo) DeleteBasket(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Basket
		if err := first(forUpdate(tx), &b, "basket", id); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Assignment{}).
			Where("basket_id = ? AND status <> ?", id, string(models.AssignmentPending)).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: basket %s has equipment that was checked out", models.ErrInvalidStateTransition, b.BasketNumber)
		}
		if err := tx.Where("basket_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Basket{}, "id = ?", id).Error
	})
}

// CheckoutBasket checks out every pending assignment on the basket. Any
// item that cannot leave aborts the whole checkout.
func (r *Repo) CheckoutBasket(ctx context.Context, id string) (*BasketDetail, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Basket
		if err := first(forUpdate(tx), &b, "basket", id); err != nil {
			return err
		}
		if b.Status != models.BasketActive {
			return fmt.Errorf("%w: basket %s is %s", models.ErrInvalidStateTransition, b.BasketNumber, b.Status)
		}
		var pending []models.Assignment
		if err := forUpdate(tx).
			Where("basket_id = ? AND status = ?", id, string(models.AssignmentPending)).
			Order("created_at, id").
			Find(&pending).Error; err != nil {
			return err
		}
		for i := range pending {
			if err := applyTransition(tx, &pending[i], Transition{To: models.AssignmentCheckedOut}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetBasket(ctx, id)
}

// ReturnBasket returns everything still out on the basket.
func (r *Repo) ReturnBasket(ctx context.Context, id string, actual time.Time, by string) (*BulkReturnSummary, error) {
	return r.BulkReturn(ctx, BulkReturnInput{BasketID: id, ActualReturnDate: actual, ReturnedBy: by})
}

// settleBasket closes an active basket once every assignment on it is
// returned or lost. The caller holds the basket lock.
func settleBasket(tx *gorm.DB, basketID string, actual time.Time) (bool, error) {
	var b models.Basket
	if err := first(tx, &b, "basket", basketID); err != nil {
		return false, err
	}
	if b.Status != models.BasketActive {
		return false, nil
	}
	var raw []string
	if err := tx.Model(&models.Assignment{}).Where("basket_id = ?", basketID).
		Pluck("status", &raw).Error; err != nil {
		return false, err
	}
	statuses := make([]models.AssignmentStatus, len(raw))
	for i, s := range raw {
		statuses[i] = models.AssignmentStatus(s)
	}
	next, settled := models.SettledStatus(statuses)
	if !settled {
		return false, nil
	}
	if actual.IsZero() {
		actual = time.Now()
	}
	err := tx.Model(&models.Basket{}).Where("id = ?", basketID).Updates(map[string]any{
		"status":             string(next),
		"actual_return_date": models.Day(actual),
		"updated_at":         time.Now(),
	}).Error
	return err == nil, err
}
