package db

import (
	"context"
	"dive_center_rental/models"
	"strings"

	"github.com/google/uuid"
)

// Customers

func (r *Repo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	if c.FirstName == "" {
		return models.ErrInvalidInput
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *Repo) FindCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	if err := first(r.DB.WithContext(ctx), &c, "customer", id); err != nil {
		return nil, err
	}
	return &c, nil
}

// CustomerDisplayName labels baskets and assignments in responses.
func (r *Repo) CustomerDisplayName(ctx context.Context, id string) (string, error) {
	c, err := r.FindCustomerByID(ctx, id)
	if err != nil {
		return "", err
	}
	return c.DisplayName(), nil
}

// Bookings

func (r *Repo) CreateBooking(ctx context.Context, b *models.Booking) error {
	if _, err := r.FindCustomerByID(ctx, b.CustomerID); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.DiveDate = models.Day(b.DiveDate)
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *Repo) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := first(r.DB.WithContext(ctx), &b, "booking", id); err != nil {
		return nil, err
	}
	return &b, nil
}
