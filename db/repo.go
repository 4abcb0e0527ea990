package db

import (
	"context"
	"dive_center_rental/models"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BasketNumberer hands out human readable basket numbers. Uniqueness is
// checked again by CreateBasket.
type BasketNumberer interface {
	Next(ctx context.Context) (string, error)
}

type Repo struct {
	DB      *gorm.DB
	numbers BasketNumberer
}

func NewRepo(db *gorm.DB, numbers BasketNumberer) *Repo {
	return &Repo{DB: db, numbers: numbers}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", models.ErrNotFound, kind, id)
}

// first loads one row and maps gorm.ErrRecordNotFound to models.ErrNotFound.
func first(tx *gorm.DB, dest any, kind, id string) error {
	err := tx.First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	return err
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// IsDomainError tells caller-fixable failures apart from storage errors.
func IsDomainError(err error) bool {
	return errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrInsufficientAvailability) ||
		errors.Is(err, models.ErrItemUnavailable) ||
		errors.Is(err, models.ErrInvalidStateTransition) ||
		errors.Is(err, models.ErrInvalidInput)
}

func pageBounds(page, size, max int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > max {
		size = 20
	}
	return page, size
}

func statusStrings(ss []models.AssignmentStatus) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
