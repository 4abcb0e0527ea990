package db

import (
	"context"
	"dive_center_rental/models"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Equipment types

func (r *Repo) CreateEquipmentType(ctx context.Context, t *models.EquipmentType) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("%w: equipment type name is required", models.ErrInvalidInput)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *Repo) ListEquipmentTypes(ctx context.Context) ([]models.EquipmentType, error) {
	var ts []models.EquipmentType
	err := r.DB.WithContext(ctx).Order("name").Find(&ts).Error
	return ts, err
}

func (r *Repo) FindEquipmentTypeByID(ctx context.Context, id string) (*models.EquipmentType, error) {
	var t models.EquipmentType
	if err := first(r.DB.WithContext(ctx), &t, "equipment type", id); err != nil {
		return nil, err
	}
	return &t, nil
}

// Items

func (r *Repo) CreateItem(ctx context.Context, it *models.EquipmentItem) error {
	if _, err := r.FindEquipmentTypeByID(ctx, it.TypeID); err != nil {
		return err
	}
	if it.ServiceStatus == "" {
		it.ServiceStatus = models.ServiceInService
	}
	if !it.ServiceStatus.Valid() {
		return fmt.Errorf("%w: service status %q", models.ErrInvalidInput, it.ServiceStatus)
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.Status = models.DeriveItemStatus(it.ServiceStatus, nil)
	return r.DB.WithContext(ctx).Create(it).Error
}

func (r *Repo) FindItemByID(ctx context.Context, id string) (*models.EquipmentItem, error) {
	var it models.EquipmentItem
	if err := first(r.DB.WithContext(ctx).Preload("Type"), &it, "equipment item", id); err != nil {
		return nil, err
	}
	return &it, nil
}

type ItemQuery struct {
	TypeID string
	Status string
	Q      string // serial / inventory code / brand
}

func (r *Repo) ListItems(ctx context.Context, q ItemQuery) ([]models.EquipmentItem, error) {
	tx := r.DB.WithContext(ctx).Model(&models.EquipmentItem{}).Preload("Type")
	if q.TypeID != "" {
		tx = tx.Where("type_id = ?", q.TypeID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("(LOWER(serial_number) LIKE ? OR LOWER(inventory_code) LIKE ? OR LOWER(brand) LIKE ?)", pat, pat, pat)
	}
	var items []models.EquipmentItem
	err := tx.Order("created_at DESC").Find(&items).Error
	return items, err
}

type UpdateItemInput struct {
	Size          *string
	Brand         *string
	ServiceStatus *models.ServiceStatus
}

// UpdateItem edits descriptive fields and the service status. The visible
// status is recomputed, never taken from the caller.
func (r *Repo) UpdateItem(ctx context.Context, id string, in UpdateItemInput) (*models.EquipmentItem, error) {
	if in.ServiceStatus != nil && !in.ServiceStatus.Valid() {
		return nil, fmt.Errorf("%w: service status %q", models.ErrInvalidInput, *in.ServiceStatus)
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.EquipmentItem
		if err := first(forUpdate(tx), &it, "equipment item", id); err != nil {
			return err
		}
		update := map[string]any{"updated_at": time.Now()}
		if in.Size != nil {
			update["size"] = *in.Size
		}
		if in.Brand != nil {
			update["brand"] = *in.Brand
		}
		if in.ServiceStatus != nil {
			update["service_status"] = string(*in.ServiceStatus)
		}
		if err := tx.Model(&models.EquipmentItem{}).Where("id = ?", id).Updates(update).Error; err != nil {
			return err
		}
		_, err := refreshItemStatus(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.FindItemByID(ctx, id)
}

// refreshItemStatus is the only writer of equipment_items.status. Callers
// hold the item row lock.
func refreshItemStatus(tx *gorm.DB, itemID string) (models.ItemStatus, error) {
	var it models.EquipmentItem
	if err := first(tx, &it, "equipment item", itemID); err != nil {
		return "", err
	}
	var raw []string
	if err := tx.Model(&models.Assignment{}).
		Where("item_id = ? AND status IN ?", itemID,
			statusStrings([]models.AssignmentStatus{models.AssignmentCheckedOut, models.AssignmentLost})).
		Pluck("status", &raw).Error; err != nil {
		return "", err
	}
	open := make([]models.AssignmentStatus, len(raw))
	for i, s := range raw {
		open[i] = models.AssignmentStatus(s)
	}
	next := models.DeriveItemStatus(it.ServiceStatus, open)
	if next == it.Status {
		return next, nil
	}
	if err := tx.Model(&models.EquipmentItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"status": string(next), "updated_at": time.Now()}).Error; err != nil {
		return "", err
	}
	return next, nil
}
