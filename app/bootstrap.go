// app/bootstrap.go
package app

import (
	"context"
	"dive_center_rental/models"

	"go.uber.org/zap"
)

var defaultEquipmentTypes = []models.EquipmentType{
	{Name: "BCD", Category: "scuba"},
	{Name: "Regulator", Category: "scuba"},
	{Name: "Wetsuit", Category: "exposure"},
	{Name: "Mask", Category: "snorkel"},
	{Name: "Fins", Category: "snorkel"},
	{Name: "Tank", Category: "scuba"},
	{Name: "Dive computer", Category: "instrument"},
}

// BootstrapCatalog seeds the usual rental equipment types into an empty
// catalog.
func BootstrapCatalog(ctx context.Context, a *App) error {
	existing, err := a.Repo.ListEquipmentTypes(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, t := range defaultEquipmentTypes {
		t := t
		if err := a.Repo.CreateEquipmentType(ctx, &t); err != nil {
			return err
		}
	}
	a.Log.Info("seeded equipment catalog", zap.Int("types", len(defaultEquipmentTypes)))
	return nil
}

// SyncBasketSequence moves the Redis counter past every basket number
// already stored, so a flushed or replaced Redis never reissues one.
func SyncBasketSequence(ctx context.Context, a *App) error {
	if a.seq == nil {
		return nil
	}
	n, err := a.Repo.HighestBasketSequence(ctx, a.Config.BasketPrefix)
	if err != nil {
		return err
	}
	if err := a.seq.Seed(ctx, n); err != nil {
		return err
	}
	a.Log.Info("basket sequence synced", zap.Int64("highest", n))
	return nil
}
