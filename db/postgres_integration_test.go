//go:build integration

package db

import (
	"context"
	"dive_center_rental/models"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "rental",
			"POSTGRES_PASSWORD": "rental",
			"POSTGRES_DB":       "rental",
		},
		// the server restarts once after initdb
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=rental password=rental dbname=rental sslmode=disable", host, port.Port())
	conn, err := ConnectPostgres(dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(conn, zap.NewNop()))
	return conn
}

func TestPostgres_ConcurrentAddAssignment(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	repo := NewRepo(conn, &counterNumbers{})

	cust := &models.Customer{FirstName: "Hans", LastName: "Hass"}
	require.NoError(t, repo.CreateCustomer(ctx, cust))
	typ := &models.EquipmentType{Name: "Tank"}
	require.NoError(t, repo.CreateEquipmentType(ctx, typ))
	serial := "T-1"
	it := &models.EquipmentItem{TypeID: typ.ID, SerialNumber: &serial}
	require.NoError(t, repo.CreateItem(ctx, it))

	const racers = 8
	baskets := make([]*models.Basket, racers)
	for i := range baskets {
		b, err := repo.CreateBasket(ctx, CreateBasketInput{
			CustomerID: cust.ID, CheckoutDate: day("2024-05-01"), ExpectedReturnDate: day("2024-05-03"),
		})
		require.NoError(t, err)
		baskets[i] = b
	}

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i, b := range baskets {
		wg.Add(1)
		go func(i int, basketID string) {
			defer wg.Done()
			_, errs[i] = repo.AddAssignment(ctx, AddAssignmentInput{
				BasketID:  basketID,
				Selection: ItemSelection{Source: models.SourceCenter, ItemID: it.ID},
			})
		}(i, b.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, models.ErrItemUnavailable), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	var n int64
	require.NoError(t, conn.Model(&models.Assignment{}).Where("item_id = ?", it.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestPostgres_OverlapConstraintInstalled(t *testing.T) {
	conn := startPostgres(t)

	var n int64
	require.NoError(t, conn.Raw(`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, overlapConstraint).Scan(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestPostgres_AvailabilityAndAddByType(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	repo := NewRepo(conn, &counterNumbers{})

	cust := &models.Customer{FirstName: "Hans", LastName: "Hass"}
	require.NoError(t, repo.CreateCustomer(ctx, cust))
	typ := &models.EquipmentType{Name: "Wetsuit"}
	require.NoError(t, repo.CreateEquipmentType(ctx, typ))
	serial, inv := "W-1", "INV-9"
	require.NoError(t, repo.CreateItem(ctx, &models.EquipmentItem{TypeID: typ.ID, SerialNumber: &serial}))
	require.NoError(t, repo.CreateItem(ctx, &models.EquipmentItem{TypeID: typ.ID, InventoryCode: &inv}))
	require.NoError(t, repo.CreateItem(ctx, &models.EquipmentItem{TypeID: typ.ID}))

	items, err := repo.CheckAvailability(ctx, AvailabilityQuery{
		TypeID: typ.ID, Quantity: 3, Start: day("2024-05-01"), End: day("2024-05-03"),
	})
	require.NoError(t, err)
	require.Len(t, items, 3)
	got := codes(items)
	assert.Contains(t, got, "INV-9")
	assert.Contains(t, got, "W-1")
	assert.Less(t, indexOf(got, "INV-9"), indexOf(got, "W-1"))

	b, err := repo.CreateBasket(ctx, CreateBasketInput{
		CustomerID: cust.ID, CheckoutDate: day("2024-05-01"), ExpectedReturnDate: day("2024-05-03"),
	})
	require.NoError(t, err)
	as, err := repo.AddAssignment(ctx, AddAssignmentInput{
		BasketID:  b.ID,
		Selection: ItemSelection{Source: models.SourceCenter, EquipmentTypeID: typ.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Len(t, as, 2)

	_, err = repo.CheckAvailability(ctx, AvailabilityQuery{
		TypeID: typ.ID, Quantity: 2, Start: day("2024-05-03"), End: day("2024-05-04"),
	})
	assert.ErrorIs(t, err, models.ErrInsufficientAvailability)
}

func indexOf(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}
