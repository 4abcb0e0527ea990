//go:build integration

package app

import (
	"context"
	"dive_center_rental/config"
	"dive_center_rental/db"
	"dive_center_rental/models"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestSyncBasketSequence_FreshRedisSkipsStoredNumbers(t *testing.T) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })
	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})

	a := New(config.Defaults(), openTestDB(t), rdb, zap.NewNop())
	t.Cleanup(a.Close)

	cust := &models.Customer{FirstName: "Lotte", LastName: "Hass"}
	require.NoError(t, a.Repo.CreateCustomer(ctx, cust))
	require.NoError(t, a.DB.Create(&models.Basket{
		ID:                 "b-7",
		CustomerID:         cust.ID,
		BasketNumber:       "BK-000007",
		CheckoutDate:       models.Day(time.Now()),
		ExpectedReturnDate: models.Day(time.Now()),
		Status:             models.BasketActive,
	}).Error)

	require.NoError(t, SyncBasketSequence(ctx, a))
	b, err := a.Repo.CreateBasket(ctx, db.CreateBasketInput{
		CustomerID:         cust.ID,
		CheckoutDate:       models.Day(time.Now()),
		ExpectedReturnDate: models.Day(time.Now()),
	})
	require.NoError(t, err)
	assert.Equal(t, "BK-000008", b.BasketNumber)
}
