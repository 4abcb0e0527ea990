package db

import (
	"dive_center_rental/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBasket_NumbersAreUnique(t *testing.T) {
	f := newFixture(t)
	a := f.basket("2024-05-01", "2024-05-02")
	f.numbers.queued = []string{a.BasketNumber, a.BasketNumber}
	b := f.basket("2024-05-01", "2024-05-02")

	assert.NotEqual(t, a.BasketNumber, b.BasketNumber)
	assert.Equal(t, models.BasketActive, b.Status)
}

func TestCreateBasket_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	a := f.basket("2024-05-01", "2024-05-02")
	for i := 0; i < basketNumberAttempts; i++ {
		f.numbers.queued = append(f.numbers.queued, a.BasketNumber)
	}
	_, err := f.repo.CreateBasket(f.ctx, CreateBasketInput{
		CustomerID: f.customer.ID, CheckoutDate: day("2024-05-01"), ExpectedReturnDate: day("2024-05-02"),
	})
	assert.ErrorIs(t, err, ErrBasketNumberExhausted)
}

func TestCreateBasket_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.repo.CreateBasket(f.ctx, CreateBasketInput{
		CustomerID: f.customer.ID, CheckoutDate: day("2024-05-03"), ExpectedReturnDate: day("2024-05-01"),
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.repo.CreateBasket(f.ctx, CreateBasketInput{
		CustomerID: "missing", CheckoutDate: day("2024-05-01"), ExpectedReturnDate: day("2024-05-01"),
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCheckoutBasket(t *testing.T) {
	f := newFixture(t)
	r1, r2 := f.item("R-1"), f.item("R-2")
	b := f.basket("2024-05-01", "2024-05-03")
	f.assign(b.ID, r1.ID)
	f.assign(b.ID, r2.ID)

	detail, err := f.repo.CheckoutBasket(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, detail.Assignments, 2)
	for _, a := range detail.Assignments {
		assert.Equal(t, models.AssignmentCheckedOut, a.Status)
		require.NotNil(t, a.Item)
		assert.Equal(t, models.ItemRented, a.Item.Status)
	}
}

func TestCheckoutBasket_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	r1, r2 := f.item("R-1"), f.item("R-2")
	b := f.basket("2024-05-01", "2024-05-03")
	a1 := f.assign(b.ID, r1.ID)
	f.assign(b.ID, r2.ID)
	retired := models.ServiceRetired
	_, err := f.repo.UpdateItem(f.ctx, r2.ID, UpdateItemInput{ServiceStatus: &retired})
	require.NoError(t, err)

	_, err = f.repo.CheckoutBasket(f.ctx, b.ID)
	assert.ErrorIs(t, err, models.ErrItemUnavailable)
	assert.Equal(t, models.AssignmentPending, f.assignmentStatus(a1.ID))
	assert.Equal(t, models.ItemAvailable, f.itemStatus(r1.ID))
}

func TestUpdateBasket_MovesOpenAssignments(t *testing.T) {
	f := newFixture(t)
	it := f.item("R-1")
	b := f.basket("2024-05-01", "2024-05-03")
	a := f.assign(b.ID, it.ID)
	next := f.basket("2024-05-06", "2024-05-07")
	f.assign(next.ID, it.ID)

	end := day("2024-05-06")
	_, err := f.repo.UpdateBasket(f.ctx, b.ID, UpdateBasketInput{ExpectedReturnDate: &end})
	assert.ErrorIs(t, err, models.ErrItemUnavailable)

	end = day("2024-05-05")
	bucket := "B12"
	detail, err := f.repo.UpdateBasket(f.ctx, b.ID, UpdateBasketInput{ExpectedReturnDate: &end, BucketNumber: &bucket})
	require.NoError(t, err)
	assert.Equal(t, end, detail.ExpectedReturnDate)
	require.NotNil(t, detail.BucketNumber)
	assert.Equal(t, "B12", *detail.BucketNumber)

	got, err := f.repo.FindAssignmentByID(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, end, got.ReturnDate)
}

func TestUpdateBasket_ShorterThanAssignmentStartRejected(t *testing.T) {
	f := newFixture(t)
	it := f.item("R-1")
	b := f.basket("2024-05-01", "2024-05-10")
	start := day("2024-05-06")
	as, err := f.repo.AddAssignment(f.ctx, AddAssignmentInput{
		BasketID:     b.ID,
		Selection:    ItemSelection{Source: models.SourceCenter, ItemID: it.ID},
		CheckoutDate: &start,
	})
	require.NoError(t, err)
	require.Len(t, as, 1)

	end := day("2024-05-03")
	_, err = f.repo.UpdateBasket(f.ctx, b.ID, UpdateBasketInput{ExpectedReturnDate: &end})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	got, err := f.repo.FindAssignmentByID(f.ctx, as[0].ID)
	require.NoError(t, err)
	assert.Equal(t, day("2024-05-06"), got.CheckoutDate)
	assert.Equal(t, day("2024-05-10"), got.ReturnDate)

	other := f.basket("2024-05-04", "2024-05-08")
	_, err = f.repo.AddAssignment(f.ctx, AddAssignmentInput{
		BasketID:  other.ID,
		Selection: ItemSelection{Source: models.SourceCenter, ItemID: it.ID},
	})
	assert.ErrorIs(t, err, models.ErrItemUnavailable)
}

func TestHighestBasketSequence(t *testing.T) {
	f := newFixture(t)
	n, err := f.repo.HighestBasketSequence(f.ctx, "BK")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	f.basket("2024-05-01", "2024-05-02")
	f.numbers.queued = []string{"BK-000042", "BK-240501-1A2B", "XY-000900"}
	f.basket("2024-05-01", "2024-05-02")
	f.basket("2024-05-01", "2024-05-02")
	f.basket("2024-05-01", "2024-05-02")

	n, err = f.repo.HighestBasketSequence(f.ctx, "BK")
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}

func TestDeleteBasket(t *testing.T) {
	f := newFixture(t)
	r1, r2 := f.item("R-1"), f.item("R-2")
	pending := f.basket("2024-05-01", "2024-05-03")
	a := f.assign(pending.ID, r1.ID)
	out := f.basket("2024-05-01", "2024-05-03")
	f.checkedOut(out.ID, r2.ID)

	require.NoError(t, f.repo.DeleteBasket(f.ctx, pending.ID))
	_, err := f.repo.FindAssignmentByID(f.ctx, a.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = f.repo.DeleteBasket(f.ctx, out.ID)
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)
}

func TestListBaskets(t *testing.T) {
	f := newFixture(t)
	it := f.item("R-1")
	b := f.basket("2024-05-01", "2024-05-03")
	f.assign(b.ID, it.ID)
	f.basket("2024-05-10", "2024-05-11")

	other := &models.Customer{FirstName: "Jacques", LastName: "Cousteau"}
	require.NoError(t, f.repo.CreateCustomer(f.ctx, other))
	_, err := f.repo.CreateBasket(f.ctx, CreateBasketInput{
		CustomerID: other.ID, CheckoutDate: day("2024-05-01"), ExpectedReturnDate: day("2024-05-02"),
	})
	require.NoError(t, err)

	all, err := f.repo.ListBaskets(f.ctx, BasketQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total)

	mine, err := f.repo.ListBaskets(f.ctx, BasketQuery{Q: "earle", Status: string(models.BasketActive)})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Total)

	byNumber, err := f.repo.ListBaskets(f.ctx, BasketQuery{Q: b.BasketNumber})
	require.NoError(t, err)
	require.Len(t, byNumber.Baskets, 1)
	row := byNumber.Baskets[0]
	assert.Equal(t, "Sylvia Earle", row.CustomerName)
	assert.EqualValues(t, 1, row.AssignmentCount)
	assert.EqualValues(t, 1, row.OpenCount)

	paged, err := f.repo.ListBaskets(f.ctx, BasketQuery{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, paged.Total)
	assert.Len(t, paged.Baskets, 1)
}
