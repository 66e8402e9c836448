package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPurchaseServiceRecurring(t *testing.T) {
	db := setupDB(t)
	svc := NewPurchaseService(db, zap.NewNop())

	purchases, err := svc.Create(PurchaseInput{
		Description:        "Room rent",
		Category:           "Rent",
		Amount:             300,
		Date:               date(2024, time.January, 31, 9),
		IsRecurring:        true,
		RecurringFrequency: "monthly",
		RecurringEndDate:   ptr(date(2024, time.June, 30, 0)),
	})
	require.NoError(t, err)
	require.Len(t, purchases, 6)
	assert.Equal(t, date(2024, time.February, 29, 9), purchases[1].Date)

	// raise the rent from April on
	updated, err := svc.Update(purchases[3].ID, PurchasePatch{Amount: ptr(320.0)}, ScopeFuture)
	require.NoError(t, err)
	assert.Len(t, updated, 3)

	all, err := svc.List(PurchaseFilter{Category: "Rent"})
	require.NoError(t, err)
	require.Len(t, all, 6)
	var total float64
	for _, p := range all {
		total += p.Amount
	}
	assert.Equal(t, 3*300.0+3*320.0, total)

	single, err := svc.Update(purchases[0].ID, PurchasePatch{Vendor: ptr("Landlord")}, ScopeSingle)
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "Landlord", single[0].Vendor)

	removed, err := svc.Delete(purchases[4].ID, ScopeFuture)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all, err = svc.List(PurchaseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPurchaseServiceDefaults(t *testing.T) {
	db := setupDB(t)
	svc := NewPurchaseService(db, zap.NewNop())

	purchases, err := svc.Create(PurchaseInput{Description: "Workbooks", Amount: 24.5})
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, "General", purchases[0].Category)
	assert.False(t, purchases[0].Date.IsZero())
	assert.Nil(t, purchases[0].RecurringGroupID)

	_, err = svc.Delete(purchases[0].ID, ScopeFuture)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = svc.Create(PurchaseInput{Description: "Refund", Amount: -5})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestPurchaseServiceFutureDateMove(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	previous := time.Local
	time.Local = ny
	t.Cleanup(func() { time.Local = previous })

	db := setupDB(t)
	svc := NewPurchaseService(db, zap.NewNop())
	purchases, err := svc.Create(PurchaseInput{
		Description:        "Cleaning",
		Category:           "Services",
		Amount:             40,
		Date:               time.Date(2024, time.February, 28, 9, 0, 0, 0, ny),
		IsRecurring:        true,
		RecurringFrequency: "weekly",
		RecurringEndDate:   ptr(time.Date(2024, time.March, 20, 0, 0, 0, 0, ny)),
	})
	require.NoError(t, err)
	require.Len(t, purchases, 4)

	newDate := time.Date(2024, time.February, 29, 9, 0, 0, 0, ny)
	updated, err := svc.Update(purchases[0].ID, PurchasePatch{Date: &newDate}, ScopeFuture)
	require.NoError(t, err)
	require.Len(t, updated, 4)

	for _, p := range updated {
		local := p.Date.In(ny)
		assert.Equal(t, time.Thursday, local.Weekday())
		assert.Equal(t, 9, local.Hour())
	}
}
