package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"backoffice-service/internal/models"
	"gorm.io/gorm"
)

func seedLot(t *testing.T, db *gorm.DB, name, brand string, purchaseDate time.Time) *models.WholesaleLot {
	t.Helper()
	lot := &models.WholesaleLot{
		Name:         name,
		Supplier:     "Dongdaemun Trading",
		Brand:        brand,
		Price:        100000,
		Quantity:     50,
		OrderNumber:  "ORD-" + name,
		PurchaseDate: purchaseDate,
	}
	require.NoError(t, db.Create(lot).Error)
	return lot
}

func TestGetLotsEndDateIncludesWholeDay(t *testing.T) {
	db := newTestDB(t)
	repo := NewWholesaleRepository(db)

	seedLot(t, db, "evening", "Acme", time.Date(2024, 1, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC))
	seedLot(t, db, "next day", "Acme", time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC))

	// The handler widens a date-only end value to the last instant of the day.
	endDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Add(24*time.Hour - time.Millisecond)
	lots, err := repo.GetLots(&models.WholesaleListFilters{EndDate: &endDate})
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "evening", lots[0].Name)
}

func TestGetLotsBrandIsCaseInsensitiveSubstring(t *testing.T) {
	db := newTestDB(t)
	repo := NewWholesaleRepository(db)

	now := time.Now()
	seedLot(t, db, "a", "Nike Korea", now)
	seedLot(t, db, "b", "Adidas", now)

	lots, err := repo.GetLots(&models.WholesaleListFilters{Brand: "nike"})
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "Nike Korea", lots[0].Brand)
}

func TestGetLotsNewestPurchaseFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewWholesaleRepository(db)

	seedLot(t, db, "old", "Acme", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	seedLot(t, db, "new", "Acme", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	seedLot(t, db, "mid", "Acme", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	lots, err := repo.GetLots(nil)
	require.NoError(t, err)
	require.Len(t, lots, 3)
	assert.Equal(t, "new", lots[0].Name)
	assert.Equal(t, "mid", lots[1].Name)
	assert.Equal(t, "old", lots[2].Name)
}

func TestUpdateLotReplacesAllMutableFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewWholesaleRepository(db)

	desc := "spring stock"
	lot := seedLot(t, db, "original", "Acme", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	lot.Description = &desc
	require.NoError(t, db.Save(lot).Error)

	replacement := &models.WholesaleLot{
		Name:         "renamed",
		Supplier:     "New Supplier",
		Brand:        "Rebrand",
		Price:        200000,
		Quantity:     25,
		OrderNumber:  "ORD-renamed",
		PurchaseDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.UpdateLot(lot.ID, replacement))

	loaded, err := repo.GetLotByID(lot.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Name)
	assert.Equal(t, "New Supplier", loaded.Supplier)
	assert.Equal(t, 200000.0, loaded.Price)
	assert.Equal(t, 25, loaded.Quantity)
	// A replacement without a description clears the stored one.
	assert.Nil(t, loaded.Description)
}

func TestGetLotByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewWholesaleRepository(db)

	_, err := repo.GetLotByID(4242)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
