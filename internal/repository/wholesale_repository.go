package repository

import (
	"time"

	"backoffice-service/internal/models"
	"gorm.io/gorm"
)

type WholesaleRepository struct {
	db *gorm.DB
}

func NewWholesaleRepository(db *gorm.DB) *WholesaleRepository {
	return &WholesaleRepository{db: db}
}

// CreateLot inserts a new wholesale lot row.
func (r *WholesaleRepository) CreateLot(lot *models.WholesaleLot) error {
	now := time.Now()
	lot.CreatedAt = now
	lot.UpdatedAt = now
	return r.db.Create(lot).Error
}

// GetLotByID retrieves a single wholesale lot.
func (r *WholesaleRepository) GetLotByID(lotID int64) (*models.WholesaleLot, error) {
	var lot models.WholesaleLot
	if err := r.db.First(&lot, lotID).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// UpdateLot replaces the mutable fields of an existing lot.
func (r *WholesaleRepository) UpdateLot(lotID int64, lot *models.WholesaleLot) error {
	updates := map[string]interface{}{
		"name":          lot.Name,
		"supplier":      lot.Supplier,
		"brand":         lot.Brand,
		"price":         lot.Price,
		"quantity":      lot.Quantity,
		"order_number":  lot.OrderNumber,
		"purchase_date": lot.PurchaseDate,
		"description":   lot.Description,
		"updated_at":    time.Now(),
	}
	return r.db.Model(&models.WholesaleLot{}).Where("id = ?", lotID).Updates(updates).Error
}

// GetLots retrieves wholesale lots with the optional filters, newest purchases
// first. The end date is inclusive of the whole calendar day: a date-only value
// has already been widened to 23:59:59.999 by the handler.
func (r *WholesaleRepository) GetLots(filters *models.WholesaleListFilters) ([]models.WholesaleLot, error) {
	var lots []models.WholesaleLot

	query := r.db.Model(&models.WholesaleLot{})
	if filters != nil {
		if filters.Brand != "" {
			query = query.Where("LOWER(brand) LIKE LOWER(?)", "%"+filters.Brand+"%")
		}
		if filters.StartDate != nil {
			query = query.Where("purchase_date >= ?", *filters.StartDate)
		}
		if filters.EndDate != nil {
			query = query.Where("purchase_date <= ?", *filters.EndDate)
		}
	}

	if err := query.Order("purchase_date DESC").Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}
