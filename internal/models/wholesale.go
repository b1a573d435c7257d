package models

import "time"

// WholesaleLot represents a recorded wholesale purchase batch. Lots are created by
// the register form and fully replaced by the edit form; they are never deleted.
// Products reference a lot by id without a foreign key constraint, so orphaned
// references must not break reads.
type WholesaleLot struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"not null"`
	Supplier     string    `json:"supplier" gorm:"not null"`
	Brand        string    `json:"brand" gorm:"index"`
	Price        float64   `json:"price" gorm:"not null"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	OrderNumber  string    `json:"order_number" gorm:"not null"`
	PurchaseDate time.Time `json:"purchase_date" gorm:"not null;index"`
	Description  *string   `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WholesaleLotRequest is the JSON body for registering or editing a wholesale lot.
// The "order" key matches the register form's historical field name.
type WholesaleLotRequest struct {
	Name         string  `json:"name"`
	Supplier     string  `json:"supplier"`
	Brand        string  `json:"brand"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	OrderNumber  string  `json:"order"`
	Description  *string `json:"description,omitempty"`
	PurchaseDate string  `json:"purchase_date"`
}

// WholesaleListFilters holds the optional wholesale list filters. A date-only
// end value is widened to the last instant of that calendar day before it lands here.
type WholesaleListFilters struct {
	Brand     string
	StartDate *time.Time
	EndDate   *time.Time
}

// TableName returns the table name for the WholesaleLot model
func (WholesaleLot) TableName() string {
	return "wholesale_products"
}
