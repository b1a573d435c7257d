package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// SaleStatus represents the sale status of a product
type SaleStatus string

const (
	SaleStatusSelling SaleStatus = "SELLING"
	SaleStatusSoldOut SaleStatus = "SOLD_OUT"
	SaleStatusHidden  SaleStatus = "HIDDEN"
)

// Valid reports whether s is one of the known sale statuses.
func (s SaleStatus) Valid() bool {
	switch s {
	case SaleStatusSelling, SaleStatusSoldOut, SaleStatusHidden:
		return true
	}
	return false
}

// StringList type for PostgreSQL JSONB (ordered array of strings)
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// SizeMap type for PostgreSQL JSONB (size label -> size detail)
type SizeMap map[string]string

func (m SizeMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *SizeMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Product represents a retail product derived from a wholesale lot.
// Products are created once by the registration pipeline and never edited in place.
type Product struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string     `json:"name" gorm:"not null"`
	CategoryID  int64      `json:"category_id" gorm:"not null;index"`
	Price       float64    `json:"price" gorm:"not null"`
	Quantity    int        `json:"quantity" gorm:"not null"`
	Color       StringList `json:"color" gorm:"type:jsonb"`
	Description *string    `json:"description,omitempty"`
	WholesaleID int64      `json:"wholesale_id" gorm:"not null;index"`
	SaleStatus  SaleStatus `json:"sale_status" gorm:"not null;default:'SELLING';index"`
	Sizes       SizeMap    `json:"sizes" gorm:"type:jsonb"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProductImage records one uploaded image for a product. ImageURL holds the bare
// filename inside the product's storage prefix; the column keeps its historical name.
// A value that already looks like an absolute URL is served verbatim at read time.
type ProductImage struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID int64  `json:"product_id" gorm:"not null;index"`
	ImageURL  string `json:"image_url" gorm:"not null"`
	IsMain    bool   `json:"is_main" gorm:"not null;default:false"`
}

// ProductImageView is the resolved image descriptor returned by the images endpoint.
type ProductImageView struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	ImageURL  string `json:"image_url"`
	IsMain    bool   `json:"is_main"`
	FullURL   string `json:"full_url"`
}

// Category is populated externally and read-only from this service.
type Category struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Type string `json:"type"`
	Sort string `json:"sort"`
}

// ProductListFilters holds the optional, conjunctive product list filters.
type ProductListFilters struct {
	CategoryID *int64
	SaleStatus *SaleStatus
	PriceMin   *float64
	PriceMax   *float64
	Search     string
}

// APIResponse is the shared response envelope.
type APIResponse struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the ProductImage model
func (ProductImage) TableName() string {
	return "product_images"
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}
