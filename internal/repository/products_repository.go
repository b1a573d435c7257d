package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"backoffice-service/internal/models"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	ProductCacheTTL  = 5 * time.Minute  // Single product cache
	CategoryCacheTTL = 30 * time.Minute // Categories rarely change
)

type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewProductsRepository(db *gorm.DB, redis *redis.Client) *ProductsRepository {
	return &ProductsRepository{
		db:    db,
		redis: redis,
	}
}

// CreateProduct inserts a new product row and fills in the generated id.
func (r *ProductsRepository) CreateProduct(product *models.Product) error {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	return r.db.Create(product).Error
}

// GetProductByID retrieves a product by ID with caching
func (r *ProductsRepository) GetProductByID(ctx context.Context, productID int64) (*models.Product, error) {
	cacheKey := fmt.Sprintf("backoffice:product:%d", productID)

	// Try to get from cache first
	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.First(&product, productID).Error; err != nil {
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		data, err := json.Marshal(product)
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetProducts retrieves products with the optional, conjunctive list filters.
// Default order is creation time descending.
func (r *ProductsRepository) GetProducts(filters *models.ProductListFilters) ([]models.Product, error) {
	var products []models.Product

	query := r.db.Model(&models.Product{})
	if filters != nil {
		if filters.CategoryID != nil {
			query = query.Where("category_id = ?", *filters.CategoryID)
		}
		if filters.SaleStatus != nil {
			query = query.Where("sale_status = ?", *filters.SaleStatus)
		}
		if filters.PriceMin != nil {
			query = query.Where("price >= ?", *filters.PriceMin)
		}
		if filters.PriceMax != nil {
			query = query.Where("price <= ?", *filters.PriceMax)
		}
		if filters.Search != "" {
			query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filters.Search+"%")
		}
	}

	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProductImages batch-inserts image rows for a product.
func (r *ProductsRepository) CreateProductImages(images []models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.Create(&images).Error
}

// GetProductImages returns the recorded image rows for a product, main image first,
// then by insertion order.
func (r *ProductsRepository) GetProductImages(productID int64) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.db.Where("product_id = ?", productID).
		Order("is_main DESC").
		Order("id ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// GetCategories lists all categories ordered by id, with caching.
func (r *ProductsRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	const cacheKey = "backoffice:categories"

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var categories []models.Category
			if err := json.Unmarshal([]byte(val), &categories); err == nil {
				return categories, nil
			}
		}
	}

	var categories []models.Category
	if err := r.db.Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}

	if r.redis != nil {
		data, err := json.Marshal(categories)
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryCacheTTL)
		}
	}

	return categories, nil
}
