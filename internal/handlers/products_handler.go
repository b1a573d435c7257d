package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"backoffice-service/internal/events"
	"backoffice-service/internal/forms"
	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/services"
	"backoffice-service/internal/storage"
	"gorm.io/gorm"
)

type ProductsHandler struct {
	repo         *repository.ProductsRepository
	registration *services.RegistrationService
	resolver     *services.ImageResolver
	publisher    *events.Publisher
	logger       *logrus.Entry
}

// NewProductsHandler creates the product handlers. The events publisher may be
// nil when NATS is not configured.
func NewProductsHandler(
	repo *repository.ProductsRepository,
	registration *services.RegistrationService,
	resolver *services.ImageResolver,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *ProductsHandler {
	return &ProductsHandler{
		repo:         repo,
		registration: registration,
		resolver:     resolver,
		publisher:    publisher,
		logger:       logger.WithField("component", "products-handler"),
	}
}

// GetProducts retrieves the product list with optional filters
// @Summary List products
// @Description Get products filtered by category, sale status, price range and name
// @Tags products
// @Produce json
// @Param category_id query int false "Category ID (exact match)"
// @Param sale_status query string false "Sale status (SELLING, SOLD_OUT, HIDDEN)"
// @Param price_min query number false "Minimum price (inclusive)"
// @Param price_max query number false "Maximum price (inclusive)"
// @Param search query string false "Name substring (case-insensitive)"
// @Success 200 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /products [get]
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	filters := &models.ProductListFilters{
		Search: c.Query("search"),
	}

	if categoryID := c.Query("category_id"); categoryID != "" {
		if id, err := strconv.ParseInt(categoryID, 10, 64); err == nil {
			filters.CategoryID = &id
		}
	}
	if saleStatus := c.Query("sale_status"); saleStatus != "" {
		status := models.SaleStatus(saleStatus)
		filters.SaleStatus = &status
	}
	if priceMin := c.Query("price_min"); priceMin != "" {
		if min, err := strconv.ParseFloat(priceMin, 64); err == nil {
			filters.PriceMin = &min
		}
	}
	if priceMax := c.Query("price_max"); priceMax != "" {
		if max, err := strconv.ParseFloat(priceMax, 64); err == nil {
			filters.PriceMax = &max
		}
	}

	products, err := h.repo.GetProducts(filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Failed to load the product list.",
		})
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: products})
}

// GetProduct retrieves a single product
// @Summary Get product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /products/{id} [get]
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Invalid product id.",
		})
		return
	}

	product, err := h.repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{
				Success: false,
				Message: "Product not found.",
			})
			return
		}
		h.logger.WithError(err).WithField("productId", id).Error("Failed to load product")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Failed to load the product.",
		})
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: product})
}

// GetProductImages resolves the ordered image list for a product
// @Summary List product images
// @Description Resolve product images from blob storage, falling back to recorded rows
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /products/{id}/images [get]
func (h *ProductsHandler) GetProductImages(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Invalid product id.",
		})
		return
	}

	images, err := h.resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("productId", id).Error("Failed to resolve product images")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Failed to load product images.",
		})
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: images})
}

// RegisterProduct registers a new product with its images
// @Summary Register product
// @Description Register a product from a multipart form and upload its images
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Product name"
// @Param category_id formData int true "Category ID"
// @Param price formData number true "Price"
// @Param quantity formData int true "Quantity"
// @Param color formData string false "Colors (JSON array or comma/newline separated)"
// @Param description formData string false "Description"
// @Param wholesale_id formData int true "Wholesale lot ID"
// @Param sale_status formData string false "Sale status"
// @Param sizes formData string false "Sizes (JSON object, label to detail)"
// @Param main_image_index formData int false "Index of the main image" default(0)
// @Param images formData file true "Image files"
// @Success 201 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /products/register [post]
func (h *ProductsHandler) RegisterProduct(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Invalid multipart form.",
		})
		return
	}

	productForm := forms.ParseProductForm(form, h.logger)

	result, err := h.registration.Register(c.Request.Context(), productForm)
	if err != nil {
		var validationErrs forms.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			c.JSON(http.StatusBadRequest, models.APIResponse{
				Success: false,
				Message: "Please check the submitted fields.",
				Errors:  validationErrs,
			})
		case errors.Is(err, storage.ErrNotConfigured):
			h.logger.WithError(err).Error("Blob storage is not configured")
			c.JSON(http.StatusInternalServerError, models.APIResponse{
				Success: false,
				Message: "Blob storage is not configured. Check the server environment.",
			})
		default:
			h.logger.WithError(err).Error("Product registration failed")
			c.JSON(http.StatusInternalServerError, models.APIResponse{
				Success: false,
				Message: "Product registration failed. Please try again.",
			})
		}
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductRegistered(result.Product)
	}

	message := "Product registered successfully."
	if result.Warning != "" {
		message = result.Warning
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    result.Product,
		Message: message,
	})
}

// GetCategories lists all categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /categories [get]
func (h *ProductsHandler) GetCategories(c *gin.Context) {
	categories, err := h.repo.GetCategories(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list categories")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Failed to load categories.",
		})
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: categories})
}
