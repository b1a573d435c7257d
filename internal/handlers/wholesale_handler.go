package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"backoffice-service/internal/events"
	"backoffice-service/internal/forms"
	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type WholesaleHandler struct {
	repo      *repository.WholesaleRepository
	publisher *events.Publisher
	logger    *logrus.Entry
}

func NewWholesaleHandler(repo *repository.WholesaleRepository, publisher *events.Publisher, logger *logrus.Logger) *WholesaleHandler {
	return &WholesaleHandler{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithField("component", "wholesale-handler"),
	}
}

// GetWholesaleLots retrieves the wholesale lot list with optional filters
// @Summary List wholesale lots
// @Description Get wholesale lots filtered by brand and purchase date range
// @Tags wholesale
// @Produce json
// @Param brand query string false "Brand substring (case-insensitive)"
// @Param startDate query string false "Purchase date range start (YYYY-MM-DD)"
// @Param endDate query string false "Purchase date range end, inclusive of the whole day (YYYY-MM-DD)"
// @Success 200 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /wholesale [get]
func (h *WholesaleHandler) GetWholesaleLots(c *gin.Context) {
	lots, err := h.repo.GetLots(parseLotFilters(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list wholesale lots")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Failed to load the wholesale list.",
		})
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: lots})
}

// GetWholesaleLot retrieves a single wholesale lot
// @Summary Get wholesale lot
// @Tags wholesale
// @Produce json
// @Param id path int true "Wholesale lot ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /wholesale/{id} [get]
func (h *WholesaleHandler) GetWholesaleLot(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Invalid wholesale lot id.",
		})
		return
	}

	lot, err := h.repo.GetLotByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{
				Success: false,
				Message: "Wholesale lot not found.",
			})
			return
		}
		h.logger.WithError(err).WithField("lotId", id).Error("Failed to load wholesale lot")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Failed to load the wholesale lot.",
		})
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: lot})
}

// RegisterWholesaleLot registers a new wholesale lot
// @Summary Register wholesale lot
// @Tags wholesale
// @Accept json
// @Produce json
// @Param request body models.WholesaleLotRequest true "Wholesale lot"
// @Success 201 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /wholesale/register [post]
func (h *WholesaleHandler) RegisterWholesaleLot(c *gin.Context) {
	var req models.WholesaleLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Invalid request body.",
		})
		return
	}

	lot, errs := lotFromRequest(&req)
	if errs != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Please check the submitted fields.",
			Errors:  errs,
		})
		return
	}

	if err := h.repo.CreateLot(lot); err != nil {
		h.logger.WithError(err).Error("Failed to create wholesale lot")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Wholesale registration failed. Please try again.",
		})
		return
	}

	if h.publisher != nil {
		h.publisher.PublishWholesaleRegistered(lot)
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    lot,
		Message: "Wholesale lot registered successfully.",
	})
}

// UpdateWholesaleLot replaces the mutable fields of a wholesale lot
// @Summary Update wholesale lot
// @Tags wholesale
// @Accept json
// @Produce json
// @Param id path int true "Wholesale lot ID"
// @Param request body models.WholesaleLotRequest true "Wholesale lot"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /wholesale/{id} [put]
func (h *WholesaleHandler) UpdateWholesaleLot(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Invalid wholesale lot id.",
		})
		return
	}

	var req models.WholesaleLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Invalid request body.",
		})
		return
	}

	lot, errs := lotFromRequest(&req)
	if errs != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Please check the submitted fields.",
			Errors:  errs,
		})
		return
	}

	if _, err := h.repo.GetLotByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{
				Success: false,
				Message: "Wholesale lot not found.",
			})
			return
		}
		h.logger.WithError(err).WithField("lotId", id).Error("Failed to load wholesale lot")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Failed to load the wholesale lot.",
		})
		return
	}

	if err := h.repo.UpdateLot(id, lot); err != nil {
		h.logger.WithError(err).WithField("lotId", id).Error("Failed to update wholesale lot")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Wholesale update failed. Please try again.",
		})
		return
	}

	lot.ID = id
	if h.publisher != nil {
		h.publisher.PublishWholesaleUpdated(lot)
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    lot,
		Message: "Wholesale lot updated successfully.",
	})
}

// ExportWholesaleLots downloads the filtered wholesale list as an xlsx file
// @Summary Export wholesale lots
// @Tags wholesale
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param brand query string false "Brand substring (case-insensitive)"
// @Param startDate query string false "Purchase date range start (YYYY-MM-DD)"
// @Param endDate query string false "Purchase date range end (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 500 {object} models.APIResponse
// @Router /wholesale/export [get]
func (h *WholesaleHandler) ExportWholesaleLots(c *gin.Context) {
	lots, err := h.repo.GetLots(parseLotFilters(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list wholesale lots for export")
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Failed to export the wholesale list.",
		})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Wholesale"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Name", "Supplier", "Brand", "Price", "Quantity", "Order Number", "Purchase Date", "Description"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, lot := range lots {
		description := ""
		if lot.Description != nil {
			description = *lot.Description
		}
		values := []interface{}{
			lot.ID, lot.Name, lot.Supplier, lot.Brand, lot.Price, lot.Quantity,
			lot.OrderNumber, lot.PurchaseDate.Format(dateLayout), description,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("wholesale_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write xlsx export")
	}
}

// parseLotFilters reads the wholesale list filters from the query string. A
// date-only end value is widened to the last instant of that calendar day so the
// whole day is included.
func parseLotFilters(c *gin.Context) *models.WholesaleListFilters {
	filters := &models.WholesaleListFilters{
		Brand: strings.TrimSpace(c.Query("brand")),
	}

	if startDate := c.Query("startDate"); startDate != "" {
		if t, err := parseDate(startDate); err == nil {
			filters.StartDate = &t
		}
	}
	if endDate := c.Query("endDate"); endDate != "" {
		if t, err := parseDate(endDate); err == nil {
			if dateOnlyPattern.MatchString(endDate) {
				t = t.Add(24*time.Hour - time.Millisecond)
			}
			filters.EndDate = &t
		}
	}

	return filters
}

func parseDate(value string) (time.Time, error) {
	if dateOnlyPattern.MatchString(value) {
		return time.Parse(dateLayout, value)
	}
	return time.Parse(time.RFC3339, value)
}

// lotFromRequest validates a lot request, collecting every field error, and
// builds the row to store.
func lotFromRequest(req *models.WholesaleLotRequest) (*models.WholesaleLot, forms.ValidationErrors) {
	errs := forms.ValidationErrors{}

	name := strings.TrimSpace(req.Name)
	supplier := strings.TrimSpace(req.Supplier)
	orderNumber := strings.TrimSpace(req.OrderNumber)
	purchaseDateRaw := strings.TrimSpace(req.PurchaseDate)

	if name == "" {
		errs["name"] = "Lot name is required."
	}
	if supplier == "" {
		errs["supplier"] = "Supplier is required."
	}
	if orderNumber == "" {
		errs["order_number"] = "Order number is required."
	}
	if req.Price <= 0 {
		errs["price"] = "Price must be greater than zero."
	}
	if req.Quantity <= 0 {
		errs["quantity"] = "Quantity must be greater than zero."
	}

	var purchaseDate time.Time
	if purchaseDateRaw == "" {
		errs["purchase_date"] = "Purchase date is required."
	} else {
		var err error
		purchaseDate, err = parseDate(purchaseDateRaw)
		if err != nil {
			errs["purchase_date"] = "Purchase date must be a valid date (YYYY-MM-DD)."
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	lot := &models.WholesaleLot{
		Name:         name,
		Supplier:     supplier,
		Brand:        strings.TrimSpace(req.Brand),
		Price:        req.Price,
		Quantity:     req.Quantity,
		OrderNumber:  orderNumber,
		PurchaseDate: purchaseDate,
	}
	if req.Description != nil {
		if desc := strings.TrimSpace(*req.Description); desc != "" {
			lot.Description = &desc
		}
	}

	return lot, nil
}
