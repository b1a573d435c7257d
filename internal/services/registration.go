// Package services holds the registration pipeline and the image resolution
// service that sit between the HTTP handlers and the repository/storage layers.
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"backoffice-service/internal/forms"
	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/storage"
)

// RegistrationService runs the product registration pipeline: validate, insert the
// product row, fan out the image uploads, then record the image rows. The product
// row is the point of no return: once it exists, later faults degrade to a
// success-with-warning instead of rolling it back, because a partially imaged
// product can be repaired by re-uploading while a lost product record cannot.
type RegistrationService struct {
	repo   *repository.ProductsRepository
	store  storage.ObjectStore
	logger *logrus.Entry
}

func NewRegistrationService(repo *repository.ProductsRepository, store storage.ObjectStore, logger *logrus.Logger) *RegistrationService {
	return &RegistrationService{
		repo:   repo,
		store:  store,
		logger: logger.WithField("component", "registration"),
	}
}

// RegistrationResult reports the outcome of a registration. Warning is set on a
// degraded success: the product exists but its images are missing or incomplete.
type RegistrationResult struct {
	Product        *models.Product
	UploadedImages int
	Warning        string
}

type uploadResult struct {
	index    int
	filename string
	err      error
}

// Register runs the pipeline for a decoded form. It returns forms.ValidationErrors
// before any side effect, storage.ErrNotConfigured when the blob credential is
// missing (checked before the product insert), or a plain error when the product
// row itself could not be created.
func (s *RegistrationService) Register(ctx context.Context, form *forms.ProductForm) (*RegistrationResult, error) {
	if errs := form.Validate(); errs != nil {
		return nil, errs
	}

	// The write credential is checked before touching the row store so a
	// misconfigured deployment fails without leaving an imageless product behind.
	if !s.store.Configured() {
		return nil, storage.ErrNotConfigured
	}

	product := &models.Product{
		Name:        form.Name,
		CategoryID:  form.CategoryID,
		Price:       form.Price,
		Quantity:    form.Quantity,
		Color:       form.Color,
		Description: form.Description,
		WholesaleID: form.WholesaleID,
		SaleStatus:  form.SaleStatus,
		Sizes:       form.Sizes,
	}
	if err := s.repo.CreateProduct(product); err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	valid := form.ValidImages()
	results := s.uploadImages(ctx, product.ID, valid, form.MainImageIndex)

	for _, res := range results {
		if errors.Is(res.err, storage.ErrNotConfigured) {
			return nil, res.err
		}
	}

	var rows []models.ProductImage
	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			s.logger.WithError(res.err).WithFields(logrus.Fields{
				"productId": product.ID,
				"index":     res.index,
			}).Error("Image upload failed")
			continue
		}
		rows = append(rows, models.ProductImage{
			ProductID: product.ID,
			ImageURL:  res.filename,
			IsMain:    res.index == form.MainImageIndex,
		})
	}

	result := &RegistrationResult{Product: product, UploadedImages: len(rows)}

	if len(rows) == 0 {
		result.Warning = "Product was registered but image upload failed."
		return result, nil
	}

	if err := s.repo.CreateProductImages(rows); err != nil {
		s.logger.WithError(err).WithField("productId", product.ID).Error("Failed to insert image rows")
		result.Warning = "Product was registered but image records could not be saved."
		return result, nil
	}

	if failed > 0 {
		result.Warning = "Product was registered but some images failed to upload."
	}

	s.logger.WithFields(logrus.Fields{
		"productId": product.ID,
		"images":    len(rows),
	}).Info("Product registered")

	return result, nil
}

// uploadImages uploads every valid file concurrently and waits for the whole
// batch. Per-file failures are reported individually so the caller can still
// record whatever succeeded.
func (s *RegistrationService) uploadImages(ctx context.Context, productID int64, files map[int]*multipart.FileHeader, mainIndex int) []uploadResult {
	indices := make([]int, 0, len(files))
	for i := range files {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	results := make([]uploadResult, len(indices))
	var wg sync.WaitGroup
	for slot, index := range indices {
		wg.Add(1)
		go func(slot, index int, file *multipart.FileHeader) {
			defer wg.Done()
			filename := deriveFilename(file, index, mainIndex)
			results[slot] = uploadResult{
				index:    index,
				filename: filename,
				err:      s.uploadOne(ctx, productID, filename, file),
			}
		}(slot, index, files[index])
	}
	wg.Wait()

	return results
}

func (s *RegistrationService) uploadOne(ctx context.Context, productID int64, filename string, file *multipart.FileHeader) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	path := imagePath(productID, filename)
	_, err = s.store.Put(ctx, path, src, file.Header.Get("Content-Type"))
	return err
}

// deriveFilename maps an upload slot to its canonical name: the main image is
// "main.<ext>", everything else "detail_<index>.<ext>" keyed by its position in
// the submitted list. Stable names make repeated uploads of the same slot replace
// the old object instead of accumulating.
func deriveFilename(file *multipart.FileHeader, index, mainIndex int) string {
	ext := "jpg"
	contentType := file.Header.Get("Content-Type")
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 && parts[1] != "" {
		ext = parts[1]
	}

	if index == mainIndex {
		return "main." + ext
	}
	return fmt.Sprintf("detail_%d.%s", index, ext)
}

// imagePath groups all images for one product under one storage prefix.
func imagePath(productID int64, filename string) string {
	return fmt.Sprintf("products/images/%d/%s", productID, filename)
}
