package services

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/storage"
)

var (
	mainImagePattern   = regexp.MustCompile(`^main\.`)
	absoluteURLPattern = regexp.MustCompile(`(?i)^https?://`)
)

// ImageResolver produces the ordered image list for a product, main image first.
// It prefers a live blob listing and falls back to the recorded image rows when
// the listing is empty or fails; a listing fault is logged, never propagated.
type ImageResolver struct {
	repo    *repository.ProductsRepository
	store   storage.ObjectStore
	baseURL string
	logger  *logrus.Entry
}

func NewImageResolver(repo *repository.ProductsRepository, store storage.ObjectStore, publicBaseURL string, logger *logrus.Logger) *ImageResolver {
	return &ImageResolver{
		repo:    repo,
		store:   store,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger.WithField("component", "image-resolver"),
	}
}

// Resolve returns the image descriptors for a product. A product without images
// yields an empty list, not an error; errors are reported only when both the
// listing and the database path fail.
func (r *ImageResolver) Resolve(ctx context.Context, productID int64) ([]models.ProductImageView, error) {
	prefix := fmt.Sprintf("products/images/%d/", productID)

	objects, err := r.store.List(ctx, prefix)
	if err != nil {
		r.logger.WithError(err).WithField("productId", productID).
			Warn("Blob listing failed, falling back to database records")
	} else if len(objects) > 0 {
		return viewsFromListing(productID, objects), nil
	}

	rows, err := r.repo.GetProductImages(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load image records: %w", err)
	}

	views := make([]models.ProductImageView, 0, len(rows))
	for _, row := range rows {
		fullURL := row.ImageURL
		if !absoluteURLPattern.MatchString(fullURL) {
			fullURL = r.imageURL(productID, row.ImageURL)
		}
		views = append(views, models.ProductImageView{
			ID:        row.ID,
			ProductID: row.ProductID,
			ImageURL:  row.ImageURL,
			IsMain:    row.IsMain,
			FullURL:   fullURL,
		})
	}
	return views, nil
}

// viewsFromListing maps a blob listing to image views. Entries are first sorted
// lexicographically by path for determinism, then stably partitioned so main
// images come first while ties keep the lexicographic order.
func viewsFromListing(productID int64, objects []storage.Object) []models.ProductImageView {
	sorted := make([]storage.Object, len(objects))
	copy(sorted, objects)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	views := make([]models.ProductImageView, 0, len(sorted))
	for i, obj := range sorted {
		filename := path.Base(obj.Path)
		views = append(views, models.ProductImageView{
			ID:        int64(i + 1),
			ProductID: productID,
			ImageURL:  filename,
			IsMain:    mainImagePattern.MatchString(filename),
			FullURL:   obj.URL,
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].IsMain && !views[j].IsMain
	})
	return views
}

func (r *ImageResolver) imageURL(productID int64, filename string) string {
	return fmt.Sprintf("%s/products/images/%d/%s", r.baseURL, productID, filename)
}
