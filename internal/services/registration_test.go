package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"backoffice-service/internal/forms"
	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/storage"
	"gorm.io/gorm"
)

// fakeStore is an in-memory ObjectStore. Uploads whose filename is listed in
// failPaths fail; listing and listErr drive the resolver tests.
type fakeStore struct {
	mu         sync.Mutex
	configured bool
	failAll    bool
	uploads    map[string]string
	failPaths  map[string]bool
	listing    []storage.Object
	listErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		configured: true,
		uploads:    make(map[string]string),
		failPaths:  make(map[string]bool),
	}
}

func (s *fakeStore) Configured() bool {
	return s.configured
}

func (s *fakeStore) failAllUploads() {
	s.failAll = true
}

func (s *fakeStore) Put(ctx context.Context, objectPath string, body io.Reader, contentType string) (string, error) {
	if !s.configured {
		return "", storage.ErrNotConfigured
	}
	if s.failAll || s.failPaths[path.Base(objectPath)] {
		return "", errors.New("upload rejected")
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[objectPath] = contentType
	url := "https://blob.test/" + objectPath
	return url, nil
}

func (s *fakeStore) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listing, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.ProductImage{}))
	return db
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type testImage struct {
	filename    string
	contentType string
	content     string
}

// buildRegistrationForm assembles a real multipart form the way a browser would
// submit it, so the decoded file headers carry sizes and content types.
func buildRegistrationForm(t *testing.T, fields map[string]string, images []testImage) *forms.ProductForm {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for _, img := range images {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, img.filename))
		header.Set("Content-Type", img.contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(img.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)

	return forms.ParseProductForm(form, logrus.NewEntry(quietLogger()))
}

func validFields() map[string]string {
	return map[string]string{
		"name":             "Wool Coat",
		"category_id":      "3",
		"price":            "45000",
		"quantity":         "10",
		"color":            "black,navy",
		"wholesale_id":     "7",
		"sizes":            `{"M":"90cm"}`,
		"main_image_index": "1",
	}
}

func TestRegisterUploadsAllImages(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	store := newFakeStore()
	svc := NewRegistrationService(repo, store, quietLogger())

	form := buildRegistrationForm(t, validFields(), []testImage{
		{"first.png", "image/png", "aaaa"},
		{"second.png", "image/png", "bbbb"},
		{"third.png", "image/png", "cccc"},
	})

	result, err := svc.Register(context.Background(), form)
	require.NoError(t, err)
	assert.Empty(t, result.Warning)
	assert.Equal(t, 3, result.UploadedImages)

	id := result.Product.ID
	store.mu.Lock()
	assert.Contains(t, store.uploads, fmt.Sprintf("products/images/%d/detail_0.png", id))
	assert.Contains(t, store.uploads, fmt.Sprintf("products/images/%d/main.png", id))
	assert.Contains(t, store.uploads, fmt.Sprintf("products/images/%d/detail_2.png", id))
	store.mu.Unlock()

	var rows []models.ProductImage
	require.NoError(t, db.Where("product_id = ?", id).Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 3)
	mains := 0
	for _, row := range rows {
		if row.IsMain {
			mains++
			assert.Equal(t, "main.png", row.ImageURL)
		} else {
			assert.True(t, strings.HasPrefix(row.ImageURL, "detail_"))
		}
	}
	assert.Equal(t, 1, mains)
}

func TestRegisterValidationErrorsBeforeAnySideEffect(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	store := newFakeStore()
	svc := NewRegistrationService(repo, store, quietLogger())

	form := buildRegistrationForm(t, map[string]string{"name": "Coat"}, nil)

	_, err := svc.Register(context.Background(), form)
	var errs forms.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "category_id")
	assert.Contains(t, errs, "images")

	var count int64
	db.Model(&models.Product{}).Count(&count)
	assert.Zero(t, count)
}

func TestRegisterUnconfiguredStoreLeavesNoProductRow(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	store := newFakeStore()
	store.configured = false
	svc := NewRegistrationService(repo, store, quietLogger())

	form := buildRegistrationForm(t, validFields(), []testImage{
		{"first.png", "image/png", "aaaa"},
	})

	_, err := svc.Register(context.Background(), form)
	require.ErrorIs(t, err, storage.ErrNotConfigured)

	var count int64
	db.Model(&models.Product{}).Count(&count)
	assert.Zero(t, count)
}

func TestRegisterDegradesWhenEveryUploadFails(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	store := newFakeStore()
	store.failAllUploads()
	svc := NewRegistrationService(repo, store, quietLogger())

	form := buildRegistrationForm(t, validFields(), []testImage{
		{"first.png", "image/png", "aaaa"},
		{"second.png", "image/png", "bbbb"},
	})

	result, err := svc.Register(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "Product was registered but image upload failed.", result.Warning)
	assert.Zero(t, result.UploadedImages)

	// The product row survives the failed uploads.
	var count int64
	db.Model(&models.Product{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRegisterRecordsPartialUploads(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	store := newFakeStore()
	store.failPaths["detail_2.png"] = true
	svc := NewRegistrationService(repo, store, quietLogger())

	form := buildRegistrationForm(t, validFields(), []testImage{
		{"first.png", "image/png", "aaaa"},
		{"second.png", "image/png", "bbbb"},
		{"third.png", "image/png", "cccc"},
	})

	result, err := svc.Register(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "Product was registered but some images failed to upload.", result.Warning)
	assert.Equal(t, 2, result.UploadedImages)

	var rows []models.ProductImage
	require.NoError(t, db.Where("product_id = ?", result.Product.ID).Find(&rows).Error)
	assert.Len(t, rows, 2)
}

func TestRegisterDegradesWhenImageRowsCannotBeSaved(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	store := newFakeStore()
	svc := NewRegistrationService(repo, store, quietLogger())

	// Break the image table so the batch insert fails after the uploads succeed.
	require.NoError(t, db.Migrator().DropTable(&models.ProductImage{}))

	form := buildRegistrationForm(t, validFields(), []testImage{
		{"first.png", "image/png", "aaaa"},
		{"second.png", "image/png", "bbbb"},
	})

	result, err := svc.Register(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "Product was registered but image records could not be saved.", result.Warning)

	var count int64
	db.Model(&models.Product{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRegisterSkipsEmptyFilesWithoutRenumbering(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	store := newFakeStore()
	svc := NewRegistrationService(repo, store, quietLogger())

	fields := validFields()
	fields["main_image_index"] = "0"
	form := buildRegistrationForm(t, fields, []testImage{
		{"first.png", "image/png", "aaaa"},
		{"empty.png", "image/png", ""},
		{"third.png", "image/png", "cccc"},
	})

	result, err := svc.Register(context.Background(), form)
	require.NoError(t, err)
	assert.Empty(t, result.Warning)
	assert.Equal(t, 2, result.UploadedImages)

	id := result.Product.ID
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Contains(t, store.uploads, fmt.Sprintf("products/images/%d/main.png", id))
	// The slot past the skipped empty file keeps its submitted position.
	assert.Contains(t, store.uploads, fmt.Sprintf("products/images/%d/detail_2.png", id))
}
