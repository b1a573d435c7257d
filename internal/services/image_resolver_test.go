package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/storage"
)

func TestResolvePrefersBlobListingMainFirst(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	store := newFakeStore()
	store.listing = []storage.Object{
		{Path: "products/images/42/detail_2.jpg", URL: "https://blob.test/products/images/42/detail_2.jpg"},
		{Path: "products/images/42/main.jpg", URL: "https://blob.test/products/images/42/main.jpg"},
		{Path: "products/images/42/detail_0.jpg", URL: "https://blob.test/products/images/42/detail_0.jpg"},
	}
	resolver := NewImageResolver(repo, store, "https://blob.test", quietLogger())

	views, err := resolver.Resolve(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, views, 3)

	// Main image first, remaining entries in lexicographic path order.
	assert.Equal(t, "main.jpg", views[0].ImageURL)
	assert.True(t, views[0].IsMain)
	assert.Equal(t, "detail_0.jpg", views[1].ImageURL)
	assert.Equal(t, "detail_2.jpg", views[2].ImageURL)
	assert.Equal(t, "https://blob.test/products/images/42/main.jpg", views[0].FullURL)
}

func TestResolveFallsBackToDatabaseWhenListingEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	require.NoError(t, db.Create(&[]models.ProductImage{
		{ProductID: 42, ImageURL: "detail_0.jpg", IsMain: false},
		{ProductID: 42, ImageURL: "main.jpg", IsMain: true},
	}).Error)

	store := newFakeStore()
	resolver := NewImageResolver(repo, store, "https://blob.test/", quietLogger())

	views, err := resolver.Resolve(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.True(t, views[0].IsMain)
	assert.Equal(t, "main.jpg", views[0].ImageURL)
	assert.Equal(t, "https://blob.test/products/images/42/main.jpg", views[0].FullURL)
	assert.Equal(t, "https://blob.test/products/images/42/detail_0.jpg", views[1].FullURL)
}

func TestResolveFallsBackToDatabaseWhenListingFails(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	require.NoError(t, db.Create(&models.ProductImage{
		ProductID: 42, ImageURL: "main.jpg", IsMain: true,
	}).Error)

	store := newFakeStore()
	store.listErr = errors.New("listing unavailable")
	resolver := NewImageResolver(repo, store, "https://blob.test", quietLogger())

	views, err := resolver.Resolve(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "main.jpg", views[0].ImageURL)
}

func TestResolveServesAbsoluteURLsVerbatim(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	require.NoError(t, db.Create(&[]models.ProductImage{
		{ProductID: 42, ImageURL: "https://cdn.example.com/legacy/coat.jpg", IsMain: true},
		{ProductID: 42, ImageURL: "HTTP://cdn.example.com/legacy/coat2.jpg", IsMain: false},
	}).Error)

	store := newFakeStore()
	resolver := NewImageResolver(repo, store, "https://blob.test", quietLogger())

	views, err := resolver.Resolve(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "https://cdn.example.com/legacy/coat.jpg", views[0].FullURL)
	// Scheme matching is case-insensitive.
	assert.Equal(t, "HTTP://cdn.example.com/legacy/coat2.jpg", views[1].FullURL)
}

func TestResolveEmptyProductYieldsEmptyList(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductsRepository(db, nil)
	store := newFakeStore()
	resolver := NewImageResolver(repo, store, "https://blob.test", quietLogger())

	views, err := resolver.Resolve(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, views)
}
