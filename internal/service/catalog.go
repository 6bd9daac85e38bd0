package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/texnomart/internal/events"
	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/repo"
	"github.com/Skotchmaster/texnomart/internal/search"
	"github.com/Skotchmaster/texnomart/internal/transport"
)

const (
	maxTitleLen     = 300
	fallbackProduct = "product"
	fallbackCateg   = "category"
)

var validSlug = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []search.Document, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Events *events.Bus
	Search Searcher
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *CatalogService) ListProducts(ctx context.Context, viewerID uint, search string, url transport.URLFunc) ([]transport.ProductSummary, error) {
	return s.summaries(ctx, repo.ProductFilter{Search: search}, viewerID, url)
}

// CategoryProducts lists the products of a category with only their primary images.
// An unknown slug yields an empty list.
func (s *CatalogService) CategoryProducts(ctx context.Context, slug string, viewerID uint, search string, url transport.URLFunc) ([]transport.ProductSummary, error) {
	return s.summaries(ctx, repo.ProductFilter{Search: search, CategorySlug: slug, PrimaryImagesOnly: true}, viewerID, url)
}

func (s *CatalogService) summaries(ctx context.Context, f repo.ProductFilter, viewerID uint, url transport.URLFunc) ([]transport.ProductSummary, error) {
	items, err := s.Repo.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	liked, err := s.Repo.LikedProductIDs(ctx, viewerID, productIDs(items))
	if err != nil {
		return nil, err
	}
	return transport.ToProductSummaries(items, liked, url), nil
}

func productIDs(items []models.Product) []uint {
	ids := make([]uint, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *CatalogService) ListCategories(ctx context.Context, search string, url transport.URLFunc) ([]transport.CategoryItem, error) {
	stats, err := s.Repo.ListCategoryStats(ctx, repo.CategoryFilter{Search: search})
	if err != nil {
		return nil, err
	}
	return transport.ToCategoryItems(stats, url), nil
}

func (s *CatalogService) GetCategory(ctx context.Context, slug string, url transport.URLFunc) (*transport.CategoryItem, error) {
	stats, err := s.Repo.ListCategoryStats(ctx, repo.CategoryFilter{Slug: slug})
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, ErrNotFound
	}
	item := transport.ToCategoryItem(stats[0], url)
	return &item, nil
}

func (s *CatalogService) ProductDetail(ctx context.Context, id, viewerID uint, url transport.URLFunc) (*transport.ProductDetail, error) {
	p, err := s.Repo.GetProductDetail(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	liked, err := s.Repo.LikedProductIDs(ctx, viewerID, []uint{p.ID})
	if err != nil {
		return nil, err
	}
	d := transport.ToProductDetail(p, liked[p.ID], url)
	return &d, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id, viewerID uint, url transport.URLFunc) (*transport.ProductSummary, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	liked, err := s.Repo.LikedProductIDs(ctx, viewerID, []uint{p.ID})
	if err != nil {
		return nil, err
	}
	sum := transport.ToProductSummary(p, liked[p.ID], url)
	return &sum, nil
}

func (s *CatalogService) ListAttributeKeys(ctx context.Context) ([]transport.AttributeKeyItem, error) {
	keys, err := s.Repo.ListAttributeKeys(ctx)
	if err != nil {
		return nil, err
	}
	return transport.ToAttributeKeyItems(keys), nil
}

func (s *CatalogService) ListAttributeValues(ctx context.Context) ([]transport.AttributeValueItem, error) {
	values, err := s.Repo.ListAttributeValues(ctx)
	if err != nil {
		return nil, err
	}
	return transport.ToAttributeValueItems(values), nil
}

func requireText(v *ValidationError, field, value string, max int) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		v.Add(field, msgBlank)
	case max > 0 && len([]rune(value)) > max:
		v.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
	return value
}

func (s *CatalogService) CreateAttributeKey(ctx context.Context, req transport.AttributeKeyRequest) (*transport.AttributeKeyItem, error) {
	v := &ValidationError{}
	key := requireText(v, "key", req.Key, maxTitleLen)
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	k := &models.AttributeKey{Key: key}
	if err := s.Repo.CreateAttributeKey(ctx, k); err != nil {
		return nil, err
	}
	return &transport.AttributeKeyItem{ID: k.ID, Key: k.Key, CreatedAt: k.CreatedAt}, nil
}

func (s *CatalogService) CreateAttributeValue(ctx context.Context, req transport.AttributeValueRequest) (*transport.AttributeValueItem, error) {
	v := &ValidationError{}
	value := requireText(v, "value", req.Value, maxTitleLen)
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	m := &models.AttributeValue{Value: value}
	if err := s.Repo.CreateAttributeValue(ctx, m); err != nil {
		return nil, err
	}
	return &transport.AttributeValueItem{ID: m.ID, Value: m.Value, CreatedAt: m.CreatedAt}, nil
}
