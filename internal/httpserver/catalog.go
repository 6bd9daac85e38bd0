package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/texnomart/internal/cache"
	"github.com/Skotchmaster/texnomart/internal/logging"
	authmw "github.com/Skotchmaster/texnomart/internal/middleware/auth"
	"github.com/Skotchmaster/texnomart/internal/service"
	"github.com/Skotchmaster/texnomart/internal/transport"
	"github.com/Skotchmaster/texnomart/internal/util"
)

type CatalogHTTP struct {
	Svc      *service.CatalogService
	Cache    cache.Store
	CacheTTL time.Duration
	Media    transport.Media
}

func (h *CatalogHTTP) urls(c echo.Context) transport.URLFunc {
	return h.Media.Absolute(c.Scheme() + "://" + c.Request().Host)
}

func searchTerm(c echo.Context) string {
	return strings.TrimSpace(c.QueryParam("search"))
}

// cached serves the JSON stored under key, computing and storing it on a miss.
func cached[T any](h *CatalogHTTP, c echo.Context, key cache.Key, event string, load func(context.Context) (T, error)) error {
	ctx := c.Request().Context()
	raw, err := cache.GetOrLoad(ctx, h.Cache, key, h.CacheTTL, load)
	if err != nil {
		return serviceError(logging.FromContext(ctx).With("handler", event), event+"_failed", err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	viewer := authmw.UserID(c)
	search := searchTerm(c)
	url := h.urls(c)
	return cached(h, c, cache.AllProducts(viewer).WithSearch(search), "list_products",
		func(ctx context.Context) ([]transport.ProductSummary, error) {
			return h.Svc.ListProducts(ctx, viewer, search, url)
		})
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	search := searchTerm(c)
	url := h.urls(c)
	return cached(h, c, cache.CategoryList().WithSearch(search), "list_categories",
		func(ctx context.Context) ([]transport.CategoryItem, error) {
			return h.Svc.ListCategories(ctx, search, url)
		})
}

func (h *CatalogHTTP) CategoryProducts(c echo.Context) error {
	slug := c.Param("slug")
	viewer := authmw.UserID(c)
	search := searchTerm(c)
	url := h.urls(c)
	return cached(h, c, cache.CategoryProducts(slug, viewer).WithSearch(search), "category_products",
		func(ctx context.Context) ([]transport.ProductSummary, error) {
			return h.Svc.CategoryProducts(ctx, slug, viewer, search, url)
		})
}

func (h *CatalogHTTP) ListAttributeKeys(c echo.Context) error {
	return cached(h, c, cache.AttributeKeys(), "list_attribute_keys", h.Svc.ListAttributeKeys)
}

func (h *CatalogHTTP) ListAttributeValues(c echo.Context) error {
	return cached(h, c, cache.AttributeValues(), "list_attribute_values", h.Svc.ListAttributeValues)
}

// ListCategoriesFresh backs the GET side of the create endpoint and skips the cache.
func (h *CatalogHTTP) ListCategoriesFresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_categories_fresh")

	items, err := h.Svc.ListCategories(ctx, searchTerm(c), h.urls(c))
	if err != nil {
		return serviceError(l, "list_categories_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) ListProductsFresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_products_fresh")

	items, err := h.Svc.ListProducts(ctx, authmw.UserID(c), searchTerm(c), h.urls(c))
	if err != nil {
		return serviceError(l, "list_products_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) ProductDetail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.product_detail")

	id, ok := pathID(c)
	if !ok {
		l.Warn("product_detail_failed", "status", 404, "reason", "id is not an integer", "id", c.Param("id"))
		return notFound()
	}
	d, err := h.Svc.ProductDetail(ctx, id, authmw.UserID(c), h.urls(c))
	if err != nil {
		return serviceError(l, "product_detail_failed", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, hits, err := h.Svc.SearchProducts(ctx, strings.TrimSpace(c.QueryParam("q")), offset, limit)
	if err != nil {
		return serviceError(l, "search_failed", err)
	}

	l.Info("search_success", "total", total)
	return c.JSON(http.StatusOK, transport.SearchResult{Data: hits, Meta: util.Meta(page, offset, limit, total)})
}
