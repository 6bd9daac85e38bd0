package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/texnomart/internal/logging"
	authmw "github.com/Skotchmaster/texnomart/internal/middleware/auth"
	"github.com/Skotchmaster/texnomart/internal/transport"
)

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_category")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "create_category_failed", err)
	}
	item, err := h.Svc.CreateCategory(ctx, req, h.urls(c))
	if err != nil {
		return serviceError(l, "create_category_failed", err)
	}

	l.Info("create_category_success", "slug", item.Slug)
	return c.JSON(http.StatusCreated, item)
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_category")

	item, err := h.Svc.GetCategory(ctx, c.Param("slug"), h.urls(c))
	if err != nil {
		return serviceError(l, "get_category_failed", err)
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateCategory serves PUT and PATCH; PATCH leaves absent fields untouched.
func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_category")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "update_category_failed", err)
	}
	partial := c.Request().Method == http.MethodPatch
	item, err := h.Svc.UpdateCategory(ctx, c.Param("slug"), req, partial, h.urls(c))
	if err != nil {
		return serviceError(l, "update_category_failed", err)
	}

	l.Info("update_category_success", "slug", item.Slug)
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_category")

	slug := c.Param("slug")
	if err := h.Svc.DeleteCategory(ctx, slug); err != nil {
		return serviceError(l, "delete_category_failed", err)
	}

	l.Info("delete_category_success", "slug", slug)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "create_product_failed", err)
	}
	p, err := h.Svc.CreateProduct(ctx, req, h.urls(c))
	if err != nil {
		return serviceError(l, "create_product_failed", err)
	}

	l.Info("create_product_success", "id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, ok := pathID(c)
	if !ok {
		l.Warn("get_product_failed", "status", 404, "reason", "id is not an integer", "id", c.Param("id"))
		return notFound()
	}
	p, err := h.Svc.GetProduct(ctx, id, authmw.UserID(c), h.urls(c))
	if err != nil {
		return serviceError(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_product")

	id, ok := pathID(c)
	if !ok {
		l.Warn("update_product_failed", "status", 404, "reason", "id is not an integer", "id", c.Param("id"))
		return notFound()
	}
	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "update_product_failed", err)
	}
	partial := c.Request().Method == http.MethodPatch
	p, err := h.Svc.UpdateProduct(ctx, id, req, partial, authmw.UserID(c), h.urls(c))
	if err != nil {
		return serviceError(l, "update_product_failed", err)
	}

	l.Info("update_product_success", "id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	id, ok := pathID(c)
	if !ok {
		l.Warn("delete_product_failed", "status", 404, "reason", "id is not an integer", "id", c.Param("id"))
		return notFound()
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return serviceError(l, "delete_product_failed", err)
	}

	l.Info("delete_product_success", "id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) AddImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.add_image")

	id, ok := pathID(c)
	if !ok {
		return notFound()
	}
	var req transport.ImageRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "add_image_failed", err)
	}
	img, err := h.Svc.AddImage(ctx, id, req, h.urls(c))
	if err != nil {
		return serviceError(l, "add_image_failed", err)
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *CatalogHTTP) AddAttribute(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.add_attribute")

	id, ok := pathID(c)
	if !ok {
		return notFound()
	}
	var req transport.AttributeRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "add_attribute_failed", err)
	}
	a, err := h.Svc.AddAttribute(ctx, id, req)
	if err != nil {
		return serviceError(l, "add_attribute_failed", err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *CatalogHTTP) AddComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.add_comment")

	id, ok := pathID(c)
	if !ok {
		return notFound()
	}
	var req transport.CommentRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "add_comment_failed", err)
	}
	cm, err := h.Svc.AddComment(ctx, id, authmw.UserID(c), req)
	if err != nil {
		return serviceError(l, "add_comment_failed", err)
	}
	return c.JSON(http.StatusCreated, cm)
}

func (h *CatalogHTTP) ToggleLike(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.toggle_like")

	id, ok := pathID(c)
	if !ok {
		return notFound()
	}
	liked, err := h.Svc.ToggleLike(ctx, id, authmw.UserID(c))
	if err != nil {
		return serviceError(l, "toggle_like_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_likes": liked})
}

func (h *CatalogHTTP) CreateAttributeKey(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_attribute_key")

	var req transport.AttributeKeyRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "create_attribute_key_failed", err)
	}
	k, err := h.Svc.CreateAttributeKey(ctx, req)
	if err != nil {
		return serviceError(l, "create_attribute_key_failed", err)
	}
	return c.JSON(http.StatusCreated, k)
}

func (h *CatalogHTTP) CreateAttributeValue(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_attribute_value")

	var req transport.AttributeValueRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "create_attribute_value_failed", err)
	}
	v, err := h.Svc.CreateAttributeValue(ctx, req)
	if err != nil {
		return serviceError(l, "create_attribute_value_failed", err)
	}
	return c.JSON(http.StatusCreated, v)
}
