package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/texnomart/internal/domain"
	"github.com/Skotchmaster/texnomart/internal/events"
	"github.com/Skotchmaster/texnomart/internal/logging"
	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/repo"
	"github.com/Skotchmaster/texnomart/internal/transport"
)

const msgInvalidSlug = "Enter a valid \"slug\" consisting of letters, numbers, underscores or hyphens."

// emit dispatches events whose handlers must not fail the write that caused them.
func (s *CatalogService) emit(ctx context.Context, ev events.Event) {
	if err := s.Events.Emit(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("event_dispatch_failed", "event", string(ev.Kind), "error", err)
	}
}

func explicitSlug(v *ValidationError, raw *string) string {
	if raw == nil {
		return ""
	}
	slug := strings.TrimSpace(*raw)
	if slug != "" && !validSlug.MatchString(slug) {
		v.Add("slug", msgInvalidSlug)
	}
	return slug
}

func (s *CatalogService) uniqueCategorySlug(ctx context.Context, title string, exceptID uint) (string, error) {
	base := domain.Slugify(title)
	if base == "" {
		base = fallbackCateg
	}
	return domain.UniqueSlug(base, func(slug string) (bool, error) {
		return s.Repo.CategorySlugExists(ctx, slug, exceptID)
	})
}

func (s *CatalogService) uniqueProductSlug(ctx context.Context, name string) (string, error) {
	base := domain.Slugify(name)
	if base == "" {
		base = fallbackProduct
	}
	return domain.UniqueSlug(base, func(slug string) (bool, error) {
		return s.Repo.ProductSlugExists(ctx, slug)
	})
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CategoryRequest, url transport.URLFunc) (*transport.CategoryItem, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_category")

	v := &ValidationError{}
	var title, image string
	if req.Title == nil {
		v.Add("title", msgRequired)
	} else {
		title = requireText(v, "title", *req.Title, maxTitleLen)
	}
	if req.Image == nil {
		v.Add("image", msgRequired)
	} else {
		image = requireText(v, "image", *req.Image, 0)
	}
	slug := explicitSlug(v, req.Slug)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if taken, err := s.Repo.CategoryTitleExists(ctx, title, 0); err != nil {
		return nil, err
	} else if taken {
		v.Add("title", "category with this title already exists.")
	}
	if slug != "" {
		if taken, err := s.Repo.CategorySlugExists(ctx, slug, 0); err != nil {
			return nil, err
		} else if taken {
			v.Add("slug", "category with this slug already exists.")
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if slug == "" {
		var err error
		if slug, err = s.uniqueCategorySlug(ctx, title, 0); err != nil {
			return nil, err
		}
	}

	c := &models.Category{Title: title, Slug: slug, Image: image}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		l.Error("create_category_failed", "error", err)
		return nil, err
	}
	s.emit(ctx, events.Event{Kind: events.CategoryCreated, Category: c})

	l.Info("category_created", "id", c.ID, "slug", c.Slug)
	return s.GetCategory(ctx, c.Slug, url)
}

// UpdateCategory edits a category. The slug is kept unless the request sets it; an
// explicitly blank slug is derived again from the title.
func (s *CatalogService) UpdateCategory(ctx context.Context, slug string, req transport.CategoryRequest, partial bool, url transport.URLFunc) (*transport.CategoryItem, error) {
	c, err := s.Repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}

	v := &ValidationError{}
	switch {
	case req.Title != nil:
		c.Title = requireText(v, "title", *req.Title, maxTitleLen)
	case !partial:
		v.Add("title", msgRequired)
	}
	switch {
	case req.Image != nil:
		c.Image = requireText(v, "image", *req.Image, 0)
	case !partial:
		v.Add("image", msgRequired)
	}
	newSlug := explicitSlug(v, req.Slug)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if taken, err := s.Repo.CategoryTitleExists(ctx, c.Title, c.ID); err != nil {
		return nil, err
	} else if taken {
		v.Add("title", "category with this title already exists.")
	}
	if newSlug != "" {
		if taken, err := s.Repo.CategorySlugExists(ctx, newSlug, c.ID); err != nil {
			return nil, err
		} else if taken {
			v.Add("slug", "category with this slug already exists.")
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	switch {
	case newSlug != "":
		c.Slug = newSlug
	case req.Slug != nil:
		if c.Slug, err = s.uniqueCategorySlug(ctx, c.Title, c.ID); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	s.emit(ctx, events.Event{Kind: events.CategoryUpdated, Category: c})
	return s.GetCategory(ctx, c.Slug, url)
}

// DeleteCategory archives the category and each of its products, then removes them,
// all inside one transaction. A failing snapshot aborts the whole deletion.
func (s *CatalogService) DeleteCategory(ctx context.Context, slug string) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_category", "slug", slug)

	var (
		deleted  *models.Category
		products []models.Product
	)
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		c, err := tx.GetCategoryBySlug(ctx, slug)
		if err != nil {
			return notFound(err)
		}
		if products, err = tx.ListProductsOfCategory(ctx, c.ID); err != nil {
			return err
		}

		if err := s.Events.Emit(ctx, events.Event{Kind: events.CategoryDeleting, Category: c, Products: products}); err != nil {
			return err
		}
		for i := range products {
			p := &products[i]
			if err := s.Events.Emit(ctx, events.Event{Kind: events.ProductDeleting, Product: p}); err != nil {
				return err
			}
			if err := tx.DeleteProduct(ctx, p.ID); err != nil {
				return err
			}
		}
		if err := tx.DeleteCategory(ctx, c.ID); err != nil {
			return err
		}
		deleted = c
		return nil
	})
	if err != nil {
		return err
	}

	for i := range products {
		s.emit(ctx, events.Event{Kind: events.ProductDeleted, Product: &products[i]})
	}
	s.emit(ctx, events.Event{Kind: events.CategoryDeleted, Category: deleted, Products: products})
	l.Info("category_deleted", "id", deleted.ID, "products", len(products))
	return nil
}

func (s *CatalogService) validateProduct(ctx context.Context, v *ValidationError, p *models.Product, req transport.ProductRequest, partial bool) error {
	switch {
	case req.Name != nil:
		p.Name = requireText(v, "name", *req.Name, maxTitleLen)
	case !partial:
		v.Add("name", msgRequired)
	}
	switch {
	case req.Price != nil:
		if *req.Price < 0 {
			v.Add("price", "Ensure this value is greater than or equal to 0.")
		}
		p.Price = *req.Price
	case !partial:
		v.Add("price", msgRequired)
	}
	switch {
	case req.Description != nil:
		p.Description = requireText(v, "description", *req.Description, 0)
	case !partial:
		v.Add("description", msgRequired)
	}
	if req.Discount != nil {
		if *req.Discount < 0 || *req.Discount > 100 {
			v.Add("discount", "Ensure this value is between 0 and 100.")
		}
		p.Discount = *req.Discount
	}
	switch {
	case req.Category != nil:
		ok, err := s.Repo.CategoryExists(ctx, *req.Category)
		if err != nil {
			return err
		}
		if !ok {
			v.Add("category", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *req.Category))
		}
		p.CategoryID = *req.Category
	case !partial:
		v.Add("category", msgRequired)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest, url transport.URLFunc) (*transport.ProductSummary, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product")

	v := &ValidationError{}
	p := &models.Product{}
	if err := s.validateProduct(ctx, v, p, req, false); err != nil {
		return nil, err
	}
	p.Slug = explicitSlug(v, req.Slug)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if p.Slug == "" {
		var err error
		if p.Slug, err = s.uniqueProductSlug(ctx, p.Name); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		l.Error("create_product_failed", "error", err)
		return nil, err
	}
	created, err := s.Repo.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.Event{Kind: events.ProductCreated, Product: created})

	l.Info("product_created", "id", created.ID, "slug", created.Slug)
	sum := transport.ToProductSummary(created, false, url)
	return &sum, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.ProductRequest, partial bool, viewerID uint, url transport.URLFunc) (*transport.ProductSummary, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	v := &ValidationError{}
	if err := s.validateProduct(ctx, v, p, req, partial); err != nil {
		return nil, err
	}
	newSlug := explicitSlug(v, req.Slug)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	switch {
	case newSlug != "":
		p.Slug = newSlug
	case req.Slug != nil:
		if p.Slug, err = s.uniqueProductSlug(ctx, p.Name); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	return s.afterProductWrite(ctx, events.ProductUpdated, p.ID, viewerID, url)
}

func (s *CatalogService) afterProductWrite(ctx context.Context, kind events.Kind, id, viewerID uint, url transport.URLFunc) (*transport.ProductSummary, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	s.emit(ctx, events.Event{Kind: kind, Product: p})

	liked, err := s.Repo.LikedProductIDs(ctx, viewerID, []uint{p.ID})
	if err != nil {
		return nil, err
	}
	sum := transport.ToProductSummary(p, liked[p.ID], url)
	return &sum, nil
}

// DeleteProduct archives the product and removes it with its dependents in one transaction.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	var deleted *models.Product
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if err := s.Events.Emit(ctx, events.Event{Kind: events.ProductDeleting, Product: p}); err != nil {
			return err
		}
		if err := tx.DeleteProduct(ctx, p.ID); err != nil {
			return err
		}
		deleted = p
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.Event{Kind: events.ProductDeleted, Product: deleted})
	logging.FromContext(ctx).Info("product_deleted", "id", id)
	return nil
}

func (s *CatalogService) productMustExist(ctx context.Context, id uint) error {
	if _, err := s.Repo.GetProduct(ctx, id); err != nil {
		return notFound(err)
	}
	return nil
}

func (s *CatalogService) AddImage(ctx context.Context, productID uint, req transport.ImageRequest, url transport.URLFunc) (*transport.ImageItem, error) {
	if err := s.productMustExist(ctx, productID); err != nil {
		return nil, err
	}
	v := &ValidationError{}
	path := requireText(v, "image", req.Image, 0)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	img := &models.Image{ProductID: productID, Image: path, IsPrimary: req.IsPrimary}
	if err := s.Repo.CreateImage(ctx, img); err != nil {
		return nil, err
	}
	item := transport.ToImageItem(img, url)
	return &item, nil
}

func (s *CatalogService) AddAttribute(ctx context.Context, productID uint, req transport.AttributeRequest) (*transport.AttributeItem, error) {
	if err := s.productMustExist(ctx, productID); err != nil {
		return nil, err
	}

	v := &ValidationError{}
	if ok, err := s.Repo.AttributeKeyExists(ctx, req.Key); err != nil {
		return nil, err
	} else if !ok {
		v.Add("key", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", req.Key))
	}
	if ok, err := s.Repo.AttributeValueExists(ctx, req.Value); err != nil {
		return nil, err
	} else if !ok {
		v.Add("value", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", req.Value))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	a := &models.Attribute{ProductID: productID, AttributeKeyID: req.Key, AttributeValueID: req.Value}
	if err := s.Repo.CreateAttribute(ctx, a); err != nil {
		return nil, err
	}
	item := transport.ToAttributeItem(a)
	return &item, nil
}

func (s *CatalogService) AddComment(ctx context.Context, productID, userID uint, req transport.CommentRequest) (*transport.CommentItem, error) {
	if err := s.productMustExist(ctx, productID); err != nil {
		return nil, err
	}

	v := &ValidationError{}
	if req.Rating < 0 || req.Rating > 5 {
		v.Add("rating", fmt.Sprintf("\"%d\" is not a valid choice.", req.Rating))
	}
	content := requireText(v, "content", req.Content, 0)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	c := &models.Comment{ProductID: productID, UserID: userID, Rating: req.Rating, Content: content}
	if err := s.Repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	item := transport.ToCommentItem(c)
	return &item, nil
}

func (s *CatalogService) ToggleLike(ctx context.Context, productID, userID uint) (bool, error) {
	if err := s.productMustExist(ctx, productID); err != nil {
		return false, err
	}
	return s.Repo.ToggleLike(ctx, productID, userID)
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []transport.SearchHit, error) {
	if s.Search == nil {
		return 0, nil, ErrSearchDisabled
	}
	total, docs, err := s.Search.Search(ctx, query, offset, limit)
	if err != nil {
		return 0, nil, err
	}

	hits := make([]transport.SearchHit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, transport.SearchHit{
			ID:              d.ID,
			Name:            d.Name,
			Slug:            d.Slug,
			Price:           d.Price,
			DiscountedPrice: d.DiscountedPrice,
			Category:        d.Category,
		})
	}
	return total, hits, nil
}
