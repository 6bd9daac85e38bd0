package events

import (
	"context"

	"github.com/Skotchmaster/texnomart/internal/domain"
	"github.com/Skotchmaster/texnomart/internal/logging"
	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/search"
)

type SearchIndex interface {
	Index(ctx context.Context, doc search.Document) error
	Delete(ctx context.Context, id uint) error
}

// Indexer keeps the product search index in step with the catalog.
type Indexer struct {
	Index SearchIndex
}

func DocumentFor(p *models.Product) search.Document {
	return search.Document{
		ID:              p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		Description:     p.Description,
		Price:           p.Price,
		Discount:        p.Discount,
		DiscountedPrice: domain.DiscountedPrice(p.Price, p.Discount),
		Category:        p.Category.Title,
		CreatedAt:       p.CreatedAt,
	}
}

func (x *Indexer) Handle(ctx context.Context, ev Event) error {
	l := logging.FromContext(ctx).With("handler", "indexer", "event", string(ev.Kind))

	var err error
	switch ev.Kind {
	case ProductCreated, ProductUpdated:
		if ev.Product != nil {
			err = x.Index.Index(ctx, DocumentFor(ev.Product))
		}
	case ProductDeleted:
		if ev.Product != nil {
			err = x.Index.Delete(ctx, ev.Product.ID)
		}
	}
	if err != nil {
		l.Warn("search_index_failed", "error", err)
	}
	return nil
}
