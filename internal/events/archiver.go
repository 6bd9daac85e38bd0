package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Skotchmaster/texnomart/internal/domain"
	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/transport"
)

type ProductSnapshot struct {
	ID              uint     `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	Images          []string `json:"images"`
	Category        *string  `json:"category"`
	Discount        float64  `json:"discount"`
	DiscountedPrice float64  `json:"discounted_price"`
	MonthlyPay      *string  `json:"monthly_pay"`
}

type CategorySnapshot struct {
	ID       uint     `json:"id"`
	Title    string   `json:"title"`
	Products []string `json:"products"`
	Slug     string   `json:"slug"`
}

// Archiver writes a JSON snapshot of every product and category about to be deleted.
type Archiver struct {
	Dir   string
	Media transport.Media
}

func (a *Archiver) Handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case ProductDeleting:
		if ev.Product == nil {
			return errors.New("product snapshot: no product")
		}
		_, err := a.WriteProduct(ev.Product)
		return err
	case CategoryDeleting:
		if ev.Category == nil {
			return errors.New("category snapshot: no category")
		}
		_, err := a.WriteCategory(ev.Category, ev.Products)
		return err
	}
	return nil
}

func (a *Archiver) ProductSnapshot(p *models.Product) ProductSnapshot {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, a.Media.URL(img.Image))
	}

	var category *string
	if p.Category.Title != "" {
		title := p.Category.Title
		category = &title
	}

	discounted := domain.DiscountedPrice(p.Price, p.Discount)
	return ProductSnapshot{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		Images:          images,
		Category:        category,
		Discount:        p.Discount,
		DiscountedPrice: discounted,
		MonthlyPay:      domain.MonthlyPay(discounted),
	}
}

func (a *Archiver) WriteProduct(p *models.Product) (string, error) {
	path := filepath.Join(a.Dir, "products", fileName(p.Name, p.ID))
	return path, writeJSON(path, a.ProductSnapshot(p))
}

func (a *Archiver) WriteCategory(c *models.Category, products []models.Product) (string, error) {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	snap := CategorySnapshot{ID: c.ID, Title: c.Title, Products: names, Slug: c.Slug}

	path := filepath.Join(a.Dir, "categories", fileName(c.Title, c.ID))
	return path, writeJSON(path, snap)
}

// fileName keeps names readable but never lets them escape the target directory.
func fileName(name string, id uint) string {
	name = strings.NewReplacer("/", "_", `\`, "_", "\x00", "").Replace(name)
	if name == "." || name == ".." {
		name = "_"
	}
	return fmt.Sprintf("%s_id_%d.json", name, id)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}
