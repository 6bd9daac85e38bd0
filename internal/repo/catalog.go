package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/texnomart/internal/models"
)

type CategoryFilter struct {
	Search string
	Slug   string
}

type ProductFilter struct {
	Search       string
	CategorySlug string
	// PrimaryImagesOnly narrows the preloaded images to the primary ones.
	PrimaryImagesOnly bool
}

// CategoryStats is a category row with its product aggregates.
type CategoryStats struct {
	ID           uint
	Title        string
	Slug         string
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProductCount int64
	TotalPrice   *float64
}

// ListCategoryStats returns every category with its product count and price sum,
// aggregated in one statement. TotalPrice is nil for a category without products.
func (r *GormRepo) ListCategoryStats(ctx context.Context, f CategoryFilter) ([]CategoryStats, error) {
	agg := r.DB.Model(&models.Product{}).
		Select("category_id, COUNT(id) AS product_count, SUM(price) AS total_price").
		Group("category_id")

	q := r.DB.WithContext(ctx).
		Model(&models.Category{}).
		Select(`categories.id, categories.title, categories.slug, categories.image,
			categories.created_at, categories.updated_at,
			COALESCE(agg.product_count, 0) AS product_count, agg.total_price AS total_price`).
		Joins("LEFT JOIN (?) AS agg ON agg.category_id = categories.id", agg).
		Order("categories.created_at DESC, categories.id DESC")

	if f.Slug != "" {
		q = q.Where("categories.slug = ?", f.Slug)
	}
	if strings.TrimSpace(f.Search) != "" {
		q = q.Where(`LOWER(categories.title) LIKE ? ESCAPE '\'`, likePattern(f.Search))
	}

	out := make([]CategoryStats, 0)
	if err := q.Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CategorySlugExists(ctx context.Context, slug string, exceptID uint) (bool, error) {
	return r.exists(ctx, &models.Category{}, "slug = ? AND id <> ?", slug, exceptID)
}

func (r *GormRepo) CategoryTitleExists(ctx context.Context, title string, exceptID uint) (bool, error) {
	return r.exists(ctx, &models.Category{}, "title = ? AND id <> ?", title, exceptID)
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

// DeleteCategory removes the category row only; products must be deleted first.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func imagesScope(primaryOnly bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if primaryOnly {
			db = db.Where("is_primary = ?", true)
		}
		return db.Order(newestFirst)
	}
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Category").
		Preload("Images", imagesScope(f.PrimaryImagesOnly)).
		Order("products.created_at DESC, products.id DESC")

	if f.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", f.CategorySlug)
	}
	if strings.TrimSpace(f.Search) != "" {
		q = q.Where(`LOWER(products.name) LIKE ? ESCAPE '\'`, likePattern(f.Search))
	}

	items := make([]models.Product, 0)
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListProductsOfCategory(ctx context.Context, categoryID uint) ([]models.Product, error) {
	items := make([]models.Product, 0)
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Preload("Images", imagesScope(false)).
		Where("category_id = ?", categoryID).
		Order(newestFirst).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Preload("Images", imagesScope(false)).
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductDetail loads a product with every relation the detail view renders.
// Attributes come oldest first so a repeated key resolves to the latest value.
func (r *GormRepo) GetProductDetail(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Preload("Images", imagesScope(false)).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Attributes.AttributeKey").
		Preload("Attributes.AttributeValue").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order(newestFirst) }).
		Preload("Comments.User").
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ProductSlugExists(ctx context.Context, slug string) (bool, error) {
	return r.exists(ctx, &models.Product{}, "slug = ?", slug)
}

func (r *GormRepo) CategoryExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Category{}, "id = ?", id)
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit("Category", "UserLikes").Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit("Category", "Images", "Attributes", "Comments", "UserLikes").Save(p).Error
}

// DeleteProduct removes the product together with its images, attributes, comments and likes.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	db := r.DB.WithContext(ctx)
	for _, child := range []any{&models.Image{}, &models.Attribute{}, &models.Comment{}} {
		if err := db.Where("product_id = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}
	if err := db.Exec("DELETE FROM product_user_likes WHERE product_id = ?", id).Error; err != nil {
		return err
	}

	res := db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LikedProductIDs returns which of productIDs the user likes.
func (r *GormRepo) LikedProductIDs(ctx context.Context, userID uint, productIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(productIDs) == 0 {
		return out, nil
	}

	var ids []uint
	err := r.DB.WithContext(ctx).
		Table("product_user_likes").
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ToggleLike flips the user's like on the product and reports the new state.
func (r *GormRepo) ToggleLike(ctx context.Context, productID, userID uint) (bool, error) {
	liked, err := r.LikedProductIDs(ctx, userID, []uint{productID})
	if err != nil {
		return false, err
	}

	db := r.DB.WithContext(ctx)
	if liked[productID] {
		err = db.Exec("DELETE FROM product_user_likes WHERE product_id = ? AND user_id = ?", productID, userID).Error
		return false, err
	}
	err = db.Exec("INSERT INTO product_user_likes (product_id, user_id) VALUES (?, ?)", productID, userID).Error
	return err == nil, err
}

func (r *GormRepo) CreateImage(ctx context.Context, img *models.Image) error {
	return r.DB.WithContext(ctx).Create(img).Error
}

func (r *GormRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := r.DB.WithContext(ctx).Omit("User").Create(c).Error; err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Preload("User").First(c, c.ID).Error
}
