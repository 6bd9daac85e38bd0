package transport

import (
	"github.com/Skotchmaster/texnomart/internal/domain"
	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/repo"
)

const commentTimeLayout = "2006-01-02T15:04:05.000000-07:00"

// PrimaryImage returns the first primary image of p, or nil.
func PrimaryImage(p *models.Product, url URLFunc) *string {
	for _, img := range p.Images {
		if img.IsPrimary {
			u := url(img.Image)
			return &u
		}
	}
	return nil
}

func ToProductSummary(p *models.Product, liked bool, url URLFunc) ProductSummary {
	discounted := domain.DiscountedPrice(p.Price, p.Discount)
	return ProductSummary{
		ID:              p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		Price:           p.Price,
		DiscountedPrice: discounted,
		Discount:        p.Discount,
		UserLikes:       liked,
		Image:           PrimaryImage(p, url),
		MonthlyPay:      domain.MonthlyPay(discounted),
		Category:        p.Category.Title,
		CreatedAt:       p.CreatedAt,
	}
}

func ToProductSummaries(items []models.Product, liked map[uint]bool, url URLFunc) []ProductSummary {
	out := make([]ProductSummary, 0, len(items))
	for i := range items {
		out = append(out, ToProductSummary(&items[i], liked[items[i].ID], url))
	}
	return out
}

func ToCategoryItem(s repo.CategoryStats, url URLFunc) CategoryItem {
	item := CategoryItem{
		ID:           s.ID,
		Title:        s.Title,
		Slug:         s.Slug,
		Image:        url(s.Image),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		ProductCount: s.ProductCount,
	}
	if s.Image != "" {
		abs := url(s.Image)
		item.ImageOfCategory = &abs
	}
	if s.TotalPrice != nil {
		total := int64(*s.TotalPrice)
		item.TotalPriceOfProducts = &total
	}
	return item
}

func ToCategoryItems(stats []repo.CategoryStats, url URLFunc) []CategoryItem {
	out := make([]CategoryItem, 0, len(stats))
	for _, s := range stats {
		out = append(out, ToCategoryItem(s, url))
	}
	return out
}

func ToProductDetail(p *models.Product, liked bool, url URLFunc) ProductDetail {
	discounted := domain.DiscountedPrice(p.Price, p.Discount)

	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, url(img.Image))
	}

	attrs := make(map[string]string, len(p.Attributes))
	for _, a := range p.Attributes {
		attrs[a.AttributeKey.Key] = a.AttributeValue.Value
	}

	comments := make([]map[string]CommentBody, 0, len(p.Comments))
	ratings := make([]int, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, map[string]CommentBody{
			c.User.Username: {
				Content: c.Content,
				Time:    c.CreatedAt.Format(commentTimeLayout),
				Rating:  c.Rating,
			},
		})
		ratings = append(ratings, c.Rating)
	}

	return ProductDetail{
		ID:              p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		Price:           p.Price,
		Discount:        p.Discount,
		DiscountedPrice: discounted,
		MonthlyPay:      domain.MonthlyPay(discounted),
		Description:     p.Description,
		Category:        p.CategoryID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Images:          images,
		Attributes:      attrs,
		Comments:        comments,
		Rating:          domain.AverageRating(ratings),
		UserLikes:       liked,
	}
}

func ToAttributeKeyItems(keys []models.AttributeKey) []AttributeKeyItem {
	out := make([]AttributeKeyItem, 0, len(keys))
	for _, k := range keys {
		out = append(out, AttributeKeyItem{ID: k.ID, Key: k.Key, CreatedAt: k.CreatedAt})
	}
	return out
}

func ToAttributeValueItems(values []models.AttributeValue) []AttributeValueItem {
	out := make([]AttributeValueItem, 0, len(values))
	for _, v := range values {
		out = append(out, AttributeValueItem{ID: v.ID, Value: v.Value, CreatedAt: v.CreatedAt})
	}
	return out
}

func ToAttributeItem(a *models.Attribute) AttributeItem {
	return AttributeItem{ID: a.ID, Product: a.ProductID, Key: a.AttributeKey.Key, Value: a.AttributeValue.Value}
}

func ToImageItem(img *models.Image, url URLFunc) ImageItem {
	return ImageItem{ID: img.ID, Product: img.ProductID, Image: url(img.Image), IsPrimary: img.IsPrimary}
}

func ToCommentItem(c *models.Comment) CommentItem {
	return CommentItem{
		ID:       c.ID,
		Product:  c.ProductID,
		Username: c.User.Username,
		Content:  c.Content,
		Rating:   c.Rating,
		Time:     c.CreatedAt.Format(commentTimeLayout),
	}
}
