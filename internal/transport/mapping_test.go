package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/repo"
)

var abs = Media{Prefix: "/media/"}.Absolute("http://shop.test")

func TestMediaURL(t *testing.T) {
	m := Media{Prefix: "/media"}
	assert.Equal(t, "/media/images/a.png", m.URL("images/a.png"))
	assert.Equal(t, "/media/images/a.png", m.URL("/images/a.png"))
	assert.Equal(t, "https://cdn.test/a.png", m.URL("https://cdn.test/a.png"))
	assert.Equal(t, "", m.URL(""))
	assert.Equal(t, "/media/x.png", Media{}.URL("x.png"))

	assert.Equal(t, "http://shop.test/media/images/a.png", abs("images/a.png"))
	assert.Equal(t, "https://cdn.test/a.png", abs("https://cdn.test/a.png"))
}

func TestToProductSummary(t *testing.T) {
	p := &models.Product{
		ID:       3,
		Name:     "Phone",
		Slug:     "phone",
		Price:    1000,
		Discount: 10,
		Category: models.Category{Title: "Phones"},
		Images: []models.Image{
			{Image: "images/side.png"},
			{Image: "images/front.png", IsPrimary: true},
		},
	}

	s := ToProductSummary(p, true, abs)
	assert.InDelta(t, 900, s.DiscountedPrice, 1e-9)
	require.NotNil(t, s.MonthlyPay)
	assert.Equal(t, "37.5 sum / 24 months", *s.MonthlyPay)
	require.NotNil(t, s.Image)
	assert.Equal(t, "http://shop.test/media/images/front.png", *s.Image)
	assert.Equal(t, "Phones", s.Category)
	assert.True(t, s.UserLikes)

	p.Images = nil
	p.Price = 0
	s = ToProductSummary(p, false, abs)
	assert.Nil(t, s.Image)
	assert.Nil(t, s.MonthlyPay)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	for _, k := range []string{"id", "name", "slug", "price", "discounted_price", "discount", "user_likes", "image", "monthly_pay", "category", "created_at"} {
		assert.Contains(t, generic, k)
	}
	assert.Nil(t, generic["image"])
}

func TestToCategoryItem(t *testing.T) {
	total := 60.9
	item := ToCategoryItem(repo.CategoryStats{ID: 1, Title: "Phones", Slug: "phones", Image: "images/p.png", ProductCount: 3, TotalPrice: &total}, abs)
	require.NotNil(t, item.TotalPriceOfProducts)
	assert.EqualValues(t, 60, *item.TotalPriceOfProducts)
	require.NotNil(t, item.ImageOfCategory)
	assert.Equal(t, "http://shop.test/media/images/p.png", *item.ImageOfCategory)

	empty := ToCategoryItem(repo.CategoryStats{ID: 2, Title: "Empty"}, abs)
	assert.Nil(t, empty.TotalPriceOfProducts)
	assert.Nil(t, empty.ImageOfCategory)
	assert.Zero(t, empty.ProductCount)
}

func TestToProductDetail(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 120000500, time.UTC)
	p := &models.Product{
		ID:         9,
		Name:       "TV",
		Price:      2400,
		CategoryID: 4,
		Images:     []models.Image{{Image: "images/1.png"}, {Image: "images/2.png", IsPrimary: true}},
		Attributes: []models.Attribute{
			{AttributeKey: models.AttributeKey{Key: "color"}, AttributeValue: models.AttributeValue{Value: "red"}},
			{AttributeKey: models.AttributeKey{Key: "size"}, AttributeValue: models.AttributeValue{Value: "55"}},
			{AttributeKey: models.AttributeKey{Key: "color"}, AttributeValue: models.AttributeValue{Value: "black"}},
		},
		Comments: []models.Comment{
			{User: models.User{Username: "alice"}, Content: "ok", Rating: 2, CreatedAt: at},
			{User: models.User{Username: "bob"}, Content: "great", Rating: 4, CreatedAt: at},
		},
	}

	d := ToProductDetail(p, false, abs)
	assert.Equal(t, []string{"http://shop.test/media/images/1.png", "http://shop.test/media/images/2.png"}, d.Images)
	assert.Equal(t, map[string]string{"color": "black", "size": "55"}, d.Attributes)
	require.Len(t, d.Comments, 2)
	assert.Equal(t, CommentBody{Content: "ok", Time: "2024-05-01T10:00:00.120000+00:00", Rating: 2}, d.Comments[0]["alice"])
	require.NotNil(t, d.Rating)
	assert.InDelta(t, 3.0, *d.Rating, 1e-9)
	assert.EqualValues(t, 4, d.Category)
	require.NotNil(t, d.MonthlyPay)
	assert.Equal(t, "100.0 sum / 24 months", *d.MonthlyPay)

	p.Comments = nil
	d = ToProductDetail(p, true, abs)
	assert.Nil(t, d.Rating)
	assert.Empty(t, d.Comments)
	assert.True(t, d.UserLikes)
}
