package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/texnomart/internal/db"
	"github.com/Skotchmaster/texnomart/internal/events"
	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/repo"
	"github.com/Skotchmaster/texnomart/internal/search"
	"github.com/Skotchmaster/texnomart/internal/transport"
)

var testURL = transport.Media{}.Absolute("http://testserver")

func ptr[T any](v T) *T { return &v }

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	gdb, err := db.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &repo.GormRepo{DB: gdb}
}

func newCatalog(t *testing.T) *CatalogService {
	t.Helper()
	return &CatalogService{Repo: newRepo(t), Events: events.NewBus()}
}

func mustCategory(t *testing.T, s *CatalogService, title string) *transport.CategoryItem {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), transport.CategoryRequest{
		Title: ptr(title),
		Image: ptr("images/cat.png"),
	}, testURL)
	require.NoError(t, err)
	return c
}

func mustProduct(t *testing.T, s *CatalogService, categoryID uint, name string, price float64) *transport.ProductSummary {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), transport.ProductRequest{
		Name:        ptr(name),
		Price:       ptr(price),
		Description: ptr(name + " description"),
		Category:    ptr(categoryID),
	}, testURL)
	require.NoError(t, err)
	return p
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	require.ErrorIs(t, err, ErrValidation)
	var v *ValidationError
	require.True(t, errors.As(err, &v))
	return v.Fields
}

func TestCreateCategory(t *testing.T) {
	s := newCatalog(t)
	ctx := context.Background()

	var created []events.Kind
	s.Events.Subscribe("recorder", func(_ context.Context, ev events.Event) error {
		created = append(created, ev.Kind)
		return nil
	}, events.CategoryCreated)

	c := mustCategory(t, s, "Smart Phones")
	assert.Equal(t, "smart-phones", c.Slug)
	assert.Equal(t, int64(0), c.ProductCount)
	assert.Nil(t, c.TotalPriceOfProducts)
	require.NotNil(t, c.ImageOfCategory)
	assert.Equal(t, "http://testserver/media/images/cat.png", *c.ImageOfCategory)
	assert.Equal(t, []events.Kind{events.CategoryCreated}, created)

	_, err := s.CreateCategory(ctx, transport.CategoryRequest{Title: ptr("Smart Phones"), Image: ptr("x.png")}, testURL)
	assert.Equal(t, []string{"category with this title already exists."}, validationFields(t, err)["title"])

	_, err = s.CreateCategory(ctx, transport.CategoryRequest{Title: ptr("Other"), Slug: ptr("smart-phones"), Image: ptr("x.png")}, testURL)
	assert.Equal(t, []string{"category with this slug already exists."}, validationFields(t, err)["slug"])

	_, err = s.CreateCategory(ctx, transport.CategoryRequest{}, testURL)
	fields := validationFields(t, err)
	assert.Equal(t, []string{msgRequired}, fields["title"])
	assert.Equal(t, []string{msgRequired}, fields["image"])

	c2, err := s.CreateCategory(ctx, transport.CategoryRequest{Title: ptr("Телефоны"), Image: ptr("x.png")}, testURL)
	require.NoError(t, err)
	assert.Equal(t, "category", c2.Slug)
}

func TestUpdateCategory(t *testing.T) {
	s := newCatalog(t)
	ctx := context.Background()
	mustCategory(t, s, "Laptops")

	got, err := s.UpdateCategory(ctx, "laptops", transport.CategoryRequest{Title: ptr("Notebooks")}, true, testURL)
	require.NoError(t, err)
	assert.Equal(t, "Notebooks", got.Title)
	assert.Equal(t, "laptops", got.Slug)

	_, err = s.UpdateCategory(ctx, "laptops", transport.CategoryRequest{Title: ptr("Notebooks")}, false, testURL)
	assert.Equal(t, []string{msgRequired}, validationFields(t, err)["image"])

	got, err = s.UpdateCategory(ctx, "laptops", transport.CategoryRequest{Slug: ptr("")}, true, testURL)
	require.NoError(t, err)
	assert.Equal(t, "notebooks", got.Slug)

	_, err = s.UpdateCategory(ctx, "missing", transport.CategoryRequest{}, true, testURL)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProduct_SlugsAreUnique(t *testing.T) {
	s := newCatalog(t)
	cat := mustCategory(t, s, "Phones")

	first := mustProduct(t, s, cat.ID, "Phone", 1000)
	second := mustProduct(t, s, cat.ID, "Phone", 1200)

	assert.Equal(t, "phone", first.Slug)
	assert.Equal(t, "phone-1", second.Slug)
	assert.Equal(t, "Phones", first.Category)
	assert.False(t, first.UserLikes)
	assert.Nil(t, first.Image)
	require.NotNil(t, first.MonthlyPay)
	assert.Equal(t, "41.7 sum / 24 months", *first.MonthlyPay)
}

func TestCreateProduct_Validation(t *testing.T) {
	s := newCatalog(t)
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, transport.ProductRequest{}, testURL)
	fields := validationFields(t, err)
	for _, f := range []string{"name", "price", "description", "category"} {
		assert.Equal(t, []string{msgRequired}, fields[f], f)
	}

	_, err = s.CreateProduct(ctx, transport.ProductRequest{
		Name:        ptr("TV"),
		Price:       ptr(10.0),
		Description: ptr("big"),
		Discount:    ptr(150.0),
		Category:    ptr(uint(42)),
	}, testURL)
	fields = validationFields(t, err)
	assert.Equal(t, []string{`Invalid pk "42" - object does not exist.`}, fields["category"])
	assert.Equal(t, []string{"Ensure this value is between 0 and 100."}, fields["discount"])
}

func TestUpdateProduct(t *testing.T) {
	s := newCatalog(t)
	ctx := context.Background()
	cat := mustCategory(t, s, "Phones")
	p := mustProduct(t, s, cat.ID, "Phone", 1000)

	got, err := s.UpdateProduct(ctx, p.ID, transport.ProductRequest{Discount: ptr(10.0)}, true, 0, testURL)
	require.NoError(t, err)
	assert.Equal(t, 900.0, got.DiscountedPrice)
	assert.Equal(t, "phone", got.Slug)

	_, err = s.UpdateProduct(ctx, p.ID, transport.ProductRequest{Discount: ptr(10.0)}, false, 0, testURL)
	assert.Contains(t, validationFields(t, err), "name")

	_, err = s.UpdateProduct(ctx, 999, transport.ProductRequest{}, true, 0, testURL)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCategory_ArchivesProductsAndCategory(t *testing.T) {
	s := newCatalog(t)
	ctx := context.Background()
	dir := t.TempDir()

	archiver := &events.Archiver{Dir: dir}
	s.Events.Subscribe("archiver", archiver.Handle, events.ProductDeleting, events.CategoryDeleting)
	var after []string
	s.Events.Subscribe("recorder", func(_ context.Context, ev events.Event) error {
		key, _ := events.EnvelopeFor(ev)
		after = append(after, string(ev.Kind)+" "+key)
		return nil
	}, events.ProductDeleted, events.CategoryDeleted)

	cat := mustCategory(t, s, "Phones")
	p1 := mustProduct(t, s, cat.ID, "Phone", 1000)
	p2 := mustProduct(t, s, cat.ID, "Tablet", 2000)

	require.NoError(t, s.DeleteCategory(ctx, "phones"))

	assert.FileExists(t, filepath.Join(dir, "categories", "Phones_id_1.json"))
	assert.FileExists(t, filepath.Join(dir, "products", "Phone_id_1.json"))
	assert.FileExists(t, filepath.Join(dir, "products", "Tablet_id_2.json"))
	assert.ElementsMatch(t, []string{
		"product.deleted product:1",
		"product.deleted product:2",
		"category.deleted category:1",
	}, after)
	assert.Equal(t, "category.deleted category:1", after[len(after)-1])

	_, err := s.GetCategory(ctx, "phones", testURL)
	assert.ErrorIs(t, err, ErrNotFound)
	for _, id := range []uint{p1.ID, p2.ID} {
		_, err := s.GetProduct(ctx, id, 0, testURL)
		assert.ErrorIs(t, err, ErrNotFound)
	}

	assert.ErrorIs(t, s.DeleteCategory(ctx, "phones"), ErrNotFound)
}

func TestDeleteProduct_RollsBackWhenArchiveFails(t *testing.T) {
	s := newCatalog(t)
	ctx := context.Background()

	// A regular file where the archive directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	archiver := &events.Archiver{Dir: blocker}
	s.Events.Subscribe("archiver", archiver.Handle, events.ProductDeleting)

	cat := mustCategory(t, s, "Phones")
	p := mustProduct(t, s, cat.ID, "Phone", 1000)

	require.Error(t, s.DeleteProduct(ctx, p.ID))

	_, err := s.GetProduct(ctx, p.ID, 0, testURL)
	require.NoError(t, err)
}

func TestDeleteProduct(t *testing.T) {
	s := newCatalog(t)
	ctx := context.Background()
	cat := mustCategory(t, s, "Phones")
	p := mustProduct(t, s, cat.ID, "Phone", 1000)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), ErrNotFound)

	got, err := s.GetCategory(ctx, "phones", testURL)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.ProductCount)
}

func TestProductDetail_ChildrenAndRating(t *testing.T) {
	s := newCatalog(t)
	ctx := context.Background()
	cat := mustCategory(t, s, "Phones")
	p := mustProduct(t, s, cat.ID, "Phone", 1000)

	u := &models.User{Username: "alice", PasswordHash: "x", IsActive: true}
	require.NoError(t, s.Repo.CreateUser(ctx, u))

	d, err := s.ProductDetail(ctx, p.ID, u.ID, testURL)
	require.NoError(t, err)
	assert.Nil(t, d.Rating)
	assert.Empty(t, d.Images)

	_, err = s.AddImage(ctx, p.ID, transport.ImageRequest{Image: "images/p.png", IsPrimary: true}, testURL)
	require.NoError(t, err)

	k, err := s.CreateAttributeKey(ctx, transport.AttributeKeyRequest{Key: "Color"})
	require.NoError(t, err)
	v, err := s.CreateAttributeValue(ctx, transport.AttributeValueRequest{Value: "Black"})
	require.NoError(t, err)
	_, err = s.AddAttribute(ctx, p.ID, transport.AttributeRequest{Key: k.ID, Value: v.ID})
	require.NoError(t, err)
	_, err = s.AddAttribute(ctx, p.ID, transport.AttributeRequest{Key: k.ID, Value: 77})
	assert.Contains(t, validationFields(t, err), "value")

	for _, r := range []int{2, 4} {
		_, err := s.AddComment(ctx, p.ID, u.ID, transport.CommentRequest{Rating: r, Content: "ok"})
		require.NoError(t, err)
	}
	_, err = s.AddComment(ctx, p.ID, u.ID, transport.CommentRequest{Rating: 6, Content: "ok"})
	assert.Equal(t, []string{`"6" is not a valid choice.`}, validationFields(t, err)["rating"])

	liked, err := s.ToggleLike(ctx, p.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	d, err = s.ProductDetail(ctx, p.ID, u.ID, testURL)
	require.NoError(t, err)
	require.NotNil(t, d.Rating)
	assert.Equal(t, 3.0, *d.Rating)
	assert.Equal(t, []string{"http://testserver/media/images/p.png"}, d.Images)
	assert.Equal(t, map[string]string{"Color": "Black"}, d.Attributes)
	assert.Len(t, d.Comments, 2)
	assert.True(t, d.UserLikes)

	anon, err := s.ProductDetail(ctx, p.ID, 0, testURL)
	require.NoError(t, err)
	assert.False(t, anon.UserLikes)

	_, err = s.ProductDetail(ctx, 999, 0, testURL)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AddImage(ctx, 999, transport.ImageRequest{Image: "x.png"}, testURL)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryProducts_UnknownSlugIsEmpty(t *testing.T) {
	s := newCatalog(t)
	items, err := s.CategoryProducts(context.Background(), "nope", 0, "", testURL)
	require.NoError(t, err)
	assert.Empty(t, items)
}

type fakeSearcher struct {
	docs []search.Document
}

func (f fakeSearcher) Search(_ context.Context, _ string, from, size int) (int64, []search.Document, error) {
	return int64(len(f.docs)), f.docs, nil
}

func TestSearchProducts(t *testing.T) {
	s := newCatalog(t)
	ctx := context.Background()

	_, _, err := s.SearchProducts(ctx, "phone", 0, 20)
	assert.ErrorIs(t, err, ErrSearchDisabled)

	s.Search = fakeSearcher{docs: []search.Document{{ID: 1, Name: "Phone", Slug: "phone", Price: 10, DiscountedPrice: 9, Category: "Phones"}}}
	total, hits, err := s.SearchProducts(ctx, "phone", 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, hits, 1)
	assert.Equal(t, "Phones", hits[0].Category)
	assert.Equal(t, 9.0, hits[0].DiscountedPrice)
}
