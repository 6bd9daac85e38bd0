package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/texnomart/internal/db"
	"github.com/Skotchmaster/texnomart/internal/models"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedCategory(t *testing.T, r *GormRepo, title, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Title: title, Slug: slug, Image: "images/" + slug + ".png"}
	require.NoError(t, r.CreateCategory(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, r *GormRepo, cat *models.Category, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Slug: name, Price: price, Description: name + " description", CategoryID: cat.ID}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func TestListCategoryStats(t *testing.T) {
	ctx := context.Background()
	r := &GormRepo{DB: InitTestDB(t)}

	phones := seedCategory(t, r, "Phones", "phones")
	empty := seedCategory(t, r, "Empty", "empty")
	seedProduct(t, r, phones, "a", 10)
	seedProduct(t, r, phones, "b", 20)
	seedProduct(t, r, phones, "c", 30.5)

	stats, err := r.ListCategoryStats(ctx, CategoryFilter{})
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byID := map[uint]CategoryStats{}
	for _, s := range stats {
		byID[s.ID] = s
	}

	assert.EqualValues(t, 3, byID[phones.ID].ProductCount)
	require.NotNil(t, byID[phones.ID].TotalPrice)
	assert.InDelta(t, 60.5, *byID[phones.ID].TotalPrice, 1e-9)
	assert.Equal(t, "phones", byID[phones.ID].Slug)
	assert.False(t, byID[phones.ID].CreatedAt.IsZero())

	assert.EqualValues(t, 0, byID[empty.ID].ProductCount)
	assert.Nil(t, byID[empty.ID].TotalPrice)

	filtered, err := r.ListCategoryStats(ctx, CategoryFilter{Search: "PHO"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, phones.ID, filtered[0].ID)

	one, err := r.ListCategoryStats(ctx, CategoryFilter{Slug: "empty"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, empty.ID, one[0].ID)
}

func TestListProducts_FiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	r := &GormRepo{DB: InitTestDB(t)}

	phones := seedCategory(t, r, "Phones", "phones")
	tvs := seedCategory(t, r, "TVs", "tvs")
	older := seedProduct(t, r, phones, "Galaxy", 100)
	newer := seedProduct(t, r, phones, "iPhone", 200)
	tv := seedProduct(t, r, tvs, "Smart TV", 300)

	require.NoError(t, r.CreateImage(ctx, &models.Image{ProductID: older.ID, Image: "images/g1.png"}))
	require.NoError(t, r.CreateImage(ctx, &models.Image{ProductID: older.ID, Image: "images/g2.png", IsPrimary: true}))

	all, err := r.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{tv.ID, newer.ID, older.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "TVs", all[0].Category.Title)
	assert.Len(t, all[2].Images, 2)

	inCat, err := r.ListProducts(ctx, ProductFilter{CategorySlug: "phones", PrimaryImagesOnly: true})
	require.NoError(t, err)
	require.Len(t, inCat, 2)
	require.Len(t, inCat[1].Images, 1)
	assert.True(t, inCat[1].Images[0].IsPrimary)

	missing, err := r.ListProducts(ctx, ProductFilter{CategorySlug: "nope"})
	require.NoError(t, err)
	assert.Empty(t, missing)

	found, err := r.ListProducts(ctx, ProductFilter{Search: "smart"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, tv.ID, found[0].ID)

	none, err := r.ListProducts(ctx, ProductFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetProductDetail(t *testing.T) {
	ctx := context.Background()
	r := &GormRepo{DB: InitTestDB(t)}

	cat := seedCategory(t, r, "Phones", "phones")
	p := seedProduct(t, r, cat, "Galaxy", 100)

	u := &models.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, r.CreateUser(ctx, u))

	color := &models.AttributeKey{Key: "color"}
	require.NoError(t, r.CreateAttributeKey(ctx, color))
	red := &models.AttributeValue{Value: "red"}
	blue := &models.AttributeValue{Value: "blue"}
	require.NoError(t, r.CreateAttributeValue(ctx, red))
	require.NoError(t, r.CreateAttributeValue(ctx, blue))
	require.NoError(t, r.CreateAttribute(ctx, &models.Attribute{ProductID: p.ID, AttributeKeyID: color.ID, AttributeValueID: red.ID}))
	last := &models.Attribute{ProductID: p.ID, AttributeKeyID: color.ID, AttributeValueID: blue.ID}
	require.NoError(t, r.CreateAttribute(ctx, last))
	assert.Equal(t, "blue", last.AttributeValue.Value)

	c := &models.Comment{ProductID: p.ID, UserID: u.ID, Rating: 4, Content: "nice"}
	require.NoError(t, r.CreateComment(ctx, c))
	assert.Equal(t, "alice", c.User.Username)

	got, err := r.GetProductDetail(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Attributes, 2)
	assert.Equal(t, "blue", got.Attributes[1].AttributeValue.Value)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "alice", got.Comments[0].User.Username)
	assert.Equal(t, "Phones", got.Category.Title)

	_, err = r.GetProductDetail(ctx, 999)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestLikes(t *testing.T) {
	ctx := context.Background()
	r := &GormRepo{DB: InitTestDB(t)}

	cat := seedCategory(t, r, "Phones", "phones")
	p1 := seedProduct(t, r, cat, "a", 1)
	p2 := seedProduct(t, r, cat, "b", 2)
	u := &models.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, r.CreateUser(ctx, u))

	liked, err := r.ToggleLike(ctx, p1.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	ids, err := r.LikedProductIDs(ctx, u.ID, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{p1.ID: true}, ids)

	anon, err := r.LikedProductIDs(ctx, 0, []uint{p1.ID})
	require.NoError(t, err)
	assert.Empty(t, anon)

	liked, err = r.ToggleLike(ctx, p1.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestDeleteProduct_RemovesChildren(t *testing.T) {
	ctx := context.Background()
	r := &GormRepo{DB: InitTestDB(t)}

	cat := seedCategory(t, r, "Phones", "phones")
	p := seedProduct(t, r, cat, "a", 1)
	u := &models.User{Username: "carol", PasswordHash: "x"}
	require.NoError(t, r.CreateUser(ctx, u))
	require.NoError(t, r.CreateImage(ctx, &models.Image{ProductID: p.ID, Image: "images/a.png"}))
	require.NoError(t, r.CreateComment(ctx, &models.Comment{ProductID: p.ID, UserID: u.ID, Content: "x"}))
	_, err := r.ToggleLike(ctx, p.ID, u.ID)
	require.NoError(t, err)

	require.NoError(t, r.WithTx(ctx, func(tx *GormRepo) error { return tx.DeleteProduct(ctx, p.ID) }))

	var n int64
	r.DB.Model(&models.Image{}).Count(&n)
	assert.Zero(t, n)
	r.DB.Model(&models.Comment{}).Count(&n)
	assert.Zero(t, n)
	r.DB.Table("product_user_likes").Count(&n)
	assert.Zero(t, n)

	err = r.DeleteProduct(ctx, p.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestWithTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	r := &GormRepo{DB: InitTestDB(t)}
	cat := seedCategory(t, r, "Phones", "phones")
	p := seedProduct(t, r, cat, "a", 1)

	boom := errors.New("archive failed")
	err := r.WithTx(ctx, func(tx *GormRepo) error {
		if err := tx.DeleteProduct(ctx, p.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = r.GetProduct(ctx, p.ID)
	assert.NoError(t, err)
}

func TestSlugAndTitleExists(t *testing.T) {
	ctx := context.Background()
	r := &GormRepo{DB: InitTestDB(t)}
	cat := seedCategory(t, r, "Phones", "phones")
	seedProduct(t, r, cat, "phone", 1)

	ok, err := r.CategorySlugExists(ctx, "phones", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.CategorySlugExists(ctx, "phones", cat.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.CategoryTitleExists(ctx, "Phones", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.ProductSlugExists(ctx, "phone")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsersAndTokens(t *testing.T) {
	ctx := context.Background()
	r := &GormRepo{DB: InitTestDB(t)}

	admin := &models.User{Username: "root", Email: "root@example.com", PasswordHash: "x", IsStaff: true, IsSuperuser: true}
	staff := &models.User{Username: "staff", Email: "staff@example.com", PasswordHash: "x", IsStaff: true}
	noMail := &models.User{Username: "root2", PasswordHash: "x", IsStaff: true, IsSuperuser: true}
	for _, u := range []*models.User{admin, staff, noMail} {
		require.NoError(t, r.CreateUser(ctx, u))
	}

	emails, err := r.StaffSuperuserEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"root@example.com"}, emails)

	exists, err := r.EmailExists(ctx, "staff@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	n := 0
	mint := func() (string, error) { n++; return "0123456789abcdef0123456789abcdef0123456" + string(rune('0'+n)), nil }
	tok, err := r.GetOrCreateAuthToken(ctx, admin.ID, mint)
	require.NoError(t, err)
	again, err := r.GetOrCreateAuthToken(ctx, admin.ID, mint)
	require.NoError(t, err)
	assert.Equal(t, tok.Key, again.Key)
	assert.Equal(t, 1, n)

	loaded, err := r.GetAuthToken(ctx, tok.Key)
	require.NoError(t, err)
	assert.Equal(t, "root", loaded.User.Username)

	require.NoError(t, r.DeleteAuthTokenForUser(ctx, admin.ID))
	_, err = r.GetAuthToken(ctx, tok.Key)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	out := &models.OutstandingToken{UserID: admin.ID, JTI: "jti-1", TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, r.SaveOutstandingToken(ctx, out))
	found, err := r.FindOutstandingToken(ctx, "jti-1")
	require.NoError(t, err)

	black, err := r.IsBlacklisted(ctx, found.ID)
	require.NoError(t, err)
	assert.False(t, black)

	require.NoError(t, r.Blacklist(ctx, found.ID))
	require.NoError(t, r.Blacklist(ctx, found.ID))
	black, err = r.IsBlacklisted(ctx, found.ID)
	require.NoError(t, err)
	assert.True(t, black)
}
