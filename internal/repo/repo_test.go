package repo_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/minishop/internal/db/dbtest"
	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/Skotchmaster/minishop/internal/repo"
	"github.com/Skotchmaster/minishop/internal/transport"
)

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(dbtest.New(t))
}

func seedUser(t *testing.T, r *repo.GormRepo, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "hash"}
	require.NoError(t, r.DB.Create(u).Error)
	return u
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Description: name + " description"}
	require.NoError(t, r.DB.Create(p).Error)
	return p
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestCreateUserIfNotExists_Conflict(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateUserIfNotExists(ctx, &models.User{Username: "yoshi", PasswordHash: "h"}))
	err := r.CreateUserIfNotExists(ctx, &models.User{Username: "yoshi", PasswordHash: "h2"})
	assert.ErrorIs(t, err, repo.ErrUserAlreadyExist)

	u, err := r.GetUserByUsername(ctx, "yoshi")
	require.NoError(t, err)
	assert.Equal(t, "h", u.PasswordHash)
}

func TestCreateUserIfNotExists_LostInsertRace(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	// Another writer inserts the same name between the lookup and the insert.
	var once sync.Once
	require.NoError(t, r.DB.Callback().Create().Before("gorm:create").Register("test:concurrent_signup", func(tx *gorm.DB) {
		if tx.Statement.Table != "users" {
			return
		}
		once.Do(func() {
			require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
				Exec("INSERT INTO users (username, password_hash) VALUES (?, ?)", "yoshi", "first").Error)
		})
	}))

	err := r.CreateUserIfNotExists(ctx, &models.User{Username: "yoshi", PasswordHash: "second"})
	assert.ErrorIs(t, err, repo.ErrUserAlreadyExist)

	u, err := r.GetUserByUsername(ctx, "yoshi")
	require.NoError(t, err)
	assert.Equal(t, "first", u.PasswordHash)
}

func TestCreateUserIfNotExists_Concurrent(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.CreateUserIfNotExists(ctx, &models.User{Username: "yoshi", PasswordHash: "h"})
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, repo.ErrUserAlreadyExist)
	}
	assert.Equal(t, 1, created)
}

func TestSessions_CreateFindRevoke(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "yoshi")

	s := &models.Session{JTI: "jti-1", TokenHash: "th", UserID: u.ID, ExpiresAt: 100}
	require.NoError(t, r.CreateSession(ctx, s))

	found, err := r.FindSessionByJTI(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.UserID)
	assert.False(t, found.Revoked)

	ok, err := r.RevokeSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.RevokeSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := r.DeleteExpiredSessions(ctx, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = r.FindSessionByJTI(ctx, "jti-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPatchProduct_PartialUpdate(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := seedProduct(t, r, "Widget", 9.99)

	got, err := r.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Price: floatPtr(12)})
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, "Widget description", got.Description)
	assert.Equal(t, 12.0, got.Price)

	got, err = r.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Description: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, got.Description)
	assert.Equal(t, 12.0, got.Price)

	_, err = r.PatchProduct(ctx, 999, transport.PatchProductRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListProducts_Pagination(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c"} {
		seedProduct(t, r, n, 1)
	}

	all, err := r.ListProducts(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Name)

	page, err := r.ListProducts(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Name)
}

func TestDeleteProduct_CascadesCartItems(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "yoshi")
	p := seedProduct(t, r, "Book", 12.5)
	other := seedProduct(t, r, "Pen", 1)

	_, err := r.AddToCart(ctx, u.ID, p.ID)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, u.ID, p.ID)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, u.ID, other.ID)
	require.NoError(t, err)

	removed, err := r.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	lines, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Pen", lines[0].ProductName)

	_, err = r.DeleteProduct(ctx, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAddToCart_ChecksReferences(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "yoshi")
	p := seedProduct(t, r, "Book", 12.5)

	_, err := r.AddToCart(ctx, u.ID, 5)
	assert.ErrorIs(t, err, repo.ErrCartProductMissing)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = r.AddToCart(ctx, 77, p.ID)
	assert.ErrorIs(t, err, repo.ErrCartUserMissing)

	var n int64
	require.NoError(t, r.DB.Model(&models.CartItem{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGetCart_UsesCurrentProductData(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "yoshi")
	stranger := seedUser(t, r, "luigi")
	p := seedProduct(t, r, "Book", 12.5)

	item, err := r.AddToCart(ctx, u.ID, p.ID)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, stranger.ID, p.ID)
	require.NoError(t, err)

	_, err = r.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Price: floatPtr(20)})
	require.NoError(t, err)

	lines, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, models.CartLine{
		ID:           item.ID,
		UserID:       u.ID,
		ProductID:    p.ID,
		ProductName:  "Book",
		ProductPrice: 20,
	}, lines[0])
}

func TestRemoveOneFromCart_RemovesSingleUnit(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "yoshi")
	p := seedProduct(t, r, "Book", 12.5)

	first, err := r.AddToCart(ctx, u.ID, p.ID)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, u.ID, p.ID)
	require.NoError(t, err)

	removed, err := r.RemoveOneFromCart(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, removed.ID)

	lines, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	_, err = r.RemoveOneFromCart(ctx, u.ID, p.ID)
	require.NoError(t, err)
	_, err = r.RemoveOneFromCart(ctx, u.ID, p.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRemoveOneFromCart_LostDeleteRace(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "yoshi")
	p := seedProduct(t, r, "Book", 12.5)
	_, err := r.AddToCart(ctx, u.ID, p.ID)
	require.NoError(t, err)

	// A concurrent remove takes the unit after it was selected.
	var once sync.Once
	require.NoError(t, r.DB.Callback().Delete().Before("gorm:delete").Register("test:concurrent_remove", func(tx *gorm.DB) {
		if tx.Statement.Table != "cart_items" {
			return
		}
		once.Do(func() {
			require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
				Exec("DELETE FROM cart_items WHERE user_id = ? AND product_id = ?", u.ID, p.ID).Error)
		})
	}))

	_, err = r.RemoveOneFromCart(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	lines, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRemoveOneFromCart_ParallelSingleUnit(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "yoshi")
	p := seedProduct(t, r, "Book", 12.5)
	_, err := r.AddToCart(ctx, u.ID, p.ID)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = r.RemoveOneFromCart(ctx, u.ID, p.ID)
		}()
	}
	wg.Wait()

	var ok, notFound int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, gorm.ErrRecordNotFound):
			notFound++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, notFound)
}

func TestClearCart_OnlyOwnItems(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "yoshi")
	other := seedUser(t, r, "luigi")
	p := seedProduct(t, r, "Book", 12.5)

	for i := 0; i < 3; i++ {
		_, err := r.AddToCart(ctx, u.ID, p.ID)
		require.NoError(t, err)
	}
	_, err := r.AddToCart(ctx, other.ID, p.ID)
	require.NoError(t, err)

	n, err := r.ClearCart(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	lines, err := r.GetCart(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestSearchProducts_LikeMatch(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	seedProduct(t, r, "Red Book", 10)
	seedProduct(t, r, "Blue Pen", 1)
	seedProduct(t, r, "100% cotton", 5)

	total, items, err := r.SearchProducts(ctx, "book", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Red Book", items[0].Name)

	total, _, err = r.SearchProducts(ctx, "%", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	total, items, err = r.SearchProducts(ctx, "description", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Blue Pen", items[0].Name)
}
