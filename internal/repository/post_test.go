package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapediary/internal/cache"
	"shapediary/internal/models"
)

func seedUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Password: "x"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestPostCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	user := seedUser(t, users, "alice")
	post := &models.Post{Content: "first entry", UserID: user.ID}
	require.NoError(t, posts.Create(ctx, post))
	require.NotZero(t, post.ID)

	got, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "first entry", got.Content)
	assert.Equal(t, user.ID, got.UserID)
	assert.False(t, got.HasImage())
}

func TestPostGetByIDMissing(t *testing.T) {
	posts := NewPostRepository(newTestDB(t))

	_, err := posts.GetByID(context.Background(), 99)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestPostListByUserNewestFirst(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	user := seedUser(t, users, "alice")
	other := seedUser(t, users, "bob")

	now := time.Now()
	older := &models.Post{Content: "older", UserID: user.ID, CreatedAt: now.Add(-time.Hour)}
	newer := &models.Post{Content: "newer", UserID: user.ID, CreatedAt: now}
	require.NoError(t, posts.Create(ctx, older))
	require.NoError(t, posts.Create(ctx, newer))
	require.NoError(t, posts.Create(ctx, &models.Post{Content: "foreign", UserID: other.ID}))

	list, err := posts.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Content)
	assert.Equal(t, "older", list[1].Content)
}

func TestPostSetImagePath(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	user := seedUser(t, users, "alice")
	post := &models.Post{Content: "entry", UserID: user.ID}
	require.NoError(t, posts.Create(ctx, post))

	require.NoError(t, posts.SetImagePath(ctx, post.ID, "static/1_1.png"))

	got, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "static/1_1.png", got.ImagePath)
	assert.True(t, got.HasImage())
}

func TestPostSetImagePathInvalidatesCachedList(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	user := seedUser(t, users, "alice")
	post := &models.Post{Content: "entry", UserID: user.ID}
	require.NoError(t, posts.Create(ctx, post))

	// Warm the list cache.
	listed, err := posts.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.True(t, mr.Exists(cache.PostListKey(user.ID)))

	require.NoError(t, posts.SetImagePath(ctx, post.ID, "static/1_1.png"))
	assert.False(t, mr.Exists(cache.PostListKey(user.ID)),
		"cached list must be dropped once the entry gains an image")

	listed, err = posts.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "static/1_1.png", listed[0].ImagePath)
}

func TestPostSetImagePathMissing(t *testing.T) {
	posts := NewPostRepository(newTestDB(t))

	err := posts.SetImagePath(context.Background(), 404, "static/x.png")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestPostDelete(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	user := seedUser(t, users, "alice")
	post := &models.Post{Content: "goner", UserID: user.ID}
	require.NoError(t, posts.Create(ctx, post))

	require.NoError(t, posts.Delete(ctx, post.ID))

	_, err := posts.GetByID(ctx, post.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
