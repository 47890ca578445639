package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shapediary/internal/models"
)

func TestUserCreateAndGet(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &models.User{Username: "alice", Password: "hashed"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, user.ID, byName.ID)
}

func TestUserGetByUsernameMissing(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	user, err := repo.GetByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user, "a missing user is not an error")
}

func TestUserGetByIDMissing(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), 42)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "bob", Password: "x"}))

	err := repo.Create(ctx, &models.User{Username: "bob", Password: "y"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Equal(t, "Username is already registered", appErr.Message)
}

func TestUserDeleteWithPosts(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "carol", Password: "x"}
	require.NoError(t, users.Create(ctx, user))
	require.NoError(t, posts.Create(ctx, &models.Post{Content: "one", UserID: user.ID}))
	require.NoError(t, posts.Create(ctx, &models.Post{Content: "two", UserID: user.ID}))

	keeper := &models.User{Username: "dan", Password: "x"}
	require.NoError(t, users.Create(ctx, keeper))
	require.NoError(t, posts.Create(ctx, &models.Post{Content: "keep", UserID: keeper.ID}))

	require.NoError(t, users.DeleteWithPosts(ctx, user.ID))

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	// the other user's data is untouched
	require.NoError(t, db.Model(&models.Post{}).Where("user_id = ?", keeper.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// TestUserDeleteWithPostsRollsBack drives the repository against sqlmock to
// prove the posts delete and the user delete share one transaction.
func TestUserDeleteWithPostsRollsBack(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "posts" WHERE user_id = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(7).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := NewUserRepository(db)
	err = repo.DeleteWithPosts(context.Background(), 7)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
