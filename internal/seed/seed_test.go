package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shapediary/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}))
	return db
}

func TestSeederRun(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)

	require.NoError(t, s.Run(Options{NumUsers: 5, EntriesPerUser: 3, ShouldClean: true}))

	var userCount, postCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.EqualValues(t, 5, userCount)
	assert.EqualValues(t, 15, postCount)

	var post models.Post
	require.NoError(t, db.First(&post).Error)
	assert.NotZero(t, post.UserID)
	assert.NotEmpty(t, post.Content)
}

func TestSeederUsernamesUnique(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)

	users, err := s.SeedUsers(10)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, u := range users {
		assert.False(t, seen[u.Username], "duplicate username %q", u.Username)
		seen[u.Username] = true
	}
}

func TestSeederClearAll(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)

	require.NoError(t, s.Run(Options{NumUsers: 2, EntriesPerUser: 2}))
	require.NoError(t, s.ClearAll())

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
