package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	PostListKeyPrefix = "user:%d:posts"
)

const (
	UserTTL     = 5 * time.Minute
	PostListTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostListKey(userID uint) string {
	return fmt.Sprintf(PostListKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, PostListKey(userID))
}

// InvalidatePostList drops the cached diary listing for a user. Called on every
// post create, delete and image confirmation.
func InvalidatePostList(ctx context.Context, userID uint) {
	Invalidate(ctx, PostListKey(userID))
}
