package server

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapediary/internal/models"
)

func TestCreatePlainPost(t *testing.T) {
	h := newTestHarness(t)
	user := h.register(t, "alice", "pw")
	cookie := h.login(t, "alice", "pw")

	resp := h.postForm(t, "/posts", cookie, url.Values{
		"diary_entry": {"quiet day, mostly reading"},
		"action":      {"plain"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var post models.Post
	require.NoError(t, h.db.Where("user_id = ?", user.ID).First(&post).Error)
	assert.Equal(t, "quiet day, mostly reading", post.Content)
	assert.Empty(t, post.ImagePath)
}

func TestCreatePostGenerateRendersForwardPage(t *testing.T) {
	h := newTestHarness(t)
	h.register(t, "alice", "pw")
	cookie := h.login(t, "alice", "pw")

	resp := h.postForm(t, "/posts", cookie, url.Values{
		"diary_entry": {"happy about everything"},
		"action":      {"generate"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `action="/newimage"`)
	assert.Contains(t, string(body), "happy about everything")

	// nothing persisted yet; the entry is created by the image flow
	var count int64
	require.NoError(t, h.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIndexListsOwnPostsOnly(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register(t, "alice", "pw")
	bob := h.register(t, "bob", "pw")
	cookie := h.login(t, "alice", "pw")

	require.NoError(t, h.db.Create(&models.Post{Content: "first entry", UserID: alice.ID}).Error)
	require.NoError(t, h.db.Create(&models.Post{Content: "second entry", UserID: alice.ID}).Error)
	require.NoError(t, h.db.Create(&models.Post{Content: "someone elses entry", UserID: bob.ID}).Error)

	resp := h.get(t, "/", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	page := string(body)

	assert.Contains(t, page, "first entry")
	assert.Contains(t, page, "second entry")
	assert.NotContains(t, page, "someone elses entry")
}

func TestIndexRendersTimestampsInDisplayZone(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register(t, "alice", "pw")
	cookie := h.login(t, "alice", "pw")

	written := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	require.NoError(t, h.db.Create(&models.Post{
		Content:   "late night thoughts",
		UserID:    alice.ID,
		CreatedAt: written,
	}).Error)

	resp := h.get(t, "/", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)

	// 15:30 UTC is 00:30 the next day in Asia/Tokyo.
	assert.Contains(t, string(body), "2024-03-02 00:30")

	// The rendered string still identifies the original instant.
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	roundTrip, err := time.ParseInLocation("2006-01-02 15:04", "2024-03-02 00:30", tokyo)
	require.NoError(t, err)
	assert.True(t, roundTrip.UTC().Equal(written))
}

func TestDeleteOwnPost(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register(t, "alice", "pw")
	cookie := h.login(t, "alice", "pw")

	post := models.Post{Content: "delete me", UserID: alice.ID}
	require.NoError(t, h.db.Create(&post).Error)

	resp := h.get(t, fmt.Sprintf("/delete/%d", post.ID), cookie)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/edit", resp.Header.Get("Location"))

	var count int64
	require.NoError(t, h.db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteForeignPostForbidden(t *testing.T) {
	h := newTestHarness(t)
	h.register(t, "alice", "pw")
	bob := h.register(t, "bob", "pw")
	cookie := h.login(t, "alice", "pw")

	post := models.Post{Content: "bobs entry", UserID: bob.ID}
	require.NoError(t, h.db.Create(&post).Error)

	resp := h.get(t, fmt.Sprintf("/delete/%d", post.ID), cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, h.db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "the entry must survive")
}

func TestDeleteMissingPost(t *testing.T) {
	h := newTestHarness(t)
	h.register(t, "alice", "pw")
	cookie := h.login(t, "alice", "pw")

	resp := h.get(t, "/delete/9999", cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
