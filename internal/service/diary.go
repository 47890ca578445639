package service

import (
	"context"
	"strings"

	"shapediary/internal/models"
	"shapediary/internal/repository"
)

// DiaryService handles diary entry CRUD and account deletion.
type DiaryService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	drafts   *DraftStore
}

// NewDiaryService returns a new DiaryService.
func NewDiaryService(postRepo repository.PostRepository, userRepo repository.UserRepository, drafts *DraftStore) *DiaryService {
	return &DiaryService{postRepo: postRepo, userRepo: userRepo, drafts: drafts}
}

// CreatePost persists a new text entry for the user.
func (s *DiaryService) CreatePost(ctx context.Context, userID uint, content string) (*models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Diary entry must not be empty")
	}

	post := &models.Post{Content: content, UserID: userID}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts returns the user's entries, newest first.
func (s *DiaryService) ListPosts(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.postRepo.ListByUser(ctx, userID)
}

// DeletePost removes one of the user's own entries along with its confirmed
// image file. Attempting to delete someone else's entry is a forbidden error,
// not a silent no-op.
func (s *DiaryService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only delete your own entries")
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	if post.HasImage() {
		s.drafts.Remove(userID, postID)
	}
	return nil
}

// DeleteAccount removes the user and every entry they own in one transaction,
// then cleans up their image files.
func (s *DiaryService) DeleteAccount(ctx context.Context, userID uint) error {
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteWithPosts(ctx, userID); err != nil {
		return err
	}

	for _, p := range posts {
		if p.HasImage() {
			s.drafts.Remove(userID, p.ID)
		}
	}
	return nil
}
