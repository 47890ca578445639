package service

import (
	"context"

	"shapediary/internal/models"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	getByIDFn      func(context.Context, uint) (*models.Post, error)
	listByUserFn   func(context.Context, uint) ([]models.Post, error)
	setImagePathFn func(context.Context, uint, string) error
	deleteFn       func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *postRepoStub) SetImagePath(ctx context.Context, id uint, imagePath string) error {
	return s.setImagePathFn(ctx, id, imagePath)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	nextID := uint(100)
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			nextID++
			p.ID = nextID
			return nil
		},
		getByIDFn:      func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listByUserFn:   func(_ context.Context, _ uint) ([]models.Post, error) { return nil, nil },
		setImagePathFn: func(_ context.Context, _ uint, _ string) error { return nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getByUsernameFn   func(context.Context, string) (*models.User, error)
	createFn          func(context.Context, *models.User) error
	deleteWithPostsFn func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) DeleteWithPosts(ctx context.Context, id uint) error {
	return s.deleteWithPostsFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:         func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn:   func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:          func(_ context.Context, _ *models.User) error { return nil },
		deleteWithPostsFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// generatorStub is a stub for Generator.
type generatorStub struct {
	generateFn func(context.Context, string) ([]byte, error)
}

func (s *generatorStub) Generate(ctx context.Context, prompt string) ([]byte, error) {
	return s.generateFn(ctx, prompt)
}
