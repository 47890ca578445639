package service

import (
	"context"
	"fmt"
	"path"

	"go.opentelemetry.io/otel/attribute"

	"shapediary/internal/featureflags"
	"shapediary/internal/middleware"
	"shapediary/internal/models"
	"shapediary/internal/observability"
	"shapediary/internal/repository"
	"shapediary/internal/sentiment"
)

// Generator produces raw PNG image bytes for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Draft describes a staged, unconfirmed image for a diary entry.
type Draft struct {
	Post   *models.Post
	Score  float64
	Bucket sentiment.Bucket
	// TmpURL is the public path of the staged image, cache-busted so a
	// redone image is never served from a stale browser cache.
	TmpURL string
}

// ImageWorkflow drives the draft and confirm lifecycle of entry images.
type ImageWorkflow struct {
	postRepo  repository.PostRepository
	lexicon   *sentiment.Lexicon
	generator Generator
	drafts    *DraftStore
	flags     *featureflags.Manager
	staticURL string
}

// NewImageWorkflow returns a workflow serving staged and confirmed images
// under staticURL.
func NewImageWorkflow(postRepo repository.PostRepository, lexicon *sentiment.Lexicon, generator Generator, drafts *DraftStore, flags *featureflags.Manager, staticURL string) *ImageWorkflow {
	return &ImageWorkflow{
		postRepo:  postRepo,
		lexicon:   lexicon,
		generator: generator,
		drafts:    drafts,
		flags:     flags,
		staticURL: staticURL,
	}
}

// Enabled reports whether image generation is turned on for the user.
func (w *ImageWorkflow) Enabled(userID uint) bool {
	return w.flags.Enabled(featureflags.FlagImageGeneration, userID)
}

// CreateDraft scores the entry, generates an image for its sentiment bucket
// and stages the result. When postID is zero a new entry is persisted first;
// a nonzero postID redoes the image for an existing entry the user owns.
// Each user has at most one staged image; a new draft overwrites it.
func (w *ImageWorkflow) CreateDraft(ctx context.Context, userID, postID uint, content string) (*Draft, error) {
	if !w.Enabled(userID) {
		return nil, models.NewValidationError("Image generation is currently disabled")
	}

	var post *models.Post
	if postID != 0 {
		existing, err := w.postRepo.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if existing.UserID != userID {
			return nil, models.NewForbiddenError("You can only generate images for your own entries")
		}
		post = existing
	} else {
		post = &models.Post{Content: content, UserID: userID}
		if err := w.postRepo.Create(ctx, post); err != nil {
			return nil, err
		}
	}

	score := w.lexicon.Score(post.Content)
	bucket := sentiment.BucketFor(score)
	middleware.SentimentBuckets.WithLabelValues(string(bucket)).Inc()

	span, ctx := observability.NewSpan(ctx, "imagegen.generate")
	span.AddAttributes(
		attribute.Int("post.id", int(post.ID)),
		attribute.Float64("sentiment.score", score),
		attribute.String("sentiment.bucket", string(bucket)),
	)
	data, err := w.generator.Generate(ctx, sentiment.Prompt(score))
	if err != nil {
		span.SetError(err)
		span.End()
		middleware.ImagesGenerated.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("generate image for post %d: %w", post.ID, err)
	}
	span.End()
	middleware.ImagesGenerated.WithLabelValues("success").Inc()

	if _, err := w.drafts.Stage(userID, data); err != nil {
		return nil, fmt.Errorf("stage image for post %d: %w", post.ID, err)
	}

	return &Draft{
		Post:   post,
		Score:  score,
		Bucket: bucket,
		TmpURL: fmt.Sprintf("%s?post=%d", path.Join(w.staticURL, fmt.Sprintf("%d_tmp.png", userID)), post.ID),
	}, nil
}

// Confirm promotes the user's staged image to the entry's permanent image
// and records its public path on the entry.
func (w *ImageWorkflow) Confirm(ctx context.Context, userID, postID uint) error {
	post, err := w.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only confirm images for your own entries")
	}

	if _, err := w.drafts.Promote(userID, postID); err != nil {
		return fmt.Errorf("promote image for post %d: %w", postID, err)
	}

	publicPath := path.Join(w.staticURL, fmt.Sprintf("%d_%d.png", userID, postID))
	return w.postRepo.SetImagePath(ctx, postID, publicPath)
}
