package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"shapediary/internal/middleware"
	"shapediary/internal/models"
)

// NewImage drafts an image for an entry. With a post_id query parameter the
// entry text is re-read from the store; otherwise the posted content becomes a
// new entry first. A generation failure flashes a message and sends the user
// home with the text already saved.
func (s *Server) NewImage(c *fiber.Ctx) error {
	userID := s.currentUserID(c)

	var postID uint
	if raw := c.Query("post_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid post id"))
		}
		postID = uint(id)
	}

	content := c.FormValue("content")
	if content == "" {
		content = c.Query("content")
	}

	draft, err := s.images.CreateDraft(c.UserContext(), userID, postID, content)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			switch appErr.Code {
			case "NOT_FOUND":
				return models.RespondWithError(c, fiber.StatusNotFound, appErr)
			case "FORBIDDEN":
				return models.RespondWithError(c, fiber.StatusForbidden, appErr)
			case "VALIDATION_ERROR":
				s.flash(c, appErr.Message)
				return c.Redirect("/", fiber.StatusSeeOther)
			}
		}
		middleware.Logger.ErrorContext(c.UserContext(), "image draft failed", "error", err)
		s.flash(c, "Image generation failed, please try again later")
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	return s.render(c, "newimage", pageData{
		Title:    "Your image",
		Content:  draft.Post.Content,
		PostID:   draft.Post.ID,
		ImageURL: draft.TmpURL,
	})
}

// ConfirmImage finishes the draft flow. "confirm" makes the staged image the
// entry's permanent one; "redo" resubmits the content as a fresh generation
// request whose draft overwrites the old one.
func (s *Server) ConfirmImage(c *fiber.Ctx) error {
	if c.FormValue("action") == "redo" {
		return s.render(c, "redirect_to_newimage", pageData{
			Title:   "Generating",
			Content: c.FormValue("content"),
		})
	}

	postID, err := strconv.ParseUint(c.FormValue("post_id"), 10, 32)
	if err != nil || postID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post id"))
	}

	if err := s.images.Confirm(c.UserContext(), s.currentUserID(c), uint(postID)); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			switch appErr.Code {
			case "NOT_FOUND":
				return models.RespondWithError(c, fiber.StatusNotFound, appErr)
			case "FORBIDDEN":
				return models.RespondWithError(c, fiber.StatusForbidden, appErr)
			}
		}
		// covers a missing staged file as well as store errors
		middleware.Logger.ErrorContext(c.UserContext(), "image confirm failed", "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}
