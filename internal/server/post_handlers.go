package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shapediary/internal/middleware"
	"shapediary/internal/models"
)

// Index renders the diary timeline with the entry form on top.
func (s *Server) Index(c *fiber.Ctx) error {
	userID := s.currentUserID(c)

	posts, err := s.diary.ListPosts(c.UserContext(), userID)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "post list failed", "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return s.render(c, "index", pageData{
		Title:         "Home",
		Posts:         s.entryViews(posts),
		ImagesEnabled: s.images.Enabled(userID),
	})
}

// CreatePost handles the entry form. "plain" saves the text right away;
// "generate" forwards the text to the image draft flow instead.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	content := c.FormValue("diary_entry")
	action := c.FormValue("action")

	if action == "generate" {
		return s.render(c, "redirect_to_newimage", pageData{
			Title:   "Generating",
			Content: content,
		})
	}

	if _, err := s.diary.CreatePost(c.UserContext(), s.currentUserID(c), content); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "VALIDATION_ERROR" {
			s.flash(c, appErr.Message)
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		middleware.Logger.ErrorContext(c.UserContext(), "post create failed", "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// ShowEdit lists the user's entries with delete links.
func (s *Server) ShowEdit(c *fiber.Ctx) error {
	posts, err := s.diary.ListPosts(c.UserContext(), s.currentUserID(c))
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "post list failed", "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return s.render(c, "edit", pageData{
		Title: "Edit entries",
		Posts: s.entryViews(posts),
	})
}

// DeletePost removes one of the user's entries. Deleting someone else's entry
// is answered with 403 rather than a quiet redirect.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("post_id")
	if err != nil || postID <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post id"))
	}

	if err := s.diary.DeletePost(c.UserContext(), s.currentUserID(c), uint(postID)); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			switch appErr.Code {
			case "NOT_FOUND":
				return models.RespondWithError(c, fiber.StatusNotFound, appErr)
			case "FORBIDDEN":
				return models.RespondWithError(c, fiber.StatusForbidden, appErr)
			}
		}
		middleware.Logger.ErrorContext(c.UserContext(), "post delete failed", "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Redirect("/edit", fiber.StatusSeeOther)
}
