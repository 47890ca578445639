package server

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"shapediary/internal/middleware"
	"shapediary/internal/models"
	"shapediary/internal/session"
)

// SessionRequired returns middleware that resolves the session cookie and puts
// the user ID in locals. Requests without a live session are redirected to the
// login page.
func (s *Server) SessionRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies(session.CookieName)
		if cookie == "" {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		data, err := s.sessions.Get(c.UserContext(), cookie)
		if err != nil {
			s.clearSessionCookie(c)
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		c.Locals("userID", data.UserID)
		c.Locals("username", data.Username)
		c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, data.UserID))
		return c.Next()
	}
}

func (s *Server) currentUserID(c *fiber.Ctx) uint {
	uid, _ := c.Locals("userID").(uint)
	return uid
}

// ShowRegister renders the registration page.
func (s *Server) ShowRegister(c *fiber.Ctx) error {
	return s.render(c, "newuser", pageData{Title: "Create an account"})
}

// Register creates a new account. Empty fields and a taken username re-render
// the form with an inline error; any password the user typed is accepted.
func (s *Server) Register(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	renderError := func(msg string) error {
		return s.render(c, "newuser", pageData{Title: "Create an account", Error: msg})
	}

	if username == "" {
		return renderError("Please enter a username")
	}
	if password == "" {
		return renderError("Please enter a password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "password hash failed", "error", err)
		return renderError("Something went wrong, please try again")
	}

	user := &models.User{Username: username, Password: string(hash)}
	if err := s.userRepo.Create(c.UserContext(), user); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "VALIDATION_ERROR" {
			return renderError("Username is already registered")
		}
		middleware.Logger.ErrorContext(c.UserContext(), "user create failed", "error", err)
		return renderError("Something went wrong, please try again")
	}

	middleware.Logger.InfoContext(c.UserContext(), "user registered", "username", username)
	return s.render(c, "login", pageData{Title: "Log in"})
}

// ShowLogin renders the login page.
func (s *Server) ShowLogin(c *fiber.Ctx) error {
	return s.render(c, "login", pageData{Title: "Log in"})
}

// Login verifies credentials and establishes a session. A missing user and a
// wrong password produce the same error so usernames cannot be probed.
func (s *Server) Login(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	user, err := s.userRepo.GetByUsername(c.UserContext(), username)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "user lookup failed", "error", err)
		return s.render(c, "login", pageData{Title: "Log in", Error: "Something went wrong, please try again"})
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return s.render(c, "login", pageData{Title: "Log in", Error: "Username or password is incorrect"})
	}

	cookie, err := s.sessions.Create(c.UserContext(), user.ID, user.Username)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "session create failed", "error", err)
		return s.render(c, "login", pageData{Title: "Log in", Error: "Something went wrong, please try again"})
	}

	s.setSessionCookie(c, cookie)
	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "user_id", user.ID)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// Logout destroys the session and clears the cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	if cookie := c.Cookies(session.CookieName); cookie != "" {
		s.sessions.Destroy(c.UserContext(), cookie)
	}
	s.clearSessionCookie(c)
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// ShowDeleteAccount renders the account deletion confirmation page.
func (s *Server) ShowDeleteAccount(c *fiber.Ctx) error {
	return s.render(c, "user_delete_confirm", pageData{Title: "Delete account"})
}

// DeleteAccount removes the user and all their entries, then ends the session.
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	userID := s.currentUserID(c)

	if err := s.diary.DeleteAccount(c.UserContext(), userID); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "account delete failed", "error", err)
		s.flash(c, "Could not delete your account, please try again")
		return c.Redirect("/user_delete_confirm", fiber.StatusSeeOther)
	}

	if cookie := c.Cookies(session.CookieName); cookie != "" {
		s.sessions.Destroy(c.UserContext(), cookie)
	}
	s.clearSessionCookie(c)

	middleware.Logger.InfoContext(c.UserContext(), "account deleted", "user_id", userID)
	return c.Redirect("/login", fiber.StatusSeeOther)
}
