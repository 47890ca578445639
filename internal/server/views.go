package server

import (
	"bytes"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"

	"shapediary/internal/middleware"
	"shapediary/internal/models"
	"shapediary/internal/session"
	"shapediary/web"
)

// views holds the parsed page templates.
type views struct {
	tmpl *template.Template
}

func newViews() (*views, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &views{tmpl: tmpl}, nil
}

// entryView is a post prepared for display, with the timestamp already
// converted to the configured display timezone.
type entryView struct {
	ID        uint
	Content   string
	Date      string
	ImagePath string
}

// pageData is the payload every template receives.
type pageData struct {
	Title         string
	Flashes       []string
	Error         string
	Posts         []entryView
	Content       string
	PostID        uint
	ImageURL      string
	ImagesEnabled bool
}

func (s *Server) entryViews(posts []models.Post) []entryView {
	out := make([]entryView, 0, len(posts))
	for _, p := range posts {
		out = append(out, entryView{
			ID:        p.ID,
			Content:   p.Content,
			Date:      p.CreatedAt.In(s.location).Format("2006-01-02 15:04"),
			ImagePath: p.ImagePath,
		})
	}
	return out
}

// render writes the named page template as an HTML response. Pending flash
// messages for the session are drained into the page.
func (s *Server) render(c *fiber.Ctx, name string, data pageData) error {
	if cookie := c.Cookies(session.CookieName); cookie != "" {
		data.Flashes = append(s.sessions.PopFlashes(c.UserContext(), cookie), data.Flashes...)
	}

	var buf bytes.Buffer
	if err := s.views.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "template render failed",
			"template", name, "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// flash queues a one-shot message shown on the next rendered page.
func (s *Server) flash(c *fiber.Ctx, message string) {
	if cookie := c.Cookies(session.CookieName); cookie != "" {
		s.sessions.AddFlash(c.UserContext(), cookie, message)
	}
}

func (s *Server) setSessionCookie(c *fiber.Ctx, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(session.TTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   s.config.Env == "production",
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
