package httpx

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
)

//go:embed views/*.tmpl views/pages/*.tmpl
var viewsFS embed.FS

// Page names known to the renderer. Each maps to views/pages/<name>.tmpl.
const (
	PageLogin          = "login"
	PageSignup         = "signup"
	PageForgotPassword = "forgot_password"
	PageData           = "page"
	PageError          = "error"
)

// PageMeta describes the page being rendered.
type PageMeta struct {
	Title       string
	CurrentPage string
}

// pageData is what every page template sees.
type pageData struct {
	PageMeta

	Authenticated bool
	User          *domainauth.User
	CSRFToken     string
	LoginPath     string
	LandingPath   string

	// Form state.
	Error       string
	FieldErrors map[string]string
	Message     string
	Email       string
	Name        string
	Role        string
	RedirectURI string

	// Data is a backend payload shown on data pages.
	Data json.RawMessage
}

// TemplateRenderer renders HTML pages. Every page is parsed together with the
// shared layout so pages can redefine the "content" block independently.
type TemplateRenderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem with layout.tmpl and pages/*.tmpl (optional, embedded views by default)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer parses the layout and every page template.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	fsys := cfg.TemplateFS
	if fsys == nil {
		sub, err := fs.Sub(viewsFS, "views")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}

	base, err := template.New("root").Funcs(templateFuncs()).ParseFS(fsys, "layout.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, "pages/*.tmpl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no page templates found")
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".tmpl")
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(fsys, file)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("template parsing failed",
					slog.String("page", name),
					slog.Any("error", err),
					slog.String("phase", "initialization"),
				)
			}
			return nil, err
		}
		pages[name] = t
	}

	return &TemplateRenderer{pages: pages, logger: cfg.Logger}, nil
}

// Render writes page with the given status. The page is rendered into a buffer
// first so a template error never leaves a half-written response.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, page string, data pageData) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logTemplateError(page, err)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		if r.logger != nil {
			r.logger.Error("failed to write rendered template",
				slog.String("page", page),
				slog.Any("error", err),
			)
		}
		return err
	}
	return nil
}

func (r *TemplateRenderer) logTemplateError(page string, err error) {
	if r.logger == nil || err == nil {
		return
	}
	r.logger.Error("template execution failed",
		slog.String("page", page),
		slog.Any("error", err),
	)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// roleIn reports whether the visitor's role is one of the listed roles.
		"roleIn": func(u *domainauth.User, roles ...string) bool {
			if u == nil {
				return false
			}
			for _, role := range roles {
				if string(u.Role) == role {
					return true
				}
			}
			return false
		},
		"prettyJSON": func(raw json.RawMessage) string {
			if len(raw) == 0 {
				return ""
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return string(raw)
			}
			return buf.String()
		},
		"displayName": func(u *domainauth.User) string {
			if u == nil {
				return ""
			}
			return u.DisplayName()
		},
	}
}
