package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/auth"
	"github.com/georgemunganga/mama-web/internal/modules/cart"
	"github.com/georgemunganga/mama-web/internal/modules/config"
	"github.com/georgemunganga/mama-web/internal/modules/session"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static serves the embedded stylesheet and images under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Options are the client-side timings rendered into htmx attributes.
type Options struct {
	AdminSearchDelay  time.Duration
	PublicSearchDelay time.Duration
}

// View is the model every page and partial is executed with.
type View struct {
	Title      string
	Path       string
	Area       string
	User       *auth.SessionUser
	Visibility auth.Visibility
	Toasts     []session.ToastMessage
	Theme      string
	CartCount  int
	WishCount  int
	Options    Options
	Data       interface{}
}

// Renderer executes the embedded templates.
type Renderer struct {
	api    *apiclient.Client
	logger *zap.Logger
	opts   Options
	pages  map[string]*template.Template
	base   *template.Template
}

// New parses every layout, partial and page.
func New(api *apiclient.Client, opts Options, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Parse-time placeholders; the request-bound set replaces them.
	fm := funcs(config.Endpoints{})

	base, err := template.New("base").Funcs(fm).ParseFS(templateFS, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}

	rd := &Renderer{api: api, logger: logger, opts: opts, pages: map[string]*template.Template{}, base: base}
	err = fs.WalkDir(templateFS, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		t, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(templateFS, p); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/pages/"), ".html")
		rd.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rd, nil
}

// Has reports whether page exists, e.g. "shop/cart".
func (rd *Renderer) Has(page string) bool { _, ok := rd.pages[page]; return ok }

// View assembles the chrome shared by every page: user, toasts, theme and
// badges. Toasts are consumed.
func (rd *Renderer) View(r *http.Request, title string, data interface{}) *View {
	ctx := r.Context()
	area := areaOf(r.URL.Path)
	user := auth.UserFrom(ctx)
	v := &View{
		Title:      title,
		Path:       r.URL.Path,
		Area:       area,
		User:       user,
		Visibility: auth.VisibilityFor(user),
		Toasts:     session.PopToasts(ctx),
		Options:    rd.opts,
		Data:       data,
	}
	themeKey := storage.KeySiteTheme
	if area == "admin" {
		themeKey = storage.KeyAdminTheme
	}
	v.Theme = session.Theme(ctx, themeKey)

	b := session.FromContext(ctx)
	if c, err := cart.Load(ctx, b); err == nil {
		v.CartCount = c.Count()
	}
	if wl, err := cart.LoadWishlist(ctx, b); err == nil {
		v.WishCount = wl.Len()
	}
	return v
}

func areaOf(p string) string {
	switch {
	case strings.HasPrefix(p, "/admin"):
		return "admin"
	case strings.HasPrefix(p, "/shop"), strings.HasPrefix(p, "/cart"), strings.HasPrefix(p, "/wishlist"),
		strings.HasPrefix(p, "/checkout"), strings.HasPrefix(p, "/orders"):
		return "shop"
	default:
		return "site"
	}
}

// IsHTMX reports a request issued by htmx.
func IsHTMX(r *http.Request) bool { return r.Header.Get("HX-Request") == "true" }

// Page renders a full page inside its layout. htmx requests that are not
// boosted navigations receive only the page content.
func (rd *Renderer) Page(w http.ResponseWriter, r *http.Request, status int, page, title string, data interface{}) {
	v := rd.View(r, title, data)
	t, ok := rd.pages[page]
	if !ok {
		rd.fail(w, fmt.Errorf("unknown page %q", page))
		return
	}
	names := []string{"layout-" + strings.SplitN(page, "/", 2)[0]}
	if IsHTMX(r) && r.Header.Get("HX-Boosted") != "true" {
		names = []string{"content", "toasts-oob"}
	}
	rd.execute(w, r, status, t, v, names...)
}

// Partial renders one named partial, plus out-of-band toasts.
func (rd *Renderer) Partial(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	rd.execute(w, r, status, rd.base, rd.View(r, "", data), name, "toasts-oob")
}

func (rd *Renderer) execute(w http.ResponseWriter, r *http.Request, status int, t *template.Template, v *View, names ...string) {
	t, err := t.Clone()
	if err != nil {
		rd.fail(w, err)
		return
	}
	t.Funcs(funcs(rd.api.Endpoints(r.Context())))

	var buf bytes.Buffer
	for _, name := range names {
		if err := t.ExecuteTemplate(&buf, name, v); err != nil {
			rd.fail(w, fmt.Errorf("execute %s: %w", name, err))
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rd *Renderer) fail(w http.ResponseWriter, err error) {
	rd.logger.Error("render failed", zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Redirect sends the browser to url: HX-Redirect for htmx requests, 303
// otherwise, so a POST is never replayed.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Back redirects to the referring page within this site, or fallback.
func Back(w http.ResponseWriter, r *http.Request, fallback string) {
	Redirect(w, r, SafeNext(r.Referer(), r.Host, fallback))
}

// SafeNext returns target when it points inside this site, else fallback.
func SafeNext(target, host, fallback string) string {
	if target == "" {
		return fallback
	}
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return target
	}
	for _, scheme := range []string{"http://", "https://"} {
		if rest, ok := strings.CutPrefix(target, scheme+host); ok && (rest == "" || rest[0] == '/') {
			if rest == "" {
				rest = "/"
			}
			return rest
		}
	}
	return fallback
}

// ErrorPage is the model of the error page.
type ErrorPage struct {
	Status  int
	Message string
}

// Error renders the error page with status.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	rd.Page(w, r, status, "site/error", http.StatusText(status), ErrorPage{Status: status, Message: message})
}
