package site

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/auth"
	"github.com/georgemunganga/mama-web/internal/modules/content"
	"github.com/georgemunganga/mama-web/internal/modules/render"
	"github.com/georgemunganga/mama-web/internal/modules/resource"
	"github.com/georgemunganga/mama-web/internal/modules/session"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
)

// Handler serves the public site and the account pages.
type Handler struct {
	content *content.Loader
	auth    auth.Service
	render  *render.Renderer
	logger  *zap.Logger
}

func NewHandler(loader *content.Loader, authSvc auth.Service, rd *render.Renderer, logger *zap.Logger) *Handler {
	return &Handler{content: loader, auth: authSvc, render: rd, logger: logger}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/", h.home)                               // GET  /
	r.Get("/search", h.search)                       // GET  /search?q=
	r.Get("/articles/{id}", h.article)               // GET  /articles/{id}
	r.Get("/posts/{id}", h.post)                     // GET  /posts/{id}
	r.Post("/comments/{targetType}/{id}", h.comment) // POST /comments/{targetType}/{id}
	r.Post("/refresh", h.refresh)                    // POST /refresh
	r.Post("/theme", h.toggleTheme)                  // POST /theme

	r.Get("/login", h.loginForm)       // GET  /login
	r.Post("/login", h.login)          // POST /login
	r.Get("/register", h.registerForm) // GET  /register
	r.Post("/register", h.register)    // POST /register
	r.Post("/logout", h.logout)        // POST /logout
}

type homePage struct {
	Home      content.Home
	Available bool
}

// detailPage is an article or post with its comment thread.
type detailPage struct {
	Article  *resource.Article
	Post     *resource.Post
	Comments []resource.Comment
	Target   string
	ID       string
}

// ── public pages ─────────────────────────────────────────────────────────────

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	home := h.content.Home(r.Context())
	h.render.Page(w, r, http.StatusOK, "site/home", "Accueil", homePage{Home: home, Available: h.content.Available()})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	res := h.content.Search(r.Context(), r.URL.Query().Get("q"))
	if render.IsHTMX(r) {
		h.render.Partial(w, r, http.StatusOK, "search-results", res)
		return
	}
	h.render.Page(w, r, http.StatusOK, "site/search", "Recherche", res)
}

func (h *Handler) article(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.content.Article(r.Context(), id)
	if err != nil {
		h.notFoundOr(w, r, err, "Article introuvable.")
		return
	}
	h.render.Page(w, r, http.StatusOK, "site/article", a.Title, h.detail(r, "article", id, func(d *detailPage) { d.Article = a }))
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.content.Post(r.Context(), id)
	if err != nil {
		h.notFoundOr(w, r, err, "Publication introuvable.")
		return
	}
	title := p.Title
	if title == "" {
		title = "Publication"
	}
	h.render.Page(w, r, http.StatusOK, "site/post", title, h.detail(r, "post", id, func(d *detailPage) { d.Post = p }))
}

// detail loads the comment thread of target/id. A failing thread shows empty.
func (h *Handler) detail(r *http.Request, target, id string, fill func(*detailPage)) detailPage {
	comments, err := h.content.Comments(r.Context(), target, id)
	if err != nil {
		h.logger.Warn("load comments", zap.String("target", target), zap.String("id", id), zap.Error(err))
		comments = []resource.Comment{}
	}
	d := detailPage{Comments: comments, Target: target, ID: id}
	if fill != nil {
		fill(&d)
	}
	return d
}

func (h *Handler) notFoundOr(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if apiclient.IsNotFound(err) {
		h.render.Error(w, r, http.StatusNotFound, msg)
		return
	}
	h.logger.Error("load public content", zap.String("path", r.URL.Path), zap.Error(err))
	h.render.Error(w, r, http.StatusBadGateway, "Le contenu est momentanément indisponible.")
}

func (h *Handler) comment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, id := chi.URLParam(r, "targetType"), chi.URLParam(r, "id")
	back := "/" + target + "s/" + url.PathEscape(id)
	if target == "product" {
		back = "/shop/products/" + url.PathEscape(id)
	}

	if auth.UserFrom(ctx) == nil {
		session.Toast(ctx, session.ToastWarning, "Connectez-vous pour commenter.")
		render.Redirect(w, r, "/login?next="+url.QueryEscape(back))
		return
	}

	err := h.content.AddComment(ctx, target, id, r.FormValue("content"))
	switch {
	case errors.Is(err, content.ErrUnknownTarget):
		h.render.Error(w, r, http.StatusNotFound, "")
		return
	case errors.Is(err, content.ErrEmptyComment):
		session.Toast(ctx, session.ToastWarning, "Le commentaire est vide.")
	case errors.Is(err, content.ErrLongComment):
		session.Toast(ctx, session.ToastWarning, "Le commentaire est trop long.")
	case err != nil:
		h.logger.Warn("add comment", zap.String("target", target), zap.String("id", id), zap.Error(err))
		session.Toast(ctx, session.ToastError, apiclient.MessageOr(err, "Impossible de publier le commentaire."))
	default:
		session.Toast(ctx, session.ToastSuccess, "Commentaire publié.")
	}

	if render.IsHTMX(r) {
		h.render.Partial(w, r, http.StatusOK, "comments", h.detail(r, target, id, nil))
		return
	}
	render.Redirect(w, r, back+"#comments")
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content.Refresh(ctx) {
		session.Toast(ctx, session.ToastSuccess, "Contenus actualisés.")
	} else {
		session.Toast(ctx, session.ToastWarning, "Le service est indisponible, contenus hors ligne affichés.")
	}
	render.Redirect(w, r, "/")
}

func (h *Handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	if _, err := session.ToggleTheme(r.Context(), storage.KeySiteTheme); err != nil {
		h.logger.Error("toggle site theme", zap.Error(err))
	}
	render.Back(w, r, "/")
}
