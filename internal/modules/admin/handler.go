package admin

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/auth"
	"github.com/georgemunganga/mama-web/internal/modules/catalog"
	"github.com/georgemunganga/mama-web/internal/modules/order"
	"github.com/georgemunganga/mama-web/internal/modules/render"
	"github.com/georgemunganga/mama-web/internal/modules/resource"
	"github.com/georgemunganga/mama-web/internal/modules/session"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
)

// maxUpload bounds multipart forms carrying an image.
const maxUpload = 10 << 20

// Handler serves the admin panel under /admin.
type Handler struct {
	articles  *resource.Articles
	posts     *resource.Posts
	comments  *resource.Controller[resource.Comment]
	users     *resource.Controller[resource.User]
	products  *resource.Controller[catalog.Product]
	moderator *resource.Moderator
	catalog   catalog.Service
	orders    order.Service
	render    *render.Renderer
	logger    *zap.Logger
}

func NewHandler(api *apiclient.Client, products catalog.Service, orders order.Service, rd *render.Renderer, logger *zap.Logger) *Handler {
	return &Handler{
		articles:  resource.NewArticles(api, logger),
		posts:     resource.NewPosts(api, logger),
		comments:  resource.NewComments(api, logger),
		users:     resource.NewUsers(api, logger),
		products:  resource.NewController[catalog.Product](api, logger, "/products", "products"),
		moderator: resource.NewModerator(api),
		catalog:   products,
		orders:    orders,
		render:    rd,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
		})
		r.Get("/dashboard", h.dashboard)

		r.Get("/articles", h.listArticles)
		r.Get("/articles/new", h.articleForm)
		r.Get("/articles/{id}/edit", h.articleForm)
		r.Post("/articles", h.saveArticle)
		r.Post("/articles/{id}", h.saveArticle)
		r.Post("/articles/{id}/delete", h.deleteArticle)

		r.Get("/products", h.listProducts)
		r.Get("/products/new", h.productForm)
		r.Get("/products/{id}/edit", h.productForm)
		r.Post("/products", h.saveProduct)
		r.Post("/products/{id}", h.saveProduct)
		r.Post("/products/{id}/delete", h.deleteProduct)

		r.Get("/posts", h.listPosts)
		r.Get("/posts/new", h.postForm)
		r.Get("/posts/{id}/edit", h.postForm)
		r.Post("/posts", h.savePost)
		r.Post("/posts/{id}", h.savePost)
		r.Post("/posts/{id}/delete", h.deletePost)

		r.Get("/comments", h.listComments)
		r.Post("/comments/{id}/approve", h.approveComment)
		r.Post("/comments/{id}/delete", h.deleteComment)

		r.Get("/users", h.listUsers)
		r.Post("/users/{id}/delete", h.deleteUser)

		r.Get("/orders", h.listOrders)
		r.Get("/orders/rows", h.orderRows)
		r.Get("/orders/{id}", h.orderDetail)
		r.Post("/orders/{id}/status", h.updateOrderStatus)
		r.Post("/orders/{id}/delete", h.deleteOrder)

		r.Get("/theme", h.themePage)
		r.Post("/theme", h.toggleTheme)
	})
}

// ── dashboard ────────────────────────────────────────────────────────────────

type count struct {
	Section string
	Total   int
	Link    string
}

type dashboardPage struct {
	Counts []count
	Stats  *order.Stats
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data dashboardPage
	totals := make([]int, 5)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { totals[0] = h.articles.Load(gctx, 1).Pagination.Total; return nil })
	g.Go(func() error { totals[1] = h.products.Load(gctx, 1).Pagination.Total; return nil })
	g.Go(func() error { totals[2] = h.posts.Load(gctx, 1).Pagination.Total; return nil })
	g.Go(func() error { totals[3] = h.comments.Load(gctx, 1).Pagination.Total; return nil })
	g.Go(func() error { totals[4] = h.users.Load(gctx, 1).Pagination.Total; return nil })
	g.Go(func() error {
		stats, err := h.orders.DashboardStats(gctx)
		if err != nil {
			if !apiclient.IsNoData(err) {
				h.logger.Warn("dashboard stats unavailable", zap.Error(err))
			}
			return nil
		}
		data.Stats = stats
		return nil
	})
	_ = g.Wait()

	for i, s := range []string{"articles", "products", "posts", "comments", "users"} {
		data.Counts = append(data.Counts, count{Section: s, Total: totals[i], Link: "/admin/" + s})
	}
	h.render.Page(w, r, http.StatusOK, "admin/dashboard", render.Label("dashboard"), data)
}

// ── shared list/delete plumbing ──────────────────────────────────────────────

// table is a loaded admin list page plus the base of its pagination links.
type table[T any] struct {
	resource.Listing[T]
	Base string
}

func pageParam(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if n < 1 {
		return 1
	}
	return n
}

func listPage[T any](h *Handler, w http.ResponseWriter, r *http.Request, c *resource.Controller[T], section string) {
	l := c.Load(r.Context(), pageParam(r))
	h.render.Page(w, r, http.StatusOK, "admin/"+section, render.Label(section), table[T]{Listing: l, Base: "/admin/" + section + "?"})
}

func confirmed(r *http.Request) bool { return r.FormValue("confirm") == "yes" }

// finishDelete toasts the outcome and sends the browser back to the list,
// which reloads it.
func (h *Handler) finishDelete(w http.ResponseWriter, r *http.Request, out resource.Outcome, err error, listURL string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, resource.ErrNotConfirmed):
		session.Toast(ctx, session.ToastWarning, "Suppression annulée : confirmation requise.")
	case err != nil:
		h.logger.Warn("admin delete failed", zap.String("path", r.URL.Path), zap.Error(err))
		session.Toast(ctx, session.ToastError, apiclient.MessageOr(err, "La suppression a échoué."))
	case out == resource.ComingSoon:
		session.Toast(ctx, session.ToastInfo, "Fonctionnalité bientôt disponible.")
	default:
		session.Toast(ctx, session.ToastSuccess, "Élément supprimé.")
	}
	render.Redirect(w, r, listURL)
}

// finishSave toasts the result of a create or update. Invalid input goes
// back to the form, success to the list.
func (h *Handler) finishSave(w http.ResponseWriter, r *http.Request, invalid, err error, listURL, back string) {
	ctx := r.Context()
	switch {
	case invalid != nil:
		session.Toast(ctx, session.ToastWarning, "Formulaire invalide : "+invalid.Error())
		render.Redirect(w, r, back)
	case err != nil:
		h.logger.Warn("admin save failed", zap.String("path", r.URL.Path), zap.Error(err))
		session.Toast(ctx, session.ToastError, apiclient.MessageOr(err, "L'enregistrement a échoué."))
		render.Redirect(w, r, back)
	default:
		session.Toast(ctx, session.ToastSuccess, "Modifications enregistrées.")
		render.Redirect(w, r, listURL)
	}
}

// imageUpload returns the uploaded image, or nil when none was sent.
func imageUpload(r *http.Request) (*apiclient.File, error) {
	if err := r.ParseMultipartForm(maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	f, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if hdr.Size == 0 {
		f.Close()
		return nil, nil
	}
	return &apiclient.File{Field: "image", Filename: hdr.Filename, Content: f}, nil
}

func closeFile(f *apiclient.File) {
	if f == nil {
		return
	}
	if c, ok := f.Content.(io.Closer); ok {
		c.Close()
	}
}

func formURL(section, id string) string {
	if id == "" {
		return "/admin/" + section + "/new"
	}
	return "/admin/" + section + "/" + url.PathEscape(id) + "/edit"
}

// loadForEdit fetches the row being edited; a failure toasts and returns
// to the list.
func loadForEdit[T any](h *Handler, w http.ResponseWriter, r *http.Request, c *resource.Controller[T], section string) (*T, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return new(T), true
	}
	v, err := c.Get(r.Context(), id)
	if err != nil {
		session.Toast(r.Context(), session.ToastError, apiclient.MessageOr(err, "Élément introuvable."))
		render.Redirect(w, r, "/admin/"+section)
		return nil, false
	}
	return v, true
}

// ── theme ────────────────────────────────────────────────────────────────────

func (h *Handler) themePage(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, http.StatusOK, "admin/theme", render.Label("theme"), nil)
}

func (h *Handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	if _, err := session.ToggleTheme(r.Context(), storage.KeyAdminTheme); err != nil {
		h.logger.Error("toggle admin theme", zap.Error(err))
	}
	render.Back(w, r, "/admin/theme")
}
