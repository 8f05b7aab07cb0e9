package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/catalog"
	"github.com/georgemunganga/mama-web/internal/modules/render"
	"github.com/georgemunganga/mama-web/internal/modules/resource"
	"github.com/georgemunganga/mama-web/internal/modules/session"
)

// ── articles ─────────────────────────────────────────────────────────────────

type articleForm struct {
	ID      string
	Article resource.Article
}

func (h *Handler) listArticles(w http.ResponseWriter, r *http.Request) {
	listPage(h, w, r, h.articles.Controller, "articles")
}

func (h *Handler) articleForm(w http.ResponseWriter, r *http.Request) {
	a, ok := loadForEdit(h, w, r, h.articles.Controller, "articles")
	if !ok {
		return
	}
	h.render.Page(w, r, http.StatusOK, "admin/article-form", "Article", articleForm{ID: chi.URLParam(r, "id"), Article: *a})
}

func (h *Handler) saveArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	img, err := imageUpload(r)
	defer closeFile(img)
	in := resource.ArticleInput{
		Title:     r.FormValue("title"),
		Excerpt:   r.FormValue("excerpt"),
		Content:   r.FormValue("content"),
		Category:  r.FormValue("category"),
		Published: r.FormValue("published") == "true",
	}
	invalid := in.Validate()
	if err == nil && invalid == nil {
		err = h.articles.Save(r.Context(), id, in, img)
	}
	h.finishSave(w, r, invalid, err, "/admin/articles", formURL("articles", id))
}

func (h *Handler) deleteArticle(w http.ResponseWriter, r *http.Request) {
	out, err := h.articles.Delete(r.Context(), chi.URLParam(r, "id"), confirmed(r))
	h.finishDelete(w, r, out, err, "/admin/articles")
}

// ── products ─────────────────────────────────────────────────────────────────

type productForm struct {
	ID         string
	Product    catalog.Product
	Categories []string
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	listPage(h, w, r, h.products, "products")
}

func (h *Handler) productForm(w http.ResponseWriter, r *http.Request) {
	p, ok := loadForEdit(h, w, r, h.products, "products")
	if !ok {
		return
	}
	h.render.Page(w, r, http.StatusOK, "admin/product-form", "Produit", productForm{
		ID:         chi.URLParam(r, "id"),
		Product:    *p,
		Categories: h.catalog.Categories(r.Context()),
	})
}

func (h *Handler) saveProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	img, err := imageUpload(r)
	defer closeFile(img)
	in := catalog.ProductInput{
		Name:          r.FormValue("name"),
		Description:   r.FormValue("description"),
		Category:      r.FormValue("category"),
		Price:         formFloat(r, "price"),
		SalePrice:     formFloat(r, "salePrice"),
		OnSale:        r.FormValue("onSale") == "true",
		StockQuantity: formInt(r, "stockQuantity"),
		Featured:      r.FormValue("featured") == "true",
	}
	invalid := in.Validate()
	if err == nil && invalid == nil {
		err = h.catalog.SaveProduct(r.Context(), id, in, img)
	}
	h.finishSave(w, r, invalid, err, "/admin/products", formURL("products", id))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	out, err := h.products.Delete(r.Context(), chi.URLParam(r, "id"), confirmed(r))
	h.finishDelete(w, r, out, err, "/admin/products")
}

// ── posts ────────────────────────────────────────────────────────────────────

type postForm struct {
	ID   string
	Post resource.Post
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	listPage(h, w, r, h.posts.Controller, "posts")
}

func (h *Handler) postForm(w http.ResponseWriter, r *http.Request) {
	p, ok := loadForEdit(h, w, r, h.posts.Controller, "posts")
	if !ok {
		return
	}
	h.render.Page(w, r, http.StatusOK, "admin/post-form", "Publication", postForm{ID: chi.URLParam(r, "id"), Post: *p})
}

func (h *Handler) savePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	img, err := imageUpload(r)
	defer closeFile(img)
	in := resource.PostInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}
	invalid := in.Validate()
	if err == nil && invalid == nil {
		err = h.posts.Save(r.Context(), id, in, img)
	}
	h.finishSave(w, r, invalid, err, "/admin/posts", formURL("posts", id))
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	out, err := h.posts.Delete(r.Context(), chi.URLParam(r, "id"), confirmed(r))
	h.finishDelete(w, r, out, err, "/admin/posts")
}

// ── comments & users ─────────────────────────────────────────────────────────

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	listPage(h, w, r, h.comments, "comments")
}

func (h *Handler) approveComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.moderator.Approve(ctx, chi.URLParam(r, "id")); err != nil {
		h.logger.Warn("approve comment", zap.Error(err))
		session.Toast(ctx, session.ToastError, apiclient.MessageOr(err, "L'approbation a échoué."))
	} else {
		session.Toast(ctx, session.ToastSuccess, "Commentaire approuvé.")
	}
	render.Redirect(w, r, "/admin/comments")
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	out, err := h.moderator.Delete(r.Context(), chi.URLParam(r, "id"), confirmed(r))
	h.finishDelete(w, r, out, err, "/admin/comments")
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	listPage(h, w, r, h.users, "users")
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	out, err := h.users.Delete(r.Context(), chi.URLParam(r, "id"), confirmed(r))
	h.finishDelete(w, r, out, err, "/admin/users")
}

// ── form helpers ─────────────────────────────────────────────────────────────

func formFloat(r *http.Request, key string) float64 {
	v, _ := strconv.ParseFloat(r.FormValue(key), 64)
	return v
}

func formInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.FormValue(key))
	return v
}
