package storefront

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/cart"
	"github.com/georgemunganga/mama-web/internal/modules/catalog"
	"github.com/georgemunganga/mama-web/internal/modules/delivery"
	"github.com/georgemunganga/mama-web/internal/modules/order"
	"github.com/georgemunganga/mama-web/internal/modules/render"
	"github.com/georgemunganga/mama-web/internal/modules/session"
)

// Handler serves the shop, cart, wishlist and checkout pages.
type Handler struct {
	products catalog.Service
	orders   order.Service
	render   *render.Renderer
	logger   *zap.Logger
}

func NewHandler(products catalog.Service, orders order.Service, rd *render.Renderer, logger *zap.Logger) *Handler {
	return &Handler{products: products, orders: orders, render: rd, logger: logger}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/shop", h.listProducts)                  // GET  /shop?search=&category=&minPrice=&maxPrice=&sort=&page=
	r.Get("/shop/products/{id}", h.productDetail)   // GET  /shop/products/{id}
	r.Get("/cart", h.viewCart)                      // GET  /cart
	r.Post("/cart/items", h.addToCart)              // POST /cart/items
	r.Post("/cart/items/{id}", h.updateQuantity)    // POST /cart/items/{id}
	r.Post("/cart/items/{id}/remove", h.removeItem) // POST /cart/items/{id}/remove
	r.Get("/wishlist", h.viewWishlist)              // GET  /wishlist
	r.Post("/wishlist/{id}", h.toggleWishlist)      // POST /wishlist/{id}
	r.Get("/checkout", h.checkoutForm)              // GET  /checkout
	r.Get("/checkout/summary", h.checkoutSummary)   // GET  /checkout/summary?wilaya=
	r.Post("/checkout", h.submitOrder)              // POST /checkout
	r.Get("/orders/{id}/confirmation", h.confirmation)
}

// ── listing ──────────────────────────────────────────────────────────────────

type sortOption struct{ Value, Label string }

var sorts = []sortOption{
	{catalog.SortNewest, "Nouveautés"},
	{catalog.SortPopular, "Popularité"},
	{catalog.SortPriceAsc, "Prix croissant"},
	{catalog.SortPriceDesc, "Prix décroissant"},
}

type listPage struct {
	Filter     catalog.Filter
	Products   []catalog.Product
	Pagination apiclient.Pagination
	Categories []string
	Wished     map[string]bool
	Sorts      []sortOption
	Base       string
	Degraded   bool
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := catalog.FilterFromQuery(r.URL.Query())
	data := listPage{Filter: f, Sorts: sorts, Categories: h.products.Categories(ctx), Pagination: apiclient.Pagination{Current: f.Page}}

	page, err := h.products.ListProducts(ctx, f)
	if err != nil {
		if !apiclient.IsNoData(err) {
			h.logger.Warn("product listing degraded", zap.Error(err))
			data.Degraded = true
		}
	} else {
		data.Products, data.Pagination = page.Products, page.Pagination
	}

	if wl, err := cart.LoadWishlist(ctx, session.FromContext(ctx)); err == nil {
		data.Wished = make(map[string]bool, wl.Len())
		for _, id := range wl.IDs() {
			data.Wished[id] = true
		}
	}
	q := f.Query()
	q.Del("page")
	data.Base = "/shop?" + q.Encode() + "&"

	h.render.Page(w, r, http.StatusOK, "shop/list", "Boutique", data)
}

type productPage struct {
	Product *catalog.Product
	Wished  bool
	InCart  int
	MaxQty  int
}

// productDetail shows the detail modal and makes the product the current
// selection, which is what the add-to-cart form acts on.
func (h *Handler) productDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.products.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.readError(w, r, err, "Produit introuvable.")
		return
	}
	c, err := cart.Load(ctx, session.FromContext(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := c.Select(ctx, *p); err != nil {
		h.fail(w, r, err)
		return
	}
	data := productPage{Product: p, MaxQty: p.StockQuantity}
	if it, ok := c.Item(p.ID); ok {
		data.InCart = it.Quantity
		data.MaxQty = p.StockQuantity - it.Quantity
	}
	if wl, err := cart.LoadWishlist(ctx, session.FromContext(ctx)); err == nil {
		data.Wished = wl.Has(p.ID)
	}
	h.render.Page(w, r, http.StatusOK, "shop/product", p.Name, data)
}

// ── cart ─────────────────────────────────────────────────────────────────────

type cartPage struct {
	Items    []cart.Item
	Subtotal float64
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	c, err := cart.Load(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Page(w, r, http.StatusOK, "shop/cart", "Panier", cartPage{Items: c.Items(), Subtotal: c.Subtotal()})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.TrimSpace(r.FormValue("productId"))
	qty := 1
	if v := r.FormValue("quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = 0
		}
		qty = n
	}

	c, err := cart.Load(ctx, session.FromContext(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// Adding from a listing card skips the modal: select the product here.
	if id != "" && (c.Selected() == nil || c.Selected().ID != id) {
		p, err := h.products.GetProduct(ctx, id)
		if err != nil {
			session.Toast(ctx, session.ToastError, apiclient.MessageOr(err, "Produit introuvable."))
			render.Back(w, r, "/shop")
			return
		}
		if err := c.Select(ctx, *p); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	it, err := c.AddToCart(ctx, id, qty)
	if err != nil {
		session.Toast(ctx, session.ToastError, cartMessage(err))
		render.Back(w, r, "/shop")
		return
	}
	session.Toast(ctx, session.ToastSuccess, fmt.Sprintf("%s ajouté au panier", it.Name))
	render.Back(w, r, "/cart")
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		session.Toast(ctx, session.ToastError, "Quantité invalide.")
		render.Redirect(w, r, "/cart")
		return
	}
	c, err := cart.Load(ctx, session.FromContext(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := c.UpdateQuantity(ctx, chi.URLParam(r, "id"), n); err != nil {
		session.Toast(ctx, session.ToastError, cartMessage(err))
	} else if n <= 0 {
		session.Toast(ctx, session.ToastInfo, "Produit retiré du panier.")
	}
	render.Redirect(w, r, "/cart")
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := cart.Load(ctx, session.FromContext(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := c.Remove(ctx, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	session.Toast(ctx, session.ToastInfo, "Produit retiré du panier.")
	render.Redirect(w, r, "/cart")
}

func cartMessage(err error) string {
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		return "Ce produit est en rupture de stock."
	case errors.Is(err, cart.ErrExceedsStock):
		return "La quantité demandée dépasse le stock disponible."
	case errors.Is(err, cart.ErrInvalidQuantity):
		return "La quantité doit être au moins 1."
	case errors.Is(err, cart.ErrNotInCart):
		return "Ce produit n'est plus dans votre panier."
	case errors.Is(err, cart.ErrNoSelection):
		return "Veuillez choisir un produit."
	default:
		return "Le panier n'a pas pu être mis à jour."
	}
}

// ── wishlist ─────────────────────────────────────────────────────────────────

type wishlistPage struct {
	Products []catalog.Product
	Missing  int
}

func (h *Handler) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wl, err := cart.LoadWishlist(ctx, session.FromContext(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	added, err := wl.Toggle(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if added {
		session.Toast(ctx, session.ToastSuccess, "Ajouté aux favoris.")
	} else {
		session.Toast(ctx, session.ToastInfo, "Retiré des favoris.")
	}
	render.Back(w, r, "/wishlist")
}

// wishlistFetchLimit bounds concurrent product lookups.
const wishlistFetchLimit = 4

func (h *Handler) viewWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wl, err := cart.LoadWishlist(ctx, session.FromContext(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ids := wl.IDs()
	found := make([]*catalog.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wishlistFetchLimit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			p, err := h.products.GetProduct(gctx, id)
			if err != nil {
				h.logger.Debug("wishlist product unavailable", zap.String("product_id", id), zap.Error(err))
				return nil
			}
			found[i] = p
			return nil
		})
	}
	_ = g.Wait()

	var data wishlistPage
	for _, p := range found {
		if p == nil {
			data.Missing++
			continue
		}
		data.Products = append(data.Products, *p)
	}
	h.render.Page(w, r, http.StatusOK, "shop/wishlist", "Favoris", data)
}

// ── checkout ─────────────────────────────────────────────────────────────────

type checkoutPage struct {
	Items   []cart.Item
	Summary order.Summary
	Address order.Address
	Regions []delivery.Wilaya
}

func newCheckoutPage(c *cart.Cart, addr order.Address) checkoutPage {
	items := c.Items()
	return checkoutPage{
		Items:   items,
		Summary: order.Totals(order.LinesFromCart(items), addr.Wilaya),
		Address: addr,
		Regions: delivery.Regions(),
	}
}

func addressFromForm(r *http.Request) order.Address {
	return order.Address{
		FullName: r.FormValue("fullName"),
		Phone:    r.FormValue("phone"),
		Wilaya:   r.FormValue("wilaya"),
		Commune:  r.FormValue("commune"),
		Address:  r.FormValue("address"),
		Notes:    r.FormValue("notes"),
	}.Normalize()
}

func (h *Handler) checkoutForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := cart.Load(ctx, session.FromContext(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if c.IsEmpty() {
		session.Toast(ctx, session.ToastWarning, "Votre panier est vide.")
		render.Redirect(w, r, "/cart")
		return
	}
	h.render.Page(w, r, http.StatusOK, "shop/checkout", "Commande", newCheckoutPage(c, order.Address{}))
}

func (h *Handler) checkoutSummary(w http.ResponseWriter, r *http.Request) {
	c, err := cart.Load(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Partial(w, r, http.StatusOK, "checkout-summary", newCheckoutPage(c, order.Address{Wilaya: r.FormValue("wilaya")}))
}

type confirmationPage struct {
	Order   *order.Order
	Summary order.Summary
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := cart.Load(ctx, session.FromContext(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	addr := addressFromForm(r)

	o, err := h.orders.Submit(ctx, c, addr)
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			session.Toast(ctx, session.ToastWarning, "Votre panier est vide.")
			render.Redirect(w, r, "/cart")
			return
		}
		if !isValidation(err) {
			h.logger.Warn("order submission failed", zap.Error(err))
		}
		session.Toast(ctx, session.ToastError, checkoutMessage(err))
		h.render.Page(w, r, http.StatusUnprocessableEntity, "shop/checkout", "Commande", newCheckoutPage(c, addr))
		return
	}

	h.logger.Info("order placed", zap.String("order_id", o.ID), zap.Float64("total", o.Summary().Total))
	session.Toast(ctx, session.ToastSuccess, "Commande envoyée, merci !")
	h.render.Page(w, r, http.StatusCreated, "shop/confirmation", "Commande confirmée", confirmationPage{Order: o, Summary: o.Summary()})
}

func (h *Handler) confirmation(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.readError(w, r, err, "Commande introuvable.")
		return
	}
	h.render.Page(w, r, http.StatusOK, "shop/confirmation", "Commande "+o.Reference(), confirmationPage{Order: o, Summary: o.Summary()})
}

func isValidation(err error) bool {
	return errors.Is(err, order.ErrMissingField) || errors.Is(err, order.ErrInvalidPhone) || errors.Is(err, order.ErrCartChanged)
}

func checkoutMessage(err error) string {
	switch {
	case errors.Is(err, order.ErrMissingField):
		field := strings.TrimPrefix(err.Error(), order.ErrMissingField.Error()+": ")
		return "Champ obligatoire manquant : " + fieldLabels[field] + "."
	case errors.Is(err, order.ErrInvalidPhone):
		return "Numéro de téléphone invalide : 10 chiffres commençant par 05, 06 ou 07."
	case errors.Is(err, order.ErrCartChanged):
		return "Votre panier a changé (prix ou stock). Vérifiez-le avant de confirmer."
	default:
		return apiclient.MessageOr(err, "La commande n'a pas pu être envoyée. Réessayez.")
	}
}

var fieldLabels = map[string]string{
	"full name": "nom complet",
	"phone":     "téléphone",
	"wilaya":    "wilaya",
	"address":   "adresse",
}

// ── helpers ──────────────────────────────────────────────────────────────────

// readError maps a failed read: 404/501 and transport failures render a
// not-found page, other API errors their message.
func (h *Handler) readError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if apiclient.IsNoData(err) || apiclient.IsTransport(err) {
		if apiclient.IsTransport(err) {
			h.logger.Warn("upstream unreachable", zap.Error(err))
		}
		h.render.Error(w, r, http.StatusNotFound, notFound)
		return
	}
	h.render.Error(w, r, http.StatusBadGateway, apiclient.MessageOr(err, "Le service est momentanément indisponible."))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("storefront request failed", zap.String("path", r.URL.Path), zap.Error(err))
	h.render.Error(w, r, http.StatusInternalServerError, "Une erreur est survenue.")
}
