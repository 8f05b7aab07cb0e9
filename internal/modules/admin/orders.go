package admin

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/order"
	"github.com/georgemunganga/mama-web/internal/modules/render"
	"github.com/georgemunganga/mama-web/internal/modules/resource"
	"github.com/georgemunganga/mama-web/internal/modules/session"
)

// ordersPage is the order table. Rows holds the batch being rendered: the
// whole first page on a full load, only the appended page on "load more".
type ordersPage struct {
	State    *order.ListState
	Rows     []order.Order
	Statuses []order.Status
}

// MoreURL fetches the page after the current one with the same filter.
func (p ordersPage) MoreURL() string {
	f := p.State.Filter()
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("more", "1")
	return "/admin/orders/rows?" + q.Encode()
}

type orderPage struct {
	Order   *order.Order
	Summary order.Summary
	Next    []order.Status
}

// loadOrders fills a table from the query. A failed fetch shows no rows.
func (h *Handler) loadOrders(r *http.Request) ordersPage {
	q := r.URL.Query()
	state := order.NewListState(order.ListFilterFromQuery(q.Get))
	load := state.Load
	if q.Get("more") == "1" {
		load = state.LoadMore
	}
	rows, err := load(r.Context(), h.orders)
	if err != nil {
		h.logger.Warn("list orders", zap.Error(err))
		if !apiclient.IsNoData(err) {
			session.Toast(r.Context(), session.ToastError, "Impossible de charger les commandes.")
		}
	}
	return ordersPage{State: state, Rows: rows, Statuses: order.Statuses}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, http.StatusOK, "admin/orders", render.Label("orders"), h.loadOrders(r))
}

func (h *Handler) orderRows(w http.ResponseWriter, r *http.Request) {
	h.render.Partial(w, r, http.StatusOK, "order-rows", h.loadOrders(r))
}

func (h *Handler) orderDetail(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if apiclient.IsNotFound(err) {
			h.render.Error(w, r, http.StatusNotFound, "Commande introuvable.")
			return
		}
		h.logger.Error("get order", zap.Error(err))
		h.render.Error(w, r, http.StatusBadGateway, "Impossible de charger la commande.")
		return
	}
	h.render.Page(w, r, http.StatusOK, "admin/order", "Commande "+o.Reference(), orderPage{
		Order:   o,
		Summary: o.Summary(),
		Next:    o.Status.Next(),
	})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	to := order.Status(r.FormValue("status"))
	o, err := h.orders.UpdateStatus(ctx, id, to)
	switch {
	case errors.Is(err, order.ErrInvalidTransition):
		session.Toast(ctx, session.ToastWarning, "Changement de statut non autorisé.")
	case err != nil:
		h.logger.Warn("update order status", zap.String("order", id), zap.Error(err))
		session.Toast(ctx, session.ToastError, apiclient.MessageOr(err, "La mise à jour a échoué."))
	default:
		session.Toast(ctx, session.ToastSuccess, "Commande "+o.Reference()+" : "+render.Label(string(o.Status))+".")
	}
	render.Redirect(w, r, "/admin/orders/"+url.PathEscape(id))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	var out resource.Outcome
	err := resource.ErrNotConfirmed
	if confirmed(r) {
		out, err = resource.OutcomeOf(h.orders.DeleteOrder(r.Context(), chi.URLParam(r, "id")))
	}
	h.finishDelete(w, r, out, err, "/admin/orders")
}
