package site

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/auth"
	"github.com/georgemunganga/mama-web/internal/modules/render"
	"github.com/georgemunganga/mama-web/internal/modules/session"
)

// authPage refills the login and register forms.
type authPage struct {
	Next  string
	Email string
	Name  string
	Phone string
}

// next resolves where to go after signing in. Admins without an explicit
// destination land on the dashboard.
func next(r *http.Request, u *auth.SessionUser) string {
	target := render.SafeNext(r.FormValue("next"), r.Host, "")
	if target == "" && u != nil && u.IsAdmin {
		return "/admin/dashboard"
	}
	if target == "" {
		return "/"
	}
	return target
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if u := auth.UserFrom(r.Context()); u != nil {
		http.Redirect(w, r, next(r, u), http.StatusSeeOther)
		return
	}
	h.render.Page(w, r, http.StatusOK, "site/login", "Connexion", authPage{Next: render.SafeNext(r.FormValue("next"), r.Host, "")})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := r.FormValue("email")
	u, err := h.auth.Login(ctx, email, r.FormValue("password"))
	if err != nil {
		h.authFailed(w, r, err, "site/login", "Connexion", authPage{Next: render.SafeNext(r.FormValue("next"), r.Host, ""), Email: email})
		return
	}
	h.logger.Info("signed in", zap.Bool("admin", u.IsAdmin))
	session.Toast(ctx, session.ToastSuccess, "Bienvenue, "+u.Name+" !")
	render.Redirect(w, r, next(r, u))
}

func (h *Handler) registerForm(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, http.StatusOK, "site/register", "Inscription", authPage{Next: render.SafeNext(r.FormValue("next"), r.Host, "")})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := auth.RegisterRequest{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Phone:    r.FormValue("phone"),
		Password: r.FormValue("password"),
	}
	u, err := h.auth.Register(ctx, req)
	if err != nil {
		h.authFailed(w, r, err, "site/register", "Inscription", authPage{
			Next:  render.SafeNext(r.FormValue("next"), r.Host, ""),
			Email: req.Email,
			Name:  req.Name,
			Phone: req.Phone,
		})
		return
	}
	session.Toast(ctx, session.ToastSuccess, "Compte créé. Bienvenue, "+u.Name+" !")
	render.Redirect(w, r, next(r, u))
}

// authFailed re-renders the form with the reason. Credentials are never
// echoed back.
func (h *Handler) authFailed(w http.ResponseWriter, r *http.Request, err error, page, title string, data authPage) {
	ctx := r.Context()
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		session.Toast(ctx, session.ToastWarning, "Veuillez renseigner l'e-mail et le mot de passe.")
	case apiclient.IsUnauthorized(err):
		status = http.StatusUnauthorized
		session.Toast(ctx, session.ToastError, "E-mail ou mot de passe incorrect.")
	case apiclient.IsTransport(err):
		status = http.StatusBadGateway
		h.logger.Warn("auth request failed", zap.Error(err))
		session.Toast(ctx, session.ToastError, "Le service est momentanément indisponible.")
	default:
		session.Toast(ctx, session.ToastError, apiclient.MessageOr(err, "La demande a échoué."))
	}
	h.render.Page(w, r, status, page, title, data)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.auth.Logout(ctx); err != nil {
		h.logger.Error("logout", zap.Error(err))
	}
	session.Toast(ctx, session.ToastInfo, "Vous êtes déconnecté.")
	render.Redirect(w, r, "/")
}
