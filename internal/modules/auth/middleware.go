package auth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/session"
	"go.uber.org/zap"
)

type userKey struct{}

// UserFrom returns the user attached by Attach, or nil.
func UserFrom(ctx context.Context) *SessionUser {
	u, _ := ctx.Value(userKey{}).(*SessionUser)
	return u
}

// Attach puts the stored token and the signed-in user into the request
// context, confirming the user with the API once recheck has elapsed. A
// token the API rejects signs the browser out. It must run after the
// session middleware.
func Attach(svc Service, recheck time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, err := svc.Token(ctx)
			if err != nil {
				logger.Warn("read token", zap.Error(err))
			}
			if token != "" {
				u, err := svc.Revalidate(apiclient.WithToken(ctx, token), recheck)
				if err != nil {
					logger.Warn("revalidate user", zap.Error(err))
				}
				// nil user without error: the API rejected the token.
				if u != nil || err != nil {
					ctx = apiclient.WithToken(ctx, token)
				}
				if u != nil {
					ctx = context.WithValue(ctx, userKey{}, u)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin redirects visitors without the admin role to the login page.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFrom(r.Context())
		if u == nil || !u.IsAdmin {
			session.Toast(r.Context(), session.ToastWarning, "Veuillez vous connecter avec un compte administrateur.")
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
