package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/session"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
	"go.uber.org/zap"
)

type service struct {
	api    *apiclient.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new auth service.
func NewService(api *apiclient.Client, logger *zap.Logger) Service {
	return &service{api: api, logger: logger, now: time.Now}
}

type authResponse struct {
	Token string     `json:"token"`
	User  remoteUser `json:"user"`
}

func (s *service) Login(ctx context.Context, email, password string) (*SessionUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.api.PostJSON(ctx, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return s.remember(ctx, resp)
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*SessionUser, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}
	var resp authResponse
	if err := s.api.PostJSON(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return s.remember(ctx, resp)
}

func (s *service) Logout(ctx context.Context) error {
	return session.FromContext(ctx).Remove(ctx, storage.KeyToken, storage.KeyAuthToken, storage.KeyUser, storage.KeyUserSeen)
}

func (s *service) Me(ctx context.Context) (*SessionUser, error) {
	token, err := s.Token(ctx)
	if err != nil || token == "" {
		return nil, err
	}
	var remote remoteUser
	err = s.api.GetOne(apiclient.WithToken(ctx, token), "/auth/me", "user", &remote)
	if apiclient.IsUnauthorized(err) || apiclient.StatusOf(err) == http.StatusForbidden {
		s.logger.Info("token rejected by api, signing out")
		return nil, s.Logout(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.cacheUser(ctx, remote.sessionUser())
}

func (s *service) CurrentUser(ctx context.Context) (*SessionUser, error) {
	token, err := s.Token(ctx)
	if err != nil || token == "" {
		return nil, err
	}
	var u SessionUser
	ok, err := session.FromContext(ctx).GetJSON(ctx, storage.KeyUser, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (s *service) Revalidate(ctx context.Context, maxAge time.Duration) (*SessionUser, error) {
	cached, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if cached != nil && !s.stale(ctx, maxAge) {
		return cached, nil
	}
	u, err := s.Me(ctx)
	if err != nil {
		return cached, fmt.Errorf("revalidate user: %w", err)
	}
	return u, nil
}

// stale reports whether the cached user was confirmed by the API more than
// maxAge ago, or never.
func (s *service) stale(ctx context.Context, maxAge time.Duration) bool {
	raw, err := session.FromContext(ctx).GetString(ctx, storage.KeyUserSeen)
	if err != nil || raw == "" {
		return true
	}
	seen, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return true
	}
	return s.now().Sub(seen) >= maxAge
}

func (s *service) Token(ctx context.Context) (string, error) {
	b := session.FromContext(ctx)
	token, err := b.GetString(ctx, storage.KeyToken)
	if err != nil {
		return "", err
	}
	if token == "" {
		if token, err = b.GetString(ctx, storage.KeyAuthToken); err != nil {
			return "", err
		}
	}
	if token == "" {
		return "", nil
	}
	if expired(token, s.now()) {
		s.logger.Debug("stored token expired, signing out")
		return "", s.Logout(ctx)
	}
	return token, nil
}

func (s *service) remember(ctx context.Context, resp authResponse) (*SessionUser, error) {
	b := session.FromContext(ctx)
	if err := b.SetString(ctx, storage.KeyToken, resp.Token); err != nil {
		return nil, err
	}
	if err := b.SetString(ctx, storage.KeyAuthToken, resp.Token); err != nil {
		return nil, err
	}
	return s.cacheUser(ctx, resp.User.sessionUser())
}

// cacheUser stores u together with the time the API vouched for it.
func (s *service) cacheUser(ctx context.Context, u *SessionUser) (*SessionUser, error) {
	b := session.FromContext(ctx)
	if err := b.SetJSON(ctx, storage.KeyUser, u); err != nil {
		return nil, err
	}
	if err := b.SetString(ctx, storage.KeyUserSeen, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return nil, err
	}
	return u, nil
}

// expired inspects the exp claim without verifying the signature; the API
// remains the authority on validity. Opaque tokens never expire locally.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(now.Unix(), false)
}
