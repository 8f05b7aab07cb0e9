package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/catalog"
	"github.com/georgemunganga/mama-web/internal/modules/metrics"
	"github.com/georgemunganga/mama-web/internal/modules/resource"
)

// Homepage section sizes.
const (
	LatestLimit   = 6
	SearchLimit   = 5
	DefaultTTL    = 5 * time.Minute
	maxCommentLen = 2000
)

// CommentTargets are the content types that accept comments.
var CommentTargets = map[string]bool{"article": true, "post": true, "product": true}

var (
	ErrEmptyComment  = errors.New("comment cannot be empty")
	ErrLongComment   = errors.New("comment is too long")
	ErrUnknownTarget = errors.New("comments are not supported here")
)

type entry struct {
	raw     json.RawMessage
	expires time.Time
}

// Loader reads public content. Successful list responses are cached per
// (endpoint, options) until they expire or Refresh is called; failed ones
// are replaced by the built-in dataset.
type Loader struct {
	api    *apiclient.Client
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]entry

	available atomic.Bool
}

// NewLoader creates a Loader. A non-positive ttl uses DefaultTTL.
func NewLoader(api *apiclient.Client, ttl time.Duration, logger *zap.Logger) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{api: api, logger: logger, ttl: ttl, now: time.Now, cache: make(map[string]entry)}
	l.available.Store(true)
	return l
}

// Available reports the result of the last availability check.
func (l *Loader) Available() bool { return l.available.Load() }

// Refresh drops every cached response and checks the API again.
func (l *Loader) Refresh(ctx context.Context) bool {
	l.mu.Lock()
	l.cache = make(map[string]entry)
	l.mu.Unlock()

	ok := l.api.Reachable(ctx)
	l.available.Store(ok)
	l.logger.Info("content cache refreshed", zap.Bool("api_available", ok))
	return ok
}

func latestQuery(limit int) url.Values {
	if limit <= 0 {
		limit = LatestLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "newest")
	return q
}

func (l *Loader) LatestArticles(ctx context.Context, limit int) Section[resource.Article] {
	q := latestQuery(limit)
	q.Set("published", "true")
	return load(ctx, l, "articles", "/articles", q, fallback.Articles)
}

func (l *Loader) LatestPosts(ctx context.Context, limit int) Section[resource.Post] {
	return load(ctx, l, "posts", "/posts", latestQuery(limit), fallback.Posts)
}

func (l *Loader) LatestProducts(ctx context.Context, limit int) Section[catalog.Product] {
	q := latestQuery(limit)
	q.Set("featured", "true")
	return load(ctx, l, "products", "/products", q, fallback.Products)
}

func (l *Loader) SponsorAds(ctx context.Context) Section[Ad] {
	return load(ctx, l, "ads", "/ads", url.Values{"active": {"true"}}, fallback.Ads)
}

// Home loads the four homepage sections concurrently. Sections never fail;
// the worst case is the built-in dataset.
func (l *Loader) Home(ctx context.Context) Home {
	var h Home
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { h.Articles = l.LatestArticles(ctx, 0); return nil })
	g.Go(func() error { h.Posts = l.LatestPosts(ctx, 0); return nil })
	g.Go(func() error { h.Products = l.LatestProducts(ctx, 0); return nil })
	g.Go(func() error { h.Ads = l.SponsorAds(ctx); return nil })
	_ = g.Wait()
	return h
}

// load serves key from the cache or fetches it. The cache holds raw
// responses so every section shares one code path. Entries are keyed by the
// resolved API base so hosts never share content.
func load[T any](ctx context.Context, l *Loader, section, path string, q url.Values, static []T) Section[T] {
	key := l.api.Endpoints(ctx).APIBase + path + "?" + q.Encode()

	if raw, ok := l.cached(key); ok {
		var items []T
		if _, err := apiclient.DecodeList(raw, section, &items); err == nil {
			metrics.RecordContent(section, "hit")
			return Section[T]{Items: items}
		}
	}

	var raw json.RawMessage
	err := l.api.GetJSON(ctx, path, q, &raw)
	var items []T
	if err == nil {
		_, err = apiclient.DecodeList(raw, section, &items)
	}
	if err != nil {
		metrics.RecordContent(section, "fallback")
		l.logger.Warn("content section using fallback", zap.String("section", section), zap.Error(err))
		return Section[T]{Items: append([]T(nil), static...), Fallback: true}
	}

	metrics.RecordContent(section, "miss")
	l.store(key, raw)
	return Section[T]{Items: items}
}

func (l *Loader) cached(key string) (json.RawMessage, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.cache[key]
	if !ok {
		return nil, false
	}
	if !l.now().Before(e.expires) {
		delete(l.cache, key)
		return nil, false
	}
	return e.raw, true
}

func (l *Loader) store(key string, raw json.RawMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[key] = entry{raw: raw, expires: l.now().Add(l.ttl)}
}

// Search queries products and articles together. A failing half yields no
// results for that half.
func (l *Loader) Search(ctx context.Context, query string) SearchResults {
	res := SearchResults{Query: strings.TrimSpace(query)}
	if res.Query == "" {
		return res
	}
	q := url.Values{}
	q.Set("search", res.Query)
	q.Set("limit", strconv.Itoa(SearchLimit))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := l.api.List(gctx, "/products", q, "products", &res.Products); err != nil {
			l.logger.Debug("product search failed", zap.Error(err))
			res.Products = nil
		}
		return nil
	})
	g.Go(func() error {
		if _, err := l.api.List(gctx, "/articles", q, "articles", &res.Articles); err != nil {
			l.logger.Debug("article search failed", zap.Error(err))
			res.Articles = nil
		}
		return nil
	})
	_ = g.Wait()
	return res
}

// Article fetches one article for the public detail page.
func (l *Loader) Article(ctx context.Context, id string) (*resource.Article, error) {
	var a resource.Article
	if err := l.api.GetOne(ctx, "/articles/"+url.PathEscape(id), "article", &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Post fetches one post for the public detail page.
func (l *Loader) Post(ctx context.Context, id string) (*resource.Post, error) {
	var p resource.Post
	if err := l.api.GetOne(ctx, "/posts/"+url.PathEscape(id), "post", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func commentsPath(targetType, id string) string {
	return "/comments/" + url.PathEscape(targetType) + "/" + url.PathEscape(id)
}

// Comments lists the comments on a target. "No data yet" and transport
// failures both yield an empty list; other failures are returned.
func (l *Loader) Comments(ctx context.Context, targetType, id string) ([]resource.Comment, error) {
	if !CommentTargets[targetType] {
		return nil, ErrUnknownTarget
	}
	var comments []resource.Comment
	_, err := l.api.List(ctx, commentsPath(targetType, id), nil, "comments", &comments)
	switch {
	case err == nil:
		return comments, nil
	case apiclient.IsNoData(err), apiclient.IsTransport(err):
		return []resource.Comment{}, nil
	default:
		return nil, err
	}
}

// AddComment posts a comment as the signed-in user.
func (l *Loader) AddComment(ctx context.Context, targetType, id, text string) error {
	if !CommentTargets[targetType] {
		return ErrUnknownTarget
	}
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return ErrEmptyComment
	case len([]rune(text)) > maxCommentLen:
		return ErrLongComment
	}
	return l.api.PostJSON(ctx, commentsPath(targetType, id), map[string]string{"content": text}, nil)
}
