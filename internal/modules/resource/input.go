package resource

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

// ArticleInput holds the admin article form.
type ArticleInput struct {
	Title     string
	Excerpt   string
	Content   string
	Category  string
	Published bool
}

func (in ArticleInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return errors.New("article title is required")
	case strings.TrimSpace(in.Content) == "":
		return errors.New("article content is required")
	}
	return nil
}

func (in ArticleInput) form(image *apiclient.File) apiclient.Form {
	return withImage(map[string]string{
		"title":     strings.TrimSpace(in.Title),
		"excerpt":   strings.TrimSpace(in.Excerpt),
		"content":   in.Content,
		"category":  in.Category,
		"published": strconv.FormatBool(in.Published),
	}, image)
}

// PostInput holds the admin post form.
type PostInput struct {
	Title   string
	Content string
}

func (in PostInput) Validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return errors.New("post content is required")
	}
	return nil
}

func (in PostInput) form(image *apiclient.File) apiclient.Form {
	return withImage(map[string]string{
		"title":   strings.TrimSpace(in.Title),
		"content": in.Content,
	}, image)
}

func withImage(fields map[string]string, image *apiclient.File) apiclient.Form {
	f := apiclient.Form{Fields: fields}
	if image != nil {
		f.Files = append(f.Files, *image)
	}
	return f
}

// Articles is the article table plus its create/edit form.
type Articles struct{ *Controller[Article] }

func NewArticles(api *apiclient.Client, logger *zap.Logger) *Articles {
	return &Articles{NewController[Article](api, logger, "/articles", "articles")}
}

// Save creates the article when id is empty, else updates it.
func (a *Articles) Save(ctx context.Context, id string, in ArticleInput, image *apiclient.File) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return a.save(ctx, id, in.form(image))
}

// Posts is the post table plus its create/edit form.
type Posts struct{ *Controller[Post] }

func NewPosts(api *apiclient.Client, logger *zap.Logger) *Posts {
	return &Posts{NewController[Post](api, logger, "/posts", "posts")}
}

// Save creates the post when id is empty, else updates it.
func (p *Posts) Save(ctx context.Context, id string, in PostInput, image *apiclient.File) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return p.save(ctx, id, in.form(image))
}

// NewComments lists every comment, approved or not.
func NewComments(api *apiclient.Client, logger *zap.Logger) *Controller[Comment] {
	return NewController[Comment](api, logger, "/admin/comments", "comments")
}

func NewUsers(api *apiclient.Client, logger *zap.Logger) *Controller[User] {
	return NewController[User](api, logger, "/users", "users")
}

func (c *Controller[T]) save(ctx context.Context, id string, form apiclient.Form) error {
	if id == "" {
		return c.api.SendMultipart(ctx, http.MethodPost, c.path, form, nil)
	}
	return c.api.SendMultipart(ctx, http.MethodPut, c.itemPath(id), form, nil)
}
