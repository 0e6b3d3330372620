package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// Resource implements ports.ResourceGateway for the collection at
// {base}/{name}.
type Resource[T domain.Item] struct {
	c    *Client
	name string
}

func NewResource[T domain.Item](c *Client, name string) *Resource[T] {
	return &Resource[T]{c: c, name: name}
}

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	raw, err := r.c.do(ctx, request{method: http.MethodGet, path: r.name})
	if err != nil {
		return nil, err
	}
	items := []T{}
	if _, err := decode(raw, &items); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.name, err)
	}
	return items, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	raw, err := r.c.do(ctx, request{method: http.MethodGet, path: itemPath(r.name, id)})
	if err != nil {
		return item, err
	}
	ok, err := decode(raw, &item)
	if err != nil {
		return item, fmt.Errorf("get %s %s: %w", r.name, id, err)
	}
	if !ok {
		return item, fmt.Errorf("get %s %s: empty body: %w", r.name, id, domain.ErrMalformedResponse)
	}
	return item, nil
}

func (r *Resource[T]) Create(ctx context.Context, p ports.Payload) (T, error) {
	return r.write(ctx, http.MethodPost, r.name, p)
}

func (r *Resource[T]) Update(ctx context.Context, id string, p ports.Payload) (T, error) {
	return r.write(ctx, http.MethodPut, itemPath(r.name, id), p)
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.c.do(ctx, request{method: http.MethodDelete, path: itemPath(r.name, id)})
	return err
}

// write sends p and decodes the stored item. A reply that is empty or not the
// item itself yields the zero T, which callers treat as "no body".
func (r *Resource[T]) write(ctx context.Context, method, path string, p ports.Payload) (T, error) {
	var item T
	body, contentType, err := encodePayload(p)
	if err != nil {
		return item, err
	}
	raw, err := r.c.do(ctx, request{method: method, path: path, body: body, contentType: contentType})
	if err != nil {
		return item, err
	}
	if _, err := decode(raw, &item); err != nil {
		r.c.log.Debug().Err(err).Str("resource", r.name).Msg("write reply is not an item")
		var zero T
		return zero, nil
	}
	return item, nil
}

// Articles adds the public card and detail endpoints to the articles
// collection.
type Articles struct {
	*Resource[domain.Article]
}

var (
	_ ports.ResourceGateway[domain.Article] = (*Articles)(nil)
	_ ports.ArticleCatalog                  = (*Articles)(nil)
)

func NewArticles(c *Client) *Articles {
	return &Articles{Resource: NewResource[domain.Article](c, "articles")}
}

func (a *Articles) Cards(ctx context.Context) ([]domain.Article, error) {
	raw, err := a.c.do(ctx, request{method: http.MethodGet, path: "articles/cards", anonymous: true})
	if err != nil {
		return nil, err
	}
	cards := []domain.Article{}
	if _, err := decode(raw, &cards); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

func (a *Articles) Article(ctx context.Context, id string) (domain.Article, error) {
	var art domain.Article
	raw, err := a.c.do(ctx, request{method: http.MethodGet, path: itemPath("articles", id), anonymous: true})
	if err != nil {
		return art, err
	}
	ok, err := decode(raw, &art)
	if err != nil {
		return art, err
	}
	if !ok {
		return art, fmt.Errorf("get article %s: empty body: %w", id, domain.ErrMalformedResponse)
	}
	return art, nil
}
