package ports

import (
	"context"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

// ArticleCatalog is the backend's public, unauthenticated article surface.
type ArticleCatalog interface {
	// Cards lists every article with its summary fields only.
	Cards(ctx context.Context) ([]domain.Article, error)
	Article(ctx context.Context, id string) (domain.Article, error)
}
