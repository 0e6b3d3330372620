package ports

import "github.com/agridynamic/admin-console/internal/core/domain"

// ImageOptimizer may shrink an upload before it is sent.
type ImageOptimizer interface {
	Optimize(u domain.Upload) (domain.Upload, error)
}
