package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agridynamic/admin-console/internal/core/service"
)

// ProjectCatalog is the public side of the content backend.
type ProjectCatalog interface {
	Projects(ctx context.Context, status, term string) (service.ProjectListing, error)
	Article(ctx context.Context, id string) (service.ArticlePage, error)
}

type CatalogHandler struct {
	catalog ProjectCatalog
}

func NewCatalogHandler(catalog ProjectCatalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type projectsResponse struct {
	service.ProjectListing
	Error string `json:"error,omitempty"`
}

// Projects handles GET /projects?status=&q=. The status tab defaults to
// upcoming; "all" lists every project.
func (h *CatalogHandler) Projects(c echo.Context) error {
	listing, err := h.catalog.Projects(c.Request().Context(), c.QueryParam("status"), c.QueryParam("q"))
	if err != nil {
		if !listing.Stale || !listing.Tabs[service.StatusAll] {
			return err
		}
		return c.JSON(http.StatusOK, projectsResponse{ProjectListing: listing, Error: "showing the last known list"})
	}
	return c.JSON(http.StatusOK, projectsResponse{ProjectListing: listing})
}

// Article handles GET /projects/:id.
func (h *CatalogHandler) Article(c echo.Context) error {
	page, err := h.catalog.Article(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
