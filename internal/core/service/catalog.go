package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// ProjectListing is one rendering of the public projects page.
type ProjectListing struct {
	Status    string           `json:"status"`
	Term      string           `json:"term"`
	Projects  []domain.Article `json:"projects"`
	NoResults bool             `json:"noResults"`
	Tabs      map[string]bool  `json:"tabs"`
	Stale     bool             `json:"stale,omitempty"`
}

// Section is one rendered long-form part of an article.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// ArticlePage is a public article with its sections rendered to HTML.
type ArticlePage struct {
	Article  domain.Article `json:"article"`
	Sections []Section      `json:"sections"`
}

// Catalog serves the public site's project pages.
type Catalog struct {
	articles ports.ArticleCatalog
	renderer ports.ContentRenderer
	log      zerolog.Logger

	mu    sync.RWMutex
	cards []domain.Article
}

func NewCatalog(articles ports.ArticleCatalog, renderer ports.ContentRenderer, log zerolog.Logger) *Catalog {
	return &Catalog{articles: articles, renderer: renderer, log: log}
}

// Projects fetches the card list and filters it. When the fetch fails and an
// earlier list is cached, the listing is built from it, marked stale, and
// returned together with the error.
func (c *Catalog) Projects(ctx context.Context, status, term string) (ProjectListing, error) {
	view := NewFilterView[domain.Article](domain.ArticleStatuses)
	if err := view.SetStatus(status); err != nil {
		return ProjectListing{}, err
	}
	view.SetTerm(term)

	cards, fetchErr := c.articles.Cards(ctx)
	if fetchErr != nil {
		fetchErr = fmt.Errorf("list project cards: %w", fetchErr)
		c.log.Warn().Err(fetchErr).Msg("project cards unavailable, serving cached list")
		c.mu.RLock()
		cards = c.cards
		c.mu.RUnlock()
	} else {
		for i := range cards {
			if cards[i].Status == "" {
				cards[i].Status = domain.ArticleUpcoming
			}
		}
		c.mu.Lock()
		c.cards = cards
		c.mu.Unlock()
	}
	view.SetSource(cards)

	tabs := make(map[string]bool, len(domain.ArticleStatuses)+1)
	tabs[StatusAll] = view.HasStatus(StatusAll)
	for _, s := range domain.ArticleStatuses {
		tabs[s] = view.HasStatus(s)
	}

	listing := ProjectListing{
		Status:    view.Status(),
		Term:      view.Term(),
		Projects:  view.Displayed(),
		NoResults: view.NoResults(),
		Tabs:      tabs,
		Stale:     fetchErr != nil,
	}
	return listing, fetchErr
}

var articleSections = []struct {
	key, title string
	get        func(domain.Article) string
}{
	{"background", "Background", func(a domain.Article) string { return a.Background }},
	{"methodology", "Methodology", func(a domain.Article) string { return a.Methodology }},
	{"results", "Main Results", func(a domain.Article) string { return a.Results }},
	{"conclusions", "Conclusions", func(a domain.Article) string { return a.Conclusions }},
	{"recommendations", "Recommendations", func(a domain.Article) string { return a.Recommendations }},
	{"application", "Application at AgriDynamic", func(a domain.Article) string { return a.Application }},
}

// Article fetches one article for its public page. Only completed and
// in-progress projects have one; others yield domain.ErrNotPublic.
func (c *Catalog) Article(ctx context.Context, id string) (ArticlePage, error) {
	a, err := c.articles.Article(ctx, id)
	if err != nil {
		return ArticlePage{}, fmt.Errorf("get article %s: %w", id, err)
	}
	if !a.PubliclyDetailed() {
		return ArticlePage{}, fmt.Errorf("article %s is %s: %w", id, a.Status, domain.ErrNotPublic)
	}

	page := ArticlePage{Article: a, Sections: []Section{}}
	for _, s := range articleSections {
		body := s.get(a)
		if body == "" {
			continue
		}
		html, err := c.renderer.Render(body)
		if err != nil {
			return ArticlePage{}, fmt.Errorf("render %s of article %s: %w", s.key, id, err)
		}
		page.Sections = append(page.Sections, Section{Key: s.key, Title: s.title, HTML: html})
	}
	return page, nil
}
