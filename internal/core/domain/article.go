package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ArticleStatus is the lifecycle of a research project.
type ArticleStatus string

const (
	ArticleUpcoming   ArticleStatus = "upcoming"
	ArticleInProgress ArticleStatus = "in-progress"
	ArticleCompleted  ArticleStatus = "completed"
	ArticleArchived   ArticleStatus = "archived"
)

// ArticleStatuses lists the filterable statuses in display order.
var ArticleStatuses = []string{
	string(ArticleUpcoming),
	string(ArticleInProgress),
	string(ArticleCompleted),
	string(ArticleArchived),
}

// Author is the article's author. The backend sends either the user id or the
// populated user document.
type Author struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (a *Author) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*a = Author{ID: id}
		return nil
	}
	type alias Author
	var doc alias
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*a = Author(doc)
	return nil
}

// PubliclyDetailed reports whether the article's long-form page may be shown
// on the public site.
func (a Article) PubliclyDetailed() bool {
	return a.Status == ArticleCompleted || a.Status == ArticleInProgress
}

// Article is a research project / article as served by the backend. Card
// listings only populate the summary fields.
type Article struct {
	ID              string        `json:"_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Image           string        `json:"image"`
	Author          Author        `json:"author,omitzero"`
	Published       bool          `json:"published"`
	Contributors    []string      `json:"contributors,omitempty"`
	Status          ArticleStatus `json:"status"`
	Background      string        `json:"background,omitempty"`
	Methodology     string        `json:"methodology,omitempty"`
	Results         string        `json:"results,omitempty"`
	Conclusions     string        `json:"conclusions,omitempty"`
	Recommendations string        `json:"recommendations,omitempty"`
	Application     string        `json:"application,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt,omitzero"`
}

func (a Article) ItemID() string     { return a.ID }
func (a Article) ItemStatus() string { return string(a.Status) }

func (a Article) SearchText() []string {
	out := make([]string, 0, 2+len(a.Contributors))
	out = append(out, a.Title, a.Description)
	return append(out, a.Contributors...)
}

func (a Article) FormValues() map[string]string {
	return map[string]string{
		"title":           a.Title,
		"description":     a.Description,
		"image":           a.Image,
		"contributors":    strings.Join(a.Contributors, ", "),
		"status":          string(a.Status),
		"background":      a.Background,
		"methodology":     a.Methodology,
		"results":         a.Results,
		"conclusions":     a.Conclusions,
		"recommendations": a.Recommendations,
		"application":     a.Application,
		"published":       strconv.FormatBool(a.Published),
	}
}
