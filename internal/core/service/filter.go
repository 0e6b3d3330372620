package service

import (
	"slices"
	"strings"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// Filter keeps the items whose status equals status (unless it is StatusAll)
// and, for a non-empty term, whose search text contains term ignoring case in
// any of its fields. Source order is preserved.
func Filter[T domain.Searchable](items []T, status, term string) []T {
	out := make([]T, 0, len(items))
	needle := strings.ToLower(term)
	for _, it := range items {
		if status != StatusAll && it.ItemStatus() != status {
			continue
		}
		if needle != "" && !matches(it.SearchText(), needle) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matches(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// FilterView derives the displayed subset of a list from a status selector and
// a search term. Every setter recomputes the result immediately.
type FilterView[T domain.Searchable] struct {
	statuses  []string
	source    []T
	status    string
	term      string
	displayed []T
}

// NewFilterView accepts StatusAll plus the given statuses as filter values.
func NewFilterView[T domain.Searchable](statuses []string) *FilterView[T] {
	v := &FilterView[T]{statuses: statuses, status: StatusAll}
	v.recompute()
	return v
}

// SetSource replaces the list being filtered.
func (v *FilterView[T]) SetSource(items []T) {
	v.source = append([]T(nil), items...)
	v.recompute()
}

// SetStatus selects a status; values outside the known set are rejected and
// leave the view unchanged.
func (v *FilterView[T]) SetStatus(status string) error {
	if status == "" {
		status = StatusAll
	}
	if status != StatusAll && !slices.Contains(v.statuses, status) {
		return domain.NewValidationError("unknown status "+status, "status")
	}
	v.status = status
	v.recompute()
	return nil
}

func (v *FilterView[T]) SetTerm(term string) {
	v.term = term
	v.recompute()
}

// Reset restores both filters to their defaults.
func (v *FilterView[T]) Reset() {
	v.status, v.term = StatusAll, ""
	v.recompute()
}

func (v *FilterView[T]) Displayed() []T { return append([]T(nil), v.displayed...) }
func (v *FilterView[T]) Status() string { return v.status }
func (v *FilterView[T]) Term() string   { return v.term }

// NoResults reports that the filters hide every item of a non-empty source.
// An empty source is not a "no results" condition.
func (v *FilterView[T]) NoResults() bool {
	return len(v.source) > 0 && len(v.displayed) == 0
}

// HasStatus reports whether any source item has status, ignoring the current
// filters. For StatusAll it reports whether the source is non-empty.
func (v *FilterView[T]) HasStatus(status string) bool {
	if status == StatusAll {
		return len(v.source) > 0
	}
	for _, it := range v.source {
		if it.ItemStatus() == status {
			return true
		}
	}
	return false
}

func (v *FilterView[T]) recompute() {
	v.displayed = Filter(v.source, v.status, v.term)
}
