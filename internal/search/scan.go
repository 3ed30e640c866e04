package search

import (
	"context"
	"strings"

	"atelier/api/internal/store"
)

// ContentLister is the read side of the content store used by Scan.
type ContentLister interface {
	ListByCategory(ctx context.Context, category string) ([]store.Item, error)
}

// Scan answers queries by listing categories and matching substrings. It is
// the fallback when no index is available; cost grows with the content set.
type Scan struct {
	content    ContentLister
	categories func() []string
}

func NewScan(content ContentLister, categories func() []string) *Scan {
	return &Scan{content: content, categories: categories}
}

func (s *Scan) Search(ctx context.Context, q Query) ([]Result, int, error) {
	term := strings.ToLower(strings.TrimSpace(q.Text))
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	categories := s.categories()
	if q.Category != "" {
		categories = []string{q.Category}
	}

	var results []Result
	total := 0
	for _, category := range categories {
		items, err := s.content.ListByCategory(ctx, category)
		if err != nil {
			return nil, 0, err
		}
		for _, item := range items {
			id, _ := item[store.IDField].(string)
			rec := RecordFromItem(category, id, item)
			haystack := strings.ToLower(rec.Title + "\n" + rec.Text)
			if term != "" && !strings.Contains(haystack, term) {
				continue
			}
			total++
			if len(results) >= limit {
				continue
			}
			results = append(results, Result{
				Category: category,
				ID:       id,
				Title:    rec.Title,
				Snippet:  snippet(rec.Text, term, 120),
			})
		}
	}
	return results, total, nil
}

// Records loads every item as an index record, for reindexing.
func (s *Scan) Records(ctx context.Context) ([]Record, error) {
	var out []Record
	for _, category := range s.categories() {
		items, err := s.content.ListByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			id, _ := item[store.IDField].(string)
			out = append(out, RecordFromItem(category, id, item))
		}
	}
	return out, nil
}
