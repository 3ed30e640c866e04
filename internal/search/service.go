package search

import (
	"context"

	"atelier/api/internal/logger"
	"atelier/api/internal/store"
)

// Service is the facade that tries Meilisearch first and falls back to a
// scan of the content store.
type Service struct {
	meili *Meili
	scan  *Scan
	log   logger.Logger
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, scan *Scan, log logger.Logger) *Service {
	return &Service{meili: meili, scan: scan, log: log}
}

func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.log.Warn("meilisearch error, falling back to scan", logger.Error(err))
	}

	results, total, err := s.scan.Search(ctx, q)
	if err != nil {
		s.log.Error("scan search failed", logger.Error(err))
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexItem indexes an item (fire-and-forget to Meilisearch).
func (s *Service) IndexItem(category, id string, item store.Item) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	rec := RecordFromItem(category, id, item)
	go func() {
		if err := s.meili.IndexRecord(rec); err != nil {
			s.log.Warn("index item", logger.String("category", category), logger.String("id", id), logger.Error(err))
		}
	}()
}

// DeleteItem removes an item from the index (fire-and-forget).
func (s *Service) DeleteItem(category, id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	docID := DocID(category, id)
	go func() {
		if err := s.meili.DeleteRecord(docID); err != nil {
			s.log.Warn("delete item from index", logger.String("category", category), logger.String("id", id), logger.Error(err))
		}
	}()
}

// Reindex pushes every stored item to Meilisearch. Called at startup.
func (s *Service) Reindex(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.scan == nil {
		return
	}
	recs, err := s.scan.Records(ctx)
	if err != nil {
		s.log.Warn("reindex load failed", logger.Error(err))
		return
	}
	if err := s.meili.IndexRecords(recs); err != nil {
		s.log.Warn("reindex failed", logger.Error(err))
		return
	}
	s.log.Info("reindexed content", logger.Int("records", len(recs)))
}

func (s *Service) Close() {
	if s.meili != nil {
		s.meili.Close()
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
