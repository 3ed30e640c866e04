// Package store persists content items in a flat key-value backend.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"atelier/api/internal/keycodec"
)

// Item is one content record: field name to value. Values decode as string,
// json.Number, bool, []any or map[string]any.
type Item map[string]any

// IDField is the item attribute carrying the decoded id.
const IDField = "id"

const defaultFetchLimit = 16

// ContentStore maps (category, id) addressed items onto a Backend.
// It keeps no cache; every call reaches the backend.
type ContentStore struct {
	backend    Backend
	fetchLimit int
}

// NewContentStore wraps a backend.
func NewContentStore(backend Backend) *ContentStore {
	return &ContentStore{backend: backend, fetchLimit: defaultFetchLimit}
}

// ListByCategory returns every item stored under the category, each carrying its id.
// Order is whatever the backend lists. Keys removed between listing and fetching
// are skipped; any other failure fails the whole call.
func (s *ContentStore) ListByCategory(ctx context.Context, category string) ([]Item, error) {
	if err := keycodec.ValidateCategory(category); err != nil {
		return nil, err
	}

	prefix := keycodec.Prefix(category)
	keys, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		return nil, storageError("list", prefix, err)
	}

	fetched := make([]Item, len(keys))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.fetchLimit)
	for i, raw := range keys {
		i, raw := i, raw
		group.Go(func() error {
			key, err := keycodec.Parse(raw)
			if err != nil {
				return storageError("list", raw, err)
			}
			item, err := s.fetch(groupCtx, key)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			fetched[i] = item
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(fetched))
	for _, item := range fetched {
		if item != nil {
			items = append(items, item)
		}
	}
	return items, nil
}

// GetItem returns ErrNotFound when nothing is stored at (category, id).
func (s *ContentStore) GetItem(ctx context.Context, category, id string) (Item, error) {
	key, err := keycodec.New(category, id)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, key)
}

// PutItem replaces whatever is stored at (category, id). Last writer wins.
func (s *ContentStore) PutItem(ctx context.Context, category, id string, item Item) error {
	key, err := keycodec.New(category, id)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key.String(), payload); err != nil {
		return storageError("put", key.String(), err)
	}
	return nil
}

// DeleteItem removes (category, id). Deleting an absent item succeeds.
func (s *ContentStore) DeleteItem(ctx context.Context, category, id string) error {
	key, err := keycodec.New(category, id)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, key.String()); err != nil {
		return storageError("delete", key.String(), err)
	}
	return nil
}

// Ping checks backend connectivity.
func (s *ContentStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *ContentStore) fetch(ctx context.Context, key keycodec.Key) (Item, error) {
	raw, err := s.backend.Get(ctx, key.String())
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError("get", key.String(), err)
	}
	item, err := decodeItem(raw)
	if err != nil {
		return nil, storageError("decode", key.String(), err)
	}
	if item == nil {
		return nil, ErrNotFound
	}
	item[IDField] = key.ID
	return item, nil
}

func decodeItem(raw []byte) (Item, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var item Item
	if err := decoder.Decode(&item); err != nil {
		return nil, err
	}
	return item, nil
}
