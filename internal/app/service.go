package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"atelier/api/internal/contact"
	"atelier/api/internal/logger"
	"atelier/api/internal/schema"
	"atelier/api/internal/search"
	"atelier/api/internal/store"
	"atelier/api/internal/upload"
)

type contentStore interface {
	ListByCategory(ctx context.Context, category string) ([]store.Item, error)
	GetItem(ctx context.Context, category, id string) (store.Item, error)
	PutItem(ctx context.Context, category, id string, item store.Item) error
	DeleteItem(ctx context.Context, category, id string) error
	Ping(ctx context.Context) error
}

type searchIndex interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexItem(category, id string, item store.Item)
	DeleteItem(category, id string)
}

type uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (upload.Result, error)
}

type contactSubmitter interface {
	Submit(ctx context.Context, ip string, sub contact.Submission) error
}

type Options struct {
	Content  contentStore
	Registry *schema.Registry
	Search   searchIndex
	Uploads  uploader
	Contact  contactSubmitter
	Logger   logger.Logger
}

type Service struct {
	content  contentStore
	registry *schema.Registry
	search   searchIndex
	uploads  uploader
	contact  contactSubmitter
	log      logger.Logger
}

func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	registry := opts.Registry
	if registry == nil {
		registry = schema.Default()
	}
	return &Service{
		content:  opts.Content,
		registry: registry,
		search:   opts.Search,
		uploads:  opts.Uploads,
		contact:  opts.Contact,
		log:      log,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.content.Ping(ctx)
}

func (s *Service) ListContent(ctx context.Context, category string) ([]store.Item, error) {
	items, err := s.content.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}
	return items, nil
}

// GetContent returns store.ErrNotFound (wrapped) when the item is absent.
func (s *Service) GetContent(ctx context.Context, category, id string) (store.Item, error) {
	item, err := s.content.GetItem(ctx, category, id)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", category, id, err)
	}
	return item, nil
}

// UpsertContent overwrites the item unconditionally. The payload is stored as
// given; it is not checked against the category's fields.
func (s *Service) UpsertContent(ctx context.Context, category, id string, item store.Item) error {
	if err := s.content.PutItem(ctx, category, id, item); err != nil {
		return fmt.Errorf("put %s/%s: %w", category, id, err)
	}
	if s.search != nil {
		s.search.IndexItem(category, id, item)
	}
	return nil
}

// DeleteContent succeeds whether or not the item exists.
func (s *Service) DeleteContent(ctx context.Context, category, id string) error {
	if err := s.content.DeleteItem(ctx, category, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", category, id, err)
	}
	if s.search != nil {
		s.search.DeleteItem(category, id)
	}
	return nil
}

func (s *Service) Categories() []schema.Category {
	return s.registry.Categories()
}

func (s *Service) Category(id string) (schema.Category, error) {
	category, ok := s.registry.Get(id)
	if !ok {
		return schema.Category{}, domainError(http.StatusNotFound, "NOT_FOUND", "Unknown category", nil)
	}
	return category, nil
}

func (s *Service) Search(ctx context.Context, q search.Query) (search.Response, error) {
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search not configured", nil)
	}
	return s.search.Search(ctx, q), nil
}

func (s *Service) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (upload.Result, error) {
	if s.uploads == nil {
		return upload.Result{}, upload.ErrNotConfigured
	}
	return s.uploads.Upload(ctx, filename, contentType, r, size)
}

func (s *Service) SubmitContact(ctx context.Context, ip string, sub contact.Submission) error {
	if s.contact == nil {
		return errors.New("contact form not configured")
	}
	return s.contact.Submit(ctx, ip, sub)
}
