// Package cmsclient is a Go client for the content API. It mirrors what the
// site's admin pages do: list, fetch and save items, validating required
// fields locally before anything is sent.
package cmsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"atelier/api/internal/auth"
	"atelier/api/internal/form"
	"atelier/api/internal/keycodec"
	"atelier/api/internal/logger"
	"atelier/api/internal/schema"
	"atelier/api/internal/util"
)

var (
	ErrNotFound        = errors.New("content not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnknownCategory = errors.New("unknown category")
)

// Item is one content item as returned by the API.
type Item = map[string]any

// APIError is a non-2xx answer other than 403 and 404.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL  string
	http     *http.Client
	identity string
	registry *schema.Registry
	log      logger.Logger
	now      func() time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithIdentity sends the admin identity header on every request.
func WithIdentity(email string) Option {
	return func(cl *Client) { cl.identity = email }
}

// WithRegistry sets the categories used by Submit. Defaults to the built-in set.
func WithRegistry(r *schema.Registry) Option {
	return func(cl *Client) { cl.registry = r }
}

func WithLogger(l logger.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		registry: schema.Default(),
		log:      logger.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewID returns the id given to a new collection item.
func (c *Client) NewID() string {
	return util.TimestampID(c.now())
}

// List returns the category's items. It never returns a nil slice: on failure
// the error is logged and returned alongside an empty list.
func (c *Client) List(ctx context.Context, category string) ([]Item, error) {
	var items []Item
	if err := c.do(ctx, http.MethodGet, contentPath(category), nil, &items); err != nil {
		c.log.Warn("failed to load content list", logger.String("category", category), logger.Error(err))
		return []Item{}, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Get returns ErrNotFound when the item does not exist.
func (c *Client) Get(ctx context.Context, category, id string) (Item, error) {
	var item Item
	if err := c.do(ctx, http.MethodGet, contentPath(category, id), nil, &item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Client) Singleton(ctx context.Context, category string) (Item, error) {
	return c.Get(ctx, category, keycodec.SingletonID)
}

func (c *Client) Save(ctx context.Context, category, id string, item Item) error {
	return c.do(ctx, http.MethodPost, adminPath(category, id), item, nil)
}

func (c *Client) Remove(ctx context.Context, category, id string) error {
	return c.do(ctx, http.MethodDelete, adminPath(category, id), nil, nil)
}

// Submit validates values against the category's required fields and saves
// them. Singleton categories always use the singleton id; collection items
// get a timestamp id when id is empty. It returns the id written.
func (c *Client) Submit(ctx context.Context, category, id string, values Item) (string, error) {
	cat, ok := c.registry.Get(category)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if err := form.Validate(cat.Fields, values); err != nil {
		return "", err
	}

	switch {
	case cat.Singleton:
		id = keycodec.SingletonID
	case id == "":
		id = c.NewID()
	}

	payload := make(Item, len(values))
	for k, v := range values {
		if k == "id" {
			continue
		}
		payload[k] = v
	}
	if err := c.Save(ctx, category, id, payload); err != nil {
		return "", err
	}
	return id, nil
}

// Categories fetches the server's schema.
func (c *Client) Categories(ctx context.Context) ([]schema.Category, error) {
	var body struct {
		Categories []schema.Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/schema", nil, &body); err != nil {
		return nil, err
	}
	return body.Categories, nil
}

func contentPath(category string, id ...string) string {
	p := "/api/content/" + url.PathEscape(category)
	for _, part := range id {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func adminPath(category, id string) string {
	return "/api/admin/content/" + url.PathEscape(category) + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.identity != "" {
		req.Header.Set(auth.IdentityHeader, c.identity)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		if body.Error != "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}
