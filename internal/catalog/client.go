package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
)

// Source fetches products by page. A short or empty page signals the end of the data.
type Source interface {
	FetchPage(ctx context.Context, limit, offset int) ([]Product, error)
}

// Client reads the product listing from the REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.StoreMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records fetch latency.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a catalog client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid catalog base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// FetchPage implements Source.
func (c *Client) FetchPage(ctx context.Context, limit, offset int) ([]Product, error) {
	page, err := c.Page(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// Page returns the raw listing page including the total count.
func (c *Client) Page(ctx context.Context, limit, offset int) (*Page, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}
	if limit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit must be positive")
	}
	if offset < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offset cannot be negative")
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(offset))
	endpoint := c.baseURL + "/products?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build products request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveCatalogFetch(time.Since(start))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute products request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "products request failed")
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode products response")
	}
	if page.Products == nil {
		page.Products = []Product{}
	}
	return &page, nil
}

// Find scans pages of size pageSize until it meets the product with id.
func Find(ctx context.Context, src Source, id, pageSize int) (*Product, error) {
	if src == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog source not configured")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	for offset := 0; ; offset += pageSize {
		products, err := src.FetchPage(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for i := range products {
			if products[i].ID == id {
				p := products[i]
				return &p, nil
			}
		}
		if len(products) < pageSize {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", id))
		}
	}
}

// Finder resolves product ids against a Source.
type Finder struct {
	src      Source
	pageSize int
}

func NewFinder(src Source, pageSize int) *Finder {
	return &Finder{src: src, pageSize: pageSize}
}

func (f *Finder) Find(ctx context.Context, id int) (*Product, error) {
	return Find(ctx, f.src, id, f.pageSize)
}
