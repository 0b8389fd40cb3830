package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// DefaultBaseURL is the public Google Books endpoint.
	DefaultBaseURL = "https://books.googleapis.com/"

	textSearchLimit = 10
	tracerName      = "github.com/zombor/book-scanner/internal/catalog"
)

type operation string

const (
	opIdentifier operation = "lookup_by_identifier"
	opText       operation = "lookup_by_text"
	opID         operation = "get_by_id"
)

// Lookup is the fail-soft catalog contract: failures and misses both come
// back as "absent" and are never returned as errors.
type Lookup interface {
	LookupByIdentifier(ctx context.Context, identifier string) (Book, bool)
	LookupByText(ctx context.Context, query string) []Book
	GetByID(ctx context.Context, catalogID string) (Book, bool)
}

// Finder exposes the explicit outcome of each catalog call.
type Finder interface {
	FindByIdentifier(ctx context.Context, identifier string) Result
	FindByText(ctx context.Context, query string) Result
	FindByID(ctx context.Context, catalogID string) Result
}

// Client queries the Google Books volumes API.
type Client struct {
	service *books.Service
	cache   *expirable.LRU[string, Result]
	tracer  trace.Tracer
}

var (
	_ Lookup = (*Client)(nil)
	_ Finder = (*Client)(nil)
)

type config struct {
	baseURL        string
	apiKey         string
	userAgent      string
	httpClient     *http.Client
	requestsPerSec float64
	cacheSize      int
	cacheTTL       time.Duration
	tracerProvider trace.TracerProvider
}

// Option configures a Client.
type Option func(*config)

// WithBaseURL overrides the catalog endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithAPIKey attaches an API key to every request.
func WithAPIKey(key string) Option {
	return func(c *config) { c.apiKey = strings.TrimSpace(key) }
}

// WithUserAgent sets the User-Agent prefix sent to the catalog.
func WithUserAgent(userAgent string) Option {
	return func(c *config) { c.userAgent = userAgent }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables pacing.
func WithRateLimit(requestsPerSec float64) Option {
	return func(c *config) { c.requestsPerSec = requestsPerSec }
}

// WithCache enables a bounded response cache keyed by operation and
// argument. Failed calls are never cached. A zero ttl keeps entries until
// they are evicted by size.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *config) {
		c.cacheSize = size
		c.cacheTTL = ttl
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tracerProvider = tp }
}

// New creates a catalog Client.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := config{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&cfg)
	}

	httpClient := &http.Client{}
	if cfg.httpClient != nil {
		copied := *cfg.httpClient
		httpClient = &copied
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	t := &transport{base: base, apiKey: cfg.apiKey}
	if cfg.requestsPerSec > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.requestsPerSec), 1)
	}
	httpClient.Transport = t

	service, err := books.NewService(ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(strings.TrimRight(cfg.baseURL, "/")+"/"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating books service: %w", err)
	}
	service.UserAgent = cfg.userAgent

	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	client := &Client{
		service: service,
		tracer:  tp.Tracer(tracerName),
	}
	if cfg.cacheSize > 0 {
		client.cache = expirable.NewLRU[string, Result](cfg.cacheSize, nil, cfg.cacheTTL)
	}
	return client, nil
}

// FindByIdentifier searches the catalog by ISBN and keeps the first valid match.
func (c *Client) FindByIdentifier(ctx context.Context, identifier string) Result {
	identifier = strings.TrimSpace(identifier)
	return c.do(ctx, opIdentifier, identifier, func(ctx context.Context) Result {
		volumes, err := c.service.Volumes.List("isbn:" + identifier).Context(ctx).Do()
		if err != nil {
			return failed(fmt.Errorf("searching by identifier: %w", err))
		}
		parsed := parseVolumes(volumes.Items)
		if len(parsed) > 1 {
			parsed = parsed[:1]
		}
		return found(parsed)
	})
}

// FindByText runs a free-text search limited to ten results, in catalog
// relevance order.
func (c *Client) FindByText(ctx context.Context, query string) Result {
	query = strings.TrimSpace(query)
	return c.do(ctx, opText, query, func(ctx context.Context) Result {
		volumes, err := c.service.Volumes.List(query).MaxResults(textSearchLimit).Context(ctx).Do()
		if err != nil {
			return failed(fmt.Errorf("searching by text: %w", err))
		}
		return found(parseVolumes(volumes.Items))
	})
}

// FindByID fetches a single volume by its catalog id. An unknown id is a
// miss, not a failure.
func (c *Client) FindByID(ctx context.Context, catalogID string) Result {
	catalogID = strings.TrimSpace(catalogID)
	return c.do(ctx, opID, catalogID, func(ctx context.Context) Result {
		volume, err := c.service.Volumes.Get(catalogID).Context(ctx).Do()
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return Result{Status: StatusNoMatch}
		}
		if err != nil {
			return failed(fmt.Errorf("getting volume: %w", err))
		}
		book, err := parseVolume(volume)
		if err != nil {
			return failed(fmt.Errorf("parsing volume: %w", err))
		}
		return found([]Book{book})
	})
}

// LookupByIdentifier returns the first book matching the ISBN, if any.
func (c *Client) LookupByIdentifier(ctx context.Context, identifier string) (Book, bool) {
	return c.FindByIdentifier(ctx, identifier).First()
}

// LookupByText returns up to ten books for the query; empty on a miss or failure.
func (c *Client) LookupByText(ctx context.Context, query string) []Book {
	res := c.FindByText(ctx, query)
	if res.Status != StatusFound {
		return []Book{}
	}
	return res.Books
}

// GetByID returns the volume with the given catalog id, if any.
func (c *Client) GetByID(ctx context.Context, catalogID string) (Book, bool) {
	return c.FindByID(ctx, catalogID).First()
}

func (c *Client) do(ctx context.Context, op operation, arg string, fetch func(context.Context) Result) Result {
	ctx, span := c.tracer.Start(ctx, "catalog."+string(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("catalog.argument", arg)),
	)
	defer span.End()

	if arg == "" {
		span.SetAttributes(attribute.String("catalog.status", StatusNoMatch.String()))
		return Result{Status: StatusNoMatch}
	}

	key := string(op) + ":" + arg
	if c.cache != nil {
		if res, ok := c.cache.Get(key); ok {
			span.SetAttributes(
				attribute.Bool("catalog.cache_hit", true),
				attribute.String("catalog.status", res.Status.String()),
			)
			res.Books = slices.Clone(res.Books)
			return res
		}
	}

	res := fetch(ctx)
	span.SetAttributes(
		attribute.String("catalog.status", res.Status.String()),
		attribute.Int("catalog.results", len(res.Books)),
	)

	if res.Status == StatusFailed {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		slog.Error("Books API request failed", "operation", op, "argument", arg, "error", res.Err)
		return res
	}

	if c.cache != nil {
		c.cache.Add(key, Result{Status: res.Status, Books: slices.Clone(res.Books)})
	}
	return res
}
