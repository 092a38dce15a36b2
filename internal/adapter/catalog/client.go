// Package catalog is the fetch gateway for the remote media catalog API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/mmcdole/reel/internal/domain"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultLanguage = "ru-RU"
	maxErrorBody    = 64 << 10
	assistantLimit  = 24
)

// Options configures a Client
type Options struct {
	BaseURL   string
	Language  string        // BCP 47 tag sent as ?lang=
	Timeout   time.Duration // Per-request bound, converted to a network failure
	RateLimit float64       // Requests per second, 0 for unlimited
	SessionID string        // Sent as X-Session-ID
}

// Client talks to the catalog API. It never retries; every failure is
// reported to the caller as a *domain.FetchError.
type Client struct {
	baseURL    string
	lang       string
	timeout    time.Duration
	sessionID  string
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new catalog API client
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tag, err := language.Parse(opts.Language)
	if err != nil || opts.Language == "" {
		if opts.Language != "" {
			logger.Warn("invalid catalog language, using default", "language", opts.Language, "error", err)
		}
		tag = language.MustParse(defaultLanguage)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		lang:      tag.String(),
		timeout:   timeout,
		sessionID: opts.SessionID,
		limiter:   limiter,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the catalog origin without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Language returns the canonical language tag sent with requests
func (c *Client) Language() string {
	return c.lang
}

// FetchJSON performs one request and decodes the JSON response into dest.
// body, when non-nil, is encoded as the JSON request body. dest may be nil.
func (c *Client) FetchJSON(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	_, err := c.do(ctx, method, path, query, body, dest)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) (int, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, &domain.FetchError{Kind: domain.FetchNetwork, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, &domain.FetchError{Kind: domain.FetchDecode, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return 0, &domain.FetchError{Kind: domain.FetchNetwork, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.sessionID != "" {
		req.Header.Set("X-Session-ID", c.sessionID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("catalog request", "method", method, "url", reqURL, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.Debug("catalog request cancelled", "path", path, "request_id", requestID)
		} else {
			c.logger.Error("catalog request failed", "path", path, "request_id", requestID, "error", err)
		}
		return 0, &domain.FetchError{Kind: domain.FetchNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		c.logger.Warn("catalog request error",
			"status", resp.StatusCode,
			"path", path,
			"request_id", requestID,
			"message", eb.Error,
		)
		return resp.StatusCode, &domain.FetchError{
			Kind:       domain.FetchHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    eb.Error,
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &domain.FetchError{Kind: domain.FetchNetwork, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if dest == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Error("catalog decode failed", "path", path, "request_id", requestID, "error", err)
		return resp.StatusCode, &domain.FetchError{Kind: domain.FetchDecode, Err: err}
	}
	return resp.StatusCode, nil
}

func (c *Client) typeQuery(ref domain.MediaRef) url.Values {
	q := url.Values{}
	q.Set("lang", c.lang)
	q.Set("type", string(ref.Type))
	return q
}

// Details fetches the full record for an item
func (c *Client) Details(ctx context.Context, ref domain.MediaRef) (*domain.MediaDetail, error) {
	var dto DetailDTO
	path := "/api/tmdb/details/" + strconv.FormatInt(ref.ID, 10)
	if err := c.FetchJSON(ctx, http.MethodGet, path, c.typeQuery(ref), nil, &dto); err != nil {
		return nil, err
	}

	return mapDetail(ref, dto), nil
}

// Trailer fetches the trailer for an item. A 404 or a payload without a key
// yields domain.ErrNotFound.
func (c *Client) Trailer(ctx context.Context, ref domain.MediaRef) (*domain.TrailerRef, error) {
	var dto TrailerDTO
	path := "/api/tmdb/trailer/" + strconv.FormatInt(ref.ID, 10)
	if err := c.FetchJSON(ctx, http.MethodGet, path, c.typeQuery(ref), nil, &dto); err != nil {
		if domain.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("trailer for %s: %w", ref, domain.ErrNotFound)
		}
		return nil, err
	}
	if dto.Key == "" {
		return nil, fmt.Errorf("trailer for %s: %w", ref, domain.ErrNotFound)
	}
	return &domain.TrailerRef{ProviderKey: dto.Key}, nil
}

// Search queries the catalog by title
func (c *Client) Search(ctx context.Context, query string) ([]domain.MediaSummary, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("lang", c.lang)

	var resp SearchResponse
	if err := c.FetchJSON(ctx, http.MethodGet, "/api/tmdb/search", q, nil, &resp); err != nil {
		return nil, err
	}
	return mapSummaries(resp.Results), nil
}

// SearchFiltered runs the assistant search, which narrows by type, genre
// and year on the server
func (c *Client) SearchFiltered(ctx context.Context, query string, f domain.Filter) ([]domain.MediaSummary, error) {
	body := AssistantSearchRequest{
		Query:     query,
		MediaType: "multi",
		Lang:      c.lang,
		Limit:     assistantLimit,
	}
	if f.Type != "" {
		body.MediaType = string(f.Type)
	}
	if f.Year > 0 {
		body.Year = &f.Year
	}
	if f.Genre > 0 {
		body.GenreID = &f.Genre
	}

	var resp ItemsResponse
	if err := c.FetchJSON(ctx, http.MethodPost, "/api/assistant/search", nil, body, &resp); err != nil {
		return nil, err
	}
	return mapSummaries(resp.Items), nil
}

// Rail loads one catalog collection
func (c *Client) Rail(ctx context.Context, rq domain.RailQuery) ([]domain.MediaSummary, error) {
	if rq.Rail.Typed() {
		return c.typedRail(ctx, rq)
	}

	q := url.Values{}
	if rq.Limit > 0 {
		q.Set("limit", strconv.Itoa(rq.Limit))
	}
	if rq.Type != "" {
		q.Set("type", string(rq.Type))
	}
	if rq.Kind != "" {
		q.Set("kind", rq.Kind)
	}
	if rq.Rail == domain.RailReleases || rq.Rail == domain.RailTrending {
		q.Set("lang", c.lang)
	}

	var resp ItemsResponse
	if err := c.FetchJSON(ctx, http.MethodGet, "/api/"+string(rq.Rail), q, nil, &resp); err != nil {
		return nil, err
	}
	return mapSummaries(resp.Items), nil
}

// typedRail loads the top and discover lists, which live under
// /api/movies and /api/tv and ignore limit
func (c *Client) typedRail(ctx context.Context, rq domain.RailQuery) ([]domain.MediaSummary, error) {
	q := url.Values{}
	q.Set("lang", c.lang)

	path := "/api/" + typeSegment(rq.Type)
	switch rq.Rail {
	case domain.RailTop:
		path += "/top"
		kind := rq.Kind
		if kind == "" {
			kind = domain.TopKind30
		}
		q.Set("kind", kind)
	default:
		path += "/discover"
		q.Set("page", "1")
		if rq.Genre > 0 {
			q.Set("genres", strconv.Itoa(rq.Genre))
		}
		if rq.Year > 0 {
			q.Set("year", strconv.Itoa(rq.Year))
		}
	}

	var resp ItemsResponse
	if err := c.FetchJSON(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}
	items := mapSummaries(resp.Items)
	if rq.Limit > 0 && len(items) > rq.Limit {
		items = items[:rq.Limit]
	}
	return items, nil
}

// Genres lists the genres discover accepts for typ
func (c *Client) Genres(ctx context.Context, typ domain.MediaType) ([]domain.Genre, error) {
	q := url.Values{}
	q.Set("lang", c.lang)

	var resp GenresResponse
	path := "/api/genres/" + string(domain.MediaTypeOrDefault(string(typ)))
	if err := c.FetchJSON(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}
	return mapGenres(resp.Items), nil
}

func typeSegment(t domain.MediaType) string {
	if t == domain.MediaTypeTV {
		return "tv"
	}
	return "movies"
}

// Random returns a random catalog pick
func (c *Client) Random(ctx context.Context) (*domain.MediaSummary, error) {
	var dto SummaryDTO
	if err := c.FetchJSON(ctx, http.MethodGet, "/api/random", nil, nil, &dto); err != nil {
		return nil, err
	}
	s := mapSummary(dto)
	if s.Ref.ID == 0 {
		return nil, &domain.FetchError{Kind: domain.FetchDecode, Message: "random pick has no id"}
	}
	return &s, nil
}

// AddToList adds an item to My List
func (c *Client) AddToList(ctx context.Context, entry domain.ListEntry) error {
	body := AddRequest{
		TmdbID:    entry.Ref.ID,
		MediaType: string(entry.Ref.Type),
		Title:     entry.Title,
		PosterURL: optionalString(entry.PosterURL),
	}
	return c.mutate(ctx, "/api/my_list/add", body)
}

// RemoveFromList removes an item from My List
func (c *Client) RemoveFromList(ctx context.Context, ref domain.MediaRef) error {
	body := RemoveRequest{TmdbID: ref.ID, MediaType: string(ref.Type)}
	return c.mutate(ctx, "/api/my_list/remove", body)
}

func (c *Client) mutate(ctx context.Context, path string, body any) error {
	var resp MutationResponse
	status, err := c.do(ctx, http.MethodPost, path, nil, body, &resp)
	if err != nil {
		return err
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = "update not applied"
		}
		return &domain.FetchError{Kind: domain.FetchHTTPStatus, StatusCode: status, Message: msg}
	}
	return nil
}
