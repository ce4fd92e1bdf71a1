package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/moviedb/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "en-US"

	defaultConnectTimeout = 30 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultRateLimit      = 20 // requests per second
	defaultRateBurst      = 10
	maxBodySize           = 8 << 20
	userAgent             = "moviedb/1.0"
)

// Client implements domain.MovieFetcher for the TMDB v3 API
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	connectTimeout time.Duration
	readTimeout    time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithLanguage sets the language sent with every request
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithTimeouts overrides the connect and read (response header) timeouts
func WithTimeouts(connect, read time.Duration) Option {
	return func(c *Client) {
		if connect > 0 {
			c.connectTimeout = connect
		}
		if read > 0 {
			c.readTimeout = read
		}
	}
}

// WithRateLimit caps outgoing requests; rps <= 0 disables limiting
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient replaces the transport (tests)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new TMDB API client.
// apiKey is either a v3 API key or a v4 read access token.
func NewClient(baseURL, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		language:       DefaultLanguage,
		limiter:        rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		logger:         logger,
		connectTimeout: defaultConnectTimeout,
		readTimeout:    defaultReadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient(c.connectTimeout, c.readTimeout)
	}
	return c
}

func newHTTPClient(connect, read time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: read,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   connect + read,
	}
}

// isBearerToken reports whether the credential is a v4 read access token (a JWT)
func isBearerToken(key string) bool {
	return strings.HasPrefix(key, "eyJ")
}

// doRequest performs an authenticated GET and decodes the JSON body into dest.
// Every failure is a *domain.Failure.
func (c *Client) doRequest(ctx context.Context, op, path string, query url.Values, dest any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("language", c.language)
	if !isBearerToken(c.apiKey) {
		query.Set("api_key", c.apiKey)
	}
	reqURL := c.baseURL + path + "?" + query.Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.NetworkFailure(op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.NetworkFailure(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if isBearerToken(c.apiKey) {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("tmdb request", "op", op, "path", path, "query", redact(query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("tmdb request failed", "op", op, "error", err)
		return domain.NetworkFailure(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return domain.NetworkFailure(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		_ = json.Unmarshal(body, &apiErr)
		c.logger.Error("tmdb request error", "op", op, "status", resp.StatusCode, "message", apiErr.StatusMessage)
		return domain.HTTPFailure(op, resp.StatusCode, apiErr.StatusMessage)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		c.logger.Error("JSON parse error", "op", op, "error", err, "bodyLen", len(body))
		return domain.DecodeFailure(op, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

// redact drops the credential from logged query params
func redact(q url.Values) string {
	clean := url.Values{}
	for k, v := range q {
		if k == "api_key" {
			continue
		}
		clean[k] = v
	}
	return clean.Encode()
}

func (c *Client) getPage(ctx context.Context, op, path string, page int) (domain.Page, error) {
	if page < 1 {
		return domain.Page{}, fmt.Errorf("%s: page %d: %w", op, page, domain.ErrInvalidArgument)
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))

	var resp pageResponse
	if err := c.doRequest(ctx, op, path, query, &resp); err != nil {
		return domain.Page{}, err
	}
	if resp.Results == nil {
		return domain.Page{}, domain.DecodeFailure(op, errors.New("payload has no results array"))
	}
	if resp.Page == 0 {
		resp.Page = page
	}
	return mapPage(resp), nil
}

// GetPopular returns one page of popular movies
func (c *Client) GetPopular(ctx context.Context, page int) (domain.Page, error) {
	return c.getPage(ctx, "popular", "/movie/popular", page)
}

// GetNowPlaying returns one page of movies currently in theaters
func (c *Client) GetNowPlaying(ctx context.Context, page int) (domain.Page, error) {
	return c.getPage(ctx, "now playing", "/movie/now_playing", page)
}

// GetMovieDetail returns the full record for a movie
func (c *Client) GetMovieDetail(ctx context.Context, id int) (domain.MovieDetail, error) {
	if id <= 0 {
		return domain.MovieDetail{}, fmt.Errorf("detail: id %d: %w", id, domain.ErrInvalidArgument)
	}
	var dto movieDetailDTO
	if err := c.doRequest(ctx, "detail", fmt.Sprintf("/movie/%d", id), nil, &dto); err != nil {
		return domain.MovieDetail{}, err
	}
	if dto.ID == 0 {
		return domain.MovieDetail{}, domain.DecodeFailure("detail", errors.New("payload has no movie id"))
	}
	return mapMovieDetail(dto), nil
}

// GetVideos returns the clips attached to a movie
func (c *Client) GetVideos(ctx context.Context, id int) ([]domain.Video, error) {
	if id <= 0 {
		return nil, fmt.Errorf("videos: id %d: %w", id, domain.ErrInvalidArgument)
	}
	var resp videosResponse
	if err := c.doRequest(ctx, "videos", fmt.Sprintf("/movie/%d/videos", id), nil, &resp); err != nil {
		return nil, err
	}
	return mapVideos(resp.Results), nil
}
