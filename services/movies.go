package services

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

	"go.uber.org/zap"

	"movieflix/cache"
)

const maxCatalogBody = 4 << 20

// MovieCatalog proxies read-only TMDB endpoints so the API key stays on the
// server. Successful bodies are cached per upstream URL.
type MovieCatalog struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   cache.Cache
	ttl     time.Duration
	log     *zap.Logger
}

func NewMovieCatalog(baseURL, apiKey string, c cache.Cache, ttl time.Duration, log *zap.Logger) *MovieCatalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &MovieCatalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   c,
		ttl:     ttl,
		log:     log,
	}
}

func (m *MovieCatalog) Search(ctx context.Context, query, page string) (json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, BadRequest("query is required")
	}
	return m.fetch(ctx, "/search/movie", url.Values{"query": {query}, "page": {pageOrDefault(page)}})
}

func (m *MovieCatalog) Popular(ctx context.Context, page string) (json.RawMessage, error) {
	return m.fetch(ctx, "/movie/popular", url.Values{"page": {pageOrDefault(page)}})
}

func (m *MovieCatalog) Trending(ctx context.Context) (json.RawMessage, error) {
	return m.fetch(ctx, "/trending/movie/week", nil)
}

func (m *MovieCatalog) Movie(ctx context.Context, id string) (json.RawMessage, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return nil, BadRequest("invalid movie id")
	}
	return m.fetch(ctx, "/movie/"+strconv.FormatInt(n, 10), nil)
}

func pageOrDefault(page string) string {
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		return strconv.Itoa(n)
	}
	return "1"
}

func (m *MovieCatalog) fetch(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	if params.Get("language") == "" {
		params.Set("language", "en-US")
	}
	// Encode sorts keys, so the cache key is stable.
	key := path + "?" + params.Encode()

	if m.cache != nil {
		if body, ok, err := m.cache.Get(ctx, key); err != nil {
			m.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return body, nil
		}
	}

	params.Set("api_key", m.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, Internal("tmdb request failed", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, Upstream("tmdb request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBody))
	if err != nil {
		return nil, Upstream("tmdb request failed", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, NotFound("movie not found")
	}
	if resp.StatusCode >= 400 {
		return nil, Upstream("tmdb request failed", fmt.Errorf("tmdb status %d", resp.StatusCode))
	}
	if !json.Valid(body) {
		return nil, Upstream("tmdb request failed", fmt.Errorf("tmdb returned invalid json"))
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, key, body, m.ttl); err != nil {
			m.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return body, nil
}
