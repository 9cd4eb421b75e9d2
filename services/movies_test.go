package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"movieflix/cache"
)

func newTMDB(t *testing.T, status int, body string) (*httptest.Server, *int32, chan *http.Request) {
	t.Helper()
	var hits int32
	reqs := make(chan *http.Request, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		reqs <- r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits, reqs
}

func TestMovieCatalog_PopularIsCached(t *testing.T) {
	srv, hits, reqs := newTMDB(t, http.StatusOK, `{"page":2,"results":[]}`)
	mem := cache.NewMemory(0)
	defer mem.Close()
	c := NewMovieCatalog(srv.URL+"/", "tmdb-key", mem, time.Minute, nil)

	body, err := c.Popular(context.Background(), "2")
	require.NoError(t, err)
	require.JSONEq(t, `{"page":2,"results":[]}`, string(body))

	r := <-reqs
	require.Equal(t, "/movie/popular", r.URL.Path)
	require.Equal(t, "tmdb-key", r.URL.Query().Get("api_key"))
	require.Equal(t, "en-US", r.URL.Query().Get("language"))
	require.Equal(t, "2", r.URL.Query().Get("page"))

	_, err = c.Popular(context.Background(), "2")
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(hits))

	_, err = c.Popular(context.Background(), "3")
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestMovieCatalog_SearchAndMovie(t *testing.T) {
	srv, _, reqs := newTMDB(t, http.StatusOK, `{"id":550}`)
	c := NewMovieCatalog(srv.URL, "k", nil, time.Minute, nil)

	_, err := c.Search(context.Background(), "fight club", "")
	require.NoError(t, err)
	r := <-reqs
	require.Equal(t, "/search/movie", r.URL.Path)
	require.Equal(t, "fight club", r.URL.Query().Get("query"))
	require.Equal(t, "1", r.URL.Query().Get("page"))

	_, err = c.Movie(context.Background(), "550")
	require.NoError(t, err)
	require.Equal(t, "/movie/550", (<-reqs).URL.Path)

	_, err = c.Trending(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/trending/movie/week", (<-reqs).URL.Path)
}

func TestMovieCatalog_Validation(t *testing.T) {
	c := NewMovieCatalog("http://127.0.0.1:1", "k", nil, time.Minute, nil)

	_, err := c.Movie(context.Background(), "../secrets")
	requireKind(t, err, KindBadRequest)

	_, err = c.Search(context.Background(), "  ", "1")
	requireKind(t, err, KindBadRequest)
}

func TestMovieCatalog_UpstreamErrors(t *testing.T) {
	srv, _, _ := newTMDB(t, http.StatusInternalServerError, `{"status_message":"oops"}`)
	c := NewMovieCatalog(srv.URL, "k", nil, time.Minute, nil)
	_, err := c.Trending(context.Background())
	requireKind(t, err, KindUpstream)

	missing, _, _ := newTMDB(t, http.StatusNotFound, `{"status_code":34}`)
	c = NewMovieCatalog(missing.URL, "k", nil, time.Minute, nil)
	_, err = c.Movie(context.Background(), "999999")
	requireKind(t, err, KindNotFound)

	garbage, _, _ := newTMDB(t, http.StatusOK, `<html>`)
	c = NewMovieCatalog(garbage.URL, "k", nil, time.Minute, nil)
	_, err = c.Popular(context.Background(), "1")
	requireKind(t, err, KindUpstream)

	c = NewMovieCatalog("http://127.0.0.1:1", "k", nil, time.Minute, nil)
	_, err = c.Popular(context.Background(), "1")
	requireKind(t, err, KindUpstream)
}
