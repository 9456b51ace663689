package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lensnews/lensnet/pkg/domain"
	"github.com/lensnews/lensnet/pkg/fetcher"
)

// stubConfig implements ConfigProvider for tests
type stubConfig struct{}

func (stubConfig) GetServerConfig() (string, time.Duration) { return "127.0.0.1:0", 5 * time.Second }
func (stubConfig) GetBaseURL() string                       { return "https://news.example.com" }

// stubRanker is a scriptable Ranker
type stubRanker struct {
	resp    domain.RankResponse
	err     error
	lastReq domain.RankRequest
}

func (s *stubRanker) Rank(_ context.Context, req domain.RankRequest) (domain.RankResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return domain.RankResponse{}, s.err
	}
	return s.resp, nil
}

// stubSources exposes a fixed fetcher list
type stubSources struct {
	fetchers []fetcher.Fetcher
}

func (s *stubSources) Fetchers() []fetcher.Fetcher { return s.fetchers }

func testServer(t *testing.T, ranker Ranker) *httptest.Server {
	t.Helper()
	fixture, err := fetcher.NewFixture("")
	require.NoError(t, err)
	srv := New(stubConfig{}, ranker, &stubSources{fetchers: []fetcher.Fetcher{
		fetcher.NewNewsAPI("https://newsapi.org/v2", "", "ua", time.Second),
		fixture,
	}}, "test", false)

	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)
	return ts
}

func rankResponse() domain.RankResponse {
	return domain.RankResponse{
		Articles: []domain.RankedArticle{
			{
				Title:            "Solar capacity doubles",
				URL:              "https://example.com/solar",
				Source:           "Example",
				PublishedAt:      "2025-06-01T10:00:00Z",
				Stance:           domain.StanceSupport,
				StanceConfidence: 0.8,
				RelevanceScore:   0.75,
				BiasMatchScore:   0.82,
				FinalScore:       0.79,
			},
		},
		Total: 1,
	}
}

func TestServer_RankPost(t *testing.T) {
	ranker := &stubRanker{resp: rankResponse()}
	ts := testServer(t, ranker)

	body := `{"topic_or_query": "solar power", "belief_text": "solar is winning", "bias_preference": 0.9, "limit": 5}`
	resp, err := http.Post(ts.URL+"/api/v1/rank", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got domain.RankResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Articles, 1)
	assert.Equal(t, "Solar capacity doubles", got.Articles[0].Title)

	assert.Equal(t, "solar power", ranker.lastReq.Query)
	assert.Equal(t, "solar is winning", ranker.lastReq.BeliefText)
	assert.InDelta(t, 0.9, ranker.lastReq.BiasPreference, 1e-9)
	assert.Equal(t, 5, ranker.lastReq.Limit)
}

func TestServer_RankPostBadBody(t *testing.T) {
	ts := testServer(t, &stubRanker{resp: rankResponse()})

	resp, err := http.Post(ts.URL+"/api/v1/rank", "application/json", strings.NewReader("{broken"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_RankInvalidInput(t *testing.T) {
	ranker := &stubRanker{err: fmt.Errorf("topic_or_query is required: %w", domain.ErrInvalidInput)}
	ts := testServer(t, ranker)

	resp, err := http.Post(ts.URL+"/api/v1/rank", "application/json", strings.NewReader(`{"topic_or_query": ""}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Contains(t, got["error"], "topic_or_query is required")
}

func TestServer_RankInternalError(t *testing.T) {
	ranker := &stubRanker{err: fmt.Errorf("something broke")}
	ts := testServer(t, ranker)

	resp, err := http.Post(ts.URL+"/api/v1/rank", "application/json", strings.NewReader(`{"topic_or_query": "x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ranking failed", got["error"], "internal detail not leaked")
}

func TestServer_RankGet(t *testing.T) {
	ranker := &stubRanker{resp: rankResponse()}
	ts := testServer(t, ranker)

	resp, err := http.Get(ts.URL + "/api/v1/rank?topic_or_query=solar&belief_text=solar+is+winning&bias_preference=0.2&limit=3")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "solar", ranker.lastReq.Query)
	assert.Equal(t, "solar is winning", ranker.lastReq.BeliefText)
	assert.InDelta(t, 0.2, ranker.lastReq.BiasPreference, 1e-9)
	assert.Equal(t, 3, ranker.lastReq.Limit)
}

func TestServer_RankGetBadParams(t *testing.T) {
	ts := testServer(t, &stubRanker{resp: rankResponse()})

	t.Run("bad bias", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/rank?topic_or_query=x&bias_preference=high")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad limit", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/rank?topic_or_query=x&limit=ten")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_Sources(t *testing.T) {
	ts := testServer(t, &stubRanker{})

	resp, err := http.Get(ts.URL + "/api/v1/sources")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Sources []struct {
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
		} `json:"sources"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Sources, 2)
	assert.Equal(t, "newsapi", got.Sources[0].Name)
	assert.False(t, got.Sources[0].Enabled, "no api key configured")
	assert.Equal(t, "fixture", got.Sources[1].Name)
	assert.True(t, got.Sources[1].Enabled)
}

func TestServer_Status(t *testing.T) {
	ts := testServer(t, &stubRanker{})

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "test", got["version"])
}

func TestServer_Ping(t *testing.T) {
	ts := testServer(t, &stubRanker{})

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RSS(t *testing.T) {
	ranker := &stubRanker{resp: rankResponse()}
	ts := testServer(t, ranker)

	resp, err := http.Get(ts.URL + "/rss/solar?belief_text=solar+is+winning&bias_preference=0.8")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/rss+xml; charset=utf-8", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<title>Lensnet - solar</title>")
	assert.Contains(t, string(body), "Solar capacity doubles")

	assert.Equal(t, "solar", ranker.lastReq.Query)
	assert.Equal(t, "solar is winning", ranker.lastReq.BeliefText)
	assert.InDelta(t, 0.8, ranker.lastReq.BiasPreference, 1e-9)
	assert.Equal(t, 20, ranker.lastReq.Limit)
}

func TestServer_RSSLimitParam(t *testing.T) {
	ranker := &stubRanker{resp: rankResponse()}
	ts := testServer(t, ranker)

	resp, err := http.Get(ts.URL + "/rss/solar?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, ranker.lastReq.Limit)
}

func TestServer_RSSRankFailure(t *testing.T) {
	ranker := &stubRanker{err: fmt.Errorf("pipeline exploded")}
	ts := testServer(t, ranker)

	resp, err := http.Get(ts.URL + "/rss/anything")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
