package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/lensnews/lensnet/pkg/domain"
)

// rss feed defaults
const (
	defaultRSSLimit = 20
	defaultRSSBias  = 0.5
)

// rankHandler handles POST /api/v1/rank with a JSON request body
func (s *Server) rankHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	s.rank(w, r, req)
}

// rankQueryHandler handles GET /api/v1/rank with query parameters, for
// quick manual use and feed readers that can't POST
func (s *Server) rankQueryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := domain.RankRequest{
		Query:          q.Get("topic_or_query"),
		BeliefText:     q.Get("belief_text"),
		BiasPreference: defaultRSSBias,
	}
	if v := q.Get("bias_preference"); v != "" {
		bias, err := strconv.ParseFloat(v, 64)
		if err != nil {
			renderError(w, r, fmt.Errorf("invalid bias_preference: %w", err), http.StatusBadRequest)
			return
		}
		req.BiasPreference = bias
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			renderError(w, r, fmt.Errorf("invalid limit: %w", err), http.StatusBadRequest)
			return
		}
		req.Limit = limit
	}
	s.rank(w, r, req)
}

// rank runs the pipeline and maps pipeline errors to HTTP status codes
func (s *Server) rank(w http.ResponseWriter, r *http.Request, req domain.RankRequest) {
	resp, err := s.ranker.Rank(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			renderError(w, r, err, http.StatusBadRequest)
			return
		}
		log.Printf("[ERROR] rank request failed: %v", err)
		renderError(w, r, fmt.Errorf("ranking failed"), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, resp)
}

// sourceInfo is one entry of the sources listing
type sourceInfo struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// sourcesHandler lists the fetcher chain in priority order
func (s *Server) sourcesHandler(w http.ResponseWriter, r *http.Request) {
	fetchers := s.sources.Fetchers()
	sources := make([]sourceInfo, 0, len(fetchers))
	for _, f := range fetchers {
		sources = append(sources, sourceInfo{Name: f.Name(), Enabled: f.Enabled()})
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"sources": sources})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// rssHandler serves ranked articles for a topic as RSS 2.0. The belief is
// passed as the belief_text query parameter; bias_preference and limit are
// optional.
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")
	q := r.URL.Query()

	req := domain.RankRequest{
		Query:          topic,
		BeliefText:     q.Get("belief_text"),
		BiasPreference: defaultRSSBias,
		Limit:          defaultRSSLimit,
	}
	if v := q.Get("bias_preference"); v != "" {
		if bias, err := strconv.ParseFloat(v, 64); err == nil {
			req.BiasPreference = bias
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			req.Limit = limit
		}
	}

	resp, err := s.ranker.Rank(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			http.Error(w, "topic and belief_text are required", http.StatusBadRequest)
			return
		}
		log.Printf("[ERROR] failed to rank articles for RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	rss, err := s.feedGenerator().GenerateRSS(resp.Articles, topic)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}
