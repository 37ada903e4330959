package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/docsearch"
)

// Search limits.
const (
	MaxSearchLimit = 50
	MCPLimit       = 5
)

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
}

// SearchHit is one ranked page in a search response.
type SearchHit struct {
	ID             int64   `json:"id"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	TotalRelevance float64 `json:"total_relevance"`
	Snippet        string  `json:"snippet"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		s.Error(w, r, docsearch.Errorf(docsearch.EINVALID, "Query parameter is required"))
		return
	}

	opts := docsearch.SearchOptions{}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxSearchLimit {
			s.Error(w, r, docsearch.Errorf(docsearch.EINVALID, "limit must be between 1 and %d", MaxSearchLimit))
			return
		}
		opts.Limit = n
	}

	results, err := s.SearchService.Search(r.Context(), query, opts)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	hits := make([]SearchHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, SearchHit{
			ID:             res.ID,
			URL:            res.URL,
			Title:          res.Title,
			TotalRelevance: res.TotalRelevance,
			Snippet:        res.Snippet,
		})
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}

// MCPRequest is the body of POST /api/mcp.
type MCPRequest struct {
	Query string `json:"query"`
}

// MCPResponse is the body of POST /api/mcp.
type MCPResponse struct {
	Contexts []MCPContext   `json:"contexts"`
	Metadata map[string]any `json:"metadata"`
}

// MCPContext is one page of context handed to a model.
type MCPContext struct {
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	URL            string  `json:"url"`
	RelevanceScore float64 `json:"relevance_score"`
}

// handleMCP answers with status 200 for every well-formed request; query
// problems and storage failures are reported in the metadata.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	// An empty body is an absent query, not a malformed one.
	var req MCPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.Error(w, r, docsearch.Errorf(docsearch.EINVALID, "Invalid request body"))
		return
	}

	resp := MCPResponse{Contexts: []MCPContext{}, Metadata: map[string]any{}}

	if strings.TrimSpace(req.Query) == "" {
		resp.Metadata["message"] = "Query is required"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	results, err := s.SearchService.Search(r.Context(), req.Query, docsearch.SearchOptions{Limit: MCPLimit})
	switch {
	case docsearch.ErrorCode(err) == docsearch.EINVALID:
		resp.Metadata["message"] = docsearch.ErrorMessage(err)
		writeJSON(w, http.StatusOK, resp)
		return
	case err != nil:
		s.logger().Error("mcp search failed", "query", req.Query, "err", err)
		resp.Metadata["error"] = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	for _, res := range results {
		resp.Contexts = append(resp.Contexts, MCPContext{
			Title:          res.Title,
			Content:        res.Content,
			URL:            res.URL,
			RelevanceScore: res.TotalRelevance,
		})
	}
	resp.Metadata["source"] = s.SourceName
	resp.Metadata["timestamp"] = s.now().UTC().Format(time.RFC3339Nano)
	resp.Metadata["query"] = req.Query
	resp.Metadata["count"] = len(resp.Contexts)
	writeJSON(w, http.StatusOK, resp)
}
