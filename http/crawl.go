package http

import "net/http"

// CrawlResponse is the body of an accepted POST /api/crawl.
type CrawlResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	id, err := s.CrawlService.StartCrawl(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, CrawlResponse{Message: "Crawl started", SessionID: id})
}
