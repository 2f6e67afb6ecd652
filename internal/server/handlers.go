package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/nao1215/sitesearch/internal/crawler"
	"github.com/nao1215/sitesearch/internal/model"
	"github.com/nao1215/sitesearch/internal/pipeline"
	"github.com/nao1215/sitesearch/internal/report"
	"github.com/nao1215/sitesearch/internal/search"
)

// errBadRequest marks malformed request parameters.
var errBadRequest = errors.New("bad request")

type statusResponse struct {
	Result bool   `json:"result"`
	Error  string `json:"error,omitempty"`
}

type statisticsResponse struct {
	Result     bool              `json:"result"`
	Statistics *model.Statistics `json:"statistics"`
}

type searchResponse struct {
	Result bool `json:"result"`
	*model.SearchResult
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := report.Collect(r.Context(), s.db, s.indexer.IsIndexing())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statisticsResponse{Result: true, Statistics: stats})
}

func (s *Server) handleStartIndexing(w http.ResponseWriter, r *http.Request) {
	if err := s.indexer.Start(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Result: true})
}

func (s *Server) handleStopIndexing(w http.ResponseWriter, _ *http.Request) {
	if err := s.indexer.Stop(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Result: true})
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	pageURL := r.FormValue("url")
	if pageURL == "" {
		s.writeError(w, fmt.Errorf("%w: url is required", errBadRequest))
		return
	}
	if err := s.indexer.IndexPage(r.Context(), pageURL); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Result: true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"), "offset")
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.searcher.Search(r.Context(), search.Query{
		Text:   q.Get("query"),
		Offset: offset,
		Limit:  limit,
		Site:   q.Get("site"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Result: true, SearchResult: result})
}

// intParam parses an optional non-negative integer parameter.
func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrAlreadyRunning),
		errors.Is(err, pipeline.ErrNotRunning),
		errors.Is(err, pipeline.ErrSiteIndexing):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, pipeline.ErrOutsideSites),
		errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, crawler.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, statusResponse{Result: false, Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}
