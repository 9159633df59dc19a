package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/senpai-bg/senpai-client/internal/httpjson"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	page, ferr := s.catalog.Home(r.Context())
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, page)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		httpjson.WriteFieldErrors(w, map[string]string{"keyword": "полето е задължително"})
		return
	}
	page, ferr := s.catalog.Search(r.Context(), keyword, queryPage(r))
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, page)
}

func (s *Server) handleTopAiring(w http.ResponseWriter, r *http.Request) {
	page, ferr := s.catalog.TopAiring(r.Context(), queryPage(r))
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, page)
}

func (s *Server) handleAnimeDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	details, ferr := s.catalog.Anime(r.Context(), id)
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, details)
}

func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
