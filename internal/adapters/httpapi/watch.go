package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/senpai-bg/senpai-client/internal/app"
	"github.com/senpai-bg/senpai-client/internal/httpjson"
)

type watchOpenRequest struct {
	HiAnimeID     string `json:"hiAnimeId" validate:"required"`
	AnimeTitle    string `json:"animeTitle" validate:"required"`
	EpisodeNumber int    `json:"episodeNumber"`
}

// handleWatchOpen crée une visite de visionnage. Même en cas d'échec de la
// liste d'épisodes, la vue (phase terminale) est renvoyée pour que la page
// affiche l'état.
func (s *Server) handleWatchOpen(w http.ResponseWriter, r *http.Request) {
	var req watchOpenRequest
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	visit, ferr := s.watch.Open(r.Context(), req.HiAnimeID, req.AnimeTitle, req.EpisodeNumber)
	if ferr != nil && visit == nil {
		writeFlowError(w, ferr)
		return
	}
	status := http.StatusCreated
	if ferr != nil {
		status = http.StatusBadGateway
	}
	httpjson.Write(w, status, visit.View())
}

func (s *Server) visitOr404(w http.ResponseWriter, r *http.Request) (*app.WatchSession, bool) {
	visit, ok := s.watch.Get(chi.URLParam(r, "visitId"))
	if !ok {
		httpjson.WriteError(w, http.StatusNotFound, "няма такава сесия на гледане")
		return nil, false
	}
	return visit, true
}

func (s *Server) handleWatchView(w http.ResponseWriter, r *http.Request) {
	visit, ok := s.visitOr404(w, r)
	if !ok {
		return
	}
	httpjson.Write(w, http.StatusOK, visit.View())
}

func (s *Server) handleWatchClose(w http.ResponseWriter, r *http.Request) {
	if !s.watch.Close(r.Context(), chi.URLParam(r, "visitId")) {
		httpjson.WriteError(w, http.StatusNotFound, "няма такава сесия на гледане")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWatchPlay(w http.ResponseWriter, r *http.Request) {
	visit, ok := s.visitOr404(w, r)
	if !ok {
		return
	}
	if ferr := visit.Play(r.Context()); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, visit.View())
}

type switchEpisodeRequest struct {
	EpisodeNumber int `json:"episodeNumber" validate:"required,min=1"`
}

func (s *Server) handleWatchSwitch(w http.ResponseWriter, r *http.Request) {
	visit, ok := s.visitOr404(w, r)
	if !ok {
		return
	}
	var req switchEpisodeRequest
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	if ferr := visit.SwitchEpisode(r.Context(), req.EpisodeNumber); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, visit.View())
}

func (s *Server) handleWatchSubtitles(w http.ResponseWriter, r *http.Request) {
	visit, ok := s.visitOr404(w, r)
	if !ok {
		return
	}
	if ferr := visit.RequestSubtitles(r.Context()); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, visit.View())
}

func (s *Server) handleWatchFavorite(w http.ResponseWriter, r *http.Request) {
	visit, ok := s.visitOr404(w, r)
	if !ok {
		return
	}
	if ferr := visit.ToggleFavorite(r.Context()); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, visit.View().Favorite)
}

func (s *Server) handleCommentsMore(w http.ResponseWriter, r *http.Request) {
	visit, ok := s.visitOr404(w, r)
	if !ok {
		return
	}
	if ferr := visit.LoadMoreComments(r.Context()); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, visit.View().Comments)
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (s *Server) handleCommentAdd(w http.ResponseWriter, r *http.Request) {
	visit, ok := s.visitOr404(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	if ferr := visit.AddComment(r.Context(), req.Content); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusCreated, visit.View().Comments)
}

func (s *Server) handleCommentEdit(w http.ResponseWriter, r *http.Request) {
	visit, ok := s.visitOr404(w, r)
	if !ok {
		return
	}
	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "невалиден идентификатор на коментар")
		return
	}
	var req commentRequest
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	if ferr := visit.EditComment(r.Context(), commentID, req.Content); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, visit.View().Comments)
}

func (s *Server) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	visit, ok := s.visitOr404(w, r)
	if !ok {
		return
	}
	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "невалиден идентификатор на коментар")
		return
	}
	if ferr := visit.DeleteComment(r.Context(), commentID); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, visit.View().Comments)
}
