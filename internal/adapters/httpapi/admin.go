package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/senpai-bg/senpai-client/internal/app"
	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/httpjson"
)

const adminPageSize = 25

func (s *Server) handleAdminMembers(w http.ResponseWriter, r *http.Request) {
	members, last, ferr := s.member.AdminListMembers(r.Context(), queryPage(r), adminPageSize)
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"members": members, "last": last})
}

func (s *Server) handleAdminMemberFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := app.AdminMemberFilter{
		Username:     q.Get("username"),
		Email:        q.Get("email"),
		Role:         q.Get("role"),
		RegisteredOn: q.Get("registeredOn"),
	}
	if raw := q.Get("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}
	members, last, ferr := s.member.AdminFilterMembers(r.Context(), filter)
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"members": members, "last": last})
}

func (s *Server) handleAdminMemberUpdate(w http.ResponseWriter, r *http.Request) {
	var m domain.Member
	if !decodeBody(w, r, &m) {
		return
	}
	if m.ID == 0 {
		httpjson.WriteFieldErrors(w, map[string]string{"id": "полето е задължително"})
		return
	}
	if ferr := s.member.AdminUpdateMember(r.Context(), m); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleAdminComments(w http.ResponseWriter, r *http.Request) {
	comments, last, ferr := s.member.AdminListComments(r.Context(), queryPage(r), adminPageSize)
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"comments": comments, "last": last})
}

func (s *Server) handleAdminCommentFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := app.AdminCommentFilter{
		CommentID:  q.Get("commentId"),
		Content:    q.Get("content"),
		Username:   q.Get("username"),
		EpisodeID:  q.Get("episodeId"),
		AnimeTitle: q.Get("animeTitle"),
		CreatedOn:  q.Get("createdOn"),
		UpdatedOn:  q.Get("updatedOn"),
	}
	comments, last, ferr := s.member.AdminFilterComments(r.Context(), filter)
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"comments": comments, "last": last})
}

type adminCommentUpdate struct {
	CommentID int64  `json:"commentId" validate:"required"`
	Content   string `json:"content" validate:"required,max=2000"`
}

func (s *Server) handleAdminCommentUpdate(w http.ResponseWriter, r *http.Request) {
	var req adminCommentUpdate
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	if ferr := s.member.AdminUpdateComment(r.Context(), req.CommentID, req.Content); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleAdminPictureDelete(w http.ResponseWriter, r *http.Request) {
	memberID, err := strconv.ParseInt(chi.URLParam(r, "memberId"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "невалиден идентификатор")
		return
	}
	fileName := chi.URLParam(r, "fileName")
	if ferr := s.member.AdminDeleteProfilePicture(r.Context(), memberID, fileName); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
