package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/senpai-bg/senpai-client/internal/app"
	"github.com/senpai-bg/senpai-client/internal/httpjson"
)

const profilePageSize = 20

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	member, ferr := s.member.Me(r.Context())
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, member)
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var upd app.ProfileUpdate
	if !decodeBody(w, r, &upd) || !s.checkStruct(w, upd) {
		return
	}
	member, fields, ferr := s.member.UpdateProfile(r.Context(), upd)
	if len(fields) > 0 {
		httpjson.WriteFieldErrors(w, fields)
		return
	}
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	// L'état global suit le profil mis à jour.
	s.auth.SetUser(r.Context(), member)
	httpjson.Write(w, http.StatusOK, member)
}

const maxPictureBytes = 5 << 20

func (s *Server) handleProfilePicture(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPictureBytes); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "невалиден файл")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "липсва файл")
		return
	}
	defer file.Close()
	if ferr := s.member.UploadProfilePicture(r.Context(), header.Filename, file); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "uploaded"})
}

func (s *Server) handleProfileFavorites(w http.ResponseWriter, r *http.Request) {
	favs, last, ferr := s.member.ListFavorites(r.Context(), queryPage(r), profilePageSize)
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"animes": favs, "last": last})
}

func (s *Server) handleProfileFavoriteDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "невалиден идентификатор")
		return
	}
	status, ferr := s.member.DeleteFavorite(r.Context(), id)
	// 404: déjà retiré ailleurs, on converge sans erreur.
	if ferr != nil && status != http.StatusNotFound {
		writeFlowError(w, ferr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfileHistory(w http.ResponseWriter, r *http.Request) {
	entries, last, ferr := s.member.ListHistory(r.Context(), queryPage(r), profilePageSize)
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"history": entries, "last": last})
}

func (s *Server) handleProfileHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "невалиден идентификатор")
		return
	}
	if ferr := s.member.DeleteHistory(r.Context(), id); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
