package httpapi

import (
	"net/http"

	"github.com/senpai-bg/senpai-client/internal/app"
	"github.com/senpai-bg/senpai-client/internal/httpjson"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	member, fields, ferr := s.auth.Login(r.Context(), req.Username, req.Password)
	if len(fields) > 0 {
		httpjson.WriteFieldErrors(w, fields)
		return
	}
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, member)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterRequest
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	fields, ferr := s.member.Register(r.Context(), req)
	if len(fields) > 0 {
		httpjson.WriteFieldErrors(w, fields)
		return
	}
	if ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]string{"status": "registered"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(r.Context())
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type forgotRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code,omitempty"`
	Password string `json:"password,omitempty"`
}

func (s *Server) handleForgotRequest(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	if ferr := s.member.ForgotPasswordRequest(r.Context(), req.Email); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "code sent"})
}

func (s *Server) handleForgotVerify(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	if req.Code == "" {
		httpjson.WriteFieldErrors(w, map[string]string{"code": "полето е задължително"})
		return
	}
	if ferr := s.member.ForgotPasswordVerify(r.Context(), req.Email, req.Code); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "code verified"})
}

func (s *Server) handleForgotConfirm(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if !decodeBody(w, r, &req) || !s.checkStruct(w, req) {
		return
	}
	if len(req.Password) < 8 {
		httpjson.WriteFieldErrors(w, map[string]string{"password": "стойността е твърде къса"})
		return
	}
	if ferr := s.member.ForgotPasswordConfirm(r.Context(), req.Email, req.Password); ferr != nil {
		writeFlowError(w, ferr)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "password changed"})
}
