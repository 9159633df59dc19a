package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"

	"github.com/senpai-bg/senpai-client/internal/app"
	"github.com/senpai-bg/senpai-client/internal/buildinfo"
	"github.com/senpai-bg/senpai-client/internal/httpjson"
)

const defaultRequestTimeout = 60 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}

// writeFlowError traduit un FlowError en réponse HTTP. Les redirections
// globales (session expirée, serveur indisponible) sont déjà parties par le
// bus: ici on ne rend que le descripteur local du sous-flux.
func writeFlowError(w http.ResponseWriter, ferr *app.FlowError) {
	status := http.StatusBadGateway
	switch ferr.Code {
	case app.CodeValidation:
		status = http.StatusBadRequest
	case app.CodeLoginRequired:
		status = http.StatusUnauthorized
	case app.CodeQuota:
		status = http.StatusPaymentRequired
	case app.CodeNotReady:
		status = http.StatusConflict
	case app.CodeHTTPStatus:
		if ferr.Status >= 400 && ferr.Status < 500 {
			status = ferr.Status
		}
	}
	httpjson.Write(w, status, ferr)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "невалидно тяло на заявката")
		return false
	}
	return true
}

// checkStruct valide v et écrit les erreurs champ par champ le cas échéant.
func (s *Server) checkStruct(w http.ResponseWriter, v any) bool {
	err := s.validate.Struct(v)
	if err == nil {
		return true
	}
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fieldMessage(fe)
		}
	}
	if len(fields) == 0 {
		httpjson.WriteError(w, http.StatusBadRequest, "невалидни данни")
		return false
	}
	httpjson.WriteFieldErrors(w, fields)
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "полето е задължително"
	case "email":
		return "невалиден имейл адрес"
	case "min":
		return "стойността е твърде къса"
	case "max":
		return "стойността е твърде дълга"
	default:
		return "невалидна стойност"
	}
}

func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.auth.Current(); !ok {
			httpjson.WriteError(w, http.StatusUnauthorized, "изисква се вход")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.auth.Current()
		if !ok {
			httpjson.WriteError(w, http.StatusUnauthorized, "изисква се вход")
			return
		}
		if !user.IsAdmin() {
			httpjson.WriteError(w, http.StatusForbidden, "изисква се администраторски достъп")
			return
		}
		next.ServeHTTP(w, r)
	})
}
