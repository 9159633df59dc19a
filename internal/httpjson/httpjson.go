package httpjson

import (
	"encoding/json"
	"net/http"
)

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type ErrorBody struct {
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, message string) {
	Write(w, status, ErrorBody{Message: message})
}

// WriteFieldErrors renvoie des erreurs de validation par champ, au format
// attendu par les formulaires (map champ -> message).
func WriteFieldErrors(w http.ResponseWriter, fields map[string]string) {
	Write(w, http.StatusBadRequest, fields)
}
