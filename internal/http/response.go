package http

import (
	"encoding/json"
	"net/http"

	"github.com/barriofunde/donaciones/internal/domain"
)

// SuccessEnvelope estandariza respuestas con datos.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope estandariza respuestas de error.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody describe fallas normalizadas.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON escribe un envelope de éxito.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escribe un envelope de error con formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// WriteDomainError traduce los errores del dominio a códigos HTTP.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		WriteError(w, http.StatusBadRequest, "VALIDACION", err.Error(), nil)
	case domain.IsAuth(err):
		WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
	case domain.IsNotFound(err):
		WriteError(w, http.StatusNotFound, "NO_ENCONTRADO", err.Error(), nil)
	case domain.IsState(err):
		WriteError(w, http.StatusConflict, "ESTADO", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNO", "error interno", nil)
	}
}
