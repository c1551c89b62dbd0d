package http

import (
	"encoding/json"
	"net/http"

	"github.com/barriofunde/donaciones/internal/domain"
)

// Login autentica con email y contraseña y devuelve el token de acceso.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var cred domain.Credenciales
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "cuerpo de la solicitud inválido", nil)
		return
	}

	token, err := h.authService.Autenticar(r.Context(), cred)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, token)
}
