package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/barriofunde/donaciones/internal/domain"
	httpmiddleware "github.com/barriofunde/donaciones/internal/http/middleware"
	"github.com/barriofunde/donaciones/internal/usuarios"
)

type registroUsuarioRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type actualizarUsuarioRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type cambiarRolRequest struct {
	Rol string `json:"rol"`
}

type cambiarEstadoRequest struct {
	Activo *bool `json:"activo"`
}

// RegistrarUsuario crea una cuenta nueva. Ruta pública: el rol siempre
// queda en DONANTE y la cuenta nace activa.
func (h *Handler) RegistrarUsuario(w http.ResponseWriter, r *http.Request) {
	var req registroUsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "cuerpo de la solicitud inválido", nil)
		return
	}

	usuario := &domain.Usuario{
		Nombre:   req.Nombre,
		Email:    req.Email,
		Password: req.Password,
	}

	creado, err := h.usuarios.Crear(r.Context(), usuario)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, creado)
}

// UsuarioActual devuelve el perfil del usuario autenticado.
func (h *Handler) UsuarioActual(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarios.BuscarPorEmail(r.Context(), httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, usuario)
}

// ObtenerUsuario devuelve un usuario por id. Cada usuario puede ver su
// propio perfil; ver otros requiere ser administrador.
func (h *Handler) ObtenerUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "identificador inválido", nil)
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	objetivo, err := h.usuarios.BuscarPorID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	if !domain.PuedeModificar(actor, objetivo) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes", nil)
		return
	}

	WriteJSON(w, http.StatusOK, objetivo)
}

// ListarUsuarios devuelve usuarios con filtros opcionales por rol,
// actividad o nombre. Solo administradores.
func (h *Handler) ListarUsuarios(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		lista []domain.Usuario
		err   error
	)
	switch {
	case q.Get("email") != "":
		var u *domain.Usuario
		u, err = h.usuarios.BuscarPorEmail(r.Context(), q.Get("email"))
		if err == nil {
			lista = []domain.Usuario{*u}
		}
	case q.Get("rol") != "":
		var rol domain.RolUsuario
		rol, err = domain.ParseRol(q.Get("rol"))
		if err == nil {
			lista, err = h.usuarios.ListarPorRol(r.Context(), rol)
		}
	case q.Get("activo") != "":
		var activo bool
		activo, err = strconv.ParseBool(q.Get("activo"))
		if err != nil {
			err = domain.NewValidation("el filtro activo debe ser true o false")
		} else if activo {
			lista, err = h.usuarios.ListarActivos(r.Context())
		} else {
			lista, err = h.usuarios.ListarPorActivo(r.Context(), false)
		}
	case q.Get("nombre") != "":
		lista, err = h.usuarios.BuscarPorNombre(r.Context(), q.Get("nombre"))
	default:
		lista, err = h.usuarios.ListarTodos(r.Context())
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, lista)
}

// ActualizarUsuario modifica perfil propio o ajeno según permisos.
func (h *Handler) ActualizarUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "identificador inválido", nil)
		return
	}

	var req actualizarUsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "cuerpo de la solicitud inválido", nil)
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	objetivo, err := h.usuarios.BuscarPorID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	if !domain.PuedeModificar(actor, objetivo) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes", nil)
		return
	}

	actualizado, err := h.usuarios.Actualizar(r.Context(), id, usuarios.ActualizacionUsuario{
		Nombre:   req.Nombre,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, actualizado)
}

// CambiarRolUsuario asigna un nuevo rol. Solo administradores.
func (h *Handler) CambiarRolUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "identificador inválido", nil)
		return
	}

	var req cambiarRolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "cuerpo de la solicitud inválido", nil)
		return
	}

	rol, err := domain.ParseRol(req.Rol)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if !domain.PuedeCambiarRol(actor, rol) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes", nil)
		return
	}

	actualizado, err := h.usuarios.CambiarRol(r.Context(), id, rol)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, actualizado)
}

// CambiarEstadoUsuario activa o desactiva una cuenta. Solo administradores.
func (h *Handler) CambiarEstadoUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "identificador inválido", nil)
		return
	}

	var req cambiarEstadoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Activo == nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "el campo activo es obligatorio", nil)
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if !domain.PuedeGestionarUsuarios(actor) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes", nil)
		return
	}

	actualizado, err := h.usuarios.CambiarEstado(r.Context(), id, *req.Activo)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, actualizado)
}

// EliminarUsuario desactiva la cuenta (borrado lógico). Solo administradores.
func (h *Handler) EliminarUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "identificador inválido", nil)
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if !domain.PuedeGestionarUsuarios(actor) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes", nil)
		return
	}

	if err := h.usuarios.Eliminar(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"resultado": "usuario desactivado"})
}

// actor carga el usuario autenticado a partir del subject del token.
func (h *Handler) actor(r *http.Request) (*domain.Usuario, error) {
	email := strings.TrimSpace(httpmiddleware.GetSubject(r.Context()))
	if email == "" {
		return nil, domain.NewAuth("token ausente")
	}
	return h.usuarios.BuscarPorEmail(r.Context(), email)
}
