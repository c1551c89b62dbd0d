package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/barriofunde/donaciones/internal/domain"
	httpmiddleware "github.com/barriofunde/donaciones/internal/http/middleware"
)

type registrarDonacionRequest struct {
	Tipo            string   `json:"tipo"`
	Monto           *float64 `json:"monto"`
	Descripcion     string   `json:"descripcion"`
	DetalleEspecies *string  `json:"detalle_especies"`
	Comprobante     *string  `json:"comprobante"`
}

type revisarDonacionRequest struct {
	Notas  string `json:"notas"`
	Motivo string `json:"motivo"`
}

// RegistrarDonacion crea una donación pendiente a nombre del usuario
// autenticado.
func (h *Handler) RegistrarDonacion(w http.ResponseWriter, r *http.Request) {
	var req registrarDonacionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "cuerpo de la solicitud inválido", nil)
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if !domain.PuedeDonar(actor) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "la cuenta no puede registrar donaciones", nil)
		return
	}

	tipo, err := domain.ParseTipoDonacion(req.Tipo)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	donacion := &domain.Donacion{
		UsuarioID:       actor.ID,
		Tipo:            tipo,
		Monto:           req.Monto,
		Descripcion:     req.Descripcion,
		DetalleEspecies: req.DetalleEspecies,
		Comprobante:     req.Comprobante,
	}

	creada, err := h.donaciones.Crear(r.Context(), donacion)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, creada)
}

// MisDonaciones lista las donaciones del usuario autenticado.
func (h *Handler) MisDonaciones(w http.ResponseWriter, r *http.Request) {
	usuarioID := httpmiddleware.GetUsuarioID(r.Context())
	if usuarioID == uuid.Nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "token inválido", nil)
		return
	}

	lista, err := h.donaciones.ListarPorUsuario(r.Context(), usuarioID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, lista)
}

// ObtenerDonacion devuelve una donación. El dueño ve las suyas; ver
// ajenas requiere poder gestionarlas.
func (h *Handler) ObtenerDonacion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "identificador inválido", nil)
		return
	}

	donacion, err := h.donaciones.BuscarPorID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	if donacion.UsuarioID != httpmiddleware.GetUsuarioID(r.Context()) {
		actor, err := h.actor(r)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		if !domain.PuedeGestionarDonaciones(actor) {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes", nil)
			return
		}
	}

	WriteJSON(w, http.StatusOK, donacion)
}

// ListarDonaciones devuelve donaciones con filtros opcionales por
// estado, tipo o rango de fechas. Solo administradores.
func (h *Handler) ListarDonaciones(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		lista []domain.Donacion
		err   error
	)
	switch {
	case q.Get("usuario") != "":
		var usuarioID uuid.UUID
		usuarioID, err = uuid.Parse(q.Get("usuario"))
		if err != nil {
			err = domain.NewValidation("el filtro usuario debe ser un identificador válido")
		} else {
			lista, err = h.donaciones.ListarPorUsuario(r.Context(), usuarioID)
		}
	case q.Get("estado") != "":
		var estado domain.EstadoDonacion
		estado, err = domain.ParseEstadoDonacion(q.Get("estado"))
		if err == nil {
			lista, err = h.donaciones.ListarPorEstado(r.Context(), estado)
		}
	case q.Get("tipo") != "":
		var tipo domain.TipoDonacion
		tipo, err = domain.ParseTipoDonacion(q.Get("tipo"))
		if err == nil {
			lista, err = h.donaciones.ListarPorTipo(r.Context(), tipo)
		}
	case q.Get("desde") != "" && q.Get("hasta") != "":
		var desde, hasta time.Time
		desde, hasta, err = parseRangoFechas(q.Get("desde"), q.Get("hasta"))
		if err == nil {
			lista, err = h.donaciones.ListarPorFechas(r.Context(), desde, hasta)
		}
	default:
		lista, err = h.donaciones.ListarTodas(r.Context())
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, lista)
}

// ConfirmarDonacion aprueba una donación pendiente. Solo administradores.
func (h *Handler) ConfirmarDonacion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "identificador inválido", nil)
		return
	}

	var req revisarDonacionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDACION", "cuerpo de la solicitud inválido", nil)
			return
		}
	}

	actor, err := h.actor(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if !domain.PuedeAprobarSolicitudes(actor) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes", nil)
		return
	}

	confirmada, err := h.donaciones.Confirmar(r.Context(), id, req.Notas)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, confirmada)
}

// RechazarDonacion descarta una donación pendiente. Solo administradores.
func (h *Handler) RechazarDonacion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "identificador inválido", nil)
		return
	}

	var req revisarDonacionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDACION", "cuerpo de la solicitud inválido", nil)
			return
		}
	}

	actor, err := h.actor(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if !domain.PuedeGestionarDonaciones(actor) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes", nil)
		return
	}

	rechazada, err := h.donaciones.Rechazar(r.Context(), id, req.Motivo)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, rechazada)
}

// RankingTop devuelve las primeras posiciones del ranking de donantes.
func (h *Handler) RankingTop(w http.ResponseWriter, r *http.Request) {
	limite := 0
	if v := r.URL.Query().Get("limite"); v != "" {
		parsed, err := parseLimite(v)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		limite = parsed
	}

	ranking, err := h.ranking.TopDonantes(r.Context(), limite)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ranking)
}

// EstadisticasUsuario devuelve los agregados confirmados de un usuario.
// Cada usuario ve las propias; ver ajenas requiere ser administrador.
func (h *Handler) EstadisticasUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDACION", "identificador inválido", nil)
		return
	}

	if id != httpmiddleware.GetUsuarioID(r.Context()) {
		actor, err := h.actor(r)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		if !domain.PuedeGestionarUsuarios(actor) {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes", nil)
			return
		}
	}

	stats, err := h.ranking.Estadisticas(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

func parseRangoFechas(desde, hasta string) (time.Time, time.Time, error) {
	inicio, err := time.Parse(time.RFC3339, desde)
	if err != nil {
		inicio, err = time.Parse("2006-01-02", desde)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewValidation("fecha desde inválida")
		}
	}
	fin, err := time.Parse(time.RFC3339, hasta)
	if err != nil {
		fin, err = time.Parse("2006-01-02", hasta)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewValidation("fecha hasta inválida")
		}
		fin = fin.Add(24*time.Hour - time.Nanosecond)
	}
	if fin.Before(inicio) {
		return time.Time{}, time.Time{}, domain.NewValidation("el rango de fechas es inválido")
	}
	return inicio, fin, nil
}

func parseLimite(v string) (int, error) {
	limite, err := strconv.Atoi(v)
	if err != nil || limite <= 0 {
		return 0, domain.NewValidation("el límite debe ser un entero positivo")
	}
	if limite > 100 {
		return 0, domain.NewValidation("el límite máximo es 100")
	}
	return limite, nil
}
