package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TipoDonacion define las modalidades de donación.
type TipoDonacion string

const (
	TipoMonetaria TipoDonacion = "MONETARIA"
	TipoEspecies  TipoDonacion = "ESPECIES"
	TipoServicios TipoDonacion = "SERVICIOS"
)

// EstadoDonacion define el ciclo de vida de una donación.
type EstadoDonacion string

const (
	EstadoPendiente  EstadoDonacion = "PENDIENTE"
	EstadoConfirmada EstadoDonacion = "CONFIRMADA"
	EstadoRechazada  EstadoDonacion = "RECHAZADA"
)

var tiposValidos = map[TipoDonacion]struct{}{
	TipoMonetaria: {},
	TipoEspecies:  {},
	TipoServicios: {},
}

var estadosValidos = map[EstadoDonacion]struct{}{
	EstadoPendiente:  {},
	EstadoConfirmada: {},
	EstadoRechazada:  {},
}

// ParseTipoDonacion normaliza y valida un tipo recibido como texto.
func ParseTipoDonacion(valor string) (TipoDonacion, error) {
	tipo := TipoDonacion(strings.ToUpper(strings.TrimSpace(valor)))
	if _, ok := tiposValidos[tipo]; !ok {
		return "", NewValidation("tipo de donación desconocido: %s", valor)
	}
	return tipo, nil
}

// ParseEstadoDonacion normaliza y valida un estado recibido como texto.
func ParseEstadoDonacion(valor string) (EstadoDonacion, error) {
	estado := EstadoDonacion(strings.ToUpper(strings.TrimSpace(valor)))
	if _, ok := estadosValidos[estado]; !ok {
		return "", NewValidation("estado de donación desconocido: %s", valor)
	}
	return estado, nil
}

// Montos permitidos para donaciones monetarias.
const (
	MontoMinimo = 1.00
	MontoMaximo = 1000000.00
)

// Donacion representa un aporte registrado por un usuario.
type Donacion struct {
	ID        uuid.UUID    `json:"id"`
	UsuarioID uuid.UUID    `json:"usuario_id"`
	Tipo      TipoDonacion `json:"tipo"`

	// Monto aplica solo a donaciones monetarias.
	Monto *float64 `json:"monto,omitempty"`

	Descripcion string `json:"descripcion"`

	// DetalleEspecies aplica solo a donaciones en especies.
	DetalleEspecies *string `json:"detalle_especies,omitempty"`

	Estado            EstadoDonacion `json:"estado"`
	Comprobante       *string        `json:"comprobante,omitempty"`
	FechaDonacion     time.Time      `json:"fecha_donacion"`
	FechaConfirmacion *time.Time     `json:"fecha_confirmacion,omitempty"`

	// Notas del administrador (motivo de rechazo u observaciones).
	Notas *string `json:"notas,omitempty"`
}

// Validar verifica los invariantes de la donación antes de persistir.
func (d *Donacion) Validar() error {
	if d.UsuarioID == uuid.Nil {
		return NewValidation("el usuario es obligatorio")
	}
	if d.Tipo == "" {
		return NewValidation("el tipo de donación es obligatorio")
	}
	if _, ok := tiposValidos[d.Tipo]; !ok {
		return NewValidation("tipo de donación desconocido: %s", d.Tipo)
	}

	if d.Tipo == TipoMonetaria {
		if err := d.validarMonto(); err != nil {
			return err
		}
	}

	if d.Tipo == TipoEspecies {
		if d.DetalleEspecies == nil || strings.TrimSpace(*d.DetalleEspecies) == "" {
			return NewValidation("el detalle de especies es obligatorio")
		}
		if utf8.RuneCountInString(*d.DetalleEspecies) > 1000 {
			return NewValidation("el detalle de especies no puede exceder 1000 caracteres")
		}
	}

	if strings.TrimSpace(d.Descripcion) == "" {
		return NewValidation("la descripción es obligatoria")
	}
	if utf8.RuneCountInString(d.Descripcion) > 500 {
		return NewValidation("la descripción no puede exceder 500 caracteres")
	}
	if d.Comprobante != nil && utf8.RuneCountInString(*d.Comprobante) > 500 {
		return NewValidation("el comprobante no puede exceder 500 caracteres")
	}
	return nil
}

func (d *Donacion) validarMonto() error {
	if d.Monto == nil || *d.Monto <= 0 {
		return NewValidation("el monto debe ser mayor a 0")
	}
	if *d.Monto < MontoMinimo {
		return NewValidation("el monto mínimo es $1.00")
	}
	if *d.Monto > MontoMaximo {
		return NewValidation("el monto máximo es $1,000,000.00")
	}
	return nil
}

// Confirmar marca la donación como confirmada y estampa la fecha.
func (d *Donacion) Confirmar() error {
	if d.Estado == EstadoConfirmada {
		return NewState("la donación ya está confirmada")
	}
	if d.Estado == EstadoRechazada {
		return NewState("no se puede confirmar una donación rechazada")
	}
	d.Estado = EstadoConfirmada
	ahora := time.Now().UTC()
	d.FechaConfirmacion = &ahora
	return nil
}

// Rechazar marca la donación como rechazada y registra el motivo.
// El motivo sobreescribe las notas incluso cuando viene vacío.
func (d *Donacion) Rechazar(motivo string) error {
	if d.Estado == EstadoConfirmada {
		return NewState("no se puede rechazar una donación confirmada")
	}
	d.Estado = EstadoRechazada
	d.Notas = &motivo
	return nil
}

// EsMonetaria indica si la donación es de tipo monetario.
func (d *Donacion) EsMonetaria() bool {
	return d.Tipo == TipoMonetaria
}

// EstaConfirmada indica si la donación ya fue confirmada.
func (d *Donacion) EstaConfirmada() bool {
	return d.Estado == EstadoConfirmada
}

// EsDonacionGrande indica si un monto supera los $10,000.
func EsDonacionGrande(monto *float64) bool {
	return monto != nil && *monto > 10000.00
}

// EsDonacionReciente indica si la donación ocurrió en las últimas 24 horas.
func EsDonacionReciente(fechaDonacion time.Time) bool {
	if fechaDonacion.IsZero() {
		return false
	}
	return fechaDonacion.After(time.Now().UTC().Add(-24 * time.Hour))
}
