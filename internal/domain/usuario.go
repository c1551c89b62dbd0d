package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// RolUsuario define los roles del sistema.
type RolUsuario string

const (
	RolDonante       RolUsuario = "DONANTE"
	RolLiderSocial   RolUsuario = "LIDER_SOCIAL"
	RolAdministrador RolUsuario = "ADMINISTRADOR"
)

var rolesValidos = map[RolUsuario]struct{}{
	RolDonante:       {},
	RolLiderSocial:   {},
	RolAdministrador: {},
}

// ParseRol normaliza y valida un rol recibido como texto.
func ParseRol(valor string) (RolUsuario, error) {
	rol := RolUsuario(strings.ToUpper(strings.TrimSpace(valor)))
	if !rol.Valido() {
		return "", NewValidation("rol desconocido: %s", valor)
	}
	return rol, nil
}

// Valido indica si el rol pertenece al conjunto cerrado de roles.
func (r RolUsuario) Valido() bool {
	_, ok := rolesValidos[r]
	return ok
}

var emailRegexp = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

// Usuario representa a una persona registrada en la fundación.
type Usuario struct {
	ID     uuid.UUID  `json:"id"`
	Nombre string     `json:"nombre"`
	Email  string     `json:"email"`
	Rol    RolUsuario `json:"rol"`
	Activo bool       `json:"activo"`

	// Password llega en claro durante el registro y pasa a contener el
	// hash argon2id antes de persistir. Nunca se serializa.
	Password string `json:"-"`

	FechaRegistro      time.Time `json:"fecha_registro"`
	FechaActualizacion time.Time `json:"fecha_actualizacion"`
}

// Validar verifica los invariantes de campo antes de persistir.
func (u *Usuario) Validar() error {
	if strings.TrimSpace(u.Nombre) == "" {
		return NewValidation("el nombre es obligatorio")
	}
	if n := utf8.RuneCountInString(u.Nombre); n < 2 || n > 100 {
		return NewValidation("el nombre debe tener entre 2 y 100 caracteres")
	}
	if strings.TrimSpace(u.Email) == "" {
		return NewValidation("el email es obligatorio")
	}
	if !emailRegexp.MatchString(u.Email) {
		return NewValidation("el formato del email no es válido")
	}
	if utf8.RuneCountInString(u.Email) > 150 {
		return NewValidation("el email no puede exceder 150 caracteres")
	}
	if strings.TrimSpace(u.Password) == "" {
		return NewValidation("la contraseña es obligatoria")
	}
	if utf8.RuneCountInString(u.Password) < 8 {
		return NewValidation("la contraseña debe tener al menos 8 caracteres")
	}
	return nil
}

// Activar marca al usuario como activo.
func (u *Usuario) Activar() {
	u.Activo = true
}

// Desactivar marca al usuario como inactivo (borrado lógico).
func (u *Usuario) Desactivar() {
	u.Activo = false
}

// CambiarRol asigna un nuevo rol al usuario.
func (u *Usuario) CambiarRol(nuevoRol RolUsuario) error {
	if nuevoRol == "" {
		return NewValidation("el rol no puede ser nulo")
	}
	if !nuevoRol.Valido() {
		return NewValidation("rol desconocido: %s", nuevoRol)
	}
	u.Rol = nuevoRol
	return nil
}

// ActualizarPassword reemplaza la credencial (ya debe venir hasheada).
func (u *Usuario) ActualizarPassword(nuevaPassword string) error {
	if strings.TrimSpace(nuevaPassword) == "" {
		return NewValidation("la contraseña no puede estar vacía")
	}
	u.Password = nuevaPassword
	return nil
}

// EsAdministrador indica si el usuario tiene rol administrador.
func (u *Usuario) EsAdministrador() bool {
	return u.Rol == RolAdministrador
}

// EsLiderSocial indica si el usuario tiene rol líder social.
func (u *Usuario) EsLiderSocial() bool {
	return u.Rol == RolLiderSocial
}

// EsDonante indica si el usuario tiene rol donante.
func (u *Usuario) EsDonante() bool {
	return u.Rol == RolDonante
}

// MarcarFechaRegistro estampa ambas fechas al crear.
func (u *Usuario) MarcarFechaRegistro() {
	ahora := time.Now().UTC()
	u.FechaRegistro = ahora
	u.FechaActualizacion = ahora
}

// MarcarFechaActualizacion estampa la fecha de última modificación.
func (u *Usuario) MarcarFechaActualizacion() {
	u.FechaActualizacion = time.Now().UTC()
}
