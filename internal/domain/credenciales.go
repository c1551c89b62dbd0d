package domain

import (
	"strings"
	"time"
)

// Credenciales transporta email y contraseña de un intento de login.
// No se persiste.
type Credenciales struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validar verifica que ambos campos estén presentes.
func (c *Credenciales) Validar() error {
	if strings.TrimSpace(c.Email) == "" {
		return NewValidation("el email es obligatorio")
	}
	if strings.TrimSpace(c.Password) == "" {
		return NewValidation("el password es obligatorio")
	}
	return nil
}

// AuthToken es la respuesta de una autenticación exitosa.
type AuthToken struct {
	Token    string    `json:"token"`
	Tipo     string    `json:"tipo"`
	ExpiraEn time.Time `json:"expira_en"`
	Usuario  *Usuario  `json:"usuario"`
}

// Expirado indica si el token ya venció.
func (t *AuthToken) Expirado() bool {
	return time.Now().UTC().After(t.ExpiraEn)
}
