package domain

import (
	"errors"
	"fmt"
)

// ValidationError indica datos que violan una regla de validación.
type ValidationError struct {
	Mensaje string
}

func (e *ValidationError) Error() string { return e.Mensaje }

// StateError indica una transición inválida para el estado actual.
type StateError struct {
	Mensaje string
}

func (e *StateError) Error() string { return e.Mensaje }

// NotFoundError indica que la entidad referenciada no existe.
type NotFoundError struct {
	Mensaje string
}

func (e *NotFoundError) Error() string { return e.Mensaje }

// AuthError indica fallo de autenticación.
type AuthError struct {
	Mensaje string
}

func (e *AuthError) Error() string { return e.Mensaje }

// NewValidation construye un ValidationError con formato.
func NewValidation(format string, args ...any) error {
	return &ValidationError{Mensaje: fmt.Sprintf(format, args...)}
}

// NewState construye un StateError con formato.
func NewState(format string, args ...any) error {
	return &StateError{Mensaje: fmt.Sprintf(format, args...)}
}

// NewNotFound construye un NotFoundError con formato.
func NewNotFound(format string, args ...any) error {
	return &NotFoundError{Mensaje: fmt.Sprintf(format, args...)}
}

// NewAuth construye un AuthError con formato.
func NewAuth(format string, args ...any) error {
	return &AuthError{Mensaje: fmt.Sprintf(format, args...)}
}

// IsValidation reporta si err es un error de validación.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsState reporta si err es un error de estado inválido.
func IsState(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

// IsNotFound reporta si err es un error de entidad inexistente.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAuth reporta si err es un error de autenticación.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}
