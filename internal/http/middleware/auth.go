package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/barriofunde/donaciones/internal/auth"
)

type contextKey string

const (
	ContextKeySubject   contextKey = "subject"
	ContextKeyUsuarioID contextKey = "usuarioID"
	ContextKeyRol       contextKey = "rol"
	ContextKeyNombre    contextKey = "nombre"
)

// Auth valida el JWT de acceso e inyecta los claims en el contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyUsuarioID, claims.UserID)
			ctx = context.WithValue(ctx, ContextKeyRol, claims.Rol)
			ctx = context.WithValue(ctx, ContextKeyNombre, claims.Nombre)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera el email autenticado del contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetUsuarioID recupera el identificador del usuario autenticado.
func GetUsuarioID(ctx context.Context) uuid.UUID {
	val, _ := ctx.Value(ContextKeyUsuarioID).(string)
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// GetRol recupera el rol del usuario autenticado.
func GetRol(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyRol).(string)
	return val
}

// GetNombre recupera el nombre del usuario autenticado.
func GetNombre(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyNombre).(string)
	return val
}

// RequireAdministrador restringe la ruta a administradores.
func RequireAdministrador(next http.Handler) http.Handler {
	return RequireRoles("ADMINISTRADOR")(next)
}

// RequireRoles exige que el usuario tenga alguno de los roles dados.
func RequireRoles(requiredRoles ...string) func(http.Handler) http.Handler {
	normalized := make([]string, 0, len(requiredRoles))
	for _, role := range requiredRoles {
		role = strings.ToUpper(strings.TrimSpace(role))
		if role != "" {
			normalized = append(normalized, role)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rol := strings.ToUpper(strings.TrimSpace(GetRol(r.Context())))
			for _, required := range normalized {
				if rol == required {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "FORBIDDEN", "permisos insuficientes")
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
