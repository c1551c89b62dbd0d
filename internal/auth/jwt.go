package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/barriofunde/donaciones/internal/domain"
)

// Claims representa la información embebida en el JWT de acceso.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
	jwt.RegisteredClaims
}

// JWTManager encapsula emisión y validación de tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager crea el gestor con secreto y TTL configurados.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

// TTL expone la vigencia configurada de los tokens.
func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}

// Generate emite un JWT HS256 con los datos del usuario autenticado.
// El subject es el email. Devuelve el token firmado y su expiración.
func (m *JWTManager) Generate(usuario *domain.Usuario) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		UserID: usuario.ID.String(),
		Email:  usuario.Email,
		Nombre: usuario.Nombre,
		Rol:    string(usuario.Rol),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usuario.Email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ParseAndValidate verifica firma y expiración.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token inválido")
	}

	return claims, nil
}

// Validate indica si el token es válido y no está vencido.
func (m *JWTManager) Validate(tokenString string) bool {
	_, err := m.ParseAndValidate(tokenString)
	return err == nil
}

// ExtractEmail devuelve el email (subject) de un token válido.
func (m *JWTManager) ExtractEmail(tokenString string) (string, error) {
	claims, err := m.ParseAndValidate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractUserID devuelve el identificador de usuario de un token válido.
func (m *JWTManager) ExtractUserID(tokenString string) (uuid.UUID, error) {
	claims, err := m.ParseAndValidate(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.UserID)
}
