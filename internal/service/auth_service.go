package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/barriofunde/donaciones/internal/auth"
	"github.com/barriofunde/donaciones/internal/domain"
)

// usuarioFinder es la consulta mínima que necesita la autenticación.
type usuarioFinder interface {
	GetByEmail(ctx context.Context, email string) (*domain.Usuario, error)
}

// AuthService valida credenciales y emite tokens de acceso.
type AuthService struct {
	usuarios usuarioFinder
	jwt      *auth.JWTManager
}

// NewAuthService crea el servicio de autenticación.
func NewAuthService(usuarios usuarioFinder, jwt *auth.JWTManager) *AuthService {
	return &AuthService{usuarios: usuarios, jwt: jwt}
}

// Autenticar verifica las credenciales y devuelve un token firmado.
// El mensaje de error es el mismo para email desconocido y contraseña
// incorrecta para no revelar qué cuentas existen.
func (s *AuthService) Autenticar(ctx context.Context, cred domain.Credenciales) (*domain.AuthToken, error) {
	if err := cred.Validar(); err != nil {
		return nil, err
	}

	usuario, err := s.usuarios.GetByEmail(ctx, cred.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewAuth("credenciales inválidas")
		}
		return nil, err
	}

	if !usuario.Activo {
		return nil, domain.NewState("la cuenta está desactivada")
	}

	ok, err := auth.Verify(cred.Password, usuario.Password)
	if err != nil || !ok {
		return nil, domain.NewAuth("credenciales inválidas")
	}

	token, expira, err := s.jwt.Generate(usuario)
	if err != nil {
		return nil, err
	}

	log.Info().Str("email", usuario.Email).Msg("autenticación exitosa")

	return &domain.AuthToken{
		Token:    token,
		Tipo:     "Bearer",
		ExpiraEn: expira,
		Usuario:  usuario,
	}, nil
}

// JWT expone el gestor de tokens para el middleware de autenticación.
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// ValidarToken verifica firma y vigencia de un token emitido.
func (s *AuthService) ValidarToken(token string) bool {
	return s.jwt.Validate(token)
}
