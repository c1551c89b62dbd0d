package usuarios

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/barriofunde/donaciones/internal/auth"
	"github.com/barriofunde/donaciones/internal/domain"
)

// Store es el puerto de persistencia de usuarios que consume el servicio.
type Store interface {
	Save(ctx context.Context, u *domain.Usuario) (*domain.Usuario, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Usuario, error)
	GetByEmail(ctx context.Context, email string) (*domain.Usuario, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]domain.Usuario, error)
	ListByRol(ctx context.Context, rol domain.RolUsuario) ([]domain.Usuario, error)
	ListByActivo(ctx context.Context, activo bool) ([]domain.Usuario, error)
	SearchByNombre(ctx context.Context, nombre string) ([]domain.Usuario, error)
	CountByRol(ctx context.Context, rol domain.RolUsuario) (int64, error)
	CountActivosByRol(ctx context.Context, rol domain.RolUsuario) (int64, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// ActualizacionUsuario encapsula los campos editables de un usuario.
// Password vacío significa "no cambiar la contraseña".
type ActualizacionUsuario struct {
	Nombre   string
	Email    string
	Password string
}

// Service orquesta los casos de uso de gestión de usuarios.
type Service struct {
	store Store
}

// NewService crea una nueva instancia del servicio.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Crear registra un nuevo usuario. La contraseña llega en claro en
// u.Password y se persiste hasheada.
func (s *Service) Crear(ctx context.Context, u *domain.Usuario) (*domain.Usuario, error) {
	log.Info().Str("email", u.Email).Msg("creando usuario")

	if err := u.Validar(); err != nil {
		return nil, err
	}

	existe, err := s.store.ExistsByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidarEmailUnico(existe); err != nil {
		return nil, err
	}

	hash, err := auth.Hash(u.Password)
	if err != nil {
		return nil, err
	}
	u.Password = hash

	if u.Rol == "" {
		u.Rol = domain.RolDonante
	}
	u.Activo = true
	u.MarcarFechaRegistro()

	guardado, err := s.store.Save(ctx, u)
	if err != nil {
		return nil, err
	}

	log.Info().Str("id", guardado.ID.String()).Msg("usuario creado")
	return guardado, nil
}

// BuscarPorID devuelve el usuario o NotFoundError.
func (s *Service) BuscarPorID(ctx context.Context, id uuid.UUID) (*domain.Usuario, error) {
	return s.store.GetByID(ctx, id)
}

// BuscarPorEmail devuelve el usuario o NotFoundError.
func (s *Service) BuscarPorEmail(ctx context.Context, email string) (*domain.Usuario, error) {
	return s.store.GetByEmail(ctx, email)
}

// ListarTodos devuelve todos los usuarios.
func (s *Service) ListarTodos(ctx context.Context) ([]domain.Usuario, error) {
	return s.store.List(ctx)
}

// ListarPorRol filtra por rol.
func (s *Service) ListarPorRol(ctx context.Context, rol domain.RolUsuario) ([]domain.Usuario, error) {
	return s.store.ListByRol(ctx, rol)
}

// ListarActivos devuelve solo usuarios activos.
func (s *Service) ListarActivos(ctx context.Context) ([]domain.Usuario, error) {
	return s.store.ListByActivo(ctx, true)
}

// ListarPorActivo filtra por bandera de actividad.
func (s *Service) ListarPorActivo(ctx context.Context, activo bool) ([]domain.Usuario, error) {
	return s.store.ListByActivo(ctx, activo)
}

// BuscarPorNombre busca por subcadena de nombre.
func (s *Service) BuscarPorNombre(ctx context.Context, nombre string) ([]domain.Usuario, error) {
	return s.store.SearchByNombre(ctx, nombre)
}

// ContarPorRol cuenta usuarios con un rol.
func (s *Service) ContarPorRol(ctx context.Context, rol domain.RolUsuario) (int64, error) {
	return s.store.CountByRol(ctx, rol)
}

// Actualizar aplica cambios de perfil a un usuario existente.
func (s *Service) Actualizar(ctx context.Context, id uuid.UUID, cambios ActualizacionUsuario) (*domain.Usuario, error) {
	log.Info().Str("id", id.String()).Msg("actualizando usuario")

	existente, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	nuevoEmail := strings.ToLower(strings.TrimSpace(cambios.Email))
	if nuevoEmail != "" && nuevoEmail != existente.Email {
		registrado, err := s.store.ExistsByEmail(ctx, nuevoEmail)
		if err != nil {
			return nil, err
		}
		if registrado {
			return nil, domain.NewValidation("el email ya está registrado")
		}
		existente.Email = nuevoEmail
	}

	if cambios.Nombre != "" {
		existente.Nombre = cambios.Nombre
	}

	if strings.TrimSpace(cambios.Password) != "" {
		if utf8.RuneCountInString(cambios.Password) < 8 {
			return nil, domain.NewValidation("la contraseña debe tener al menos 8 caracteres")
		}
		hash, err := auth.Hash(cambios.Password)
		if err != nil {
			return nil, err
		}
		if err := existente.ActualizarPassword(hash); err != nil {
			return nil, err
		}
	}

	existente.MarcarFechaActualizacion()
	if err := existente.Validar(); err != nil {
		return nil, err
	}

	return s.store.Save(ctx, existente)
}

// CambiarRol asigna un nuevo rol al usuario.
func (s *Service) CambiarRol(ctx context.Context, id uuid.UUID, nuevoRol domain.RolUsuario) (*domain.Usuario, error) {
	log.Info().Str("id", id.String()).Str("rol", string(nuevoRol)).Msg("cambiando rol")

	usuario, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := usuario.CambiarRol(nuevoRol); err != nil {
		return nil, err
	}
	usuario.MarcarFechaActualizacion()
	return s.store.Save(ctx, usuario)
}

// CambiarEstado activa o desactiva un usuario. Desactivar al último
// administrador activo está prohibido.
func (s *Service) CambiarEstado(ctx context.Context, id uuid.UUID, activo bool) (*domain.Usuario, error) {
	log.Info().Str("id", id.String()).Bool("activo", activo).Msg("cambiando estado")

	usuario, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if usuario.EsAdministrador() {
		adminsActivos, err := s.store.CountActivosByRol(ctx, domain.RolAdministrador)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidarCambioEstado(usuario, activo, adminsActivos); err != nil {
			return nil, err
		}
	}

	if activo {
		usuario.Activar()
	} else {
		usuario.Desactivar()
	}

	usuario.MarcarFechaActualizacion()
	return s.store.Save(ctx, usuario)
}

// Eliminar es un borrado lógico: desactiva la cuenta.
func (s *Service) Eliminar(ctx context.Context, id uuid.UUID) error {
	log.Info().Str("id", id.String()).Msg("eliminando (desactivando) usuario")
	_, err := s.CambiarEstado(ctx, id, false)
	return err
}
