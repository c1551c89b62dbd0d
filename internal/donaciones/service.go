package donaciones

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/barriofunde/donaciones/internal/domain"
)

// Store es el puerto de persistencia de donaciones que consume el servicio.
type Store interface {
	Save(ctx context.Context, d *domain.Donacion) (*domain.Donacion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Donacion, error)
	List(ctx context.Context) ([]domain.Donacion, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]domain.Donacion, error)
	ListByEstado(ctx context.Context, estado domain.EstadoDonacion) ([]domain.Donacion, error)
	ListByTipo(ctx context.Context, tipo domain.TipoDonacion) ([]domain.Donacion, error)
	ListByFechas(ctx context.Context, inicio, fin time.Time) ([]domain.Donacion, error)
	TienePendiente(ctx context.Context, usuarioID uuid.UUID) (bool, error)
	TotalConfirmadoPorUsuario(ctx context.Context, usuarioID uuid.UUID) (float64, error)
}

// Invalidador descarta entradas de caché derivadas de donaciones
// confirmadas. Los fallos no interrumpen el caso de uso.
type Invalidador interface {
	Invalidar(ctx context.Context) error
}

// Service orquesta los casos de uso de registro y gestión de donaciones.
type Service struct {
	store   Store
	ranking Invalidador
}

// NewService crea una nueva instancia del servicio.
func NewService(store Store, ranking Invalidador) *Service {
	return &Service{store: store, ranking: ranking}
}

// Crear registra una nueva donación en estado pendiente. Un usuario
// no puede tener más de una donación pendiente a la vez.
func (s *Service) Crear(ctx context.Context, d *domain.Donacion) (*domain.Donacion, error) {
	log.Info().Str("usuario_id", d.UsuarioID.String()).Str("tipo", string(d.Tipo)).Msg("registrando donación")

	if err := d.Validar(); err != nil {
		return nil, err
	}

	pendiente, err := s.store.TienePendiente(ctx, d.UsuarioID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidarDonacionNoDuplicada(pendiente); err != nil {
		return nil, err
	}

	d.Estado = domain.EstadoPendiente
	if d.FechaDonacion.IsZero() {
		d.FechaDonacion = time.Now().UTC()
	}

	guardada, err := s.store.Save(ctx, d)
	if err != nil {
		return nil, err
	}

	log.Info().Str("id", guardada.ID.String()).Msg("donación registrada")
	return guardada, nil
}

// BuscarPorID devuelve la donación o NotFoundError.
func (s *Service) BuscarPorID(ctx context.Context, id uuid.UUID) (*domain.Donacion, error) {
	return s.store.GetByID(ctx, id)
}

// ListarTodas devuelve todas las donaciones.
func (s *Service) ListarTodas(ctx context.Context) ([]domain.Donacion, error) {
	return s.store.List(ctx)
}

// ListarPorUsuario devuelve las donaciones de un usuario.
func (s *Service) ListarPorUsuario(ctx context.Context, usuarioID uuid.UUID) ([]domain.Donacion, error) {
	return s.store.ListByUsuario(ctx, usuarioID)
}

// ListarPorEstado filtra por estado.
func (s *Service) ListarPorEstado(ctx context.Context, estado domain.EstadoDonacion) ([]domain.Donacion, error) {
	return s.store.ListByEstado(ctx, estado)
}

// ListarPorTipo filtra por tipo.
func (s *Service) ListarPorTipo(ctx context.Context, tipo domain.TipoDonacion) ([]domain.Donacion, error) {
	return s.store.ListByTipo(ctx, tipo)
}

// ListarPorFechas filtra por rango de fecha de donación.
func (s *Service) ListarPorFechas(ctx context.Context, inicio, fin time.Time) ([]domain.Donacion, error) {
	return s.store.ListByFechas(ctx, inicio, fin)
}

// TotalDonado devuelve el total monetario confirmado de un usuario.
func (s *Service) TotalDonado(ctx context.Context, usuarioID uuid.UUID) (float64, error) {
	return s.store.TotalConfirmadoPorUsuario(ctx, usuarioID)
}

// Confirmar aprueba una donación pendiente. Las notas son opcionales y
// solo se registran cuando vienen con contenido.
func (s *Service) Confirmar(ctx context.Context, id uuid.UUID, notas string) (*domain.Donacion, error) {
	log.Info().Str("id", id.String()).Msg("confirmando donación")

	donacion, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := donacion.Confirmar(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(notas) != "" {
		donacion.Notas = &notas
	}

	guardada, err := s.store.Save(ctx, donacion)
	if err != nil {
		return nil, err
	}

	if s.ranking != nil {
		if err := s.ranking.Invalidar(ctx); err != nil {
			log.Warn().Err(err).Msg("no se pudo invalidar el caché de ranking")
		}
	}

	return guardada, nil
}

// Rechazar descarta una donación pendiente registrando el motivo.
func (s *Service) Rechazar(ctx context.Context, id uuid.UUID, motivo string) (*domain.Donacion, error) {
	log.Info().Str("id", id.String()).Msg("rechazando donación")

	donacion, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := donacion.Rechazar(motivo); err != nil {
		return nil, err
	}

	return s.store.Save(ctx, donacion)
}
