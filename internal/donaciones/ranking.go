package donaciones

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// LimiteRankingDefault se aplica cuando el consumidor no pide un
	// tamaño explícito.
	LimiteRankingDefault = 10

	claveVersionRanking = "ranking:donantes:version"
)

// RankingDonante es una posición del ranking de donantes monetarios.
type RankingDonante struct {
	Posicion           int       `json:"posicion"`
	UsuarioID          uuid.UUID `json:"usuario_id"`
	Nombre             string    `json:"nombre"`
	Email              string    `json:"email"`
	TotalDonado        float64   `json:"total_donado"`
	CantidadDonaciones int64     `json:"cantidad_donaciones"`
	PromedioDonacion   float64   `json:"promedio_donacion"`
}

// EstadisticasDonante resume la actividad confirmada de un usuario.
type EstadisticasDonante struct {
	UsuarioID          uuid.UUID `json:"usuario_id"`
	TotalDonado        float64   `json:"total_donado"`
	CantidadDonaciones int64     `json:"cantidad_donaciones"`
	PromedioDonacion   float64   `json:"promedio_donacion"`
}

// agregadoStore expone las consultas de agregación que alimentan el ranking.
type agregadoStore interface {
	TopDonantes(ctx context.Context, limite int) ([]FilaRanking, error)
	TotalConfirmadoPorUsuario(ctx context.Context, usuarioID uuid.UUID) (float64, error)
	ContarConfirmadasPorUsuario(ctx context.Context, usuarioID uuid.UUID) (int64, error)
}

// redisCommander abstrae los comandos de redis usados por el caché.
type redisCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RankingService calcula el ranking de donantes con un caché en redis.
// El caché es un acelerador: cualquier fallo de redis degrada a la
// consulta directa en base de datos.
type RankingService struct {
	store agregadoStore
	redis redisCommander
	ttl   time.Duration
}

// NewRankingService crea el servicio de ranking con el TTL de caché dado.
func NewRankingService(store agregadoStore, rdb redisCommander, ttl time.Duration) *RankingService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RankingService{store: store, redis: rdb, ttl: ttl}
}

// TopDonantes devuelve las primeras posiciones del ranking. Solo cuentan
// donaciones monetarias confirmadas.
func (s *RankingService) TopDonantes(ctx context.Context, limite int) ([]RankingDonante, error) {
	if limite <= 0 {
		limite = LimiteRankingDefault
	}

	clave, ok := s.claveCache(ctx, limite)
	if ok {
		if cached, err := s.redis.Get(ctx, clave).Result(); err == nil {
			var ranking []RankingDonante
			if err := json.Unmarshal([]byte(cached), &ranking); err == nil {
				return ranking, nil
			}
		}
	}

	filas, err := s.store.TopDonantes(ctx, limite)
	if err != nil {
		return nil, err
	}

	ranking := make([]RankingDonante, 0, len(filas))
	for i, f := range filas {
		ranking = append(ranking, RankingDonante{
			Posicion:           i + 1,
			UsuarioID:          f.UsuarioID,
			Nombre:             f.Nombre,
			Email:              f.Email,
			TotalDonado:        f.TotalDonado,
			CantidadDonaciones: f.CantidadDonaciones,
			PromedioDonacion:   promedio(f.TotalDonado, f.CantidadDonaciones),
		})
	}

	if ok {
		if payload, err := json.Marshal(ranking); err == nil {
			if err := s.redis.Set(ctx, clave, payload, s.ttl).Err(); err != nil {
				log.Debug().Err(err).Msg("no se pudo cachear el ranking")
			}
		}
	}

	return ranking, nil
}

// Estadisticas devuelve los agregados confirmados de un usuario. Con
// cero donaciones todos los valores son 0.
func (s *RankingService) Estadisticas(ctx context.Context, usuarioID uuid.UUID) (*EstadisticasDonante, error) {
	total, err := s.store.TotalConfirmadoPorUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	cantidad, err := s.store.ContarConfirmadasPorUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}

	return &EstadisticasDonante{
		UsuarioID:          usuarioID,
		TotalDonado:        total,
		CantidadDonaciones: cantidad,
		PromedioDonacion:   promedio(total, cantidad),
	}, nil
}

// Invalidar descarta todas las entradas cacheadas del ranking. Se apoya
// en un contador de versión para no tener que enumerar claves.
func (s *RankingService) Invalidar(ctx context.Context) error {
	return s.redis.Incr(ctx, claveVersionRanking).Err()
}

// claveCache deriva la clave versionada para un límite dado. Devuelve
// ok=false cuando redis no está disponible.
func (s *RankingService) claveCache(ctx context.Context, limite int) (string, bool) {
	version, err := s.redis.Get(ctx, claveVersionRanking).Int64()
	if err != nil && err != redis.Nil {
		return "", false
	}
	return fmt.Sprintf("ranking:donantes:v%d:top:%d", version, limite), true
}

// promedio calcula total/cantidad redondeado a 2 decimales (mitad hacia
// arriba). Con cantidad cero devuelve 0.
func promedio(total float64, cantidad int64) float64 {
	if cantidad == 0 {
		return 0
	}
	return redondear2(total / float64(cantidad))
}

func redondear2(v float64) float64 {
	return math.Round(v*100) / 100
}
