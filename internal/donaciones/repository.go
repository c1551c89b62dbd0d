package donaciones

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barriofunde/donaciones/internal/domain"
)

const donacionColumns = "id, usuario_id, tipo, monto, descripcion, detalle_especies, estado, comprobante, fecha_donacion, fecha_confirmacion, notas"

// FilaRanking es una fila del agregado de top donantes: solo donaciones
// monetarias confirmadas.
type FilaRanking struct {
	UsuarioID          uuid.UUID
	Nombre             string
	Email              string
	TotalDonado        float64
	CantidadDonaciones int64
}

// Repository provee acceso a la tabla de donaciones.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository crea una instancia del repositorio.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserta o actualiza una donación y devuelve el registro persistido.
func (r *Repository) Save(ctx context.Context, d *domain.Donacion) (*domain.Donacion, error) {
	if d.ID == uuid.Nil {
		const query = `
            INSERT INTO donaciones (usuario_id, tipo, monto, descripcion, detalle_especies, estado, comprobante, fecha_donacion, fecha_confirmacion, notas)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            RETURNING ` + donacionColumns

		row := r.pool.QueryRow(ctx, query,
			d.UsuarioID,
			string(d.Tipo),
			d.Monto,
			strings.TrimSpace(d.Descripcion),
			d.DetalleEspecies,
			string(d.Estado),
			d.Comprobante,
			d.FechaDonacion,
			d.FechaConfirmacion,
			d.Notas,
		)
		return scanDonacion(row)
	}

	const query = `
        UPDATE donaciones
        SET tipo = $2, monto = $3, descripcion = $4, detalle_especies = $5, estado = $6,
            comprobante = $7, fecha_confirmacion = $8, notas = $9
        WHERE id = $1
        RETURNING ` + donacionColumns

	row := r.pool.QueryRow(ctx, query,
		d.ID,
		string(d.Tipo),
		d.Monto,
		strings.TrimSpace(d.Descripcion),
		d.DetalleEspecies,
		string(d.Estado),
		d.Comprobante,
		d.FechaConfirmacion,
		d.Notas,
	)
	return scanDonacion(row)
}

// GetByID busca una donación por identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Donacion, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+donacionColumns+` FROM donaciones WHERE id = $1`, id)
	return scanDonacion(row)
}

// List devuelve todas las donaciones.
func (r *Repository) List(ctx context.Context) ([]domain.Donacion, error) {
	return r.queryDonaciones(ctx, `SELECT `+donacionColumns+` FROM donaciones ORDER BY fecha_donacion DESC`)
}

// ListByUsuario filtra por usuario dueño.
func (r *Repository) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]domain.Donacion, error) {
	return r.queryDonaciones(ctx,
		`SELECT `+donacionColumns+` FROM donaciones WHERE usuario_id = $1 ORDER BY fecha_donacion DESC`, usuarioID)
}

// ListByEstado filtra por estado.
func (r *Repository) ListByEstado(ctx context.Context, estado domain.EstadoDonacion) ([]domain.Donacion, error) {
	return r.queryDonaciones(ctx,
		`SELECT `+donacionColumns+` FROM donaciones WHERE estado = $1 ORDER BY fecha_donacion DESC`, string(estado))
}

// ListByTipo filtra por tipo.
func (r *Repository) ListByTipo(ctx context.Context, tipo domain.TipoDonacion) ([]domain.Donacion, error) {
	return r.queryDonaciones(ctx,
		`SELECT `+donacionColumns+` FROM donaciones WHERE tipo = $1 ORDER BY fecha_donacion DESC`, string(tipo))
}

// ListByFechas filtra por rango de fecha de donación.
func (r *Repository) ListByFechas(ctx context.Context, inicio, fin time.Time) ([]domain.Donacion, error) {
	return r.queryDonaciones(ctx,
		`SELECT `+donacionColumns+` FROM donaciones WHERE fecha_donacion BETWEEN $1 AND $2 ORDER BY fecha_donacion DESC`,
		inicio, fin)
}

// TienePendiente indica si el usuario ya registró una donación pendiente.
func (r *Repository) TienePendiente(ctx context.Context, usuarioID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM donaciones WHERE usuario_id = $1 AND estado = $2)`,
		usuarioID, string(domain.EstadoPendiente)).Scan(&exists)
	return exists, err
}

// TopDonantes devuelve hasta limite filas ordenadas por total descendente.
// El desempate entre totales iguales queda a criterio del motor.
func (r *Repository) TopDonantes(ctx context.Context, limite int) ([]FilaRanking, error) {
	const query = `
        SELECT u.id, u.nombre, u.email, SUM(d.monto)::float8, COUNT(*)
        FROM donaciones d
        JOIN usuarios u ON u.id = d.usuario_id
        WHERE d.estado = $1 AND d.tipo = $2
        GROUP BY u.id, u.nombre, u.email
        ORDER BY SUM(d.monto) DESC
        LIMIT $3
    `

	rows, err := r.pool.Query(ctx, query, string(domain.EstadoConfirmada), string(domain.TipoMonetaria), limite)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filas []FilaRanking
	for rows.Next() {
		var f FilaRanking
		if err := rows.Scan(&f.UsuarioID, &f.Nombre, &f.Email, &f.TotalDonado, &f.CantidadDonaciones); err != nil {
			return nil, err
		}
		filas = append(filas, f)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return filas, nil
}

// TotalConfirmadoPorUsuario suma los montos monetarios confirmados.
func (r *Repository) TotalConfirmadoPorUsuario(ctx context.Context, usuarioID uuid.UUID) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `
        SELECT COALESCE(SUM(monto), 0)::float8
        FROM donaciones
        WHERE usuario_id = $1 AND estado = $2 AND tipo = $3
    `, usuarioID, string(domain.EstadoConfirmada), string(domain.TipoMonetaria)).Scan(&total)
	return total, err
}

// ContarConfirmadasPorUsuario cuenta las donaciones confirmadas del usuario.
func (r *Repository) ContarConfirmadasPorUsuario(ctx context.Context, usuarioID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM donaciones WHERE usuario_id = $1 AND estado = $2`,
		usuarioID, string(domain.EstadoConfirmada)).Scan(&count)
	return count, err
}

// DeleteByID elimina físicamente una donación. Los casos de uso no lo
// emplean; existe para tareas administrativas.
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM donaciones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFound("donación no encontrada")
	}
	return nil
}

func (r *Repository) queryDonaciones(ctx context.Context, query string, args ...any) ([]domain.Donacion, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donaciones []domain.Donacion
	for rows.Next() {
		d, err := scanDonacion(rows)
		if err != nil {
			return nil, err
		}
		donaciones = append(donaciones, *d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return donaciones, nil
}

func scanDonacion(row pgx.Row) (*domain.Donacion, error) {
	var (
		d      domain.Donacion
		tipo   string
		estado string
	)
	if err := row.Scan(&d.ID, &d.UsuarioID, &tipo, &d.Monto, &d.Descripcion, &d.DetalleEspecies,
		&estado, &d.Comprobante, &d.FechaDonacion, &d.FechaConfirmacion, &d.Notas); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound("donación no encontrada")
		}
		return nil, err
	}
	d.Tipo = domain.TipoDonacion(tipo)
	d.Estado = domain.EstadoDonacion(estado)
	return &d, nil
}
