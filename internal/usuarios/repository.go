package usuarios

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barriofunde/donaciones/internal/domain"
)

const usuarioColumns = "id, nombre, email, password_hash, rol, activo, fecha_registro, fecha_actualizacion"

// Repository provee acceso a la tabla de usuarios.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository crea una instancia del repositorio.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserta o actualiza un usuario y devuelve el registro persistido.
// El identificador lo asigna la base de datos en el insert.
func (r *Repository) Save(ctx context.Context, u *domain.Usuario) (*domain.Usuario, error) {
	if u.ID == uuid.Nil {
		const query = `
            INSERT INTO usuarios (nombre, email, password_hash, rol, activo, fecha_registro, fecha_actualizacion)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING ` + usuarioColumns

		row := r.pool.QueryRow(ctx, query,
			strings.TrimSpace(u.Nombre),
			strings.ToLower(strings.TrimSpace(u.Email)),
			u.Password,
			string(u.Rol),
			u.Activo,
			u.FechaRegistro,
			u.FechaActualizacion,
		)
		return scanUsuario(row)
	}

	const query = `
        UPDATE usuarios
        SET nombre = $2, email = $3, password_hash = $4, rol = $5, activo = $6, fecha_actualizacion = $7
        WHERE id = $1
        RETURNING ` + usuarioColumns

	row := r.pool.QueryRow(ctx, query,
		u.ID,
		strings.TrimSpace(u.Nombre),
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.Password,
		string(u.Rol),
		u.Activo,
		u.FechaActualizacion,
	)
	return scanUsuario(row)
}

// GetByID busca un usuario por identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Usuario, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE id = $1`, id)
	return scanUsuario(row)
}

// GetByEmail busca un usuario por email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Usuario, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanUsuario(row)
}

// ExistsByEmail indica si algún usuario registró ese email.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM usuarios WHERE email = $1)`,
		strings.ToLower(strings.TrimSpace(email))).Scan(&exists)
	return exists, err
}

// ExistsByID indica si el usuario existe.
func (r *Repository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM usuarios WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// List devuelve todos los usuarios.
func (r *Repository) List(ctx context.Context) ([]domain.Usuario, error) {
	return r.queryUsuarios(ctx, `SELECT `+usuarioColumns+` FROM usuarios ORDER BY fecha_registro DESC`)
}

// ListByRol filtra usuarios por rol.
func (r *Repository) ListByRol(ctx context.Context, rol domain.RolUsuario) ([]domain.Usuario, error) {
	return r.queryUsuarios(ctx,
		`SELECT `+usuarioColumns+` FROM usuarios WHERE rol = $1 ORDER BY fecha_registro DESC`, string(rol))
}

// ListByActivo filtra usuarios por bandera de actividad.
func (r *Repository) ListByActivo(ctx context.Context, activo bool) ([]domain.Usuario, error) {
	return r.queryUsuarios(ctx,
		`SELECT `+usuarioColumns+` FROM usuarios WHERE activo = $1 ORDER BY fecha_registro DESC`, activo)
}

// SearchByNombre busca por subcadena de nombre sin distinguir mayúsculas.
func (r *Repository) SearchByNombre(ctx context.Context, nombre string) ([]domain.Usuario, error) {
	pattern := "%" + strings.TrimSpace(nombre) + "%"
	return r.queryUsuarios(ctx,
		`SELECT `+usuarioColumns+` FROM usuarios WHERE nombre ILIKE $1 ORDER BY nombre`, pattern)
}

// CountByRol cuenta usuarios con el rol indicado.
func (r *Repository) CountByRol(ctx context.Context, rol domain.RolUsuario) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM usuarios WHERE rol = $1`, string(rol)).Scan(&count)
	return count, err
}

// CountActivosByRol cuenta usuarios activos con el rol indicado.
func (r *Repository) CountActivosByRol(ctx context.Context, rol domain.RolUsuario) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM usuarios WHERE rol = $1 AND activo = true`, string(rol)).Scan(&count)
	return count, err
}

// DeleteByID elimina físicamente un registro. Los casos de uso no lo
// emplean (el borrado es lógico); existe para tareas administrativas.
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFound("usuario no encontrado")
	}
	return nil
}

func (r *Repository) queryUsuarios(ctx context.Context, query string, args ...any) ([]domain.Usuario, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usuarios []domain.Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		usuarios = append(usuarios, *u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return usuarios, nil
}

func scanUsuario(row pgx.Row) (*domain.Usuario, error) {
	var (
		u   domain.Usuario
		rol string
	)
	if err := row.Scan(&u.ID, &u.Nombre, &u.Email, &u.Password, &rol, &u.Activo, &u.FechaRegistro, &u.FechaActualizacion); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound("usuario no encontrado")
		}
		return nil, err
	}
	u.Rol = domain.RolUsuario(rol)
	return &u, nil
}
