package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/barriofunde/donaciones/internal/auth"
	"github.com/barriofunde/donaciones/internal/config"
	"github.com/barriofunde/donaciones/internal/domain"
	"github.com/barriofunde/donaciones/internal/donaciones"
	"github.com/barriofunde/donaciones/internal/service"
	"github.com/barriofunde/donaciones/internal/usuarios"
)

const testSecret = "clave-de-firma-para-tests-0123456789"

type memUsuarios struct {
	porID map[uuid.UUID]*domain.Usuario
}

func newMemUsuarios() *memUsuarios {
	return &memUsuarios{porID: make(map[uuid.UUID]*domain.Usuario)}
}

func (m *memUsuarios) Save(ctx context.Context, u *domain.Usuario) (*domain.Usuario, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	clone := *u
	m.porID[u.ID] = &clone
	out := clone
	return &out, nil
}

func (m *memUsuarios) GetByID(ctx context.Context, id uuid.UUID) (*domain.Usuario, error) {
	if u, ok := m.porID[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, domain.NewNotFound("usuario no encontrado")
}

func (m *memUsuarios) GetByEmail(ctx context.Context, email string) (*domain.Usuario, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.porID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.NewNotFound("usuario no encontrado")
}

func (m *memUsuarios) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memUsuarios) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.porID[id]
	return ok, nil
}

func (m *memUsuarios) List(ctx context.Context) ([]domain.Usuario, error) {
	var out []domain.Usuario
	for _, u := range m.porID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsuarios) ListByRol(ctx context.Context, rol domain.RolUsuario) ([]domain.Usuario, error) {
	var out []domain.Usuario
	for _, u := range m.porID {
		if u.Rol == rol {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsuarios) ListByActivo(ctx context.Context, activo bool) ([]domain.Usuario, error) {
	var out []domain.Usuario
	for _, u := range m.porID {
		if u.Activo == activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsuarios) SearchByNombre(ctx context.Context, nombre string) ([]domain.Usuario, error) {
	var out []domain.Usuario
	for _, u := range m.porID {
		if strings.Contains(strings.ToLower(u.Nombre), strings.ToLower(nombre)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsuarios) CountByRol(ctx context.Context, rol domain.RolUsuario) (int64, error) {
	var count int64
	for _, u := range m.porID {
		if u.Rol == rol {
			count++
		}
	}
	return count, nil
}

func (m *memUsuarios) CountActivosByRol(ctx context.Context, rol domain.RolUsuario) (int64, error) {
	var count int64
	for _, u := range m.porID {
		if u.Rol == rol && u.Activo {
			count++
		}
	}
	return count, nil
}

func (m *memUsuarios) DeleteByID(ctx context.Context, id uuid.UUID) error {
	delete(m.porID, id)
	return nil
}

type memDonaciones struct {
	porID map[uuid.UUID]*domain.Donacion
}

func newMemDonaciones() *memDonaciones {
	return &memDonaciones{porID: make(map[uuid.UUID]*domain.Donacion)}
}

func (m *memDonaciones) Save(ctx context.Context, d *domain.Donacion) (*domain.Donacion, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	clone := *d
	m.porID[d.ID] = &clone
	out := clone
	return &out, nil
}

func (m *memDonaciones) GetByID(ctx context.Context, id uuid.UUID) (*domain.Donacion, error) {
	if d, ok := m.porID[id]; ok {
		out := *d
		return &out, nil
	}
	return nil, domain.NewNotFound("donación no encontrada")
}

func (m *memDonaciones) List(ctx context.Context) ([]domain.Donacion, error) {
	var out []domain.Donacion
	for _, d := range m.porID {
		out = append(out, *d)
	}
	return out, nil
}

func (m *memDonaciones) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]domain.Donacion, error) {
	var out []domain.Donacion
	for _, d := range m.porID {
		if d.UsuarioID == usuarioID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDonaciones) ListByEstado(ctx context.Context, estado domain.EstadoDonacion) ([]domain.Donacion, error) {
	var out []domain.Donacion
	for _, d := range m.porID {
		if d.Estado == estado {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDonaciones) ListByTipo(ctx context.Context, tipo domain.TipoDonacion) ([]domain.Donacion, error) {
	var out []domain.Donacion
	for _, d := range m.porID {
		if d.Tipo == tipo {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDonaciones) ListByFechas(ctx context.Context, inicio, fin time.Time) ([]domain.Donacion, error) {
	var out []domain.Donacion
	for _, d := range m.porID {
		if !d.FechaDonacion.Before(inicio) && !d.FechaDonacion.After(fin) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDonaciones) TienePendiente(ctx context.Context, usuarioID uuid.UUID) (bool, error) {
	for _, d := range m.porID {
		if d.UsuarioID == usuarioID && d.Estado == domain.EstadoPendiente {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDonaciones) TopDonantes(ctx context.Context, limite int) ([]donaciones.FilaRanking, error) {
	return nil, nil
}

func (m *memDonaciones) TotalConfirmadoPorUsuario(ctx context.Context, usuarioID uuid.UUID) (float64, error) {
	var total float64
	for _, d := range m.porID {
		if d.UsuarioID == usuarioID && d.Estado == domain.EstadoConfirmada && d.Tipo == domain.TipoMonetaria && d.Monto != nil {
			total += *d.Monto
		}
	}
	return total, nil
}

func (m *memDonaciones) ContarConfirmadasPorUsuario(ctx context.Context, usuarioID uuid.UUID) (int64, error) {
	var count int64
	for _, d := range m.porID {
		if d.UsuarioID == usuarioID && d.Estado == domain.EstadoConfirmada {
			count++
		}
	}
	return count, nil
}

type fixture struct {
	router     http.Handler
	usuarios   *memUsuarios
	donaciones *memDonaciones
	jwt        *auth.JWTManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:       testSecret,
		JWTAccessTTL:    time.Hour,
		RankingCacheTTL: time.Hour,
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}

	usuarioStore := newMemUsuarios()
	donacionStore := newMemDonaciones()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	usuarioService := usuarios.NewService(usuarioStore)
	authService := service.NewAuthService(usuarioStore, jwtManager)

	deadRedis := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	rankingService := donaciones.NewRankingService(donacionStore, deadRedis, cfg.RankingCacheTTL)
	donacionService := donaciones.NewService(donacionStore, rankingService)

	h := NewHandler(cfg, authService, usuarioService, donacionService, rankingService)
	return &fixture{
		router:     h.Routes(),
		usuarios:   usuarioStore,
		donaciones: donacionStore,
		jwt:        jwtManager,
	}
}

func (f *fixture) crearUsuario(t *testing.T, nombre, email string, rol domain.RolUsuario) (*domain.Usuario, string) {
	t.Helper()

	hash, err := auth.Hash("secreta123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := f.usuarios.Save(context.Background(), &domain.Usuario{
		Nombre:   nombre,
		Email:    email,
		Password: hash,
		Rol:      rol,
		Activo:   true,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	token, _, err := f.jwt.Generate(u)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return u, token
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return envelope.Data
}

func TestRegistroYLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/usuarios", "", map[string]string{
		"nombre":   "Ana Lopez",
		"email":    "ana@x.com",
		"password": "secreta123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	creado := decodeData[domain.Usuario](t, rec)
	if creado.Rol != domain.RolDonante || !creado.Activo {
		t.Fatalf("expected active DONANTE, got %+v", creado)
	}

	rec = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ana@x.com",
		"password": "secreta123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token := decodeData[domain.AuthToken](t, rec)
	if token.Tipo != "Bearer" || token.Token == "" {
		t.Fatalf("unexpected token payload: %+v", token)
	}

	rec = f.do(t, http.MethodGet, "/api/usuarios/me", token.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	perfil := decodeData[domain.Usuario](t, rec)
	if perfil.Email != "ana@x.com" {
		t.Fatalf("expected own profile, got %+v", perfil)
	}
}

func TestLoginCredencialesInvalidas(t *testing.T) {
	f := newFixture(t)
	f.crearUsuario(t, "Ana Lopez", "ana@x.com", domain.RolDonante)

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ana@x.com",
		"password": "equivocada",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestFlujoDonacion(t *testing.T) {
	f := newFixture(t)
	_, donanteToken := f.crearUsuario(t, "Ana Lopez", "ana@x.com", domain.RolDonante)
	_, adminToken := f.crearUsuario(t, "Root Admin", "root@x.com", domain.RolAdministrador)

	rec := f.do(t, http.MethodPost, "/api/donaciones/", donanteToken, map[string]any{
		"tipo":        "MONETARIA",
		"monto":       150.0,
		"descripcion": "Aporte mensual",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	creada := decodeData[domain.Donacion](t, rec)
	if creada.Estado != domain.EstadoPendiente {
		t.Fatalf("expected PENDIENTE, got %s", creada.Estado)
	}

	// Una segunda donación con una pendiente abierta se rechaza.
	rec = f.do(t, http.MethodPost, "/api/donaciones/", donanteToken, map[string]any{
		"tipo":        "MONETARIA",
		"monto":       75.0,
		"descripcion": "Otro aporte",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPatch, "/api/donaciones/"+creada.ID.String()+"/confirmar", adminToken, map[string]string{
		"notas": "verificada",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	confirmada := decodeData[domain.Donacion](t, rec)
	if confirmada.Estado != domain.EstadoConfirmada || confirmada.FechaConfirmacion == nil {
		t.Fatalf("expected confirmed donation, got %+v", confirmada)
	}

	rec = f.do(t, http.MethodPatch, "/api/donaciones/"+creada.ID.String()+"/confirmar", adminToken, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double confirm, got %d", rec.Code)
	}
}

func TestConfirmarProhibidoParaDonante(t *testing.T) {
	f := newFixture(t)
	donante, donanteToken := f.crearUsuario(t, "Ana Lopez", "ana@x.com", domain.RolDonante)

	d, err := f.donaciones.Save(context.Background(), &domain.Donacion{
		UsuarioID:     donante.ID,
		Tipo:          domain.TipoMonetaria,
		Monto:         func() *float64 { v := 50.0; return &v }(),
		Descripcion:   "Aporte",
		Estado:        domain.EstadoPendiente,
		FechaDonacion: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := f.do(t, http.MethodPatch, "/api/donaciones/"+d.ID.String()+"/confirmar", donanteToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCambiarRolSoloAdmin(t *testing.T) {
	f := newFixture(t)
	objetivo, objetivoToken := f.crearUsuario(t, "Ana Lopez", "ana@x.com", domain.RolDonante)
	_, adminToken := f.crearUsuario(t, "Root Admin", "root@x.com", domain.RolAdministrador)

	rec := f.do(t, http.MethodPatch, "/api/usuarios/"+objetivo.ID.String()+"/rol", objetivoToken, map[string]string{"rol": "LIDER_SOCIAL"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPatch, "/api/usuarios/"+objetivo.ID.String()+"/rol", adminToken, map[string]string{"rol": "LIDER_SOCIAL"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	actualizado := decodeData[domain.Usuario](t, rec)
	if actualizado.Rol != domain.RolLiderSocial {
		t.Fatalf("expected LIDER_SOCIAL, got %s", actualizado.Rol)
	}
}

func TestDesactivarUltimoAdmin(t *testing.T) {
	f := newFixture(t)
	admin, adminToken := f.crearUsuario(t, "Root Admin", "root@x.com", domain.RolAdministrador)

	rec := f.do(t, http.MethodPatch, "/api/usuarios/"+admin.ID.String()+"/estado", adminToken, map[string]any{"activo": false})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestActualizarPerfilAjenoProhibido(t *testing.T) {
	f := newFixture(t)
	_, tokenAna := f.crearUsuario(t, "Ana Lopez", "ana@x.com", domain.RolDonante)
	luis, _ := f.crearUsuario(t, "Luis Gomez", "luis@x.com", domain.RolDonante)

	rec := f.do(t, http.MethodPut, "/api/usuarios/"+luis.ID.String(), tokenAna, map[string]string{"nombre": "Hackeado"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRankingTopPublico(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/ranking/top?limite=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/ranking/top?limite=0", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid limit, got %d", rec.Code)
	}
}

func TestMisDonaciones(t *testing.T) {
	f := newFixture(t)
	donante, token := f.crearUsuario(t, "Ana Lopez", "ana@x.com", domain.RolDonante)
	otro, _ := f.crearUsuario(t, "Luis Gomez", "luis@x.com", domain.RolDonante)

	for _, usuarioID := range []uuid.UUID{donante.ID, otro.ID} {
		if _, err := f.donaciones.Save(context.Background(), &domain.Donacion{
			UsuarioID:     usuarioID,
			Tipo:          domain.TipoServicios,
			Descripcion:   "Clases de apoyo",
			Estado:        domain.EstadoConfirmada,
			FechaDonacion: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/donaciones/mis-donaciones", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	lista := decodeData[[]domain.Donacion](t, rec)
	if len(lista) != 1 {
		t.Fatalf("expected only own donations, got %d", len(lista))
	}
	if lista[0].UsuarioID != donante.ID {
		t.Fatal("expected donation owned by the authenticated user")
	}
}
