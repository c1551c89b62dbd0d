package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/barriofunde/donaciones/internal/config"
	"github.com/barriofunde/donaciones/internal/donaciones"
	httpmiddleware "github.com/barriofunde/donaciones/internal/http/middleware"
	"github.com/barriofunde/donaciones/internal/service"
	"github.com/barriofunde/donaciones/internal/usuarios"
)

// Handler agrupa los servicios que atienden las rutas de la API.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	authService   *service.AuthService
	usuarios      *usuarios.Service
	donaciones    *donaciones.Service
	ranking       *donaciones.RankingService
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter arma los servicios sobre el pool y devuelve el router listo.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) http.Handler {
	usuarioRepo := usuarios.NewRepository(pool)
	usuarioService := usuarios.NewService(usuarioRepo)

	donacionRepo := donaciones.NewRepository(pool)
	rankingService := donaciones.NewRankingService(donacionRepo, redisClient, cfg.RankingCacheTTL)
	donacionService := donaciones.NewService(donacionRepo, rankingService)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		authService:   authService,
		usuarios:      usuarioService,
		donaciones:    donacionService,
		ranking:       rankingService,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	return h.Routes()
}

// NewHandler permite armar el handler con servicios ya construidos.
// Lo usan los tests para inyectar almacenamiento de prueba.
func NewHandler(cfg *config.Config, authService *service.AuthService, usuarioService *usuarios.Service, donacionService *donaciones.Service, rankingService *donaciones.RankingService) *Handler {
	return &Handler{
		cfg:           cfg,
		authService:   authService,
		usuarios:      usuarioService,
		donaciones:    donacionService,
		ranking:       rankingService,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}
}

// Routes registra todas las rutas de la API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(h.cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Post("/api/auth/login", h.Login)
		public.Post("/api/usuarios", h.RegistrarUsuario)
		public.Get("/api/ranking/top", h.RankingTop)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(h.authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Route("/api/usuarios", func(u chi.Router) {
			u.Get("/me", h.UsuarioActual)
			u.Get("/{id}", h.ObtenerUsuario)
			u.Put("/{id}", h.ActualizarUsuario)

			u.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireAdministrador)
				admin.Get("/", h.ListarUsuarios)
				admin.Patch("/{id}/rol", h.CambiarRolUsuario)
				admin.Patch("/{id}/estado", h.CambiarEstadoUsuario)
				admin.Delete("/{id}", h.EliminarUsuario)
			})
		})

		private.Route("/api/donaciones", func(d chi.Router) {
			d.Post("/", h.RegistrarDonacion)
			d.Get("/mis-donaciones", h.MisDonaciones)
			d.Get("/{id}", h.ObtenerDonacion)

			d.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireAdministrador)
				admin.Get("/", h.ListarDonaciones)
				admin.Patch("/{id}/confirmar", h.ConfirmarDonacion)
				admin.Patch("/{id}/rechazar", h.RechazarDonacion)
			})
		})

		private.Get("/api/ranking/usuario/{id}", h.EstadisticasUsuario)
	})

	return r
}

// Health responde mientras el proceso esté vivo.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready verifica las dependencias antes de reportar disponibilidad.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		if err := h.pool.Ping(r.Context()); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "NO_DISPONIBLE", "base de datos no disponible", nil)
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
