package router

import (
	"time"

	"github.com/Azoup/zpfbi/internal/config"
	"github.com/Azoup/zpfbi/internal/handler"
	"github.com/Azoup/zpfbi/internal/middleware"
	"github.com/Azoup/zpfbi/internal/model"
	"github.com/Azoup/zpfbi/internal/repository"
	"github.com/Azoup/zpfbi/internal/service"
	"github.com/Azoup/zpfbi/internal/session"
	"github.com/Azoup/zpfbi/internal/tenant"
	"github.com/Azoup/zpfbi/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, sessoes *session.Manager, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	connector := tenant.NewFirebird()

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	clienteRepo := repository.NewClienteRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, clienteRepo, sessoes, connector, rdb, cfg)
	usuarioSvc := service.NewUsuarioService(usuarioRepo, clienteRepo, dispatcher)
	clienteSvc := service.NewClienteService(clienteRepo)
	relatorioSvc := service.NewRelatorioService(connector, rdb, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(usuarioSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	relatoriosH := handler.NewRelatoriosHandler(relatorioSvc)
	sessaoH := handler.NewSessaoHandler(connector)
	healthH := handler.NewHealthHandler(db, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", healthH.Check)

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret, sessoes)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.POST("/auth/logout", authH.Logout)

		// Session filters and connection probe — any authenticated perfil
		sessaoGrp := v1.Group("/sessao")
		{
			sessaoGrp.GET("/filtros", sessaoH.ObterFiltros)
			sessaoGrp.PUT("/filtros", sessaoH.DefinirFiltros)
			sessaoGrp.POST("/testar-conexao", sessaoH.TestarConexao)
		}

		// Reports — every perfil sees them; the empresa scope comes from the
		// session, not from the request
		rel := v1.Group("/relatorios")
		{
			rel.GET("/dashboard", relatoriosH.Dashboard)
			rel.GET("/vendas", relatoriosH.Vendas)
			rel.GET("/vendedores", relatoriosH.Vendedores)
			rel.GET("/vendedores/csv", relatoriosH.VendedoresCSV)
		}

		// Account management within the caller's empresa
		usuarios := v1.Group("/usuarios", middleware.RequirePerfil(model.PerfilSuperAdmin, model.PerfilAdminCliente))
		{
			usuarios.POST("", usuariosH.Cadastrar)
			usuarios.GET("", usuariosH.Listar)
			usuarios.DELETE("/:id", usuariosH.Desativar)
			usuarios.PATCH("/:id/reativar", usuariosH.Reativar)
		}

		// Administrative module — Super Admin only
		admin := v1.Group("/admin", middleware.RequirePerfil(model.PerfilSuperAdmin))
		{
			admin.POST("/usuarios/super-admin", usuariosH.CadastrarSuperAdmin)

			admin.POST("/clientes", clientesH.Criar)
			admin.GET("/clientes", clientesH.Listar)
			admin.GET("/clientes/:id", clientesH.Obter)
			admin.PUT("/clientes/:id", clientesH.Atualizar)
			admin.DELETE("/clientes/:id", clientesH.Excluir)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
