package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"oneaccount/api/internal/cache"
	"oneaccount/api/internal/config"
	"oneaccount/api/internal/middleware"
	"oneaccount/api/internal/repository"
	"oneaccount/api/internal/security"
	"oneaccount/api/internal/service"
	"oneaccount/api/internal/storage"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	identity *service.IdentityService
	db       *pgxpool.Pool
	cache    *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cacheClient *redis.Client,
	store *storage.AvatarStore,
	tokens *security.TokenAuthority,
	cfg *config.AppConfig,
) HandlerSet {
	accountRepo := repository.NewAccountRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	limiter := cache.NewLoginLimiter(cacheClient, cfg.Security.MaxLoginAttempts, cfg.Security.LoginAttemptWindow)
	identity := service.NewIdentityService(accountRepo, roleRepo, store, limiter, tokens, cfg, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		identity: identity,
		db:       db,
		cache:    cacheClient,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	account := v1.Group("/account")
	account.POST("/register", h.RegisterAccount)
	account.POST("/login", h.LoginAccount)

	accountSecured := v1.Group("/account")
	accountSecured.Use(middleware.AccountAuth(h.identity))
	accountSecured.GET("", h.GetAccount)
	accountSecured.POST("/logout", h.LogoutAccount)
	accountSecured.POST("/avatar", h.UpdateAvatar)

	user := v1.Group("/user")
	user.POST("/register", h.RegisterUser)
	user.POST("/login", h.LoginUser)

	userSecured := v1.Group("/user")
	userSecured.Use(middleware.UserAuth(h.identity))
	userSecured.GET("", h.GetUser)
	userSecured.POST("/logout", h.LogoutUser)

	admin := v1.Group("/admin")
	admin.POST("/login", h.LoginAdmin)

	adminSecured := v1.Group("/admin")
	adminSecured.Use(middleware.AdminAuth(h.identity))
	adminSecured.GET("", h.GetAdmin)
	adminSecured.POST("/logout", h.LogoutAdmin)

	superAdmin := v1.Group("/super-admin")
	superAdmin.POST("/register", h.RegisterSuperAdmin)
	superAdmin.POST("/login", h.LoginSuperAdmin)

	superAdminSecured := v1.Group("/super-admin")
	superAdminSecured.Use(middleware.SuperAdminAuth(h.identity))
	superAdminSecured.GET("", h.GetSuperAdmin)
	superAdminSecured.POST("/logout", h.LogoutSuperAdmin)
	superAdminSecured.GET("/account/:accountId", h.GetAccountByID)
	superAdminSecured.POST("/add-admin", h.AddAdmin)
}
