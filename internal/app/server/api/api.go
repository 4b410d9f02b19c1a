//регистрация и аутентификация пользователей;
//обмен изменениями словаря между устройствами одного владельца.

//GET  /api/v1/health         # Проверка связи (публичный)
//POST /api/v1/user/register  # Регистрация (публичный)
//POST /api/v1/user/login     # Логин (публичный)
//POST /api/v1/sync           # Обмен изменениями (auth)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	healthAPI "wordsync/internal/app/server/api/http/health"
	"wordsync/internal/app/server/api/http/middleware"
	"wordsync/internal/app/server/api/http/middleware/auth"
	"wordsync/internal/app/server/api/http/middleware/logger"
	syncAPI "wordsync/internal/app/server/api/http/sync"
	userAPI "wordsync/internal/app/server/api/http/user"
	"wordsync/internal/app/server/config"
	"wordsync/internal/domain/session"
	"wordsync/internal/domain/sync"
	"wordsync/internal/domain/user"
	"wordsync/internal/infrastructure/storage/postgres"
	"wordsync/internal/utils/clock"
)

// Deps - зависимости, из которых собираются обработчики.
type Deps struct {
	Users    user.Repository
	Records  sync.Repository
	Sessions session.Servicer
	Clock    clock.Clock
}

type Handlers struct {
	Health *healthAPI.Handler
	User   *userAPI.Handler
	Sync   *syncAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(pool *pgxpool.Pool, cfg *config.Config, log *slog.Logger) *chi.Mux {
	return NewWithDeps(Deps{
		Users:    postgres.NewUserRepository(pool, log),
		Records:  postgres.NewSyncRepository(pool, log),
		Sessions: session.NewService(cfg.Auth.Secret, cfg.Auth.TokenTTL, log),
		Clock:    clock.System{},
	}, cfg, log)
}

// NewWithDeps собирает API поверх готовых хранилищ.
func NewWithDeps(deps Deps, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Wordsync API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(API, deps, cfg, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux
}

func handlers(API huma.API, deps Deps, cfg *config.Config, log *slog.Logger) *Handlers {
	authMW := auth.New(API, deps.Sessions, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, deps.Clock, middlewares.GetAllAndClear())

	userService := user.NewService(deps.Users, user.NewCredentialsPolicy(), log)
	middlewares.Add(loggerMW.Middleware())
	userHandler := userAPI.NewHandler(userService, deps.Sessions, log, middlewares.GetAllAndClear())

	syncConfig := sync.DefaultServiceConfig()
	if cfg.Sync.PageLimit > 0 {
		syncConfig.PageLimit = cfg.Sync.PageLimit
	}
	syncService := sync.NewService(deps.Records, log, syncConfig, deps.Clock)
	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(authMW.Middleware())
	syncHandler := syncAPI.NewHandler(syncService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Sync:   syncHandler,
	}
}
