package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iuiualumni/alumni-backend/api/routes"
	"github.com/iuiualumni/alumni-backend/internal/audit"
	"github.com/iuiualumni/alumni-backend/internal/auth"
	"github.com/iuiualumni/alumni-backend/internal/committees"
	"github.com/iuiualumni/alumni-backend/internal/identities"
	"github.com/iuiualumni/alumni-backend/internal/leadership"
	"github.com/iuiualumni/alumni-backend/internal/roles"
	"github.com/iuiualumni/alumni-backend/pkg/auth/session"
	"github.com/iuiualumni/alumni-backend/pkg/config"
	"github.com/iuiualumni/alumni-backend/pkg/db"
	"github.com/iuiualumni/alumni-backend/pkg/logger"
	"github.com/iuiualumni/alumni-backend/pkg/metrics"
	"github.com/iuiualumni/alumni-backend/pkg/migrate"
	"github.com/iuiualumni/alumni-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	conn := dbClient.DB()

	identityService, err := identities.NewService(identities.ServiceParams{
		DB:             dbClient,
		Reader:         identities.NewRepository(conn),
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	roleService, err := roles.NewService(roles.ServiceParams{
		DB:     dbClient,
		Reader: roles.NewRepository(conn),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create role service", err)
		os.Exit(1)
	}

	leadershipService, err := leadership.NewService(leadership.ServiceParams{
		DB:     dbClient,
		Reader: leadership.NewRepository(conn),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create leadership service", err)
		os.Exit(1)
	}

	committeeService, err := committees.NewService(committees.ServiceParams{
		DB:     dbClient,
		Reader: committees.NewRepository(conn),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create committee service", err)
		os.Exit(1)
	}

	auditService, err := audit.NewService(audit.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		DB:        dbClient,
		Session:   sessionManager,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Session:        sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:           cfg,
			Logger:           logg,
			DBPinger:         dbClient,
			RedisClient:      redisClient,
			Session:          sessionManager,
			HTTPMetrics:      httpMetrics,
			PromRegistry:     registry,
			AuthService:      authService,
			RegisterService:  registerService,
			IdentityService:  identityService,
			RoleService:      roleService,
			LeadershipSvc:    leadershipService,
			CommitteeService: committeeService,
			AuditService:     auditService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
