package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iuiualumni/alumni-backend/api/controllers"
	"github.com/iuiualumni/alumni-backend/api/middleware"
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
	"github.com/iuiualumni/alumni-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Dependencies carries everything the router needs. Nil services hit the
// unavailable path in their controllers instead of panicking at boot.
type Dependencies struct {
	Config       *config.Config
	Logger       *logger.Logger
	DBPinger     db.Pinger
	RedisClient  *redis.Client
	Session      sessionManager
	HTTPMetrics  *metrics.HTTPMetrics
	PromRegistry *prometheus.Registry

	AuthService      auth.Service
	RegisterService  auth.RegisterService
	IdentityService  identities.Service
	RoleService      roles.Service
	LeadershipSvc    leadership.Service
	CommitteeService committees.Service
	AuditService     audit.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DBPinger, deps.RedisClient, logg))
	})

	if deps.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RedisClient, logg)).Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RedisClient, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Session, logg)).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))

		r.Route("/identities", func(r chi.Router) {
			r.Get("/me", controllers.IdentityMe(deps.IdentityService, logg))
			r.Put("/me/profile", controllers.IdentityUpdateProfile(deps.IdentityService, logg))
			r.Post("/me/password", controllers.IdentityChangePassword(deps.IdentityService, logg))
			r.Get("/by-member-id/{memberID}", controllers.IdentityByMemberID(deps.IdentityService, logg))
			r.Get("/{identityID}/roles", controllers.RoleListForIdentity(deps.RoleService, logg))
			r.Get("/{identityID}/leadership", controllers.LeadershipCurrent(deps.LeadershipSvc, logg))
			r.Get("/{identityID}/leadership/history", controllers.LeadershipIdentityHistory(deps.LeadershipSvc, logg))
		})

		r.Route("/leadership", func(r chi.Router) {
			r.Get("/roster", controllers.LeadershipRoster(deps.LeadershipSvc, logg))
			r.Get("/positions", controllers.LeadershipPositions(deps.LeadershipSvc, logg))
			r.Get("/positions/{code}/history", controllers.LeadershipPositionHistory(deps.LeadershipSvc, logg))
		})

		r.Route("/committees", func(r chi.Router) {
			r.Get("/", controllers.CommitteeList(deps.CommitteeService, logg))
			r.Get("/mine", controllers.CommitteeMyMemberships(deps.CommitteeService, logg))
			r.Get("/by-slug/{slug}", controllers.CommitteeBySlug(deps.CommitteeService, logg))
			r.Get("/{committeeID}/roster", controllers.CommitteeRoster(deps.CommitteeService, logg))
			r.Post("/join", controllers.CommitteeJoin(deps.CommitteeService, logg))
			r.Post("/reactivate", controllers.CommitteeReactivate(deps.CommitteeService, logg))
			r.Post("/leave", controllers.CommitteeLeave(deps.CommitteeService, logg))
		})

		r.Get("/roles", controllers.RoleList(deps.RoleService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.RequireStaff(logg))

		r.Route("/identities", func(r chi.Router) {
			r.Get("/", controllers.IdentityList(deps.IdentityService, logg))
			r.With(middleware.RequireSuperuser(logg)).Post("/admins", controllers.IdentityCreateAdmin(deps.IdentityService, logg))
			r.Post("/{identityID}/deactivate", controllers.IdentityDeactivate(deps.IdentityService, logg))
			r.Post("/{identityID}/roles", controllers.RoleAssign(deps.RoleService, logg))
			r.Delete("/{identityID}/roles/{roleID}", controllers.RoleRemove(deps.RoleService, logg))
		})

		r.Route("/roles", func(r chi.Router) {
			r.Post("/", controllers.RoleCreate(deps.RoleService, logg))
			r.Post("/{roleID}/default", controllers.RoleSetDefault(deps.RoleService, logg))
		})

		r.Route("/leadership", func(r chi.Router) {
			r.Post("/promote", controllers.LeadershipPromote(deps.LeadershipSvc, logg))
			r.Post("/demote", controllers.LeadershipDemote(deps.LeadershipSvc, logg))
		})

		r.Post("/committees", controllers.CommitteeCreate(deps.CommitteeService, logg))

		r.Get("/audit", controllers.AuditList(deps.AuditService, logg))
	})

	return r
}
