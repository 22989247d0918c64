package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nikhilbhutani/staffdesk/internal/api/handlers"
	"github.com/nikhilbhutani/staffdesk/internal/api/middleware"
	"github.com/nikhilbhutani/staffdesk/internal/attachment"
	"github.com/nikhilbhutani/staffdesk/internal/audit"
	"github.com/nikhilbhutani/staffdesk/internal/auth"
	"github.com/nikhilbhutani/staffdesk/internal/cache"
	"github.com/nikhilbhutani/staffdesk/internal/commission"
	"github.com/nikhilbhutani/staffdesk/internal/config"
	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/point"
	"github.com/nikhilbhutani/staffdesk/internal/product"
	"github.com/nikhilbhutani/staffdesk/internal/punishment"
	"github.com/nikhilbhutani/staffdesk/internal/queue"
	"github.com/nikhilbhutani/staffdesk/internal/role"
	"github.com/nikhilbhutani/staffdesk/internal/salary"
	"github.com/nikhilbhutani/staffdesk/internal/shape"
	"github.com/nikhilbhutani/staffdesk/internal/storage"
	"github.com/nikhilbhutani/staffdesk/internal/target"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
	"github.com/nikhilbhutani/staffdesk/internal/user"
	"github.com/nikhilbhutani/staffdesk/internal/vacation"
	"github.com/nikhilbhutani/staffdesk/internal/webhook"
)

type Router struct {
	mux     *chi.Mux
	db      database.DBTX
	cache   *cache.Cache
	queue   *queue.Client
	cfg     *config.Config
	checks  map[string]handlers.Pinger
	ts      *tenant.Service
	jwt     *auth.JWTMiddleware
	limiter *middleware.RateLimiter
}

// NewRouter wires every service over db. The cache and queue are optional.
func NewRouter(db database.DBTX, c *cache.Cache, q *queue.Client, cfg *config.Config, checks map[string]handlers.Pinger) *Router {
	ts := tenant.NewService(db, c, cfg.Auth.SessionTTL)
	return &Router{
		mux:     chi.NewRouter(),
		db:      db,
		cache:   c,
		queue:   q,
		cfg:     cfg,
		checks:  checks,
		ts:      ts,
		jwt:     auth.NewJWTMiddleware(cfg.Auth.JWTSecret, ts),
		limiter: middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}
}

// Limiter exposes the rate limiter so the caller can run its sweeper.
func (rt *Router) Limiter() *middleware.RateLimiter { return rt.limiter }

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))
	r.Use(middleware.Language)
	r.Use(rt.limiter.Limit)

	health := handlers.NewHealthHandler(rt.checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	var (
		remover  attachment.Remover
		enqueuer webhook.Enqueuer
		perms    role.Cache
	)
	if rt.queue != nil {
		remover, enqueuer = rt.queue, rt.queue
	}
	if rt.cache != nil {
		perms = rt.cache
	}

	shaper := shape.New(rt.cfg.API.PublicURL)
	maxUpload := int64(rt.cfg.API.MaxUploadMB) << 20
	limit := rt.cfg.API.DefaultLimit

	store := storage.NewSupabaseStorage(rt.cfg.Storage.SupabaseURL, rt.cfg.Storage.SupabaseKey, rt.cfg.Storage.Bucket)
	files := attachment.NewService(store, remover, maxUpload)
	auditSvc := audit.NewService(rt.db)
	webhookSvc := webhook.NewService(rt.db, enqueuer)

	userH := handlers.NewUserHandler(user.NewService(rt.db, files, rt.ts, shaper), limit, maxUpload)
	roleH := handlers.NewRoleHandler(role.NewService(rt.db, perms, rt.ts), limit)
	vacationH := handlers.NewVacationHandler(vacation.NewService(rt.db, webhookSvc, shaper), limit)
	commissionH := handlers.NewCommissionHandler(commission.NewService(rt.db, webhookSvc, shaper), limit)
	punishmentH := handlers.NewPunishmentHandler(punishment.NewService(rt.db, webhookSvc, shaper), limit)
	pointH := handlers.NewPointHandler(point.NewService(rt.db, webhookSvc, shaper), limit)
	productH := handlers.NewProductHandler(product.NewService(rt.db, files, shaper), limit, maxUpload)
	targetH := handlers.NewTargetHandler(target.NewService(rt.db, shaper), limit)
	salaryH := handlers.NewSalaryHandler(salary.NewService(rt.db, shaper), limit)
	auditH := handlers.NewAuditHandler(auditSvc, limit)
	webhookH := handlers.NewWebhookHandler(webhookSvc)
	attachmentH := handlers.NewAttachmentHandler(files)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/attachments", attachmentH.Serve)

		r.Group(func(r chi.Router) {
			r.Use(rt.jwt.Authenticate)
			r.Use(auditSvc.Middleware)

			r.Route("/users", func(r chi.Router) {
				r.With(auth.RequirePermission(auth.PermUsersRead)).Get("/", userH.List)
				r.With(auth.RequirePermission(auth.PermUsersWrite)).Post("/", userH.Create)
				r.With(auth.RequirePermission(auth.PermUsersRead)).Get("/{id}", userH.Get)
				r.With(auth.RequirePermission(auth.PermUsersWrite)).Put("/{id}", userH.Update)
				r.With(auth.RequirePermission(auth.PermUsersDelete)).Delete("/{id}", userH.Delete)
			})

			r.With(auth.RequirePermission(auth.PermRolesRead)).Get("/permissions", roleH.Permissions)
			r.Route("/roles", func(r chi.Router) {
				r.With(auth.RequirePermission(auth.PermRolesRead)).Get("/", roleH.List)
				r.With(auth.RequirePermission(auth.PermRolesWrite)).Post("/", roleH.Create)
				r.With(auth.RequirePermission(auth.PermRolesRead)).Get("/{id}", roleH.Get)
				r.With(auth.RequirePermission(auth.PermRolesWrite)).Put("/{id}", roleH.Update)
				r.With(auth.RequirePermission(auth.PermRolesDelete)).Delete("/{id}", roleH.Delete)
				r.With(auth.RequirePermission(auth.PermRolesRead)).Get("/{id}/permissions", roleH.RolePermissions)
				r.With(auth.RequirePermission(auth.PermRolesWrite)).Put("/{id}/permissions", roleH.ReplacePermissions)
			})

			r.Route("/vacations", func(r chi.Router) {
				read := r.With(auth.RequirePermission(auth.PermVacationsRead))
				write := r.With(auth.RequirePermission(auth.PermVacationsWrite))
				del := r.With(auth.RequirePermission(auth.PermVacationsDelete))

				read.Get("/requests", vacationH.ListRequests)
				write.Post("/requests", vacationH.Submit)
				read.Get("/requests/{id}", vacationH.GetRequest)
				write.Put("/requests/{id}/status", vacationH.UpdateStatus)
				del.Delete("/requests/{id}", vacationH.DeleteRequest)

				read.Get("/", vacationH.List)
				write.Post("/", vacationH.Create)
				read.Get("/{id}", vacationH.Get)
				read.Get("/{id}/balance", vacationH.Balance)
				write.Put("/{id}", vacationH.Update)
				del.Delete("/{id}", vacationH.Delete)
			})

			r.Route("/commissions", func(r chi.Router) {
				read := r.With(auth.RequirePermission(auth.PermCommissionsRead))
				write := r.With(auth.RequirePermission(auth.PermCommissionsWrite))
				del := r.With(auth.RequirePermission(auth.PermCommissionsDelete))

				read.Get("/requests", commissionH.ListRequests)
				write.Post("/requests", commissionH.Submit)
				read.Get("/requests/{id}", commissionH.GetRequest)
				write.Put("/requests/{id}/status", commissionH.UpdateStatus)
				write.Post("/requests/{id}/withdraw", commissionH.Withdraw)
				del.Delete("/requests/{id}", commissionH.DeleteRequest)

				read.Get("/", commissionH.List)
				write.Post("/", commissionH.Create)
				read.Get("/{id}", commissionH.Get)
				write.Put("/{id}", commissionH.Update)
				del.Delete("/{id}", commissionH.Delete)
			})

			r.Route("/punishments", func(r chi.Router) {
				read := r.With(auth.RequirePermission(auth.PermPunishmentsRead))
				write := r.With(auth.RequirePermission(auth.PermPunishmentsWrite))
				del := r.With(auth.RequirePermission(auth.PermPunishmentsDelete))

				read.Get("/requests", punishmentH.ListRequests)
				write.Post("/requests", punishmentH.Submit)
				read.Get("/requests/{id}", punishmentH.GetRequest)
				write.Put("/requests/{id}/status", punishmentH.UpdateStatus)
				del.Delete("/requests/{id}", punishmentH.DeleteRequest)

				read.Get("/", punishmentH.List)
				write.Post("/", punishmentH.Create)
				read.Get("/{id}", punishmentH.Get)
				write.Put("/{id}", punishmentH.Update)
				del.Delete("/{id}", punishmentH.Delete)
			})

			r.Route("/points", func(r chi.Router) {
				read := r.With(auth.RequirePermission(auth.PermPointsRead))
				write := r.With(auth.RequirePermission(auth.PermPointsWrite))
				del := r.With(auth.RequirePermission(auth.PermPointsDelete))

				read.Get("/requests", pointH.ListRequests)
				write.Post("/requests", pointH.Earn)
				write.Post("/requests/withdraw", pointH.Withdraw)
				read.Get("/requests/balance", pointH.Balance)
				read.Get("/requests/{id}", pointH.GetRequest)
				write.Put("/requests/{id}/status", pointH.UpdateStatus)
				del.Delete("/requests/{id}", pointH.DeleteRequest)

				read.Get("/", pointH.List)
				write.Post("/", pointH.Create)
				read.Get("/{id}", pointH.Get)
				write.Put("/{id}", pointH.Update)
				del.Delete("/{id}", pointH.Delete)
			})

			r.Route("/products", func(r chi.Router) {
				r.With(auth.RequirePermission(auth.PermProductsRead)).Get("/", productH.List)
				r.With(auth.RequirePermission(auth.PermProductsWrite)).Post("/", productH.Create)
				r.With(auth.RequirePermission(auth.PermProductsRead)).Get("/{id}", productH.Get)
				r.With(auth.RequirePermission(auth.PermProductsWrite)).Put("/{id}", productH.Update)
				r.With(auth.RequirePermission(auth.PermProductsDelete)).Delete("/{id}", productH.Delete)
			})

			r.Route("/targets", func(r chi.Router) {
				r.With(auth.RequirePermission(auth.PermTargetsRead)).Get("/", targetH.List)
				r.With(auth.RequirePermission(auth.PermTargetsWrite)).Post("/", targetH.Create)
				r.With(auth.RequirePermission(auth.PermTargetsRead)).Get("/{id}", targetH.Get)
				r.With(auth.RequirePermission(auth.PermTargetsWrite)).Put("/{id}", targetH.Update)
				r.With(auth.RequirePermission(auth.PermTargetsDelete)).Delete("/{id}", targetH.Delete)
			})

			r.Route("/salaries", func(r chi.Router) {
				r.With(auth.RequirePermission(auth.PermSalariesRead)).Get("/", salaryH.List)
				r.With(auth.RequirePermission(auth.PermSalariesRead)).Get("/export", salaryH.Export)
				r.With(auth.RequirePermission(auth.PermSalariesWrite)).Post("/", salaryH.Create)
				r.With(auth.RequirePermission(auth.PermSalariesRead)).Get("/{id}", salaryH.Get)
				r.With(auth.RequirePermission(auth.PermSalariesDelete)).Delete("/{id}", salaryH.Delete)
			})

			r.With(auth.RequirePermission(auth.PermSettingsAudit)).Get("/audit", auditH.Logs)
			r.Route("/webhooks", func(r chi.Router) {
				r.Use(auth.RequirePermission(auth.PermSettingsWebhooks))
				r.Get("/", webhookH.List)
				r.Post("/", webhookH.Create)
				r.Delete("/{id}", webhookH.Delete)
			})
		})
	})

	return otelhttp.NewHandler(r, rt.cfg.Telemetry.ServiceName)
}
