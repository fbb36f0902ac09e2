// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// authentication, idempotency, rate limiting, CORS and security headers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Capability checks at the route group, never inside handlers
//   - Deterministic router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/auth"
	"github.com/tbourn/metrosite-backend/internal/authz"
	"github.com/tbourn/metrosite-backend/internal/config"
	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/http/docs"
	"github.com/tbourn/metrosite-backend/internal/http/handlers"
	"github.com/tbourn/metrosite-backend/internal/http/middleware"
	"github.com/tbourn/metrosite-backend/internal/services"
	"github.com/tbourn/metrosite-backend/internal/sms"
)

// OTP code requests cost an SMS each, so they get their own per-IP bucket:
// a burst of three, then one every 30 seconds.
const (
	otpRateRPS   = 1.0 / 30
	otpRateBurst = 3
)

// Deps are the collaborators RegisterRoutes builds services from.
type Deps struct {
	DB       *gorm.DB
	OTPStore services.VerificationStore
	SMS      sms.Sender
	Tokens   *auth.Issuer
	Authz    *authz.Enforcer
}

// contentSections maps public URL sections to content kinds.
var contentSections = []struct {
	path string
	kind domain.ContentKind
}{
	{"/news", domain.KindNews},
	{"/announcements", domain.KindAnnouncement},
	{"/corruption-reports", domain.KindCorruptionReport},
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), authentication,
// idempotency and rate limiting, CORS and security headers, health, metrics
// and docs endpoints, and then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. Authenticate (the limiter and idempotency key by subject)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderAPIKey},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Bearer credentials
	r.Use(middleware.Authenticate(d.Tokens))

	// Dependency injection: services ← db/store/sender
	eng := services.NewEngagementService(d.DB)
	idem := &services.Idempotency{DB: d.DB, TTL: cfg.IdempotencyTTL}

	authSvc := services.NewAuthService(d.DB, d.OTPStore, d.SMS, d.Tokens)
	authSvc.CodeTTL = cfg.OTPTTL
	if cfg.SMS.Timeout > 0 {
		authSvc.SendTimeout = cfg.SMS.Timeout
	}
	if cfg.SMS.Prefix != "" {
		authSvc.MessagePrefix = cfg.SMS.Prefix
	}
	statsSvc := services.NewStatsService(d.DB)

	h := handlers.New(handlers.Deps{
		Auth:        authSvc,
		Staff:       services.NewStaffService(d.DB, d.Tokens),
		Content:     services.NewContentService(d.DB, eng),
		Engagements: eng,
		Comments:    services.NewCommentService(d.DB),
		LostItems:   services.NewLostItemService(d.DB, idem),
		Vacancies:   services.NewVacancyService(d.DB, idem),
		Stats:       statsSvc,
		OTPTTL:      cfg.OTPTTL,
	})

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			Scope:  idempotencyScope(cfg.APIBasePath),
		},
		idem.Seen,
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderAPIKey, middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// The sid cookie needs credentialed requests from the site's own origins.
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	can := func(c authz.Capability) gin.HandlerFunc { return middleware.RequireCapability(d.Authz, c) }
	otpLimiter := middleware.NewRateLimiter(otpRateRPS, otpRateBurst, middleware.KeyByIP())

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.APIKey(cfg.APIKey))
	api.Use(middleware.VisitorSession(statsSvc, cfg.Security.EnableHSTS))
	{
		// Auth
		api.POST("/auth/otp/request", otpLimiter.Handler(), h.RequestOTP)
		api.POST("/auth/otp/verify", h.VerifyOTP)
		api.POST("/auth/token/refresh", h.RefreshToken)
		api.POST("/auth/staff/login", h.StaffLogin)
		api.GET("/auth/me", middleware.RequirePrincipal(), h.Me)
		api.POST("/staff", can(authz.StaffWrite), h.CreateStaff)

		// Content, engagement and comments per section
		for _, s := range contentSections {
			g := api.Group(s.path)
			g.GET("", h.ListContent(s.kind))
			g.POST("", can(authz.ContentWrite), h.CreateContent(s.kind))
			g.GET("/:id", h.GetContent(s.kind))
			g.PUT("/:id", can(authz.ContentWrite), h.UpdateContent(s.kind))
			g.DELETE("/:id", can(authz.ContentWrite), h.DeleteContent(s.kind))

			in := h.ItemInSection(s.kind)
			g.POST("/:id/like", can(authz.EngagementLike), in, h.ToggleLike)
			g.GET("/:id/like", in, h.LikeStatus)
			g.POST("/:id/view", in, h.RecordView)

			g.GET("/:id/comments", in, h.ListComments)
			g.POST("/:id/comments", can(authz.CommentsWrite), in, h.PostComment)
		}

		// Lost items
		api.POST("/lost-items", can(authz.LostItemsSubmit), h.SubmitLostItem)
		api.GET("/lost-items/mine", can(authz.LostItemsSubmit), h.ListMyLostItems)
		api.GET("/lost-items", can(authz.LostItemsReview), h.ListLostItems)
		api.PATCH("/lost-items/:id/status", can(authz.LostItemsReview), h.SetLostItemStatus)

		// Vacancies and applications
		api.GET("/vacancies", h.ListVacancies)
		api.GET("/vacancies/:id", h.GetVacancy)
		api.POST("/vacancies", can(authz.VacanciesWrite), h.CreateVacancy)
		api.PUT("/vacancies/:id", can(authz.VacanciesWrite), h.UpdateVacancy)
		api.DELETE("/vacancies/:id", can(authz.VacanciesWrite), h.DeleteVacancy)
		api.POST("/vacancies/:id/applications", can(authz.ApplicationsSubmit), h.Apply)
		api.GET("/vacancies/:id/applications", can(authz.ApplicationsReview), h.ListApplications)
		api.PATCH("/applications/:id/status", can(authz.ApplicationsReview), h.SetApplicationStatus)

		// Statistics
		api.GET("/statistics/stations", h.ListStations)
		api.PUT("/statistics/stations", can(authz.StatisticsWrite), h.UpsertStation)
		api.GET("/statistics/visitors", h.Visitors)
	}
}

// idempotencyScope names the idempotency scope of the keyed submission
// routes under base, or "" for every other route.
func idempotencyScope(base string) func(*gin.Context) string {
	if base == "/" {
		base = ""
	}
	lostItems := base + "/lost-items"
	applications := base + "/vacancies/:id/applications"
	return func(c *gin.Context) string {
		if c.Request.Method != http.MethodPost {
			return ""
		}
		switch c.FullPath() {
		case lostItems:
			return services.LostItemScope
		case applications:
			return services.ApplicationScope(c.Param("id"))
		}
		return ""
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
