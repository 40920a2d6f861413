package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/attornatus/backend/internal/infrastructure/config"
	"github.com/attornatus/backend/internal/infrastructure/logger"
	"github.com/attornatus/backend/internal/interfaces/http/dto"
	"github.com/attornatus/backend/internal/interfaces/http/handler"
	"github.com/attornatus/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	_ "github.com/attornatus/backend/docs"
)

// ErrMissingTokenValidator is returned when auth is enabled without a validator
var ErrMissingTokenValidator = errors.New("router: auth enabled but no token validator given")

// Deps are the collaborators the HTTP engine is built from
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Persons *handler.PersonHandler
	System  *handler.SystemHandler

	// Tokens validates bearer tokens; required when Config.Auth.Enabled
	Tokens middleware.TokenValidator
	// Meter records HTTP metrics; nil disables them
	Meter metric.Meter
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

// New builds the gin engine: the global middleware stack, the auxiliary
// endpoints and the versioned registry API. ctx bounds background work
// such as rate limiter cleanup.
func New(ctx context.Context, deps Deps) (*gin.Engine, error) {
	cfg, log := deps.Config, deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Auth.Enabled && deps.Tokens == nil {
		return nil, ErrMissingTokenValidator
	}

	handler.RegisterBindingTagNames()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	// Order matters: the request ID must exist before logging and tracing
	// read it, and tracing wraps everything that follows.
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			Enabled:        cfg.Telemetry.Enabled,
			ServiceName:    cfg.Telemetry.ServiceName,
			TracerProvider: deps.TracerProvider,
		}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
	)
	if deps.Meter != nil {
		httpMetrics, err := middleware.HTTPMetrics(deps.Meter)
		if err != nil {
			return nil, fmt.Errorf("http metrics: %w", err)
		}
		engine.Use(httpMetrics)
	}
	engine.Use(
		middleware.ProfilingLabels(cfg.Profiling.Enabled),
		middleware.SecureWithConfig(securityConfig(cfg)),
		middleware.CORSWithConfig(corsConfig(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.WriteTimeout),
	)
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(ctx, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", c.GetString(logger.GinRequestIDKey)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeBadRequest, "Method not allowed", c.GetString(logger.GinRequestIDKey)))
	})

	engine.GET("/health", deps.System.Health)

	var jwtAuth gin.HandlerFunc
	if cfg.Auth.Enabled {
		jwtAuth = middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{Validator: deps.Tokens})
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, jwtAuth),
		allowSwaggerUIAssets,
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	if cfg.Auth.Enabled {
		jwtConfig := middleware.DefaultJWTConfig(deps.Tokens)
		jwtConfig.SkipPaths = []string{r.BasePath() + "/system/ping"}
		r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
		log.Info("Bearer token authentication enabled", zap.String("issuer", cfg.Auth.Issuer))
	}
	r.Register(SystemRoutes(deps.System)).
		Register(PersonRoutes(deps.Persons))
	r.Setup()

	return engine, nil
}

// PersonRoutes is the person and address resource
func PersonRoutes(h *handler.PersonHandler) *DomainGroup {
	persons := NewDomainGroup("persons", "/persons")
	persons.POST("", h.Register)
	persons.GET("", h.Search)
	persons.GET("/:id", h.GetByID)
	persons.PUT("/:id", h.Update)

	addresses := persons.Group("addresses", "/:id/addresses")
	addresses.POST("", h.AddAddress)
	addresses.GET("", h.ListAddresses)
	addresses.PATCH("/:addressId/main", h.SetMainAddress)
	return persons
}

// SystemRoutes exposes service info and a liveness ping
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.GetSystemInfo)
	system.GET("/ping", h.Ping)
	return system
}

// allowSwaggerUIAssets drops the API's deny-all CSP so the UI can load its
// scripts and styles.
func allowSwaggerUIAssets(c *gin.Context) {
	c.Writer.Header().Del("Content-Security-Policy")
	c.Next()
}

func securityConfig(cfg *config.Config) middleware.SecurityConfig {
	sec := middleware.DefaultSecurityConfig()
	sec.HSTSEnabled = cfg.App.IsProduction()
	return sec
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
