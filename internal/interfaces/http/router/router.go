// Package router assembles the gin engine: global middleware, the shopper
// and admin route groups, and the health probes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printshop/personalizer/internal/infrastructure/auth"
	"github.com/printshop/personalizer/internal/infrastructure/config"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"github.com/printshop/personalizer/internal/infrastructure/telemetry"
	"github.com/printshop/personalizer/internal/interfaces/http/dto"
	"github.com/printshop/personalizer/internal/interfaces/http/handler"
	"github.com/printshop/personalizer/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under the versioned API prefix
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one area of the API under a prefix
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{
		name:       name,
		prefix:     prefix,
		routes:     make([]routeDefinition, 0),
		subgroups:  make([]*DomainGroup, 0),
		middleware: make([]gin.HandlerFunc, 0),
	}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, handlers)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodDelete, path, handlers)
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers are the HTTP handlers the engine mounts
type Handlers struct {
	System          *handler.SystemHandler
	Personalization *handler.PersonalizationHandler
	Cart            *handler.CartHandler
	Catalog         *handler.CatalogHandler
}

// Options configures the engine's middleware
type Options struct {
	Logger        *zap.Logger
	HTTP          config.HTTPConfig
	Cookie        config.CookieConfig
	JWTService    *auth.JWTService
	ServiceName   string
	Tracing       bool
	MeterProvider *telemetry.MeterProvider
	Profiling     bool
	Production    bool
	// RateLimiter is nil when rate limiting is disabled
	RateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with every route of the service.
//
// Global middleware runs in this order: panic recovery, request ID, request
// logging, tracing, span status, HTTP metrics, profiling labels, CORS, security
// headers, body limit. Shopper routes then resolve the session cookie and admin
// routes the bearer token before rate limiting.
func NewEngine(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: opts.ServiceName,
		Enabled:     opts.Tracing,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: opts.MeterProvider,
		Enabled:       opts.MeterProvider != nil,
		Logger:        log,
	}))
	engine.Use(middleware.ProfilingWithConfig(profilingConfig(opts.Profiling)))
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.HTTP)))
	engine.Use(middleware.SecureWithConfig(securityConfig(opts.Production)))
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeBadRequest, "Method not allowed", middleware.GetRequestID(c)))
	})

	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ready", h.System.Ready)
	}

	session := middleware.Session(middleware.SessionConfig{
		JWTService: opts.JWTService,
		Cookie:     opts.Cookie,
		Logger:     log,
	})
	shopper := []gin.HandlerFunc{session}
	admin := []gin.HandlerFunc{middleware.AdminAuth(opts.JWTService, log)}
	if opts.RateLimiter != nil {
		shopper = append(shopper, middleware.RateLimit(opts.RateLimiter))
		admin = append(admin, middleware.RateLimit(opts.RateLimiter))
	}

	r := NewRouter(engine)
	if p := h.Personalization; p != nil {
		r.Register(NewDomainGroup("personalizer", "/personalizer").
			Use(shopper...).
			POST("/metadata", p.FetchMetadata).
			POST("/drafts", p.SaveDraft))

		r.Register(NewDomainGroup("personalizations", "/personalizations").
			Use(shopper...).
			GET("/:id/image", p.ServeImage))

		legacy := engine.Group("/custom", shopper...)
		legacy.POST("/cart_update", p.LegacyCartUpdate)
	}

	cart := NewDomainGroup("cart", "/cart").Use(shopper...)
	if p := h.Personalization; p != nil {
		cart.POST("/personalized-lines", p.AddToCart).
			POST("/lines/preview", p.PreviewLine).
			POST("/lines/load", p.LoadLine).
			POST("/lines/update", p.UpdateLine)
	}
	if c := h.Cart; c != nil {
		cart.GET("", c.GetCart).
			DELETE("/lines/:id", c.RemoveLine)
	}
	r.Register(cart)

	adminGroup := NewDomainGroup("admin", "/admin").Use(admin...)
	if c := h.Catalog; c != nil {
		adminGroup.POST("/products", c.CreateProduct).
			GET("/products/:id", c.GetProduct).
			POST("/variants/:id/image", c.UploadVariantImage).
			GET("/variants/:id/design-areas", c.ListDesignAreas).
			POST("/variants/:id/design-areas", c.CreateDesignArea).
			PUT("/design-areas/:id", c.UpdateDesignArea).
			DELETE("/design-areas/:id", c.DeleteDesignArea).
			POST("/design-areas/:id/image", c.UploadDesignAreaImage)
	}
	if p := h.Personalization; p != nil {
		adminGroup.GET("/cart-lines/:id/personalizations", p.ListLineRecords)
	}
	r.Register(adminGroup)

	r.Setup()
	return engine
}

func profilingConfig(enabled bool) middleware.ProfilingConfig {
	cfg := middleware.DefaultProfilingConfig()
	cfg.Enabled = enabled
	return cfg
}

func corsConfig(httpCfg config.HTTPConfig) middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	cfg.AllowOrigins = httpCfg.CORSAllowOrigins
	if len(httpCfg.CORSAllowMethods) > 0 {
		cfg.AllowMethods = httpCfg.CORSAllowMethods
	}
	if len(httpCfg.CORSAllowHeaders) > 0 {
		cfg.AllowHeaders = httpCfg.CORSAllowHeaders
	}
	return cfg
}

func securityConfig(production bool) middleware.SecurityConfig {
	cfg := middleware.DefaultSecurityConfig()
	if production {
		cfg.HSTSEnabled = true
		cfg.HSTSMaxAge = 31536000
		cfg.HSTSIncludeSubdomains = true
	}
	// images are rendered by the storefront page
	cfg.CSPDirective = "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'"
	return cfg
}
