package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"accounts/api/internal/metrics"
	"accounts/api/internal/middleware"
	"accounts/api/internal/models"
	"accounts/api/internal/security"
	"accounts/api/internal/service"
)

type AccountAPI interface {
	SignUp(ctx context.Context, input service.SignUpInput) (string, error)
	SignIn(ctx context.Context, input service.SignInInput) (string, error)
	ChangePassword(ctx context.Context, caller security.Principal, input service.ChangePasswordInput) error
	ConfirmEmail(ctx context.Context, caller security.Principal, code string) error
	GetAccount(ctx context.Context, caller security.Principal) (models.User, error)
}

type UserAPI interface {
	List(ctx context.Context, caller security.Principal) ([]models.User, error)
	Update(ctx context.Context, caller security.Principal, input service.UpdateUserInput) (models.User, error)
}

type LoginAPI interface {
	Record(ctx context.Context, caller security.Principal, ipAddress, userAgent string) (models.LoginEvent, error)
	List(ctx context.Context, caller security.Principal, userID string) ([]models.LoginEvent, error)
	Export(ctx context.Context, caller security.Principal, userID string) (string, error)
}

// HealthCheck probes one dependency for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Log         zerolog.Logger
	Environment string
	Accounts    AccountAPI
	Users       UserAPI
	Logins      LoginAPI
	Verifier    middleware.TokenVerifier
	Authorizer  middleware.Authorizer
	RateLimiter *middleware.RateLimiter
	Recorder    metrics.Recorder
	Metrics     http.Handler
	Checks      []HealthCheck
}

type HandlerSet struct {
	log         zerolog.Logger
	environment string
	accounts    AccountAPI
	users       UserAPI
	logins      LoginAPI
	verifier    middleware.TokenVerifier
	authz       middleware.Authorizer
	limiter     *middleware.RateLimiter
	recorder    metrics.Recorder
	metrics     http.Handler
	checks      []HealthCheck
}

var (
	_ AccountAPI = (*service.AccountService)(nil)
	_ UserAPI    = (*service.UserService)(nil)
	_ LoginAPI   = (*service.LoginService)(nil)
)

func NewHandlerSet(deps Deps) HandlerSet {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return HandlerSet{
		log:         deps.Log,
		environment: deps.Environment,
		accounts:    deps.Accounts,
		users:       deps.Users,
		logins:      deps.Logins,
		verifier:    deps.Verifier,
		authz:       deps.Authorizer,
		limiter:     deps.RateLimiter,
		recorder:    recorder,
		metrics:     deps.Metrics,
		checks:      deps.Checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := router.Group("/api")

	auth := api.Group("/auth")
	if h.limiter != nil {
		auth.Use(h.limiter.Middleware())
	}
	auth.POST("/signup", h.SignUp)
	auth.POST("/signin", h.SignIn)

	protected := api.Group("")
	protected.Use(middleware.Auth(h.verifier))

	protected.GET("/account", h.GetAccount)
	protected.POST("/account/changepassword", h.ChangePassword)

	protected.PUT("/users", h.UpdateUser)
	protected.POST("/users/confirmemail", h.ConfirmEmail)

	protected.GET("/userlogins", h.ListLogins)
	protected.POST("/userlogins", h.RecordLogin)

	admin := protected.Group("")
	admin.Use(middleware.RequireAdmin(h.authz))
	admin.GET("/users", h.ListUsers)
	admin.POST("/userlogins/export", h.ExportLogins)
}

func (h HandlerSet) caller(c *gin.Context) (security.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return p, ok
}
