package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"journal-backend/internal/account"
	"journal-backend/internal/auth"
	"journal-backend/internal/chat"
	"journal-backend/internal/entries"
	"journal-backend/internal/shared/config"
	"journal-backend/internal/shared/metrics"
	"journal-backend/internal/shared/server/middleware"
	"journal-backend/internal/shared/server/respond"
	"journal-backend/internal/uploads"
	"journal-backend/internal/usage"
	"journal-backend/internal/users"
)

// RouterDeps carries handlers into router construction.
type RouterDeps struct {
	Config         config.Config
	AuthHandler    *auth.Handler
	GoogleAuth     *auth.GoogleService
	EntriesHandler *entries.Handler
	ChatHandler    *chat.Handler
	UploadsHandler *uploads.Handler
	UsageHandler   *usage.Handler
	UsersHandler   *users.Handler
	AccountHandler *account.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: "DEFAULT",
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/auth/otp/request" {
					return "OTP"
				}
				return "DEFAULT"
			},
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: 50, Burst: 100},
				// Login codes trigger outbound mail; keep requests slow.
				"OTP": {Rate: 0.2, Burst: 3},
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.EntriesHandler != nil {
		deps.EntriesHandler.RegisterRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
	}
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.Config.Env == "dev" && deps.UsageHandler != nil {
		dev := api.Group("/dev")
		deps.UsageHandler.RegisterDevRoutes(dev)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
