package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biostorex/internal/auth"
	"biostorex/internal/domain/apperr"
	"biostorex/internal/server/handlers"
	"biostorex/internal/service/accounts"
)

// Handlers groups the HTTP adapters wired into the engine.
type Handlers struct {
	Users    *handlers.UserHandler
	Items    *handlers.ItemHandler
	Requests *handlers.RequestHandler
	Admin    *handlers.AdminHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, tokens *auth.TokenManager, accountsSvc *accounts.Service, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authenticated := authMiddleware(tokens, accountsSvc)

	v1 := r.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", h.Users.Register)
	users.POST("/login", h.Users.Login)
	users.POST("/refresh-token", h.Users.Refresh)
	users.POST("/logout", authenticated, h.Users.Logout)
	users.POST("/change-password", authenticated, h.Users.ChangePassword)
	users.PATCH("/profile", authenticated, h.Users.UpdateProfile)
	users.GET("/me", authenticated, h.Users.Me)

	items := v1.Group("/items", authenticated)
	items.POST("", h.Items.AddStock)
	items.POST("/remove", h.Items.RemoveStock)
	items.GET("", h.Items.List)
	items.GET("/:id", h.Items.Get)
	items.GET("/:id/stock-logs", h.Items.StockLogs)
	items.GET("/:id/issue-logs", h.Items.IssueLogs)

	requests := v1.Group("/requests", authenticated)
	requests.POST("", h.Requests.Create)
	requests.GET("/my", h.Requests.Mine)
	requests.GET("", h.Requests.All)
	requests.PATCH("/:id/approve", h.Requests.Approve)
	requests.PATCH("/:id/decline", h.Requests.Decline)
	requests.PATCH("/:id/issue", h.Requests.Issue)
	requests.PATCH("/:id/return", h.Requests.Return)

	admin := v1.Group("/admin", authenticated)
	admin.POST("/storekeepers", h.Admin.AddStorekeeper)
	admin.PATCH("/users/:id/blacklist", h.Admin.Blacklist)
	admin.PATCH("/users/:id/activate", h.Admin.Activate)
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/reports/inventory", h.Admin.InventoryReport)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// authMiddleware verifies the bearer token and loads the persisted user
// onto the request context. Role checks happen in the services, against the
// policy table.
func authMiddleware(tokens *auth.TokenManager, accountsSvc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "no token provided")
			return
		}

		userID, err := tokens.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		user, err := accountsSvc.GetUser(c.Request.Context(), userID)
		if err != nil {
			abortUnauthorized(c, "user not found")
			return
		}
		if !user.IsActive {
			abortUnauthorized(c, "user is inactive")
			return
		}

		handlers.SetCurrentUser(c, user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"statusCode": http.StatusUnauthorized,
		"error":      string(apperr.KindUnauthorized),
		"message":    message,
	})
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
