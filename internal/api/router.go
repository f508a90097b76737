package api

import (
	"net/http" // HTTP status codes

	"wallet_auth/internal/auth"       // Authentication service
	"wallet_auth/internal/middleware" // Custom middleware

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus"          // Metrics registry
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"github.com/sirupsen/logrus"                              // Logging
)

// RouterDeps holds everything the HTTP layer needs
type RouterDeps struct {
	Service        *auth.Service
	Profiles       ProfileStore
	Denylist       DenylistStore
	Gatherer       prometheus.Gatherer // Source for /metrics; omitted when nil
	AllowedOrigins []string
	TrustedProxies []string
	Logger         logrus.FieldLogger
}

// DenylistStore both revokes tokens and answers revocation checks
type DenylistStore interface {
	TokenRevoker
	middleware.RevocationChecker
}

// NewRouter wires routes and middleware
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := gin.New() // Gin router instance
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORSMiddleware(deps.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	requireToken := middleware.JWTAuthMiddleware(deps.Service.Tokens(), deps.Denylist)

	// Auth routes
	authGroup := r.Group("/api/auth")
	authGroup.GET("/message", LoginMessageHandler(deps.Service)) // Wallet login challenge
	authGroup.POST("/login", LoginHandler(deps.Service))         // Password login endpoint
	authGroup.POST("/web3login", Web3LoginHandler(deps.Service)) // Wallet login endpoint
	authGroup.POST("/register", RegisterHandler(deps.Service))   // Registration endpoint
	authGroup.GET("/me", requireToken, MeHandler(deps.Service, deps.Profiles))
	authGroup.POST("/logout", requireToken, LogoutHandler(deps.Denylist))

	// Account routes (protected by JWT, acting user loaded per request)
	accountGroup := authGroup.Group("")
	accountGroup.Use(requireToken, middleware.CurrentUserMiddleware(deps.Service))
	accountGroup.PATCH("/updateEmail", UpdateEmailHandler(deps.Service, deps.Profiles))             // Email update endpoint
	accountGroup.PATCH("/updatePassword", UpdatePasswordHandler(deps.Service, deps.Profiles))       // Password update endpoint
	accountGroup.PATCH("/updatePreferences", UpdatePreferencesHandler(deps.Service, deps.Profiles)) // Preference update endpoint
	accountGroup.DELETE("/delete", DeleteUserHandler(deps.Service, deps.Profiles))                  // Account deletion endpoint

	return r, nil
}
