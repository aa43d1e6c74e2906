package handler

import (
	"wallet-policy-gateway/internal/adapter/http/middleware"
	redisStore "wallet-policy-gateway/internal/adapter/storage/redis"
	"wallet-policy-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	PolicySvc      ports.PolicyService
	PaymentSvc     ports.PaymentService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	walletHandler := NewWalletHandler(deps.WalletSvc, deps.PolicySvc)
	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	policyHandler := NewPolicyHandler(deps.PolicySvc)

	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("wallets"), walletHandler.CreateWallet)
		wallets.GET("/:walletId/policies", rl("wallets"), walletHandler.GetWalletPolicies)
		wallets.PUT("/:walletId/policy", rl("wallets"), walletHandler.AttachPolicy)
		wallets.POST("/:walletId/payments", rl("payments"), paymentHandler.CreatePayment)
		wallets.GET("/:walletId/payments", rl("payments"), paymentHandler.ListPayments)
	}

	policies := v1.Group("/policies")
	{
		policies.POST("", rl("policies"), policyHandler.CreatePolicy)
		policies.GET("", rl("policies"), policyHandler.ListPolicies)
	}

	return r
}
