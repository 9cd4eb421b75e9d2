package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"movieflix/config"
	"movieflix/middleware"
	"movieflix/services"
)

type RouterOptions struct {
	RateLimitRPM   int
	AllowedOrigins []string
	Features       config.Features
}

func featureGate(enabled bool, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, tokens *services.TokenIssuer, opts RouterOptions, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log), middleware.CORS(opts.AllowedOrigins))

	r.GET("/healthz", h.Healthz)

	auth := middleware.AuthRequired(tokens)
	api := r.Group("/api", middleware.NewRateLimiter(opts.RateLimitRPM).Handler())
	{
		api.POST("/auth/send-otp", h.SendOTP)
		api.POST("/auth/verify-otp", h.VerifyOTP)
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/signin", h.Signin)
		api.GET("/auth/profile", auth, h.GetProfile)
		api.PUT("/auth/profile", auth, h.UpdateProfile)

		api.GET("/subscriptions/plans", h.ListPlans)
		api.GET("/subscriptions/current", auth, h.CurrentSubscription)

		payments := api.Group("/payments", featureGate(opts.Features.PaymentsEnabled, "Payments not enabled"), auth)
		payments.POST("/create-order", h.CreateOrder)
		payments.POST("/verify", h.VerifyPayment)
		payments.GET("/history", h.PaymentHistory)

		tmdb := api.Group("/tmdb", featureGate(opts.Features.CatalogEnabled && h.catalog != nil, "Catalog not enabled"))
		tmdb.GET("/search/movie", h.SearchMovies)
		tmdb.GET("/movie/popular", h.PopularMovies)
		tmdb.GET("/trending/movie/week", h.TrendingMovies)
		tmdb.GET("/movie/:id", h.MovieDetails)
	}

	return r
}
