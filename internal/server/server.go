package server

import (
	"context"
	"net/http"
	"time"

	"coachslot/internal/auth"
	"coachslot/internal/availability"
	"coachslot/internal/config"
	"coachslot/internal/reservation"
	"coachslot/internal/user"

	"github.com/gin-gonic/gin"
)

// Handlers groups the domain handlers mounted by the server.
type Handlers struct {
	User         *user.Handler
	Availability *availability.Handler
	Reservation  *reservation.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, h Handlers, checks map[string]Pinger) *Server {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		corsMiddleware(),
		RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	router.GET("/health", Health)
	router.GET("/ready", Ready(checks))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	public := router.Group("/auth")
	{
		public.POST("/signup", h.User.Signup)
		public.POST("/login", h.User.Login)
		public.POST("/refresh", h.User.Refresh)
	}

	router.GET("/availabilities", h.Availability.List)
	router.GET("/users/:userID", h.User.GetUser)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", h.User.GetMe)
		protected.PATCH("/me", h.User.UpdateMe)

		protected.POST("/reservations", h.Reservation.Create)
		protected.GET("/reservations", h.Reservation.List)
		protected.GET("/reservations/:reservationID", h.Reservation.Get)
		protected.POST("/reservations/:reservationID/cancel", h.Reservation.Cancel)
	}

	trainer := router.Group("/availabilities")
	trainer.Use(authMiddleware, auth.RequireRole(auth.RoleTrainer))
	{
		trainer.POST("", h.Availability.Publish)
		trainer.DELETE("/:slotID", h.Availability.Delete)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
