package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"activity-archive/internal/activity"
	"activity-archive/internal/archive"
	"activity-archive/internal/config"
	"activity-archive/internal/db"
	"activity-archive/internal/redis"
	"activity-archive/internal/security"
)

type Server struct {
	log      *slog.Logger
	cfg      config.Config
	svc      *activity.Service
	exporter *archive.Exporter // nil when no archive target is configured
	db       *db.DB
	redis    *redis.Client
	limiter  *security.LimiterStore
	router   *gin.Engine
}

func NewServer(log *slog.Logger, cfg config.Config, svc *activity.Service, exporter *archive.Exporter, dbConn *db.DB, redisClient *redis.Client) *Server {
	s := &Server{
		log:      log,
		cfg:      cfg,
		svc:      svc,
		exporter: exporter,
		db:       dbConn,
		redis:    redisClient,
		limiter:  security.NewLimiterStore(rate.Limit(1), 60, 10*time.Minute), // 60 req/min per IP
		router:   gin.New(),
	}

	gin.SetMode(gin.ReleaseMode)
	r := s.router
	r.Use(gin.Recovery())
	r.Use(s.corsMiddleware())
	r.Use(s.loggingMiddleware())
	r.Use(s.rateLimitMiddleware())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", s.health)

		users := v1.Group("/users/:username")
		users.Use(s.usernameMiddleware())
		{
			users.GET("/activity", s.getActivity)
			users.GET("/history", s.getHistory)
			users.GET("/kinds", s.getEventKinds)
			users.GET("/validate", s.validateUser)
			users.DELETE("/cache", s.invalidateCache)
			users.POST("/archive", s.archiveHistory)
		}
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ctx bounds a request handler; fetches get the longer window because retry
// backoff alone can take most of it.
func (s *Server) ctx(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}
