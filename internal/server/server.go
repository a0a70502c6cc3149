package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/homelet/tenantlink/internal/config"
	invitationdomain "github.com/homelet/tenantlink/internal/invitation/domain"
	linkingdomain "github.com/homelet/tenantlink/internal/linking/domain"
	"github.com/homelet/tenantlink/internal/observability"
	"github.com/homelet/tenantlink/internal/ratelimit"
	obsmiddleware "github.com/homelet/tenantlink/internal/observability/logger"
	obstracing "github.com/homelet/tenantlink/internal/observability/tracing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	genID         *snowflake.Node
	invitationSvc invitationdomain.Service
	linkingSvc    linkingdomain.Service
	probeLimiter  *ratelimit.ProbeLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	GenID         *snowflake.Node
	InvitationSvc invitationdomain.Service
	LinkingSvc    linkingdomain.Service
	ProbeLimiter  *ratelimit.ProbeLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		genID:         p.GenID,
		invitationSvc: p.InvitationSvc,
		linkingSvc:    p.LinkingSvc,
		probeLimiter:  p.ProbeLimiter,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.POST("/invitations", s.AuthRequired(), s.SendInvitation)
	api.GET("/invitations/:token", s.VerifyRateLimit(), s.VerifyInvitation)
	api.POST("/invitations/:token/accept", s.AuthRequired(), s.AcceptInvitation)
	api.POST("/invitations/:token/decline", s.VerifyRateLimit(), s.DeclineInvitation)

	api.POST("/property-link", s.AuthRequired(), s.VerifyPropertyLink)

	api.GET("/properties/:id/invitations", s.AuthRequired(), s.ListPropertyInvitations)
}
