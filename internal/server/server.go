// Package server assembles the gin engine: middleware chain, route table and
// graceful shutdown. Handlers live with their features; this package only
// wires them to paths.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/config"
	"docsafe.com.br/affiliate-service/internal/features/affiliates"
	"docsafe.com.br/affiliate-service/internal/features/commission"
	"docsafe.com.br/affiliate-service/internal/features/plans"
	"docsafe.com.br/affiliate-service/internal/features/withdrawals"
	"docsafe.com.br/affiliate-service/internal/server/middleware"
)

// Server is the HTTP front of the service.
type Server struct {
	engine *gin.Engine
	cfg    *config.Config
	http   *http.Server
}

// New builds the engine and the route table.
func New(
	cfg *config.Config,
	pool *pgxpool.Pool,
	affiliateHandler *affiliates.Handler,
	commissionHandler *commission.Handler,
	withdrawalHandler *withdrawals.Handler,
	planHandler *plans.Handler,
) *Server {
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Admin-Password"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	limiter := middleware.NewRateLimiter(
		cfg.RateLimitRequests,
		time.Duration(cfg.RateLimitWindowS)*time.Second,
	)

	engine.GET("/healthz", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "banco de dados indisponível"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api", limiter.Middleware())
	api.GET("/plans", planHandler.List)

	authed := api.Group("", middleware.JWTAuth(cfg.JWTSecret))
	authed.POST("/affiliates", affiliateHandler.Register)
	authed.GET("/affiliates/me", affiliateHandler.Me)
	authed.GET("/affiliates/me/stats", affiliateHandler.Stats)
	authed.GET("/affiliates/me/referrals", affiliateHandler.Referrals)
	authed.GET("/affiliates/me/transactions", affiliateHandler.Transactions)
	if cfg.FeatureWithdrawalsEnabled {
		authed.POST("/withdrawals", withdrawalHandler.Create)
	}

	admin := api.Group("/admin", middleware.AdminAuth(cfg.AdminPasswordHash))
	admin.POST("/commissions/run", commissionHandler.Run)
	admin.POST("/commissions/record", commissionHandler.Record)
	admin.POST("/withdrawals/:id/complete", withdrawalHandler.Complete)

	// Called by the main backend when a signup carries a referral code.
	api.POST("/referrals", middleware.AdminAuth(cfg.AdminPasswordHash), affiliateHandler.TrackSignup)

	return &Server{engine: engine, cfg: cfg}
}

// Start serves until the context is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", s.cfg.Addr())
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("HTTP server stopped")
	return nil
}
