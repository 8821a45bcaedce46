// Package api exposes the pricing core over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bcdannyboy/optpricer/config"
)

const Version = "1.0.0"

type Server struct {
	cfg    *config.Config
	log    zerolog.Logger
	engine *gin.Engine
}

func New(cfg *config.Config, log zerolog.Logger) *Server {
	gin.SetMode(cfg.Server.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log), instrument())

	s := &Server{cfg: cfg, log: log, engine: engine}
	s.RegisterRoutes(engine)
	return s
}

func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", s.Health)

	api := router.Group("/api")
	{
		api.GET("/strategies", s.ListStrategies)
		api.POST("/price", s.PriceOption)
		api.POST("/strategy", s.PriceStrategy)
		api.POST("/portfolio/price", s.PricePortfolio)
		api.POST("/risk", s.PortfolioRisk)
		api.GET("/greeks/surface", s.GreekSurface)
		api.POST("/implied-vol", s.ImpliedVol)
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then drains in-flight requests for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
