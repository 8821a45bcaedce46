package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bcdannyboy/optpricer/metrics"
)

func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := log.Info()
		if status >= 500 {
			evt = log.Error()
		} else if status >= 400 {
			evt = log.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("error", c.Errors.String())
		}
		evt.Str("method", c.Request.Method).
			Str("route", route(c)).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		r := route(c)
		metrics.RequestDuration.WithLabelValues(r).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
