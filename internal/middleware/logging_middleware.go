package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger returns a gin.HandlerFunc (middleware) that logs requests using zap.
//
// Level follows the status class. The extension polls a few endpoints every
// second or so; successful GETs on quietPaths and successful preflights are
// logged at Debug so they do not drown the rest.
func RequestLogger(logger *zap.Logger, quietPaths ...string) gin.HandlerFunc {
	if logger == nil {
		panic("RequestLogger requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		start := time.Now()

		// Copy before handlers run; they may rewrite the request.
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		method := c.Request.Method

		c.Next()

		statusCode := c.Writer.Status()
		level := requestLevel(method, path, statusCode, quietPaths)
		if !logger.Core().Enabled(level) {
			return
		}

		logFields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("bytes", c.Writer.Size()),
		}
		if query != "" {
			logFields = append(logFields, zap.String("query", query))
		}
		if origin := c.GetHeader("Origin"); origin != "" {
			logFields = append(logFields, zap.String("origin", origin))
		}
		if len(c.Errors) > 0 {
			logFields = append(logFields, zap.String("gin_errors", c.Errors.String()))
		}
		logger.Log(level, "Incoming Request", logFields...)
	}
}

func requestLevel(method, path string, statusCode int, quietPaths []string) zapcore.Level {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case statusCode >= http.StatusBadRequest:
		return zapcore.WarnLevel
	case method == http.MethodOptions:
		return zapcore.DebugLevel
	case method == http.MethodGet && slices.Contains(quietPaths, path):
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
