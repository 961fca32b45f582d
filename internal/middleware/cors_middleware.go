package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Methods and headers the extension is allowed to use.
var (
	AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	AllowedHeaders = []string{"Content-Type"}
)

// CORSMiddleware makes every response readable by the browser extension.
//
// The extension origin (chrome-extension://..., moz-extension://...) is not
// known ahead of time, and the bridge only listens on loopback, so all origins
// are allowed. The header set is stamped on every response, even ones without
// an Origin header, and every OPTIONS request is answered with 204 before
// routing so preflights never reach a handler.
func CORSMiddleware() gin.HandlerFunc {
	extensionCORS := cors.New(cors.Config{
		AllowAllOrigins:        true,
		AllowMethods:           AllowedMethods,
		AllowHeaders:           AllowedHeaders,
		AllowBrowserExtensions: true,
		MaxAge:                 12 * time.Hour,
	})
	allowMethods := strings.Join(AllowedMethods, ", ")
	allowHeaders := strings.Join(AllowedHeaders, ", ")

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", allowMethods)
		header.Set("Access-Control-Allow-Headers", allowHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		extensionCORS(c)
	}
}
