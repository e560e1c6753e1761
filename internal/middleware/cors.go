// Package middleware provides the Gin middleware used by the HTTP server.
package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns a permissive CORS middleware for browser clients.
func CORS() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	config.AddAllowHeaders("Authorization", "Content-Type")
	return cors.New(config)
}
