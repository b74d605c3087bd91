// Package server wires the HTTP surface: routes, CORS, and handlers.
package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with CORS open to all origins without
// credentials, mirroring a public single-user API.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/files", h.ListFiles)

	router.POST("/upload", h.Upload)
	router.POST("/ask", h.Ask)

	router.DELETE("/files/:filename", h.DeleteFile)
	router.DELETE("/session/:session_id", h.DeleteSession)

	return router
}
