package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"myfi.backend/internal/infrastructure/metrics"
	"myfi.backend/internal/interfaces/http/handlers"
	"myfi.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "myfi-backend"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	identityHandler    *handlers.IdentityHandler
	referenceHandler   *handlers.ReferenceHandler
	adminIngestHandler *handlers.AdminIngestHandler
	sessionAuth        gin.HandlerFunc
	adminAuth          gin.HandlerFunc
}

func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, d)
	return r
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID, X-Admin-Token")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Identity routes (public until a session exists)
		user := v1.Group("/user")
		{
			user.POST("/signup", d.identityHandler.Signup)
			user.POST("/verify", d.identityHandler.VerifyOtp)
			user.POST("/pin", d.identityHandler.SetPin)
			user.POST("/pin/verify", d.identityHandler.VerifyPin)
			user.GET("/me", d.sessionAuth, d.identityHandler.Me)
			user.POST("/logout", d.sessionAuth, d.identityHandler.Logout)
		}

		// Reference data routes (protected)
		schemes := v1.Group("/schemes")
		schemes.Use(d.sessionAuth)
		{
			schemes.GET("", d.referenceHandler.ListSchemes)
			schemes.GET("/:id", d.referenceHandler.GetScheme)
			schemes.GET("/:id/nav", d.referenceHandler.GetSchemeNav)
		}

		amcs := v1.Group("/amcs")
		amcs.Use(d.sessionAuth)
		{
			amcs.GET("", d.referenceHandler.ListAmcs)
			amcs.GET("/:code", d.referenceHandler.GetAmc)
		}

		// Admin routes (operator token)
		admin := v1.Group("/admin")
		admin.Use(d.adminAuth)
		{
			admin.POST("/ingest/:feed", middleware.IngestLockMiddleware("feed"), d.adminIngestHandler.Ingest)
		}
	}
}
