package handler

import (
	"complaintdesk/backend/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, corsCfg config.CORSConfig, authCfg config.AuthConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(h.Log))

	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           corsCfg.MaxAge,
	}
	if corsCfg.AllowAll() {
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
	} else {
		cc.AllowOrigins = corsCfg.Origins()
	}
	r.Use(cors.New(cc))

	auth := RequireToken(authCfg)

	r.POST("/analyze", h.Classify)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/analyze", h.Classify)

		api.GET("/analytics", h.GetAnalytics)
		api.GET("/analytics/groups/:field", h.GetGroups)

		api.GET("/domains", h.ListDomains)
		api.GET("/domains/:id", h.GetDomain)

		complaints := api.Group("/complaints")
		complaints.GET("", h.ListComplaints)
		complaints.POST("", h.CreateComplaint)
		complaints.GET("/stream", h.ServeStream)
		complaints.GET("/:id", h.GetComplaint)
		complaints.PUT("/:id", auth, h.UpdateComplaint)
		complaints.PATCH("/:id", auth, h.UpdateComplaint)
		complaints.DELETE("/:id", auth, h.DeleteComplaint)
		complaints.POST("/:id/analyze", auth, h.AnalyzeComplaint)
	}

	return r
}
