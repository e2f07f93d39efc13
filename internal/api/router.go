package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"chatbot-studio/internal/auth"
	"chatbot-studio/internal/observability"
	"chatbot-studio/internal/service"
	"chatbot-studio/internal/whatsapp"
	"chatbot-studio/internal/ws"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	DB        *gorm.DB
	Users     *service.UserService
	Templates *service.TemplateService
	Contents  *service.ContentService
	Gate      *auth.Gate
	Hub       *ws.Hub
	Sender    *whatsapp.Client
	Sink      observability.ErrorSink
}

func NewRouter(d Deps) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(
		RequestLogger(),
		observability.HTTPMetricsMiddleware(),
		CORS(),
		Recovery(d.Sink),
		ErrorHandler(d.Sink),
	)

	r.GET("/health", health(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := NewAuthHandler(d.Users, d.Gate)
	userHandler := NewUserHandler(d.Users)
	templateHandler := NewTemplateHandler(d.Templates)
	contentHandler := NewContentHandler(d.Contents, d.Sender)
	wsHandler := NewWSHandler(d.Hub, d.Gate, d.Templates)

	access := Auth(d.Gate, auth.AccessToken)
	refresh := Auth(d.Gate, auth.RefreshToken)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/token", authHandler.Token)
		v1.POST("/token/refresh", refresh, authHandler.Refresh)
		v1.DELETE("/access/revoke", access, authHandler.Revoke)
		v1.DELETE("/refresh/revoke", refresh, authHandler.Revoke)

		v1.POST("/users", userHandler.Register)
		v1.GET("/users", userHandler.List)

		v1.GET("/templates", templateHandler.ListAll)
		templates := v1.Group("/templates", access)
		{
			templates.GET("/user", templateHandler.ListMine)
			templates.POST("", templateHandler.Create)
			templates.GET("/:id", templateHandler.Get)
			templates.PUT("/:id", templateHandler.Update)
			templates.DELETE("/:id", templateHandler.Delete)
			templates.GET("/:id/changelog", templateHandler.Changelog)
		}

		contents := v1.Group("/template-contents", access)
		{
			contents.GET("", contentHandler.List)
			contents.POST("", contentHandler.Create)
			contents.GET("/:id", contentHandler.Get)
			contents.PUT("/:id", contentHandler.Update)
			contents.DELETE("/:id", contentHandler.Delete)
			contents.POST("/:id/send", contentHandler.Send)
		}

		v1.GET("/ws/templates/:id", wsHandler.Handle)
	}

	return r
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
