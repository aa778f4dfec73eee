package routes

import (
	"errors"
	"net/http"
	"strconv"

	"formhub/handlers"
	"formhub/middleware"
	"formhub/models"
	"formhub/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is already wide open on the HTTP surface
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	templateHandler *handlers.TemplateHandler,
	formHandler *handlers.FormHandler,
	userHandler *handlers.UserHandler,
	adminHandler *handlers.AdminHandler,
	ticketHandler *handlers.TicketHandler,
	hub *services.ResultsHub,
	templateService *services.TemplateService,
	jwtSecret string,
	logger *zap.Logger,
) {
	// Auth routes (public)
	auth := router.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Template routes; listing and reading are public, writes need auth.
	templates := router.Group("/templates")
	{
		templates.GET("/latest", templateHandler.GetLatestTemplates)
		templates.GET("/popular", templateHandler.GetPopularTemplates)
		templates.GET("/tags", templateHandler.GetTags)
		templates.GET("/search", templateHandler.SearchTemplates)
		templates.GET("/:templateId", templateHandler.GetTemplateByID)

		protected := templates.Group("")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.POST("", templateHandler.CreateTemplate)
			protected.PUT("/:templateId", templateHandler.UpdateTemplate)
			protected.DELETE("/:templateId", templateHandler.DeleteTemplate)

			protected.GET("/:templateId/comments", templateHandler.GetComments)
			protected.POST("/:templateId/comments", templateHandler.CreateComment)
			protected.PUT("/:templateId/comments/:commentId", templateHandler.EditComment)
			protected.DELETE("/:templateId/comments/:commentId", templateHandler.DeleteComment)

			protected.PATCH("/:templateId/like", templateHandler.ToggleLike)
		}
	}

	// Form routes
	forms := router.Group("/forms")
	forms.Use(middleware.AuthMiddleware(jwtSecret))
	{
		forms.POST("", formHandler.CreateForm)
		forms.GET("/user/forms", formHandler.GetUserForms)
		forms.GET("/template/:templateId", formHandler.GetFormsByTemplate)
		forms.GET("/:id", formHandler.GetFormByID)
		forms.PUT("/:id", formHandler.UpdateForm)
		forms.DELETE("/:id", formHandler.DeleteForm)
	}

	// User routes
	user := router.Group("/user")
	user.Use(middleware.AuthMiddleware(jwtSecret))
	{
		user.GET("/templates", userHandler.GetUserTemplates)
		user.GET("/preferences", userHandler.GetPreferences)
		user.PATCH("/preferences", userHandler.UpdatePreferences)
		user.POST("/accounts", userHandler.CreateAccount)
	}

	// Admin routes
	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", adminHandler.GetAllUsers)
		admin.PATCH("/user/:id/role", adminHandler.UpdateUserRole)
		admin.DELETE("/user/:id", adminHandler.DeleteUser)
	}

	// Ticketing
	tickets := router.Group("/api/tickets")
	tickets.Use(middleware.AuthMiddleware(jwtSecret))
	{
		tickets.POST("/create-ticket", ticketHandler.CreateTicket)
	}

	// Live results feed: watchers of a template's results view get each new
	// submission pushed instead of polling the forms listing.
	router.GET("/ws/templates/:templateId", func(c *gin.Context) {
		templateID, err := strconv.ParseUint(c.Param("templateId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid templateId"})
			return
		}

		// The template must exist before a watcher can subscribe.
		if _, err := templateService.GetByID(uint(templateID)); err != nil {
			if errors.Is(err, services.ErrTemplateNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
				return
			}
			logger.Error("template lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		hub.RegisterClient(conn, uint(templateID))
	})

	// Operational endpoints
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
