package router

import (
	"github.com/labstack/echo/v4"

	"uniclaim/internal/adapter/api/handler"
	"uniclaim/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, adminHandler *handler.AdminHandler, authMiddleware *middleware.AuthMiddleware, roleGuard *middleware.RoleGuard) {
	adminGroup := e.Group("/v1/admin")
	adminGroup.Use(authMiddleware.Authenticate)
	adminGroup.Use(roleGuard.AdminOnly)

	adminGroup.GET("/conversations/stats", adminHandler.GetMessageStats)          // GET /v1/admin/conversations/stats - Message volume overview
	adminGroup.DELETE("/conversations/:id", adminHandler.HardDeleteConversation) // DELETE /v1/admin/conversations/:id - Moderation hard delete
}
