package router

import (
	"github.com/labstack/echo/v4"

	"uniclaim/internal/adapter/api/handler"
	"uniclaim/internal/adapter/api/middleware"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Conversation *handler.ConversationHandler
	Request      *handler.RequestHandler
	User         *handler.UserHandler
	Admin        *handler.AdminHandler
	File         *handler.FileHandler
	WebSocket    *handler.WebSocketHandler
	Health       *handler.HealthHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, roleGuard *middleware.RoleGuard) {
	SetupConversationRouter(e, h.Conversation, h.Request, authMiddleware)
	SetupUserRouter(e, h.User, authMiddleware)
	SetupAdminRouter(e, h.Admin, authMiddleware, roleGuard)
	SetupFileRouter(e, h.File, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket)
	SetupHealthRouter(e, h.Health)
}
