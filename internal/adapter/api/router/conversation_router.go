package router

import (
	"github.com/labstack/echo/v4"

	"uniclaim/internal/adapter/api/handler"
	"uniclaim/internal/adapter/api/middleware"
)

// SetupConversationRouter sets up conversation and request routes (excluding WebSocket)
func SetupConversationRouter(e *echo.Echo, convHandler *handler.ConversationHandler, requestHandler *handler.RequestHandler, authMiddleware *middleware.AuthMiddleware) {
	convGroup := e.Group("/v1/conversations")
	convGroup.Use(authMiddleware.Authenticate) // All conversation endpoints require authentication

	// Conversation management
	convGroup.POST("", convHandler.CreateConversation)       // POST /v1/conversations - Open (or reuse) a conversation
	convGroup.GET("", convHandler.GetUserConversations)      // GET /v1/conversations - List caller's conversations
	convGroup.GET("/:id", convHandler.GetConversation)       // GET /v1/conversations/:id - Get specific conversation
	convGroup.DELETE("/:id", convHandler.DeleteConversation) // DELETE /v1/conversations/:id - Delete conversation with messages

	// Message management
	convGroup.POST("/:id/messages", convHandler.SendMessage) // POST /v1/conversations/:id/messages - Send text message
	convGroup.GET("/:id/messages", convHandler.GetMessages)  // GET /v1/conversations/:id/messages - Page through messages

	// Read receipts
	convGroup.PUT("/:id/read", convHandler.MarkConversationRead)                 // PUT /v1/conversations/:id/read - Zero unread counter
	convGroup.PUT("/:id/messages/:messageId/read", convHandler.MarkMessageRead) // PUT - Mark single message seen

	// Handover request lifecycle
	convGroup.POST("/:id/handover", requestHandler.SendHandoverRequest)
	convGroup.POST("/:id/handover/respond", requestHandler.RespondToHandover)
	convGroup.POST("/:id/handover/confirm", requestHandler.ConfirmHandoverPhoto)
	convGroup.POST("/:id/handover/reject-confirmation", requestHandler.RejectHandoverAfterConfirmation)

	// Claim request lifecycle
	convGroup.POST("/:id/claim", requestHandler.SendClaimRequest)
	convGroup.POST("/:id/claim/respond", requestHandler.RespondToClaim)
	convGroup.POST("/:id/claim/confirm", requestHandler.ConfirmClaimPhoto)
	convGroup.POST("/:id/claim/reject-confirmation", requestHandler.RejectClaimAfterConfirmation)
}
