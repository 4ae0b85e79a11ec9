package router

import (
	"github.com/labstack/echo/v4"

	"uniclaim/internal/adapter/api/handler"
	"uniclaim/internal/adapter/api/middleware"
)

func SetupFileRouter(e *echo.Echo, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware) {
	files := e.Group("/v1/files")
	files.Use(authMiddleware.Authenticate)

	// Photo upload for request evidence and ID confirmation
	files.POST("/upload", fileHandler.UploadPhoto)
}
