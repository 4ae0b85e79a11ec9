package handler

import (
	"github.com/labstack/echo/v4"

	"uniclaim/internal/infrastructure/storage"
	"uniclaim/pkg/errors"
	"uniclaim/pkg/response"
)

const maxPhotoSize = 10 << 20 // 10 MB

type FileHandler struct {
	storageClient *storage.CloudStorageClient
}

func NewFileHandler(storageClient *storage.CloudStorageClient) *FileHandler {
	return &FileHandler{
		storageClient: storageClient,
	}
}

// UploadPhoto accepts a multipart image and returns its public URL. Request
// id and evidence photos are uploaded here before being referenced by a
// handover or claim request.
func (h *FileHandler) UploadPhoto(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("A file is required", err))
	}
	if fileHeader.Size > maxPhotoSize {
		return response.Error(c, errors.BadRequest("File exceeds the 10 MB limit", nil))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/gif":
	default:
		return response.Error(c, errors.BadRequest("Only image uploads are allowed", nil))
	}

	folder := c.FormValue("folder")
	if folder == "" {
		folder = "request-photos"
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer file.Close()

	url, err := h.storageClient.UploadPhoto(c.Request().Context(), file, contentType, folder)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to upload photo", err))
	}

	return response.Created(c, map[string]string{"url": url})
}
