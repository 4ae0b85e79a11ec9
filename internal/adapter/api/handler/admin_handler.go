package handler

import (
	"github.com/labstack/echo/v4"

	"uniclaim/internal/usecase"
	"uniclaim/pkg/response"
)

type AdminHandler struct {
	convUseCase *usecase.ConversationUseCase
}

func NewAdminHandler(convUseCase *usecase.ConversationUseCase) *AdminHandler {
	return &AdminHandler{
		convUseCase: convUseCase,
	}
}

func (h *AdminHandler) GetMessageStats(c echo.Context) error {
	stats, err := h.convUseCase.GetAdminMessageStats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, stats)
}

func (h *AdminHandler) HardDeleteConversation(c echo.Context) error {
	if err := h.convUseCase.AdminHardDeleteConversation(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"deleted": true})
}
