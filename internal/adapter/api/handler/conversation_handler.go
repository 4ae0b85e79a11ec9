package handler

import (
	"github.com/labstack/echo/v4"

	"uniclaim/internal/domain/entity"
	"uniclaim/internal/usecase"
	"uniclaim/pkg/response"
	"uniclaim/pkg/utils"
)

type ConversationHandler struct {
	convUseCase *usecase.ConversationUseCase
}

func NewConversationHandler(convUseCase *usecase.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{
		convUseCase: convUseCase,
	}
}

type participantInfoRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture"`
	ContactNum     string `json:"contact_num"`
}

type createConversationRequest struct {
	PostID    string                 `json:"post_id" validate:"required"`
	PostTitle string                 `json:"post_title"`
	PostType  string                 `json:"post_type" validate:"omitempty,oneof=lost found"`
	OwnerID   string                 `json:"owner_id" validate:"required"`
	Caller    participantInfoRequest `json:"caller_info"`
	Owner     participantInfoRequest `json:"owner_info"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *ConversationHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	conv, err := h.convUseCase.CreateConversation(c.Request().Context(), userID, usecase.CreateConversationInput{
		PostID:     req.PostID,
		PostTitle:  req.PostTitle,
		PostType:   entity.PostType(req.PostType),
		OwnerID:    req.OwnerID,
		CallerInfo: toParticipantInfo(req.Caller),
		OwnerInfo:  toParticipantInfo(req.Owner),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, conv)
}

func (h *ConversationHandler) GetUserConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	convs, err := h.convUseCase.GetUserConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, convs)
}

func (h *ConversationHandler) GetConversation(c echo.Context) error {
	userID := c.Get("uid").(string)

	conv, err := h.convUseCase.GetConversation(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conv)
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	msg, err := h.convUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ConversationID: c.Param("id"),
		Text:           req.Text,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, msg)
}

func (h *ConversationHandler) GetMessages(c echo.Context) error {
	userID := c.Get("uid").(string)

	params := utils.GetPaginationParams(c)

	msgs, total, err := h.convUseCase.GetMessages(c.Request().Context(), userID, c.Param("id"), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, msgs, total, params.Page, params.PageSize)
}

func (h *ConversationHandler) MarkConversationRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.convUseCase.MarkConversationRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"read": true})
}

func (h *ConversationHandler) MarkMessageRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.convUseCase.MarkMessageRead(c.Request().Context(), userID, c.Param("id"), c.Param("messageId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"read": true})
}

func (h *ConversationHandler) DeleteConversation(c echo.Context) error {
	userID := c.Get("uid").(string)

	result, err := h.convUseCase.DeleteConversation(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func toParticipantInfo(req participantInfoRequest) entity.ParticipantInfo {
	return entity.ParticipantInfo{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ProfilePicture: req.ProfilePicture,
		ContactNum:     req.ContactNum,
	}
}
