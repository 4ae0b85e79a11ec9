package handler

import (
	"github.com/labstack/echo/v4"

	"uniclaim/internal/domain/entity"
	"uniclaim/internal/usecase"
	"uniclaim/pkg/response"
)

type RequestHandler struct {
	requestUseCase *usecase.RequestUseCase
}

func NewRequestHandler(requestUseCase *usecase.RequestUseCase) *RequestHandler {
	return &RequestHandler{
		requestUseCase: requestUseCase,
	}
}

type sendRequestRequest struct {
	Reason        string   `json:"reason" validate:"required"`
	IDPhotoURL    string   `json:"id_photo_url" validate:"required,url"`
	ItemPhotoURLs []string `json:"item_photo_urls" validate:"omitempty,dive,url"`
}

type respondRequest struct {
	MessageID  string `json:"message_id" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=accepted rejected"`
	IDPhotoURL string `json:"id_photo_url" validate:"omitempty,url"`
}

type confirmRequest struct {
	MessageID string `json:"message_id" validate:"required"`
}

func (h *RequestHandler) SendHandoverRequest(c echo.Context) error {
	return h.sendRequest(c, entity.RequestKindHandover)
}

func (h *RequestHandler) SendClaimRequest(c echo.Context) error {
	return h.sendRequest(c, entity.RequestKindClaim)
}

func (h *RequestHandler) sendRequest(c echo.Context, kind entity.RequestKind) error {
	var req sendRequestRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	msg, err := h.requestUseCase.SendRequest(c.Request().Context(), userID, usecase.SendRequestInput{
		Kind:           kind,
		ConversationID: c.Param("id"),
		Reason:         req.Reason,
		IDPhotoURL:     req.IDPhotoURL,
		ItemPhotoURLs:  req.ItemPhotoURLs,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, msg)
}

func (h *RequestHandler) RespondToHandover(c echo.Context) error {
	return h.respond(c, entity.RequestKindHandover)
}

func (h *RequestHandler) RespondToClaim(c echo.Context) error {
	return h.respond(c, entity.RequestKindClaim)
}

func (h *RequestHandler) respond(c echo.Context, kind entity.RequestKind) error {
	var req respondRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	msg, err := h.requestUseCase.Respond(c.Request().Context(), userID, usecase.RespondInput{
		Kind:           kind,
		ConversationID: c.Param("id"),
		MessageID:      req.MessageID,
		Status:         entity.RequestStatus(req.Status),
		IDPhotoURL:     req.IDPhotoURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, msg)
}

func (h *RequestHandler) ConfirmHandoverPhoto(c echo.Context) error {
	return h.confirmPhoto(c, entity.RequestKindHandover)
}

func (h *RequestHandler) ConfirmClaimPhoto(c echo.Context) error {
	return h.confirmPhoto(c, entity.RequestKindClaim)
}

func (h *RequestHandler) confirmPhoto(c echo.Context, kind entity.RequestKind) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	result, err := h.requestUseCase.ConfirmPhoto(c.Request().Context(), userID, usecase.ConfirmInput{
		Kind:           kind,
		ConversationID: c.Param("id"),
		MessageID:      req.MessageID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *RequestHandler) RejectHandoverAfterConfirmation(c echo.Context) error {
	return h.rejectAfterConfirmation(c, entity.RequestKindHandover)
}

func (h *RequestHandler) RejectClaimAfterConfirmation(c echo.Context) error {
	return h.rejectAfterConfirmation(c, entity.RequestKindClaim)
}

func (h *RequestHandler) rejectAfterConfirmation(c echo.Context, kind entity.RequestKind) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	msg, err := h.requestUseCase.RejectAfterConfirmation(c.Request().Context(), userID, usecase.ConfirmInput{
		Kind:           kind,
		ConversationID: c.Param("id"),
		MessageID:      req.MessageID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, msg)
}
