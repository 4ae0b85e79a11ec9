package usecase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"uniclaim/internal/domain/entity"
	"uniclaim/internal/domain/repository"
	"uniclaim/pkg/errors"
	"uniclaim/pkg/logger"
)

// RequestUseCase drives the handover/claim lifecycle embedded in a
// conversation's request messages.
type RequestUseCase struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
	photos   PhotoStore
	notifier Notifier
	resolver *ResolutionUseCase
}

func NewRequestUseCase(
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	photos PhotoStore,
	notifier Notifier,
	resolver *ResolutionUseCase,
) *RequestUseCase {
	return &RequestUseCase{
		convRepo: convRepo,
		userRepo: userRepo,
		photos:   photos,
		notifier: notifier,
		resolver: resolver,
	}
}

type SendRequestInput struct {
	Kind           entity.RequestKind
	ConversationID string
	Reason         string
	IDPhotoURL     string
	ItemPhotoURLs  []string
}

type RespondInput struct {
	Kind           entity.RequestKind
	ConversationID string
	MessageID      string
	Status         entity.RequestStatus // accepted or rejected
	IDPhotoURL     string               // responder's id photo, required on accept
}

type ConfirmInput struct {
	Kind           entity.RequestKind
	ConversationID string
	MessageID      string
}

type ConfirmResult struct {
	PostID  string          `json:"post_id"`
	Cleanup *CleanupSummary `json:"cleanup"`
}

// SendRequest creates a pending request in the conversation's slot for the
// given kind, or rewrites the slot in place when the previous request of
// that kind was rejected. The slot claim runs transactionally so two
// concurrent senders cannot both obtain a pending request.
func (uc *RequestUseCase) SendRequest(ctx context.Context, requesterID string, input SendRequestInput) (*entity.Message, error) {
	// Fail fast on malformed URLs before any write.
	if err := validatePhotoURL(input.IDPhotoURL); err != nil {
		return nil, err
	}
	for _, photoURL := range input.ItemPhotoURLs {
		if err := validatePhotoURL(photoURL); err != nil {
			return nil, err
		}
	}

	var counterparty string

	msg, err := uc.convRepo.ClaimRequestSlot(ctx, input.ConversationID, input.Kind, func(conv *entity.Conversation, existing *entity.Message) (*entity.Message, error) {
		if !conv.HasParticipant(requesterID) {
			return nil, errors.Forbidden("User is not a participant in this conversation", nil)
		}

		if existing != nil {
			if payload := existing.RequestPayload(); payload != nil && !payload.Status.Terminal() {
				return nil, errors.DuplicatePendingRequest(string(input.Kind))
			}
		}

		senderName, senderPhoto := conversationIdentity(conv, requesterID)
		data := &entity.RequestData{
			Status:        entity.RequestStatusPending,
			Reason:        input.Reason,
			IDPhotoURL:    input.IDPhotoURL,
			ItemPhotoURLs: input.ItemPhotoURLs,
			RequestedAt:   time.Now(),
		}

		var msg *entity.Message
		if existing != nil {
			// Reuse-slot: the rejected request message is rewritten in place,
			// keeping one message per kind over the conversation's lifetime.
			msg = existing
			msg.SenderID = requesterID
			msg.SenderName = senderName
			msg.SenderProfilePicture = senderPhoto
			msg.Text = requestText(input.Kind, input.Reason)
			msg.ReadBy = []string{requesterID}
			msg.Timestamp = time.Now()
			msg.SetRequestPayload(data)
		} else {
			msg = &entity.Message{
				ConversationID:       input.ConversationID,
				SenderID:             requesterID,
				SenderName:           senderName,
				SenderProfilePicture: senderPhoto,
				Text:                 requestText(input.Kind, input.Reason),
				Type:                 input.Kind.MessageType(),
				ReadBy:               []string{requesterID},
				Timestamp:            time.Now(),
			}
			msg.SetRequestPayload(data)
		}

		counterparty = conv.OtherParticipant(requesterID)
		conv.SetRequestSlot(input.Kind, msg.ID)
		conv.LastMessage = &entity.LastMessage{
			Text:      msg.Text,
			SenderID:  requesterID,
			Timestamp: msg.Timestamp,
		}
		if conv.UnreadCounts == nil {
			conv.UnreadCounts = make(map[string]int)
		}
		if counterparty != "" {
			conv.UnreadCounts[counterparty]++
		}

		return msg, nil
	})
	if err != nil {
		return nil, err
	}

	if counterparty != "" {
		uc.notifier.Notify(ctx, []string{counterparty}, Notification{
			Type:  string(input.Kind) + "_request",
			Title: "New " + string(input.Kind) + " request",
			Body:  input.Reason,
			Data: map[string]interface{}{
				"conversation_id": input.ConversationID,
				"message_id":      msg.ID,
			},
		})
	}

	return msg, nil
}

// Respond records the counterparty's decision on a pending request.
// Accepting requires the responder's id photo and stores the request as
// pending_confirmation; the requester must still confirm the photo before
// the transaction settles. Rejecting deletes the request's photos.
func (uc *RequestUseCase) Respond(ctx context.Context, responderID string, input RespondInput) (*entity.Message, error) {
	conv, msg, payload, err := uc.loadRequest(ctx, input.Kind, input.ConversationID, input.MessageID)
	if err != nil {
		return nil, err
	}

	if !conv.HasParticipant(responderID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	if responderID == msg.SenderID {
		return nil, errors.Unauthorized("Only the counterparty can respond to a request", nil)
	}

	if payload.Status.Terminal() {
		return nil, errors.Conflict(fmt.Sprintf("request is already %s", payload.Status))
	}

	switch input.Status {
	case entity.RequestStatusAccepted:
		if payload.Status != entity.RequestStatusPending {
			return nil, errors.Conflict(fmt.Sprintf("request is already %s", payload.Status))
		}
		if input.IDPhotoURL == "" {
			return nil, errors.BadRequest("An id photo is required to accept a request", nil)
		}
		if err := validatePhotoURL(input.IDPhotoURL); err != nil {
			return nil, err
		}

		// Two-phase acceptance: provisional until the requester confirms the
		// responder's photo.
		now := time.Now()
		payload.Status = entity.RequestStatusPendingConfirmation
		payload.OwnerIDPhotoURL = input.IDPhotoURL
		payload.RespondedAt = &now
		payload.ResponderID = responderID

	case entity.RequestStatusRejected:
		uc.cleanupPhotos(ctx, payload)
		now := time.Now()
		payload.Status = entity.RequestStatusRejected
		payload.RespondedAt = &now
		payload.ResponderID = responderID

	default:
		return nil, errors.BadRequest("Status must be accepted or rejected", nil)
	}

	if err := uc.convRepo.UpdateMessage(ctx, conv.ID, msg); err != nil {
		return nil, err
	}

	uc.touchConversation(ctx, conv, msg, responderID, string(payload.Status))

	uc.notifier.Notify(ctx, []string{msg.SenderID}, Notification{
		Type:  string(input.Kind) + "_response",
		Title: "Your " + string(input.Kind) + " request was " + responseWord(payload.Status),
		Body:  conv.PostTitle,
		Data: map[string]interface{}{
			"conversation_id": conv.ID,
			"message_id":      msg.ID,
			"status":          string(payload.Status),
		},
	})

	return msg, nil
}

// ConfirmPhoto finalizes a provisionally accepted request. Only the original
// requester may confirm, and this is the sole path to the terminal accepted
// state; it triggers the full resolution cascade and returns the settled
// post id.
func (uc *RequestUseCase) ConfirmPhoto(ctx context.Context, confirmerID string, input ConfirmInput) (*ConfirmResult, error) {
	conv, msg, payload, err := uc.loadRequest(ctx, input.Kind, input.ConversationID, input.MessageID)
	if err != nil {
		return nil, err
	}

	if confirmerID != msg.SenderID {
		return nil, errors.Unauthorized("Only the requester can confirm the photo", nil)
	}
	if payload.Status.Terminal() {
		return nil, errors.Conflict(fmt.Sprintf("request is already %s", payload.Status))
	}
	if payload.Status != entity.RequestStatusPendingConfirmation {
		return nil, errors.BadRequest("Request has not been accepted yet", nil)
	}

	// The accepted status is staged in memory only; the resolver persists it
	// after the post mutation lands. A failed resolve leaves the stored
	// request in pending_confirmation so the confirm can be retried.
	payload.Status = entity.RequestStatusAccepted

	summary, err := uc.resolver.Resolve(ctx, conv, msg, confirmerID)
	if err != nil {
		return nil, err
	}

	return &ConfirmResult{
		PostID:  conv.PostID,
		Cleanup: summary,
	}, nil
}

// RejectAfterConfirmation is the escape hatch from pending_confirmation,
// e.g. when the responder's photo looked wrong. It deletes every photo the
// request references, the owner id photo explicitly included.
func (uc *RequestUseCase) RejectAfterConfirmation(ctx context.Context, rejectBy string, input ConfirmInput) (*entity.Message, error) {
	conv, msg, payload, err := uc.loadRequest(ctx, input.Kind, input.ConversationID, input.MessageID)
	if err != nil {
		return nil, err
	}

	if !conv.HasParticipant(rejectBy) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	if payload.Status.Terminal() {
		return nil, errors.Conflict(fmt.Sprintf("request is already %s", payload.Status))
	}
	if payload.Status != entity.RequestStatusPendingConfirmation {
		return nil, errors.BadRequest("Request is not awaiting photo confirmation", nil)
	}

	uc.cleanupPhotos(ctx, payload)

	now := time.Now()
	payload.Status = entity.RequestStatusRejected
	payload.RespondedAt = &now
	payload.ResponderID = rejectBy

	if err := uc.convRepo.UpdateMessage(ctx, conv.ID, msg); err != nil {
		return nil, err
	}

	uc.touchConversation(ctx, conv, msg, rejectBy, "rejected")

	uc.notifier.Notify(ctx, recipientsExcept(conv, rejectBy), Notification{
		Type:  string(input.Kind) + "_response",
		Title: "The " + string(input.Kind) + " request was rejected",
		Body:  conv.PostTitle,
		Data: map[string]interface{}{
			"conversation_id": conv.ID,
			"message_id":      msg.ID,
			"status":          "rejected",
		},
	})

	return msg, nil
}

func (uc *RequestUseCase) loadRequest(ctx context.Context, kind entity.RequestKind, conversationID, messageID string) (*entity.Conversation, *entity.Message, *entity.RequestData, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, nil, nil, err
	}

	msg, err := uc.convRepo.GetMessageByID(ctx, conversationID, messageID)
	if err != nil {
		return nil, nil, nil, err
	}

	if msg.Type != kind.MessageType() {
		return nil, nil, nil, errors.WrongMessageType(string(kind.MessageType()), string(msg.Type))
	}

	payload := msg.RequestPayload()
	if payload == nil {
		return nil, nil, nil, errors.Internal("Request message has no payload", nil)
	}

	return conv, msg, payload, nil
}

// cleanupPhotos deletes every photo the request references. Failures are
// logged and recorded through the PhotosDeleted audit flag, never raised.
func (uc *RequestUseCase) cleanupPhotos(ctx context.Context, payload *entity.RequestData) {
	if payload.PhotosDeleted {
		return
	}

	urls := payload.PhotoURLs()
	if len(urls) == 0 {
		payload.PhotosDeleted = true
		return
	}

	deleted, failed := uc.photos.DeleteByURLs(ctx, urls)
	if len(failed) > 0 {
		logger.Warn("cleanupPhotos: %d of %d photo(s) failed to delete: %v", len(failed), len(urls), failed)
	}
	payload.PhotosDeleted = len(failed) == 0 && len(deleted) == len(urls)
}

// touchConversation refreshes the denormalized last-message line and bumps
// the requester's unread counter after a response. Best-effort.
func (uc *RequestUseCase) touchConversation(ctx context.Context, conv *entity.Conversation, msg *entity.Message, actorID, statusWord string) {
	conv.LastMessage = &entity.LastMessage{
		Text:      fmt.Sprintf("%s %s", msg.Text, statusWord),
		SenderID:  actorID,
		Timestamp: time.Now(),
	}
	if conv.UnreadCounts == nil {
		conv.UnreadCounts = make(map[string]int)
	}
	for _, p := range conv.Participants {
		if p != actorID {
			conv.UnreadCounts[p]++
		}
	}
	if err := uc.convRepo.Update(ctx, conv); err != nil {
		logger.Warn("touchConversation: failed to update conversation %s: %v", conv.ID, err)
	}
}

func conversationIdentity(conv *entity.Conversation, userID string) (string, string) {
	info := conv.ParticipantInfo[userID]
	name := info.FirstName
	if info.LastName != "" {
		if name != "" {
			name += " "
		}
		name += info.LastName
	}
	if name == "" {
		name = "Unknown User"
	}
	return name, info.ProfilePicture
}

func requestText(kind entity.RequestKind, reason string) string {
	if kind == entity.RequestKindClaim {
		return "Claim request: " + reason
	}
	return "Handover request: " + reason
}

func responseWord(status entity.RequestStatus) string {
	if status == entity.RequestStatusPendingConfirmation {
		return "accepted"
	}
	return string(status)
}

func validatePhotoURL(raw string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.InvalidPhotoURL(raw, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return errors.InvalidPhotoURL(raw, nil)
	}
	return nil
}
