package usecase

import (
	"context"
	"time"

	"uniclaim/internal/domain/entity"
	"uniclaim/internal/domain/repository"
	"uniclaim/pkg/errors"
	"uniclaim/pkg/logger"
)

// statsScanLimit bounds the per-conversation message scan performed by the
// admin stats aggregate.
const statsScanLimit = 30

type ConversationUseCase struct {
	convRepo  repository.ConversationRepository
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	retention *RetentionManager
	notifier  Notifier
}

func NewConversationUseCase(
	convRepo repository.ConversationRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	retention *RetentionManager,
	notifier Notifier,
) *ConversationUseCase {
	return &ConversationUseCase{
		convRepo:  convRepo,
		postRepo:  postRepo,
		userRepo:  userRepo,
		retention: retention,
		notifier:  notifier,
	}
}

type CreateConversationInput struct {
	PostID    string
	PostTitle string
	PostType  entity.PostType
	OwnerID   string
	// Caller-supplied snapshots, used when a fresh user read fails.
	CallerInfo entity.ParticipantInfo
	OwnerInfo  entity.ParticipantInfo
}

type SendMessageInput struct {
	ConversationID string
	Text           string
}

// CreateConversation creates the conversation between the caller and the
// post owner, or returns the existing one. The duplicate check is
// read-then-write; a true create race can still produce two conversations
// for the same pair, reconciled by the reuse-if-found query on later calls.
func (uc *ConversationUseCase) CreateConversation(ctx context.Context, callerID string, input CreateConversationInput) (*entity.Conversation, error) {
	if callerID == input.OwnerID {
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	existing, err := uc.convRepo.FindByPostAndUsers(ctx, input.PostID, callerID, input.OwnerID)
	if err == nil && existing != nil {
		return existing, nil
	}
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	conv := &entity.Conversation{
		PostID:    input.PostID,
		PostTitle: input.PostTitle,
		PostType:  input.PostType,
		Participants: []string{
			callerID,
			input.OwnerID,
		},
		ParticipantInfo: map[string]entity.ParticipantInfo{
			callerID:      uc.participantInfo(ctx, callerID, input.CallerInfo),
			input.OwnerID: uc.participantInfo(ctx, input.OwnerID, input.OwnerInfo),
		},
		UnreadCounts: make(map[string]int),
		PostStatus:   entity.PostStatusPending,
	}

	if post, err := uc.postRepo.GetByID(ctx, input.PostID); err == nil {
		conv.PostStatus = post.Status
		if conv.PostTitle == "" {
			conv.PostTitle = post.Title
		}
		if conv.PostType == "" {
			conv.PostType = post.Type
		}
	} else {
		logger.Warn("CreateConversation: could not read post %s, using caller snapshot: %v", input.PostID, err)
	}

	if err := uc.convRepo.Create(ctx, conv); err != nil {
		return nil, err
	}

	return conv, nil
}

// participantInfo seeds the denormalized snapshot from the freshest user
// record, falling back to the caller-supplied one when the read fails.
func (uc *ConversationUseCase) participantInfo(ctx context.Context, userID string, fallback entity.ParticipantInfo) entity.ParticipantInfo {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("participantInfo: fresh read for user %s failed, using snapshot: %v", userID, err)
		return fallback
	}
	return entity.ParticipantInfo{
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		ProfilePicture: user.ProfilePicture,
		ContactNum:     user.ContactNum,
	}
}

func (uc *ConversationUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	conv, err := uc.convRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}

	if !conv.HasParticipant(senderID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	senderName, senderPhoto := uc.senderIdentity(ctx, conv, senderID)

	msg := &entity.Message{
		ConversationID:       input.ConversationID,
		SenderID:             senderID,
		SenderName:           senderName,
		SenderProfilePicture: senderPhoto,
		Text:                 input.Text,
		Type:                 entity.MessageTypeText,
		ReadBy:               []string{senderID},
		Timestamp:            time.Now(),
	}

	if err := uc.convRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	conv.LastMessage = &entity.LastMessage{
		Text:      input.Text,
		SenderID:  senderID,
		Timestamp: msg.Timestamp,
	}
	if conv.UnreadCounts == nil {
		conv.UnreadCounts = make(map[string]int)
	}
	for _, participantID := range conv.Participants {
		if participantID != senderID {
			conv.UnreadCounts[participantID]++
		}
	}

	if err := uc.convRepo.Update(ctx, conv); err != nil {
		return nil, err
	}

	// Retention trimming and notification are best-effort; neither may block
	// message delivery.
	if err := uc.retention.Trim(ctx, conv.ID); err != nil {
		logger.Warn("SendMessage: retention trim failed for conversation %s: %v", conv.ID, err)
	}

	uc.notifier.Notify(ctx, recipientsExcept(conv, senderID), Notification{
		Type:  "new_message",
		Title: conv.PostTitle,
		Body:  input.Text,
		Data: map[string]interface{}{
			"conversation_id": conv.ID,
			"message_id":      msg.ID,
			"sender_id":       senderID,
		},
	})

	return msg, nil
}

// senderIdentity resolves the sender's display name and photo from a fresh
// user read, refreshing the conversation's denormalized snapshot on the way.
// A failed read degrades to the stored snapshot.
func (uc *ConversationUseCase) senderIdentity(ctx context.Context, conv *entity.Conversation, senderID string) (string, string) {
	if user, err := uc.userRepo.GetByID(ctx, senderID); err == nil {
		if conv.ParticipantInfo == nil {
			conv.ParticipantInfo = make(map[string]entity.ParticipantInfo)
		}
		conv.ParticipantInfo[senderID] = entity.ParticipantInfo{
			FirstName:      user.FirstName,
			LastName:       user.LastName,
			ProfilePicture: user.ProfilePicture,
			ContactNum:     user.ContactNum,
		}
		return user.FullName(), user.ProfilePicture
	}

	info := conv.ParticipantInfo[senderID]
	name := info.FirstName
	if info.LastName != "" {
		name += " " + info.LastName
	}
	if name == "" {
		name = "Unknown User"
	}
	return name, info.ProfilePicture
}

func (uc *ConversationUseCase) GetConversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return conv, nil
}

func (uc *ConversationUseCase) GetUserConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return uc.convRepo.ListByUser(ctx, userID)
}

func (uc *ConversationUseCase) GetMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if !conv.HasParticipant(userID) {
		return nil, 0, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return uc.convRepo.ListMessages(ctx, conversationID, limit, offset)
}

// MarkConversationRead zeroes the caller's unread counter. A missing
// conversation is a benign race with concurrent resolution and is ignored.
func (uc *ConversationUseCase) MarkConversationRead(ctx context.Context, userID, conversationID string) error {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil
		}
		return err
	}
	if !conv.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}

	if conv.UnreadCounts == nil {
		conv.UnreadCounts = make(map[string]int)
	}
	conv.UnreadCounts[userID] = 0

	return uc.convRepo.Update(ctx, conv)
}

// MarkMessageRead is idempotent and tolerates both the conversation and the
// message having been deleted underneath the caller.
func (uc *ConversationUseCase) MarkMessageRead(ctx context.Context, userID, conversationID, messageID string) error {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil
		}
		return err
	}
	if !conv.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return uc.convRepo.UpdateMessageReadStatus(ctx, conversationID, messageID, userID)
}

type DeleteConversationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DeleteConversation removes an unresolved conversation at a participant's
// request. Conversations whose post has already settled are preserved until
// the resolution cascade removes them.
func (uc *ConversationUseCase) DeleteConversation(ctx context.Context, callerID, conversationID string) (*DeleteConversationResult, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	if post, err := uc.postRepo.GetByID(ctx, conv.PostID); err == nil && post.Status.Settled() {
		return &DeleteConversationResult{
			Success: false,
			Error:   "conversation belongs to a completed post",
		}, nil
	}

	if err := uc.convRepo.DeleteWithMessages(ctx, conversationID); err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, recipientsExcept(conv, callerID), Notification{
		Type:  "conversation_deleted",
		Title: conv.PostTitle,
		Body:  "The conversation was deleted",
		Data:  map[string]interface{}{"conversation_id": conversationID},
	})

	return &DeleteConversationResult{Success: true}, nil
}

// AdminHardDeleteConversation removes a conversation unconditionally.
func (uc *ConversationUseCase) AdminHardDeleteConversation(ctx context.Context, conversationID string) error {
	return uc.convRepo.DeleteWithMessages(ctx, conversationID)
}

type MessageStats struct {
	TotalConversations      int `json:"total_conversations"`
	TotalUnreadMessages     int `json:"total_unread_messages"`
	PendingHandoverRequests int `json:"pending_handover_requests"`
	PendingClaimRequests    int `json:"pending_claim_requests"`
}

// GetAdminMessageStats aggregates across all conversations, scanning at most
// statsScanLimit recent messages per conversation.
func (uc *ConversationUseCase) GetAdminMessageStats(ctx context.Context) (*MessageStats, error) {
	convs, err := uc.convRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &MessageStats{TotalConversations: len(convs)}

	for _, conv := range convs {
		for _, count := range conv.UnreadCounts {
			stats.TotalUnreadMessages += count
		}

		msgs, _, err := uc.convRepo.ListMessages(ctx, conv.ID, 0, 0)
		if err != nil {
			logger.Warn("GetAdminMessageStats: skipping conversation %s: %v", conv.ID, err)
			continue
		}
		start := len(msgs) - statsScanLimit
		if start < 0 {
			start = 0
		}
		for _, msg := range msgs[start:] {
			payload := msg.RequestPayload()
			if payload == nil || payload.Status.Terminal() {
				continue
			}
			switch msg.Type {
			case entity.MessageTypeHandoverRequest:
				stats.PendingHandoverRequests++
			case entity.MessageTypeClaimRequest:
				stats.PendingClaimRequests++
			}
		}
	}

	return stats, nil
}

// SubscribeMessages attaches a live listener to a conversation's ordered
// message list. The returned cancel function must be called on teardown.
func (uc *ConversationUseCase) SubscribeMessages(ctx context.Context, userID, conversationID string, handler func([]*entity.Message)) (func(), error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return uc.convRepo.SubscribeMessages(ctx, conversationID, handler)
}

func (uc *ConversationUseCase) SubscribeConversationsForUser(ctx context.Context, userID string, handler func([]*entity.Conversation)) (func(), error) {
	return uc.convRepo.SubscribeConversationsForUser(ctx, userID, handler)
}

func recipientsExcept(conv *entity.Conversation, actorID string) []string {
	var recipients []string
	for _, p := range conv.Participants {
		if p != actorID {
			recipients = append(recipients, p)
		}
	}
	return recipients
}
