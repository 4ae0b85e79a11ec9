package repository

import (
	"context"

	"uniclaim/internal/domain/entity"
)

// SlotBuildFunc builds or rewrites the request message occupying a
// conversation's slot for one request kind. It runs inside the store's
// read-modify-write primitive: conv is the conversation as read in the
// transaction and existing is the current slot message, nil when the slot is
// empty. The returned message and the (mutated) conversation are written
// together atomically.
type SlotBuildFunc func(conv *entity.Conversation, existing *entity.Message) (*entity.Message, error)

type ConversationRepository interface {
	Create(ctx context.Context, conv *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	Update(ctx context.Context, conv *entity.Conversation) error
	ListByUser(ctx context.Context, userID string) ([]*entity.Conversation, error)
	ListByPost(ctx context.Context, postID string) ([]*entity.Conversation, error)
	ListAll(ctx context.Context) ([]*entity.Conversation, error)
	FindByPostAndUsers(ctx context.Context, postID, callerID, otherID string) (*entity.Conversation, error)

	// DeleteWithMessages removes every message then the conversation document
	// in one atomic batch.
	DeleteWithMessages(ctx context.Context, id string) error

	// Message methods
	CreateMessage(ctx context.Context, msg *entity.Message) error
	GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)
	UpdateMessage(ctx context.Context, conversationID string, msg *entity.Message) error
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
	DeleteMessages(ctx context.Context, conversationID string, messageIDs []string) error
	UpdateMessageReadStatus(ctx context.Context, conversationID, messageID, userID string) error

	// ClaimRequestSlot runs build under a transactional read-modify-write so
	// the at-most-one-pending invariant holds without a check-then-act race.
	ClaimRequestSlot(ctx context.Context, conversationID string, kind entity.RequestKind, build SlotBuildFunc) (*entity.Message, error)

	// Live subscriptions. The returned function cancels the subscription;
	// callers must invoke it on teardown.
	SubscribeMessages(ctx context.Context, conversationID string, handler func([]*entity.Message)) (func(), error)
	SubscribeConversationsForUser(ctx context.Context, userID string, handler func([]*entity.Conversation)) (func(), error)
}
