package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"uniclaim/internal/domain/entity"
	"uniclaim/internal/domain/repository"
	"uniclaim/pkg/errors"
	"uniclaim/pkg/logger"
)

// Firestore caps a write batch at 500 operations; stay under it so the
// conversation document fits in the same batch as its messages.
const maxBatchWrites = 450

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) conversations() *firestore.CollectionRef {
	return r.client.Collection("conversations")
}

func (r *firestoreConversationRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.conversations().Doc(conversationID).Collection("messages")
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conv *entity.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}

	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	_, err := r.conversations().Doc(conv.ID).Set(ctx, conv)
	if err != nil {
		return errors.Internal("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.conversations().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conv, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conv *entity.Conversation) error {
	conv.UpdatedAt = time.Now()

	_, err := r.conversations().Doc(conv.ID).Set(ctx, conv)
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	query := r.conversations().Where("participants", "array-contains", userID).OrderBy("updatedAt", firestore.Desc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch conversations", err)
	}

	var convs []*entity.Conversation
	for _, doc := range docs {
		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
			continue
		}
		convs = append(convs, &conv)
	}

	return convs, nil
}

func (r *firestoreConversationRepository) ListByPost(ctx context.Context, postID string) ([]*entity.Conversation, error) {
	docs, err := r.conversations().Where("postId", "==", postID).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to query conversations by post", err)
	}

	var convs []*entity.Conversation
	for _, doc := range docs {
		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
			continue
		}
		convs = append(convs, &conv)
	}

	return convs, nil
}

func (r *firestoreConversationRepository) ListAll(ctx context.Context) ([]*entity.Conversation, error) {
	docs, err := r.conversations().Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list conversations", err)
	}

	var convs []*entity.Conversation
	for _, doc := range docs {
		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
			continue
		}
		convs = append(convs, &conv)
	}

	return convs, nil
}

// FindByPostAndUsers queries by postId plus the caller's membership and
// filters for the counterparty client-side. Querying only fields the caller
// can read avoids both a composite index and access-policy violations.
func (r *firestoreConversationRepository) FindByPostAndUsers(ctx context.Context, postID, callerID, otherID string) (*entity.Conversation, error) {
	query := r.conversations().
		Where("postId", "==", postID).
		Where("participants", "array-contains", callerID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to query conversations by post and user", err)
	}

	for _, doc := range docs {
		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			continue
		}
		if conv.HasParticipant(otherID) {
			return &conv, nil
		}
	}

	return nil, errors.NotFound("Conversation", nil)
}

func (r *firestoreConversationRepository) DeleteWithMessages(ctx context.Context, id string) error {
	convRef := r.conversations().Doc(id)

	docs, err := convRef.Collection("messages").Documents(ctx).GetAll()
	if err != nil {
		return errors.Internal("Failed to list messages for deletion", err)
	}

	batch := r.client.Batch()
	writes := 0
	for _, doc := range docs {
		batch.Delete(doc.Ref)
		writes++
		if writes == maxBatchWrites {
			if _, err := batch.Commit(ctx); err != nil {
				return errors.Internal("Failed to delete conversation messages", err)
			}
			batch = r.client.Batch()
			writes = 0
		}
	}

	batch.Delete(convRef)
	if _, err := batch.Commit(ctx); err != nil {
		return errors.Internal("Failed to delete conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) CreateMessage(ctx context.Context, msg *entity.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	_, err := r.messages(msg.ConversationID).Doc(msg.ID).Set(ctx, msg)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.messages(conversationID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var msg entity.Message
	if err := doc.DataTo(&msg); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &msg, nil
}

func (r *firestoreConversationRepository) UpdateMessage(ctx context.Context, conversationID string, msg *entity.Message) error {
	_, err := r.messages(conversationID).Doc(msg.ID).Set(ctx, msg)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}
	return nil
}

// ListMessages returns messages ordered oldest-first, as the provider
// guarantees within a single query.
func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.messages(conversationID).OrderBy("timestamp", firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for conversation %s: %v", conversationID, err)
		return nil, 0, errors.Internal("Failed to fetch messages", err)
	}

	total := int64(len(docs))

	start := offset
	if start > len(docs) {
		start = len(docs)
	}
	end := len(docs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var msgs []*entity.Message
	for _, doc := range docs[start:end] {
		var msg entity.Message
		if err := doc.DataTo(&msg); err != nil {
			logger.Warn("Skipping malformed message %s in conversation %s: %v", doc.Ref.ID, conversationID, err)
			continue
		}
		msgs = append(msgs, &msg)
	}

	return msgs, total, nil
}

func (r *firestoreConversationRepository) DeleteMessages(ctx context.Context, conversationID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	batch := r.client.Batch()
	writes := 0
	for _, id := range messageIDs {
		batch.Delete(r.messages(conversationID).Doc(id))
		writes++
		if writes == maxBatchWrites {
			if _, err := batch.Commit(ctx); err != nil {
				return errors.Internal("Failed to delete messages", err)
			}
			batch = r.client.Batch()
			writes = 0
		}
	}

	if writes > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return errors.Internal("Failed to delete messages", err)
		}
	}

	return nil
}

func (r *firestoreConversationRepository) UpdateMessageReadStatus(ctx context.Context, conversationID, messageID, userID string) error {
	docRef := r.messages(conversationID).Doc(messageID)
	doc, err := docRef.Get(ctx)

	if err != nil {
		if status.Code(err) == codes.NotFound {
			// Concurrent resolution may have deleted the message; expected race.
			logger.Debug("UpdateMessageReadStatus: message %s not found in conversation %s", messageID, conversationID)
			return nil
		}
		return errors.Internal("Failed to get message", err)
	}

	var msg entity.Message
	if err := doc.DataTo(&msg); err != nil {
		return errors.Internal("Failed to parse message data", err)
	}

	if msg.ReadByUser(userID) {
		return nil
	}

	msg.ReadBy = append(msg.ReadBy, userID)

	_, err = docRef.Set(ctx, msg)
	if err != nil {
		return errors.Internal("Failed to update message read status", err)
	}

	return nil
}

// ClaimRequestSlot reads the conversation and its current slot message,
// invokes build, and writes the resulting message plus conversation in a
// single Firestore transaction. This makes the duplicate-pending guard a
// conditional write rather than a check-then-act race.
func (r *firestoreConversationRepository) ClaimRequestSlot(ctx context.Context, conversationID string, kind entity.RequestKind, build repository.SlotBuildFunc) (*entity.Message, error) {
	convRef := r.conversations().Doc(conversationID)
	var result *entity.Message

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(convRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", err)
			}
			return errors.Internal("Failed to get conversation", err)
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			return errors.Internal("Failed to parse conversation data", err)
		}

		var existing *entity.Message
		if has, msgID := conv.RequestSlot(kind); has && msgID != "" {
			msgDoc, err := tx.Get(convRef.Collection("messages").Doc(msgID))
			if err != nil {
				if status.Code(err) != codes.NotFound {
					return errors.Internal("Failed to get request message", err)
				}
			} else {
				var msg entity.Message
				if err := msgDoc.DataTo(&msg); err != nil {
					return errors.Internal("Failed to parse request message", err)
				}
				existing = &msg
			}
		}

		msg, err := build(&conv, existing)
		if err != nil {
			return err
		}
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}
		// The slot pointer must carry the id assigned above, not the empty id
		// the build callback saw.
		conv.SetRequestSlot(kind, msg.ID)

		if err := tx.Set(convRef.Collection("messages").Doc(msg.ID), msg); err != nil {
			return errors.Internal("Failed to write request message", err)
		}

		conv.UpdatedAt = time.Now()
		if err := tx.Set(convRef, &conv); err != nil {
			return errors.Internal("Failed to update conversation", err)
		}

		result = msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *firestoreConversationRepository) SubscribeMessages(ctx context.Context, conversationID string, handler func([]*entity.Message)) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)

	query := r.messages(conversationID).OrderBy("timestamp", firestore.Asc)
	snaps := query.Snapshots(subCtx)

	go func() {
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Warn("Message subscription for conversation %s ended: %v", conversationID, err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Warn("Failed to read message snapshot for conversation %s: %v", conversationID, err)
				continue
			}

			msgs := make([]*entity.Message, 0, len(docs))
			for _, doc := range docs {
				var msg entity.Message
				if err := doc.DataTo(&msg); err != nil {
					continue
				}
				msgs = append(msgs, &msg)
			}
			handler(msgs)
		}
	}()

	return cancel, nil
}

func (r *firestoreConversationRepository) SubscribeConversationsForUser(ctx context.Context, userID string, handler func([]*entity.Conversation)) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)

	query := r.conversations().Where("participants", "array-contains", userID).OrderBy("updatedAt", firestore.Desc)
	snaps := query.Snapshots(subCtx)

	go func() {
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Warn("Conversation subscription for user %s ended: %v", userID, err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Warn("Failed to read conversation snapshot for user %s: %v", userID, err)
				continue
			}

			convs := make([]*entity.Conversation, 0, len(docs))
			for _, doc := range docs {
				var conv entity.Conversation
				if err := doc.DataTo(&conv); err != nil {
					continue
				}
				convs = append(convs, &conv)
			}
			handler(convs)
		}
	}()

	return cancel, nil
}
