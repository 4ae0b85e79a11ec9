package usecase

import (
	"context"

	"uniclaim/internal/domain/repository"
	"uniclaim/pkg/logger"
)

// DefaultMessageCap is the per-conversation message bound enforced by the
// retention manager.
const DefaultMessageCap = 50

// RetentionManager keeps each conversation's plain message count at or
// below the cap by deleting the oldest eligible messages. Handover and claim
// request messages are never eligible regardless of age and do not count
// toward the cap.
type RetentionManager struct {
	convRepo repository.ConversationRepository
	cap      int
}

func NewRetentionManager(convRepo repository.ConversationRepository, cap int) *RetentionManager {
	if cap <= 0 {
		cap = DefaultMessageCap
	}
	return &RetentionManager{
		convRepo: convRepo,
		cap:      cap,
	}
}

// Trim runs after every plain message append. Callers treat a trim failure
// as log-and-continue; it must never block message delivery.
func (m *RetentionManager) Trim(ctx context.Context, conversationID string) error {
	msgs, _, err := m.convRepo.ListMessages(ctx, conversationID, 0, 0)
	if err != nil {
		return err
	}

	// Only unprotected messages count toward the cap, so a conversation with
	// 50 plain messages and an active request stores 51 documents.
	eligible := 0
	for _, msg := range msgs {
		if !msg.Protected() {
			eligible++
		}
	}
	if eligible <= m.cap {
		return nil
	}
	toDelete := eligible - m.cap

	// Oldest to newest, skipping protected request messages.
	var ids []string
	for _, msg := range msgs {
		if len(ids) == toDelete {
			break
		}
		if msg.Protected() {
			continue
		}
		ids = append(ids, msg.ID)
	}

	if len(ids) == 0 {
		return nil
	}

	if err := m.convRepo.DeleteMessages(ctx, conversationID, ids); err != nil {
		return err
	}

	logger.Debug("Retention: trimmed %d message(s) from conversation %s", len(ids), conversationID)
	return nil
}
