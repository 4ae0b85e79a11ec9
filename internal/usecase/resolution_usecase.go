package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"uniclaim/internal/domain/entity"
	"uniclaim/internal/domain/repository"
	"uniclaim/pkg/errors"
	"uniclaim/pkg/logger"
)

// cascadeParallelism bounds the fan-out of per-conversation delete units
// during the resolution cascade.
const cascadeParallelism = 4

// CleanupSummary reports the outcome of the best-effort cascade. It is
// returned to the caller, never raised as an error.
type CleanupSummary struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// ResolutionUseCase finalizes a post once a request is confirmed: it stamps
// the post with a details snapshot and the conversation archive, notifies
// the other side, then tears down every conversation referencing the post.
type ResolutionUseCase struct {
	convRepo repository.ConversationRepository
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	notifier Notifier
}

func NewResolutionUseCase(
	convRepo repository.ConversationRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
) *ResolutionUseCase {
	return &ResolutionUseCase{
		convRepo: convRepo,
		postRepo: postRepo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

// Resolve settles the post behind the confirmed request message. The post
// mutation (status, details snapshot, conversation archive) must succeed;
// the conversation teardown afterwards is best-effort and its failures are
// collected into the returned summary.
func (uc *ResolutionUseCase) Resolve(ctx context.Context, conv *entity.Conversation, msg *entity.Message, confirmerID string) (*CleanupSummary, error) {
	payload := msg.RequestPayload()
	if payload == nil {
		return nil, errors.Internal("Confirmed message has no request payload", nil)
	}

	post, err := uc.postRepo.GetByID(ctx, conv.PostID)
	if err != nil {
		return nil, err
	}

	// Profile reads are best-effort; a missing profile degrades to the
	// conversation snapshot, never blocks resolution.
	now := time.Now()
	details := &entity.ResolutionDetails{
		Requester:     uc.partyDetails(ctx, conv, msg.SenderID),
		Confirmer:     uc.partyDetails(ctx, conv, confirmerID),
		Reason:        payload.Reason,
		IDPhotoURL:    payload.IDPhotoURL,
		ItemPhotoURLs: append([]string(nil), payload.ItemPhotoURLs...),
		OwnerIDPhoto:  payload.OwnerIDPhotoURL,
		RequestedAt:   payload.RequestedAt,
		ConfirmedAt:   now,
		RequestDetails: entity.RequestSnapshot{
			MessageID:       msg.ID,
			ConversationID:  conv.ID,
			RequesterID:     msg.SenderID,
			Status:          payload.Status,
			Reason:          payload.Reason,
			IDPhotoURL:      payload.IDPhotoURL,
			ItemPhotoURLs:   append([]string(nil), payload.ItemPhotoURLs...),
			OwnerIDPhotoURL: payload.OwnerIDPhotoURL,
			RequestedAt:     payload.RequestedAt,
			RespondedAt:     copyTime(payload.RespondedAt),
			ResponderID:     payload.ResponderID,
		},
	}

	// Archive the full ordered history before teardown destroys it; this is
	// the only place the history survives.
	archive, err := uc.buildArchive(ctx, conv, msg)
	if err != nil {
		return nil, err
	}

	switch msg.Type {
	case entity.MessageTypeHandoverRequest:
		post.Status = entity.PostStatusCompleted
		post.HandoverDetails = details
	case entity.MessageTypeClaimRequest:
		post.Status = entity.PostStatusResolved
		post.ClaimDetails = details
	default:
		return nil, errors.WrongMessageType("request", string(msg.Type))
	}
	post.ConversationData = archive

	if err := uc.postRepo.Update(ctx, post); err != nil {
		return nil, errors.Internal("Failed to finalize post", err)
	}

	// The terminal status is written only after the post mutation succeeds;
	// until then the stored request stays in pending_confirmation and the
	// confirm remains retryable. The cascade below deletes the message
	// anyway, so a failure here is logged, not raised.
	if err := uc.convRepo.UpdateMessage(ctx, conv.ID, msg); err != nil {
		logger.Warn("Resolve: failed to persist terminal status for message %s: %v", msg.ID, err)
	}

	// Notify before deletion, while the conversation is still readable.
	uc.notifier.Notify(ctx, recipientsExcept(conv, confirmerID), Notification{
		Type:  "request_confirmed",
		Title: conv.PostTitle,
		Body:  fmt.Sprintf("The item post was marked %s", post.Status),
		Data: map[string]interface{}{
			"post_id":         post.ID,
			"conversation_id": conv.ID,
		},
	})

	summary := uc.cascadeDelete(ctx, post.ID)
	return summary, nil
}

func (uc *ResolutionUseCase) buildArchive(ctx context.Context, conv *entity.Conversation, confirmed *entity.Message) (*entity.ConversationArchive, error) {
	msgs, _, err := uc.convRepo.ListMessages(ctx, conv.ID, 0, 0)
	if err != nil {
		return nil, errors.Internal("Failed to read conversation history for archive", err)
	}

	// Copy everything: later edits to live documents must not retroactively
	// alter the archived record.
	copied := make([]entity.Message, 0, len(msgs))
	for _, m := range msgs {
		// The confirmed request is archived with its terminal status even
		// though the stored copy has not been updated yet at this point.
		if m.ID == confirmed.ID {
			m = confirmed
		}
		c := *m
		c.ReadBy = append([]string(nil), m.ReadBy...)
		if m.Handover != nil {
			h := *m.Handover
			h.ItemPhotoURLs = append([]string(nil), m.Handover.ItemPhotoURLs...)
			c.Handover = &h
		}
		if m.Claim != nil {
			cl := *m.Claim
			cl.ItemPhotoURLs = append([]string(nil), m.Claim.ItemPhotoURLs...)
			c.Claim = &cl
		}
		copied = append(copied, c)
	}

	info := make(map[string]entity.ParticipantInfo, len(conv.ParticipantInfo))
	for id, p := range conv.ParticipantInfo {
		info[id] = p
	}

	return &entity.ConversationArchive{
		ConversationID:  conv.ID,
		Participants:    append([]string(nil), conv.Participants...),
		ParticipantInfo: info,
		Messages:        copied,
		CreatedAt:       conv.CreatedAt,
		ArchivedAt:      time.Now(),
	}, nil
}

// cascadeDelete tears down every conversation referencing the post, not just
// the one that resolved it. Each conversation is an independent delete unit;
// one failure must not abort the rest.
func (uc *ResolutionUseCase) cascadeDelete(ctx context.Context, postID string) *CleanupSummary {
	summary := &CleanupSummary{}

	convs, err := uc.convRepo.ListByPost(ctx, postID)
	if err != nil {
		logger.LogCleanupError(postID, "", err)
		summary.Failed++
		summary.Errors = append(summary.Errors, err.Error())
		return summary
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeParallelism)

	for _, conv := range convs {
		conv := conv
		g.Go(func() error {
			err := uc.convRepo.DeleteWithMessages(gctx, conv.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.LogCleanupError(postID, conv.ID, err)
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("conversation %s: %v", conv.ID, err))
			} else {
				summary.Succeeded++
			}
			// Cleanup errors are collected, never propagated.
			return nil
		})
	}
	g.Wait()

	return summary
}

func (uc *ResolutionUseCase) partyDetails(ctx context.Context, conv *entity.Conversation, userID string) entity.PartyDetails {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("Resolve: profile read for user %s failed, degrading to snapshot: %v", userID, err)
		name, photo := conversationIdentity(conv, userID)
		info := conv.ParticipantInfo[userID]
		return entity.PartyDetails{
			UserID:         userID,
			FullName:       name,
			ContactNum:     info.ContactNum,
			ProfilePicture: photo,
		}
	}
	return entity.PartyDetails{
		UserID:         userID,
		FullName:       user.FullName(),
		Email:          user.Email,
		ContactNum:     user.ContactNum,
		StudentID:      user.StudentID,
		ProfilePicture: user.ProfilePicture,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
