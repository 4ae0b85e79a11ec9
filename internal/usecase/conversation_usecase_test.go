package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniclaim/internal/domain/entity"
	"uniclaim/pkg/errors"
)

func TestCreateConversationRejectsSelfChat(t *testing.T) {
	f := newFixture(50)

	_, err := f.conversations.CreateConversation(context.Background(), "owner", CreateConversationInput{
		PostID:  "post-1",
		OwnerID: "owner",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestCreateConversationReusesExisting(t *testing.T) {
	f := newFixture(50)
	f.seedUser("finder", "Fin", "Der")
	f.seedUser("owner", "Own", "Er")
	f.seedPost("post-1", "Lost item", entity.PostTypeLost, "owner")
	ctx := context.Background()

	first, err := f.conversations.CreateConversation(ctx, "finder", CreateConversationInput{
		PostID:    "post-1",
		PostTitle: "Lost item",
		PostType:  entity.PostTypeLost,
		OwnerID:   "owner",
	})
	require.NoError(t, err)

	second, err := f.conversations.CreateConversation(ctx, "finder", CreateConversationInput{
		PostID:  "post-1",
		OwnerID: "owner",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	convs, err := f.conversations.GetUserConversations(ctx, "finder")
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestCreateConversationSeedsParticipantInfo(t *testing.T) {
	f := newFixture(50)
	f.seedUser("finder", "Fin", "Der")
	f.seedPost("post-1", "Lost item", entity.PostTypeLost, "owner")
	ctx := context.Background()

	// The owner has no user record; their snapshot falls back to the
	// caller-supplied one.
	conv, err := f.conversations.CreateConversation(ctx, "finder", CreateConversationInput{
		PostID:    "post-1",
		PostTitle: "Lost item",
		PostType:  entity.PostTypeLost,
		OwnerID:   "owner",
		OwnerInfo: entity.ParticipantInfo{FirstName: "Snapshot", LastName: "Owner"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Fin", conv.ParticipantInfo["finder"].FirstName)
	assert.Equal(t, "Snapshot", conv.ParticipantInfo["owner"].FirstName)
	assert.Equal(t, entity.PostStatusPending, conv.PostStatus)
}

func TestSendMessageBumpsUnreadAndNotifies(t *testing.T) {
	f := newFixture(50)
	f.seedUser("finder", "Fin", "Der")
	f.seedUser("owner", "Own", "Er")
	f.seedConversation("conv-1", "post-1", "finder", "owner")
	ctx := context.Background()

	msg, err := f.conversations.SendMessage(ctx, "finder", SendMessageInput{
		ConversationID: "conv-1",
		Text:           "is this your bag?",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MessageTypeText, msg.Type)
	assert.Equal(t, []string{"finder"}, msg.ReadBy)
	assert.Equal(t, "Fin Der", msg.SenderName)

	conv, err := f.convRepo.GetByID(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "is this your bag?", conv.LastMessage.Text)
	assert.Equal(t, 1, conv.UnreadCounts["owner"])
	assert.Equal(t, 0, conv.UnreadCounts["finder"])

	sent := f.notifier.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"owner"}, sent[0].Recipients)
	assert.Equal(t, "new_message", sent[0].Payload.Type)
}

func TestSendMessageNonParticipant(t *testing.T) {
	f := newFixture(50)
	f.seedConversation("conv-1", "post-1", "finder", "owner")

	_, err := f.conversations.SendMessage(context.Background(), "stranger", SendMessageInput{
		ConversationID: "conv-1",
		Text:           "hi",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestMarkConversationReadZeroesCounter(t *testing.T) {
	f := newFixture(50)
	f.seedUser("finder", "Fin", "Der")
	f.seedConversation("conv-1", "post-1", "finder", "owner")
	ctx := context.Background()

	_, err := f.conversations.SendMessage(ctx, "finder", SendMessageInput{
		ConversationID: "conv-1",
		Text:           "hello",
	})
	require.NoError(t, err)

	require.NoError(t, f.conversations.MarkConversationRead(ctx, "owner", "conv-1"))

	conv, err := f.convRepo.GetByID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, 0, conv.UnreadCounts["owner"])
}

func TestMarkReadToleratesDeletedConversation(t *testing.T) {
	f := newFixture(50)
	ctx := context.Background()

	// Marking a conversation the cascade already removed is a benign race.
	assert.NoError(t, f.conversations.MarkConversationRead(ctx, "owner", "gone"))
	assert.NoError(t, f.conversations.MarkMessageRead(ctx, "owner", "gone", "msg-1"))
}

func TestMarkMessageRead(t *testing.T) {
	f := newFixture(50)
	f.seedUser("finder", "Fin", "Der")
	f.seedConversation("conv-1", "post-1", "finder", "owner")
	ctx := context.Background()

	msg, err := f.conversations.SendMessage(ctx, "finder", SendMessageInput{
		ConversationID: "conv-1",
		Text:           "hello",
	})
	require.NoError(t, err)

	require.NoError(t, f.conversations.MarkMessageRead(ctx, "owner", "conv-1", msg.ID))
	// Idempotent: a second call does not duplicate the entry.
	require.NoError(t, f.conversations.MarkMessageRead(ctx, "owner", "conv-1", msg.ID))

	stored, err := f.convRepo.GetMessageByID(ctx, "conv-1", msg.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"finder", "owner"}, stored.ReadBy)
}

func TestDeleteConversationBlockedWhenSettled(t *testing.T) {
	f := newFixture(50)
	f.seedPost("post-1", "Lost item", entity.PostTypeLost, "owner")
	f.seedConversation("conv-1", "post-1", "finder", "owner")
	ctx := context.Background()

	post, err := f.postRepo.GetByID(ctx, "post-1")
	require.NoError(t, err)
	post.Status = entity.PostStatusCompleted
	require.NoError(t, f.postRepo.Update(ctx, post))

	result, err := f.conversations.DeleteConversation(ctx, "finder", "conv-1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)

	// Conversation survives until the resolution cascade removes it.
	_, err = f.convRepo.GetByID(ctx, "conv-1")
	assert.NoError(t, err)
}

func TestDeleteConversationRemovesMessages(t *testing.T) {
	f := newFixture(50)
	f.seedUser("finder", "Fin", "Der")
	f.seedPost("post-1", "Lost item", entity.PostTypeLost, "owner")
	f.seedConversation("conv-1", "post-1", "finder", "owner")
	ctx := context.Background()

	_, err := f.conversations.SendMessage(ctx, "finder", SendMessageInput{
		ConversationID: "conv-1",
		Text:           "hello",
	})
	require.NoError(t, err)

	result, err := f.conversations.DeleteConversation(ctx, "finder", "conv-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, f.convRepo.messageCount("conv-1"))
}

func TestGetAdminMessageStats(t *testing.T) {
	f := newFixture(50)
	f.seedUser("finder", "Fin", "Der")
	f.seedUser("owner", "Own", "Er")
	f.seedConversation("conv-1", "post-1", "finder", "owner")
	f.seedConversation("conv-2", "post-2", "finder", "owner")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.conversations.SendMessage(ctx, "finder", SendMessageInput{
			ConversationID: "conv-1",
			Text:           fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	_, err := f.requests.SendRequest(ctx, "finder", SendRequestInput{
		Kind:           entity.RequestKindHandover,
		ConversationID: "conv-1",
		Reason:         "found it",
	})
	require.NoError(t, err)
	claim, err := f.requests.SendRequest(ctx, "owner", SendRequestInput{
		Kind:           entity.RequestKindClaim,
		ConversationID: "conv-2",
		Reason:         "mine",
	})
	require.NoError(t, err)

	// A rejected request no longer counts as pending.
	_, err = f.requests.Respond(ctx, "finder", RespondInput{
		Kind:           entity.RequestKindClaim,
		ConversationID: "conv-2",
		MessageID:      claim.ID,
		Status:         entity.RequestStatusRejected,
	})
	require.NoError(t, err)

	stats, err := f.conversations.GetAdminMessageStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalConversations)
	assert.Equal(t, 1, stats.PendingHandoverRequests)
	assert.Equal(t, 0, stats.PendingClaimRequests)
	assert.Greater(t, stats.TotalUnreadMessages, 0)
}

func TestSubscribeMessagesRequiresParticipant(t *testing.T) {
	f := newFixture(50)
	f.seedUser("finder", "Fin", "Der")
	f.seedConversation("conv-1", "post-1", "finder", "owner")
	ctx := context.Background()

	_, err := f.conversations.SubscribeMessages(ctx, "stranger", "conv-1", func([]*entity.Message) {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	msg, err := f.conversations.SendMessage(ctx, "finder", SendMessageInput{
		ConversationID: "conv-1",
		Text:           "hello",
	})
	require.NoError(t, err)

	var seen []*entity.Message
	cancel, err := f.conversations.SubscribeMessages(ctx, "owner", "conv-1", func(msgs []*entity.Message) {
		seen = msgs
	})
	require.NoError(t, err)
	defer cancel()

	require.Len(t, seen, 1)
	assert.Equal(t, msg.ID, seen[0].ID)
}

func TestAdminHardDeleteIgnoresPostStatus(t *testing.T) {
	f := newFixture(50)
	f.seedPost("post-1", "Lost item", entity.PostTypeLost, "owner")
	f.seedConversation("conv-1", "post-1", "finder", "owner")
	ctx := context.Background()

	post, err := f.postRepo.GetByID(ctx, "post-1")
	require.NoError(t, err)
	post.Status = entity.PostStatusCompleted
	require.NoError(t, f.postRepo.Update(ctx, post))

	require.NoError(t, f.conversations.AdminHardDeleteConversation(ctx, "conv-1"))
	_, err = f.convRepo.GetByID(ctx, "conv-1")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}
