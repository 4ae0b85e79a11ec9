package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"uniclaim/internal/domain/entity"
	"uniclaim/internal/domain/repository"
	"uniclaim/pkg/errors"
)

// In-memory doubles for the Firestore repositories and the infrastructure
// ports. Like the real store, read methods return copies so mutations are
// invisible until written back.

type fakeConversationRepo struct {
	mu       sync.Mutex
	seq      int
	convs    map[string]*entity.Conversation
	messages map[string][]*entity.Message

	failDelete map[string]error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		convs:      make(map[string]*entity.Conversation),
		messages:   make(map[string][]*entity.Message),
		failDelete: make(map[string]error),
	}
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.ParticipantInfo = make(map[string]entity.ParticipantInfo, len(c.ParticipantInfo))
	for k, v := range c.ParticipantInfo {
		cp.ParticipantInfo[k] = v
	}
	cp.UnreadCounts = make(map[string]int, len(c.UnreadCounts))
	for k, v := range c.UnreadCounts {
		cp.UnreadCounts[k] = v
	}
	if c.LastMessage != nil {
		lm := *c.LastMessage
		cp.LastMessage = &lm
	}
	return &cp
}

func cloneMessage(m *entity.Message) *entity.Message {
	cp := *m
	cp.ReadBy = append([]string(nil), m.ReadBy...)
	if m.Handover != nil {
		h := *m.Handover
		h.ItemPhotoURLs = append([]string(nil), m.Handover.ItemPhotoURLs...)
		cp.Handover = &h
	}
	if m.Claim != nil {
		c := *m.Claim
		c.ItemPhotoURLs = append([]string(nil), m.Claim.ItemPhotoURLs...)
		cp.Claim = &c
	}
	return &cp
}

func (r *fakeConversationRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeConversationRepo) Create(ctx context.Context, conv *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv.ID == "" {
		conv.ID = r.nextID("conv")
	}
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	r.convs[conv.ID] = cloneConversation(conv)
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(conv), nil
}

func (r *fakeConversationRepo) Update(ctx context.Context, conv *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[conv.ID]; !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.UpdatedAt = time.Now()
	r.convs[conv.ID] = cloneConversation(conv)
	return nil
}

func (r *fakeConversationRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Conversation
	for _, conv := range r.convs {
		if conv.HasParticipant(userID) {
			out = append(out, cloneConversation(conv))
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) ListByPost(ctx context.Context, postID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Conversation
	for _, conv := range r.convs {
		if conv.PostID == postID {
			out = append(out, cloneConversation(conv))
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) ListAll(ctx context.Context) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Conversation
	for _, conv := range r.convs {
		out = append(out, cloneConversation(conv))
	}
	return out, nil
}

func (r *fakeConversationRepo) FindByPostAndUsers(ctx context.Context, postID, callerID, otherID string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.convs {
		if conv.PostID == postID && conv.HasParticipant(callerID) && conv.HasParticipant(otherID) {
			return cloneConversation(conv), nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeConversationRepo) DeleteWithMessages(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failDelete[id]; ok {
		return err
	}
	if _, ok := r.convs[id]; !ok {
		return errors.NotFound("Conversation", nil)
	}
	delete(r.convs, id)
	delete(r.messages, id)
	return nil
}

func (r *fakeConversationRepo) CreateMessage(ctx context.Context, msg *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == "" {
		msg.ID = r.nextID("msg")
	}
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], cloneMessage(msg))
	return nil
}

func (r *fakeConversationRepo) GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages[conversationID] {
		if m.ID == messageID {
			return cloneMessage(m), nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *fakeConversationRepo) UpdateMessage(ctx context.Context, conversationID string, msg *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.messages[conversationID] {
		if m.ID == msg.ID {
			r.messages[conversationID][i] = cloneMessage(msg)
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *fakeConversationRepo) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[conversationID]
	total := int64(len(msgs))
	if offset > len(msgs) {
		offset = len(msgs)
	}
	msgs = msgs[offset:]
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	out := make([]*entity.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, cloneMessage(m))
	}
	return out, total, nil
}

func (r *fakeConversationRepo) DeleteMessages(ctx context.Context, conversationID string, messageIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		drop[id] = true
	}
	var kept []*entity.Message
	for _, m := range r.messages[conversationID] {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	r.messages[conversationID] = kept
	return nil
}

func (r *fakeConversationRepo) UpdateMessageReadStatus(ctx context.Context, conversationID, messageID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages[conversationID] {
		if m.ID == messageID {
			if !m.ReadByUser(userID) {
				m.ReadBy = append(m.ReadBy, userID)
			}
			return nil
		}
	}
	// Missing message is a benign race, same as the real store.
	return nil
}

func (r *fakeConversationRepo) ClaimRequestSlot(ctx context.Context, conversationID string, kind entity.RequestKind, build repository.SlotBuildFunc) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.convs[conversationID]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	conv := cloneConversation(stored)

	var existing *entity.Message
	if has, slotID := conv.RequestSlot(kind); has && slotID != "" {
		for _, m := range r.messages[conversationID] {
			if m.ID == slotID {
				existing = cloneMessage(m)
				break
			}
		}
	}

	msg, err := build(conv, existing)
	if err != nil {
		return nil, err
	}

	isNew := msg.ID == ""
	if isNew {
		msg.ID = r.nextID("msg")
	}
	conv.SetRequestSlot(kind, msg.ID)
	conv.UpdatedAt = time.Now()
	r.convs[conversationID] = cloneConversation(conv)

	if isNew {
		r.messages[conversationID] = append(r.messages[conversationID], cloneMessage(msg))
	} else {
		for i, m := range r.messages[conversationID] {
			if m.ID == msg.ID {
				r.messages[conversationID][i] = cloneMessage(msg)
				break
			}
		}
	}

	return cloneMessage(msg), nil
}

func (r *fakeConversationRepo) SubscribeMessages(ctx context.Context, conversationID string, handler func([]*entity.Message)) (func(), error) {
	msgs, _, _ := r.ListMessages(ctx, conversationID, 0, 0)
	handler(msgs)
	return func() {}, nil
}

func (r *fakeConversationRepo) SubscribeConversationsForUser(ctx context.Context, userID string, handler func([]*entity.Conversation)) (func(), error) {
	convs, _ := r.ListByUser(ctx, userID)
	handler(convs)
	return func() {}, nil
}

func (r *fakeConversationRepo) messageCount(conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages[conversationID])
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*entity.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*entity.Post)}
}

func (r *fakePostRepo) Create(ctx context.Context, post *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, errors.NotFound("Post", nil)
	}
	cp := *post
	return &cp, nil
}

func (r *fakePostRepo) Update(ctx context.Context, post *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return errors.NotFound("Post", nil)
	}
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

// remove simulates the post becoming unreadable mid-operation.
func (r *fakePostRepo) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errors.NotFound("User", nil)
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type fakePhotoStore struct {
	mu      sync.Mutex
	deleted []string
	failing map[string]bool
	calls   int
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{failing: make(map[string]bool)}
}

func (s *fakePhotoStore) DeleteByURLs(ctx context.Context, urls []string) ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	var deleted, failed []string
	for _, u := range urls {
		if s.failing[u] {
			failed = append(failed, u)
			continue
		}
		deleted = append(deleted, u)
		s.deleted = append(s.deleted, u)
	}
	return deleted, failed
}

func (s *fakePhotoStore) deletedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *fakePhotoStore) deleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type sentNotification struct {
	Recipients []string
	Payload    Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{}
}

func (n *fakeNotifier) Notify(ctx context.Context, recipientIDs []string, payload Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{
		Recipients: append([]string(nil), recipientIDs...),
		Payload:    payload,
	})
}

func (n *fakeNotifier) notifications() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

// fixture wires the use cases against the in-memory doubles.
type fixture struct {
	convRepo *fakeConversationRepo
	postRepo *fakePostRepo
	userRepo *fakeUserRepo
	photos   *fakePhotoStore
	notifier *fakeNotifier

	conversations *ConversationUseCase
	requests      *RequestUseCase
	resolution    *ResolutionUseCase
}

func newFixture(messageCap int) *fixture {
	f := &fixture{
		convRepo: newFakeConversationRepo(),
		postRepo: newFakePostRepo(),
		userRepo: newFakeUserRepo(),
		photos:   newFakePhotoStore(),
		notifier: newFakeNotifier(),
	}
	retention := NewRetentionManager(f.convRepo, messageCap)
	f.conversations = NewConversationUseCase(f.convRepo, f.postRepo, f.userRepo, retention, f.notifier)
	f.resolution = NewResolutionUseCase(f.convRepo, f.postRepo, f.userRepo, f.notifier)
	f.requests = NewRequestUseCase(f.convRepo, f.userRepo, f.photos, f.notifier, f.resolution)
	return f
}

func (f *fixture) seedUser(id, firstName, lastName string) {
	_ = f.userRepo.Create(context.Background(), &entity.User{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Email:     id + "@example.edu",
	})
}

func (f *fixture) seedPost(id, title string, postType entity.PostType, creatorID string) {
	_ = f.postRepo.Create(context.Background(), &entity.Post{
		ID:        id,
		Title:     title,
		Type:      postType,
		Status:    entity.PostStatusPending,
		CreatorID: creatorID,
	})
}

func (f *fixture) seedConversation(id, postID string, participants ...string) *entity.Conversation {
	info := make(map[string]entity.ParticipantInfo, len(participants))
	for _, p := range participants {
		info[p] = entity.ParticipantInfo{FirstName: "User", LastName: p}
	}
	conv := &entity.Conversation{
		ID:              id,
		PostID:          postID,
		PostTitle:       "Lost item",
		PostType:        entity.PostTypeLost,
		PostStatus:      entity.PostStatusPending,
		Participants:    append([]string(nil), participants...),
		ParticipantInfo: info,
		UnreadCounts:    make(map[string]int),
	}
	_ = f.convRepo.Create(context.Background(), conv)
	return conv
}
