package entity

import "time"

type PostType string

const (
	PostTypeLost  PostType = "lost"
	PostTypeFound PostType = "found"
)

type PostStatus string

const (
	PostStatusPending   PostStatus = "pending"
	PostStatusCompleted PostStatus = "completed" // handover confirmed
	PostStatusResolved  PostStatus = "resolved"  // claim confirmed
)

// Settled reports whether the post has been finalized by a confirmed request.
func (s PostStatus) Settled() bool {
	return s == PostStatusCompleted || s == PostStatusResolved
}

// PartyDetails is a contact snapshot of one side of a resolved transaction.
type PartyDetails struct {
	UserID         string `json:"user_id" firestore:"userId"`
	FullName       string `json:"full_name" firestore:"fullName"`
	Email          string `json:"email,omitempty" firestore:"email,omitempty"`
	ContactNum     string `json:"contact_num,omitempty" firestore:"contactNum,omitempty"`
	StudentID      string `json:"student_id,omitempty" firestore:"studentId,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty" firestore:"profilePicture,omitempty"`
}

// RequestSnapshot preserves a request message as it looked when the
// transaction settled. Later writes to live documents must not alter it.
type RequestSnapshot struct {
	MessageID       string        `json:"message_id" firestore:"messageId"`
	ConversationID  string        `json:"conversation_id" firestore:"conversationId"`
	RequesterID     string        `json:"requester_id" firestore:"requesterId"`
	Status          RequestStatus `json:"status" firestore:"status"`
	Reason          string        `json:"reason" firestore:"reason"`
	IDPhotoURL      string        `json:"id_photo_url" firestore:"idPhotoUrl"`
	ItemPhotoURLs   []string      `json:"item_photo_urls,omitempty" firestore:"itemPhotoUrls,omitempty"`
	OwnerIDPhotoURL string        `json:"owner_id_photo_url,omitempty" firestore:"ownerIdPhoto,omitempty"`
	RequestedAt     time.Time     `json:"requested_at" firestore:"requestedAt"`
	RespondedAt     *time.Time    `json:"responded_at,omitempty" firestore:"respondedAt,omitempty"`
	ResponderID     string        `json:"responder_id,omitempty" firestore:"responderId,omitempty"`
}

// ResolutionDetails is the immutable record attached to a post when a
// handover or claim is confirmed.
type ResolutionDetails struct {
	Requester      PartyDetails    `json:"requester" firestore:"requester"`
	Confirmer      PartyDetails    `json:"confirmer" firestore:"confirmer"`
	Reason         string          `json:"reason" firestore:"reason"`
	IDPhotoURL     string          `json:"id_photo_url" firestore:"idPhotoUrl"`
	ItemPhotoURLs  []string        `json:"item_photo_urls,omitempty" firestore:"itemPhotoUrls,omitempty"`
	OwnerIDPhoto   string          `json:"owner_id_photo,omitempty" firestore:"ownerIdPhoto,omitempty"`
	RequestedAt    time.Time       `json:"requested_at" firestore:"requestedAt"`
	ConfirmedAt    time.Time       `json:"confirmed_at" firestore:"confirmedAt"`
	RequestDetails RequestSnapshot `json:"request_details" firestore:"requestDetails"`
}

// ConversationArchive is the full message history of the resolving
// conversation, persisted on the post before the cascade deletes it.
type ConversationArchive struct {
	ConversationID  string                     `json:"conversation_id" firestore:"conversationId"`
	Participants    []string                   `json:"participants" firestore:"participants"`
	ParticipantInfo map[string]ParticipantInfo `json:"participant_info" firestore:"participantInfo"`
	Messages        []Message                  `json:"messages" firestore:"messages"`
	CreatedAt       time.Time                  `json:"created_at" firestore:"createdAt"`
	ArchivedAt      time.Time                  `json:"archived_at" firestore:"archivedAt"`
}

type Post struct {
	ID        string     `json:"id" firestore:"id"`
	Title     string     `json:"title" firestore:"title"`
	Type      PostType   `json:"type" firestore:"type"`
	Status    PostStatus `json:"status" firestore:"status"`
	CreatorID string     `json:"creator_id" firestore:"creatorId"`

	HandoverDetails  *ResolutionDetails   `json:"handover_details,omitempty" firestore:"handoverDetails,omitempty"`
	ClaimDetails     *ResolutionDetails   `json:"claim_details,omitempty" firestore:"claimDetails,omitempty"`
	ConversationData *ConversationArchive `json:"conversation_data,omitempty" firestore:"conversationData,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
