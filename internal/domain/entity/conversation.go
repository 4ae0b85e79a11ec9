package entity

import "time"

// ParticipantInfo is the denormalized snapshot of a participant captured at
// conversation creation and refreshed opportunistically.
type ParticipantInfo struct {
	FirstName      string `json:"first_name" firestore:"firstName"`
	LastName       string `json:"last_name" firestore:"lastName"`
	ProfilePicture string `json:"profile_picture,omitempty" firestore:"profilePicture,omitempty"`
	ContactNum     string `json:"contact_num,omitempty" firestore:"contactNum,omitempty"`
}

type LastMessage struct {
	Text      string    `json:"text" firestore:"text"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

type Conversation struct {
	ID              string                     `json:"id" firestore:"id"`
	PostID          string                     `json:"post_id" firestore:"postId"`
	Participants    []string                   `json:"participants" firestore:"participants"`
	ParticipantInfo map[string]ParticipantInfo `json:"participant_info" firestore:"participantInfo"`
	PostTitle       string                     `json:"post_title" firestore:"postTitle"`
	PostType        PostType                   `json:"post_type" firestore:"postType"`
	PostStatus      PostStatus                 `json:"post_status" firestore:"postStatus"`
	LastMessage     *LastMessage               `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	UnreadCounts    map[string]int             `json:"unread_counts" firestore:"unreadCounts"`

	HasHandoverRequest bool   `json:"has_handover_request" firestore:"hasHandoverRequest"`
	HandoverRequestID  string `json:"handover_request_id,omitempty" firestore:"handoverRequestId,omitempty"`
	HasClaimRequest    bool   `json:"has_claim_request" firestore:"hasClaimRequest"`
	ClaimRequestID     string `json:"claim_request_id,omitempty" firestore:"claimRequestId,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterparty of userID, or "" if userID is not
// a participant.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// RequestSlot returns the flag and message id of the conversation's one
// request slot for the given kind.
func (c *Conversation) RequestSlot(kind RequestKind) (bool, string) {
	if kind == RequestKindClaim {
		return c.HasClaimRequest, c.ClaimRequestID
	}
	return c.HasHandoverRequest, c.HandoverRequestID
}

// SetRequestSlot records the message id occupying the slot for the given kind.
func (c *Conversation) SetRequestSlot(kind RequestKind, messageID string) {
	if kind == RequestKindClaim {
		c.HasClaimRequest = true
		c.ClaimRequestID = messageID
		return
	}
	c.HasHandoverRequest = true
	c.HandoverRequestID = messageID
}
