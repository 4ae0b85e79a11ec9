package entity

import "time"

type MessageType string

const (
	MessageTypeText            MessageType = "text"
	MessageTypeHandoverRequest MessageType = "handover_request"
	MessageTypeClaimRequest    MessageType = "claim_request"
)

type RequestKind string

const (
	RequestKindHandover RequestKind = "handover"
	RequestKindClaim    RequestKind = "claim"
)

// MessageType returns the message type that carries requests of this kind.
func (k RequestKind) MessageType() MessageType {
	if k == RequestKindClaim {
		return MessageTypeClaimRequest
	}
	return MessageTypeHandoverRequest
}

type RequestStatus string

const (
	RequestStatusPending             RequestStatus = "pending"
	RequestStatusPendingConfirmation RequestStatus = "pending_confirmation"
	RequestStatusAccepted            RequestStatus = "accepted"
	RequestStatusRejected            RequestStatus = "rejected"
)

// Terminal reports whether the status admits no further responses.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

// RequestData is the mutable payload embedded in a handover/claim request
// message. The owning message's Type never changes; only this payload and
// the message's ReadBy list do.
type RequestData struct {
	Status          RequestStatus `json:"status" firestore:"status"`
	Reason          string        `json:"reason" firestore:"reason"`
	IDPhotoURL      string        `json:"id_photo_url" firestore:"idPhotoUrl"`
	ItemPhotoURLs   []string      `json:"item_photo_urls,omitempty" firestore:"itemPhotoUrls,omitempty"`
	OwnerIDPhotoURL string        `json:"owner_id_photo_url,omitempty" firestore:"ownerIdPhoto,omitempty"`
	RequestedAt     time.Time     `json:"requested_at" firestore:"requestedAt"`
	RespondedAt     *time.Time    `json:"responded_at,omitempty" firestore:"respondedAt,omitempty"`
	ResponderID     string        `json:"responder_id,omitempty" firestore:"responderId,omitempty"`
	PhotosDeleted   bool          `json:"photos_deleted,omitempty" firestore:"photosDeleted,omitempty"`
}

// PhotoURLs lists every photo the request references, for cleanup on
// rejection. The owner id photo is included.
func (d *RequestData) PhotoURLs() []string {
	urls := make([]string, 0, len(d.ItemPhotoURLs)+2)
	if d.IDPhotoURL != "" {
		urls = append(urls, d.IDPhotoURL)
	}
	urls = append(urls, d.ItemPhotoURLs...)
	if d.OwnerIDPhotoURL != "" {
		urls = append(urls, d.OwnerIDPhotoURL)
	}
	return urls
}

type Message struct {
	ID                   string       `json:"id" firestore:"id"`
	ConversationID       string       `json:"conversation_id" firestore:"conversationId"`
	SenderID             string       `json:"sender_id" firestore:"senderId"`
	SenderName           string       `json:"sender_name" firestore:"senderName"`
	SenderProfilePicture string       `json:"sender_profile_picture,omitempty" firestore:"senderProfilePicture,omitempty"`
	Text                 string       `json:"text" firestore:"text"`
	Type                 MessageType  `json:"message_type" firestore:"messageType"`
	ReadBy               []string     `json:"read_by" firestore:"readBy"`
	Handover             *RequestData `json:"handover_data,omitempty" firestore:"handoverData,omitempty"`
	Claim                *RequestData `json:"claim_data,omitempty" firestore:"claimData,omitempty"`
	Timestamp            time.Time    `json:"timestamp" firestore:"timestamp"`
}

// RequestPayload returns the payload matching the message's type, or nil for
// plain text messages.
func (m *Message) RequestPayload() *RequestData {
	switch m.Type {
	case MessageTypeHandoverRequest:
		return m.Handover
	case MessageTypeClaimRequest:
		return m.Claim
	}
	return nil
}

// SetRequestPayload stores the payload in the slot matching the message's type.
func (m *Message) SetRequestPayload(data *RequestData) {
	switch m.Type {
	case MessageTypeHandoverRequest:
		m.Handover = data
	case MessageTypeClaimRequest:
		m.Claim = data
	}
}

// Protected reports whether the message is exempt from retention trimming.
func (m *Message) Protected() bool {
	return m.Type == MessageTypeHandoverRequest || m.Type == MessageTypeClaimRequest
}

// ReadByUser reports whether userID has already read the message.
func (m *Message) ReadByUser(userID string) bool {
	for _, reader := range m.ReadBy {
		if reader == userID {
			return true
		}
	}
	return false
}
