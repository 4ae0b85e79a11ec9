package usecase

import "context"

// Notification is the payload handed to the dispatcher on every state change.
type Notification struct {
	Type  string                 `json:"type"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Notifier fans a notification out to recipients. Implementations are
// fire-and-forget; a delivery failure must never surface to the caller.
type Notifier interface {
	Notify(ctx context.Context, recipientIDs []string, n Notification)
}

// PhotoStore deletes uploaded photos by their public URLs. Failed URLs are
// reported, not raised; photo cleanup is always best-effort.
type PhotoStore interface {
	DeleteByURLs(ctx context.Context, urls []string) (deleted []string, failed []string)
}
