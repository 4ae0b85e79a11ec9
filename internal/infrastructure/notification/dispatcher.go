package notification

import (
	"context"
	"encoding/json"

	ws "uniclaim/internal/infrastructure/websocket"
	"uniclaim/internal/usecase"
	"uniclaim/pkg/logger"
)

// Dispatcher fans notifications out over WebSocket connections. It is
// injected into the use cases rather than reached through a global so the
// core stays testable without live connections.
type Dispatcher struct {
	manager *ws.Manager
}

func NewDispatcher(manager *ws.Manager) *Dispatcher {
	return &Dispatcher{
		manager: manager,
	}
}

// Notify is fire-and-forget: marshal or delivery problems are logged and
// never reach the caller.
func (d *Dispatcher) Notify(ctx context.Context, recipientIDs []string, n usecase.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Error("Dispatcher: failed to marshal notification %q: %v", n.Type, err)
		return
	}

	for _, recipientID := range recipientIDs {
		d.manager.SendToUser(recipientID, payload)
	}
}
