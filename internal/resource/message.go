package resource

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Message types accepted from foreground code.
const (
	MessageSkipWaiting = "SKIP_WAITING"
	MessageGetVersion  = "GET_VERSION"
	MessageClearCache  = "CLEAR_CACHE"
)

// Message is a command sent to the agent.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is the agent's answer on the reply channel.
type Reply struct {
	Type    string `json:"type"`
	OK      bool   `json:"ok"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleMessage processes one foreground command.
func (a *Agent) HandleMessage(ctx context.Context, msg Message) Reply {
	switch msg.Type {
	case MessageSkipWaiting:
		a.mu.Lock()
		a.skipWaiting = true
		a.mu.Unlock()
		a.logger.Info("Skip-waiting requested")
		return Reply{Type: msg.Type, OK: true}

	case MessageGetVersion:
		return Reply{Type: msg.Type, OK: true, Version: a.version}

	case MessageClearCache:
		a.storage.PurgeAll()
		a.logger.Info("All byte-caches cleared by request")
		return Reply{Type: msg.Type, OK: true}

	default:
		return Reply{
			Type:  msg.Type,
			OK:    false,
			Error: fmt.Sprintf("unknown message type %q", msg.Type),
		}
	}
}

// SkipWaitingRequested reports whether a SKIP_WAITING message arrived.
func (a *Agent) SkipWaitingRequested() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.skipWaiting
}

// RegisterSyncHandler binds a background-sync tag to a handler.
func (a *Agent) RegisterSyncHandler(tag string, fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncHandlers[tag] = fn
}

// HandleSync dispatches a fired background-sync tag.
func (a *Agent) HandleSync(ctx context.Context, tag string) error {
	a.mu.Lock()
	fn, ok := a.syncHandlers[tag]
	a.mu.Unlock()
	if !ok {
		a.logger.Debug("No handler for sync tag", zap.String("tag", tag))
		return nil
	}
	if err := fn(ctx); err != nil {
		return fmt.Errorf("sync tag %q: %w", tag, err)
	}
	return nil
}

// SetPushHandler binds the push-received handler.
func (a *Agent) SetPushHandler(fn func(payload []byte)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pushHandler = fn
}

// HandlePush dispatches a received push payload.
func (a *Agent) HandlePush(payload []byte) {
	a.mu.Lock()
	fn := a.pushHandler
	a.mu.Unlock()
	if fn == nil {
		a.logger.Debug("Push received with no handler registered")
		return
	}
	fn(payload)
}

// SetNotificationClickHandler binds the notification-click handler.
func (a *Agent) SetNotificationClickHandler(fn func(action string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clickHandler = fn
}

// HandleNotificationClick dispatches a notification click action.
func (a *Agent) HandleNotificationClick(action string) {
	a.mu.Lock()
	fn := a.clickHandler
	a.mu.Unlock()
	if fn == nil {
		return
	}
	fn(action)
}
