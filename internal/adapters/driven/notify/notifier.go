// Package notify carries document status transitions over an in-process
// watermill pub/sub so the CLI, TUI and MCP server can follow processing.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure Notifier implements the interface.
var _ driven.StatusNotifier = (*Notifier)(nil)

// TopicStatus is the topic status changes are published on.
const TopicStatus = "document.status"

// subscriberBuffer is the size of each subscriber's output channel.
const subscriberBuffer = 64

// Notifier publishes domain.StatusChange values as JSON messages.
// Messages published while nobody is subscribed are dropped, and ordering
// between consecutive messages is not guaranteed.
type Notifier struct {
	pubSub *gochannel.GoChannel
}

// New creates a notifier backed by a fresh go channel pub/sub.
func New() *Notifier {
	return &Notifier{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: subscriberBuffer},
			watermill.NewStdLogger(false, false),
		),
	}
}

// Publish implements driven.StatusNotifier.
func (n *Notifier) Publish(_ context.Context, change domain.StatusChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode status change: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("document_id", change.DocumentID)
	if err := n.pubSub.Publish(TopicStatus, msg); err != nil {
		return fmt.Errorf("publish status change: %w", err)
	}
	return nil
}

// Subscribe implements driven.StatusNotifier.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan domain.StatusChange, error) {
	messages, err := n.pubSub.Subscribe(ctx, TopicStatus)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicStatus, err)
	}

	out := make(chan domain.StatusChange, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range messages {
			var change domain.StatusChange
			err := json.Unmarshal(msg.Payload, &change)
			msg.Ack()
			if err != nil {
				logger.Warn("dropping malformed status message %s: %v", msg.UUID, err)
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close implements driven.StatusNotifier.
func (n *Notifier) Close() error {
	return n.pubSub.Close()
}
