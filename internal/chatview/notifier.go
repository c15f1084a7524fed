package chatview

import (
	"context"
	"fmt"

	"groupchat/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TranscriptTopic is announced whenever a view rewrites the stored transcript.
const TranscriptTopic = "chat.transcript.updated"

// Notifier is a local pub/sub channel between views sharing one store. The
// payload is the id of the view that changed the transcript.
type Notifier interface {
	Notify(ctx context.Context, origin string) error
	Subscribe(ctx context.Context) (<-chan string, error)
	Close() error
}

// WatermillNotifier runs the notifier over an in-process GoChannel.
type WatermillNotifier struct {
	pubSub *gochannel.GoChannel
}

func NewWatermillNotifier() *WatermillNotifier {
	return &WatermillNotifier{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			watermill.NewSlogLogger(logger.With("component", "notifier")),
		),
	}
}

func (n *WatermillNotifier) Notify(ctx context.Context, origin string) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(origin))
	msg.SetContext(ctx)
	if err := n.pubSub.Publish(TranscriptTopic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TranscriptTopic, err)
	}
	return nil
}

// Subscribe delivers origins until ctx is done or the notifier is closed.
func (n *WatermillNotifier) Subscribe(ctx context.Context) (<-chan string, error) {
	messages, err := n.pubSub.Subscribe(ctx, TranscriptTopic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TranscriptTopic, err)
	}

	origins := make(chan string, 16)
	go func() {
		defer close(origins)
		for msg := range messages {
			select {
			case origins <- string(msg.Payload):
			case <-ctx.Done():
			}
			msg.Ack()
		}
	}()
	return origins, nil
}

func (n *WatermillNotifier) Close() error {
	return n.pubSub.Close()
}
