package bot

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/wbaxter3/codex-telegram-bridge/logging"
)

// Message is one inbound chat message, normalized away from the transport's
// own update shape.
type Message struct {
	ChatID int64
	Text   string
}

// Transport delivers inbound messages and accepts outbound replies.
type Transport interface {
	// Updates returns a channel of inbound messages. The channel closes when
	// ctx is canceled or the transport shuts down.
	Updates(ctx context.Context) (<-chan Message, error)

	// Send delivers one reply to a chat.
	Send(ctx context.Context, chatID int64, text string) error
}

// Bridge pumps messages between a chat transport and the command handler.
type Bridge struct {
	transport Transport
	handler   *Handler
	allowed   map[int64]bool
	logger    *logrus.Entry
}

// NewBridge creates a Bridge. An empty allowedChats list admits every chat.
func NewBridge(transport Transport, handler *Handler, allowedChats []int64) *Bridge {
	allowed := make(map[int64]bool, len(allowedChats))
	for _, id := range allowedChats {
		allowed[id] = true
	}
	return &Bridge{
		transport: transport,
		handler:   handler,
		allowed:   allowed,
		logger:    logging.NewLogger("bridge"),
	}
}

// Run consumes inbound messages until ctx is canceled or the transport's
// update channel closes. Messages are processed sequentially; the handler's
// gate turns any overlap introduced by a future concurrent transport into a
// busy reply rather than interleaved work.
func (b *Bridge) Run(ctx context.Context) error {
	updates, err := b.transport.Updates(ctx)
	if err != nil {
		return err
	}

	b.logger.Info("Bridge started, waiting for messages")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-updates:
			if !ok {
				b.logger.Info("Update channel closed, bridge stopping")
				return nil
			}
			b.dispatch(ctx, msg)
		}
	}
}

func (b *Bridge) dispatch(ctx context.Context, msg Message) {
	if len(b.allowed) > 0 && !b.allowed[msg.ChatID] {
		b.logger.WithField("chatID", msg.ChatID).Debug("Ignoring message from chat outside the allow list")
		return
	}
	if msg.Text == "" {
		return
	}

	chatKey := strconv.FormatInt(msg.ChatID, 10)
	replies := b.handler.Handle(ctx, chatKey, msg.Text)

	for _, reply := range replies {
		if err := b.transport.Send(ctx, msg.ChatID, reply); err != nil {
			b.logger.WithError(err).WithField("chatID", msg.ChatID).Error("Failed to send reply")
		}
	}
}
