package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/wbaxter3/codex-telegram-bridge/bot"
	"github.com/wbaxter3/codex-telegram-bridge/logging"
)

const updateTimeoutSeconds = 60

// Client adapts the Telegram Bot API to the bridge transport.
type Client struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Entry
}

// NewClient authenticates against the Telegram Bot API.
func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger("telegram")
	logger.WithField("username", api.Self.UserName).Info("Authenticated with Telegram")

	return &Client{api: api, logger: logger}, nil
}

// Updates starts long polling and returns the normalized message stream.
func (c *Client) Updates(ctx context.Context) (<-chan bot.Message, error) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = updateTimeoutSeconds

	raw := c.api.GetUpdatesChan(cfg)
	out := make(chan bot.Message)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				c.api.StopReceivingUpdates()
				return
			case update, ok := <-raw:
				if !ok {
					return
				}
				if update.Message == nil {
					continue
				}
				msg := bot.Message{
					ChatID: update.Message.Chat.ID,
					Text:   update.Message.Text,
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					c.api.StopReceivingUpdates()
					return
				}
			}
		}
	}()

	return out, nil
}

// Send delivers one reply to a chat.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
