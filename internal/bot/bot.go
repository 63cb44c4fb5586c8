package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/sirupsen/logrus"

	"cryptocutie-bot/internal/service"
)

// stopTimeout bounds how long shutdown waits for in-flight updates.
const stopTimeout = 10 * time.Second

// Handler is what the bot forwards intents to.
type Handler interface {
	Handle(ctx context.Context, intent service.Intent) service.Response
}

type Bot struct {
	Instance *telego.Bot
	Service  Handler
	Log      logrus.FieldLogger
}

func NewBot(instance *telego.Bot, svc Handler, log logrus.FieldLogger) *Bot {
	return &Bot{
		Instance: instance,
		Service:  svc,
		Log:      log,
	}
}

// Username asks Telegram for the bot's username.
func (b *Bot) Username(ctx context.Context) (string, error) {
	me, err := b.Instance.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get bot info: %w", err)
	}
	return me.Username, nil
}

// Start long-polls Telegram until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.Instance.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.Instance, updates)
	if err != nil {
		return fmt.Errorf("failed to create bot handler: %w", err)
	}

	for _, cmd := range []string{"start", "points", "balance", "history", "referral", "withdraw", "admin"} {
		handler.Handle(b.onMessage, th.CommandEqual(cmd))
	}
	// Anything else with text may be a wallet address.
	handler.Handle(b.onMessage, th.AnyMessageWithText())

	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := handler.StopWithContext(stopCtx); err != nil {
			b.Log.WithField("error", err.Error()).Warn("Bot handler did not stop cleanly")
		}
	}()

	b.Log.Info("Bot started")
	if err := handler.Start(); err != nil {
		return fmt.Errorf("bot handler stopped: %w", err)
	}
	return nil
}

func (b *Bot) onMessage(ctx *th.Context, update telego.Update) error {
	message := update.Message
	intent := IntentFor(message)
	if intent == nil {
		return nil
	}

	text := Render(b.Service.Handle(ctx.Context(), intent))
	if text == "" {
		return nil
	}
	if _, err := ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(message.Chat.ID), text)); err != nil {
		b.Log.WithFields(logrus.Fields{
			"user_id": message.From.ID,
			"error":   err.Error(),
		}).Warn("Failed to send reply")
	}
	return nil
}

// Notify sends text to userID outside of a conversation.
func (b *Bot) Notify(ctx context.Context, userID int64, text string) error {
	if _, err := b.Instance.SendMessage(ctx, tu.Message(tu.ID(userID), text)); err != nil {
		return fmt.Errorf("failed to notify user %d: %w", userID, err)
	}
	return nil
}
