package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vocabhub/anki-gateway/internal/channel"
	"github.com/vocabhub/anki-gateway/internal/logging"
)

type TelegramAdapter struct {
	bot      *tgbotapi.BotAPI
	token    string
	incoming chan *channel.Message
	logger   *slog.Logger
}

func NewTelegramAdapter(token string) *TelegramAdapter {
	return &TelegramAdapter{
		token:    token,
		incoming: make(chan *channel.Message, 100),
		logger:   logging.WithComponent("telegram"),
	}
}

func (t *TelegramAdapter) Name() string {
	return "telegram"
}

func (t *TelegramAdapter) IsEnabled() bool {
	return t.token != ""
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return err
	}
	t.bot = bot
	t.logger.Info("telegram adapter started", "bot", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	go t.pump(t.bot.GetUpdatesChan(u))
	return nil
}

// pump translates updates until the updates channel is closed, then
// closes incoming. All sends and the close happen on this goroutine.
func (t *TelegramAdapter) pump(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if msg := t.translate(&update); msg != nil {
			t.incoming <- msg
		}
	}
	close(t.incoming)
}

// translate maps one Telegram update onto the channel message model.
// Updates that carry neither a message nor a callback are dropped.
func (t *TelegramAdapter) translate(update *tgbotapi.Update) *channel.Message {
	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		// Acknowledge so the client stops the button spinner.
		if _, err := t.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			t.logger.Warn("callback ack failed", "error", err)
		}
		return &channel.Message{
			Kind:         channel.KindCallback,
			UserID:       cb.From.ID,
			CallbackData: cb.Data,
		}
	}

	if update.Message == nil {
		return nil
	}
	m := update.Message

	if m.IsCommand() {
		return &channel.Message{
			Kind:      channel.KindCommand,
			UserID:    m.Chat.ID,
			Command:   m.Command(),
			Args:      strings.TrimSpace(m.CommandArguments()),
			Timestamp: int64(m.Date),
		}
	}

	return &channel.Message{
		Kind:      channel.KindText,
		UserID:    m.Chat.ID,
		Text:      strings.TrimSpace(m.Text),
		Timestamp: int64(m.Date),
	}
}

func (t *TelegramAdapter) Stop() error {
	if t.bot == nil {
		close(t.incoming)
		return nil
	}
	// The pump closes incoming once the updates channel drains.
	t.bot.StopReceivingUpdates()
	return nil
}

// SendMessage delivers one response. Replies go out with markdown
// formatting; if Telegram rejects the entity parse the text is resent
// plain rather than dropped.
func (t *TelegramAdapter) SendMessage(userID int64, resp *channel.Response) error {
	msg := tgbotapi.NewMessage(userID, resp.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb, ok := keyboard(resp.Buttons); ok {
		msg.ReplyMarkup = kb
	}

	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn("markdown send failed, retrying plain", "error", err)
		msg.ParseMode = ""
		_, err = t.bot.Send(msg)
		return err
	}
	return nil
}

func (t *TelegramAdapter) Incoming() <-chan *channel.Message {
	return t.incoming
}

func keyboard(rows [][]channel.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var out [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...), true
}
