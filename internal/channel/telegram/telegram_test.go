package telegram

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocabhub/anki-gateway/internal/channel"
)

func TestAdapterName(t *testing.T) {
	adapter := NewTelegramAdapter("test")
	if adapter.Name() != "telegram" {
		t.Errorf("Expected telegram, got %s", adapter.Name())
	}
}

func TestIsEnabled(t *testing.T) {
	assert.True(t, NewTelegramAdapter("test").IsEnabled())
	assert.False(t, NewTelegramAdapter("").IsEnabled())
}

func TestTranslateCommand(t *testing.T) {
	adapter := NewTelegramAdapter("test")
	update := &tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text:     "/word   run  ",
			Chat:     &tgbotapi.Chat{ID: 111},
			Date:     1700000000,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
		},
	}

	msg := adapter.translate(update)
	require.NotNil(t, msg)
	assert.Equal(t, channel.KindCommand, msg.Kind)
	assert.Equal(t, int64(111), msg.UserID)
	assert.Equal(t, "word", msg.Command)
	assert.Equal(t, "run", msg.Args)
}

func TestTranslateText(t *testing.T) {
	adapter := NewTelegramAdapter("test")
	update := &tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: "  tired \n",
			Chat: &tgbotapi.Chat{ID: 111},
		},
	}

	msg := adapter.translate(update)
	require.NotNil(t, msg)
	assert.Equal(t, channel.KindText, msg.Kind)
	assert.Equal(t, "tired", msg.Text)
}

func TestTranslateDropsEmptyUpdate(t *testing.T) {
	adapter := NewTelegramAdapter("test")
	assert.Nil(t, adapter.translate(&tgbotapi.Update{}))
}

func TestKeyboardFromButtons(t *testing.T) {
	kb, ok := keyboard([][]channel.Button{
		{{Label: "📝 Basic", Data: "basic_card"}, {Label: "🔄 Reversed", Data: "reversed_card"}},
		{{Label: "❌ Cancel", Data: "cancel"}},
	})
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "📝 Basic", kb.InlineKeyboard[0][0].Text)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "basic_card", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "cancel", *kb.InlineKeyboard[1][0].CallbackData)
}

func TestKeyboardEmpty(t *testing.T) {
	_, ok := keyboard(nil)
	assert.False(t, ok)
}

func TestPumpClosesIncomingAfterDrain(t *testing.T) {
	adapter := NewTelegramAdapter("test")
	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{
		Message: &tgbotapi.Message{Text: "tired", Chat: &tgbotapi.Chat{ID: 111}},
	}
	close(updates)

	go adapter.pump(updates)

	msg, ok := <-adapter.Incoming()
	require.True(t, ok)
	assert.Equal(t, "tired", msg.Text)

	select {
	case _, ok := <-adapter.Incoming():
		assert.False(t, ok, "incoming should be closed after the updates channel drains")
	case <-time.After(time.Second):
		t.Fatal("incoming was not closed")
	}
}

func TestStopBeforeStartClosesIncoming(t *testing.T) {
	adapter := NewTelegramAdapter("test")
	require.NoError(t, adapter.Stop())

	_, ok := <-adapter.Incoming()
	assert.False(t, ok)
}
