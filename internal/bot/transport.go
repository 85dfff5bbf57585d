package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the slice of tgbotapi.BotAPI the transport needs; tests swap in
// a recorder.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// transport implements session.Transport over the Telegram Bot API. Private
// chats are addressed by the user ID, which equals the chat ID there.
type transport struct {
	api sender
}

func (t *transport) SendText(userID int64, text string, markdown bool) error {
	msg := tgbotapi.NewMessage(userID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("bot: send text: %w", err)
	}
	return nil
}

func (t *transport) SendChoices(userID int64, text string, markdown bool, choices []string) error {
	buttons := make([]tgbotapi.KeyboardButton, len(choices))
	for i, c := range choices {
		buttons[i] = tgbotapi.NewKeyboardButton(c)
	}
	keyboard := tgbotapi.NewOneTimeReplyKeyboard(buttons)

	msg := tgbotapi.NewMessage(userID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	msg.ReplyMarkup = keyboard
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("bot: send choices: %w", err)
	}
	return nil
}

func (t *transport) RemoveKeyboard(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("bot: remove keyboard: %w", err)
	}
	return nil
}

func (t *transport) SendVoice(userID int64, audioPath, caption string) error {
	voice := tgbotapi.NewVoice(userID, tgbotapi.FilePath(audioPath))
	voice.Caption = caption
	if _, err := t.api.Send(voice); err != nil {
		return fmt.Errorf("bot: send voice: %w", err)
	}
	return nil
}
