// Package bot is the Telegram glue: it receives updates, routes commands and
// conversation messages into the session manager, and converts anything
// unexpected into one fixed error reply instead of crashing the process.
package bot

import (
	"context"
	"log"
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/reflectbot/reflectbot/internal/config"
	"github.com/reflectbot/reflectbot/internal/diary"
	"github.com/reflectbot/reflectbot/internal/session"
)

const msgSomethingWrong = "Sorry, something went wrong. Please try again later."

var (
	greetingPattern = regexp.MustCompile(`^(hi|hello|hey)$`)
	readPattern     = regexp.MustCompile(`^read_(\d{8})$`)
)

// Bot routes Telegram updates into the journaling pipeline.
type Bot struct {
	api    sender
	poller *tgbotapi.BotAPI
	cfg    config.Config
	mgr    *session.Manager
	store  *diary.Store
}

// New creates a Bot on top of an authenticated Telegram client.
func New(api *tgbotapi.BotAPI, cfg config.Config, mgr *session.Manager, store *diary.Store) *Bot {
	return &Bot{api: api, poller: api, cfg: cfg, mgr: mgr, store: store}
}

// NewTransport returns the session.Transport implementation for the client.
func NewTransport(api *tgbotapi.BotAPI) session.Transport {
	return &transport{api: api}
}

// Run long-polls for updates until ctx is cancelled. Each update is handled
// on its own goroutine; ordering within one conversation is preserved by the
// session manager's per-user lock.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.poller.GetUpdatesChan(u)

	log.Printf("bot: listening as @%s", b.poller.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.poller.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(update)
		}
	}
}

// handleUpdate is the outermost dispatch boundary: a panic anywhere below is
// logged and becomes one fixed reply.
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	userID := msg.From.ID

	defer func() {
		if r := recover(); r != nil {
			log.Printf("bot: panic handling update from %d: %v", userID, r)
			b.reply(userID, msgSomethingWrong, false)
		}
	}()

	if msg.IsCommand() {
		b.handleCommand(userID, msg)
		return
	}

	if greetingPattern.MatchString(msg.Text) {
		b.mgr.Start(userID, true)
		return
	}

	// Plain text belongs to an active conversation; outside one it is
	// ignored.
	b.mgr.HandleMessage(userID, msg.Text)
}

func (b *Bot) reply(userID int64, text string, markdown bool) {
	m := tgbotapi.NewMessage(userID, text)
	if markdown {
		m.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := b.api.Send(m); err != nil {
		log.Printf("bot: reply to %d: %v", userID, err)
	}
}

func (b *Bot) denied(userID int64) bool {
	if b.cfg.Authorized(userID) {
		return false
	}
	b.reply(userID, session.DenialMessage(userID), false)
	return true
}

func (b *Bot) handleCommand(userID int64, msg *tgbotapi.Message) {
	cmd := msg.Command()

	// The conversation commands do their own authorization.
	switch cmd {
	case "diary":
		b.mgr.Start(userID, false)
		return
	case "cancel":
		b.mgr.Cancel(userID)
		return
	}

	if m := readPattern.FindStringSubmatch(cmd); m != nil {
		b.handleRead(userID, m[1])
		return
	}

	switch cmd {
	case "start":
		b.handleStart(userID, msg.From.FirstName)
	case "help":
		b.handleHelp(userID)
	case "setbio":
		b.handleSetBio(userID, msg.CommandArguments())
	case "mydiary":
		b.handleMyDiary(userID)
	default:
		if b.denied(userID) {
			return
		}
		b.reply(userID, "Sorry, I don't recognize that command. Use /help to see available commands.", false)
	}
}
