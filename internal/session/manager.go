package session

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/reflectbot/reflectbot/internal/adapter"
	"github.com/reflectbot/reflectbot/internal/analysis"
	"github.com/reflectbot/reflectbot/internal/config"
	"github.com/reflectbot/reflectbot/internal/diary"
	"github.com/reflectbot/reflectbot/internal/speech"
)

// Manager owns the session table and runs the pipeline for each conversation.
// Sessions for distinct users are independent; a user's own messages are
// serialized on the session mutex, so a cancel that arrives during a model
// call takes effect only once the call returns.
type Manager struct {
	cfg      config.Config
	tr       Transport
	model    adapter.Completer
	store    *diary.Store
	renderer *speech.Renderer
	tok      *analysis.Tokenizer // nil disables prompt trimming

	now func() time.Time

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager wires the state machine to its collaborators.
func NewManager(cfg config.Config, tr Transport, model adapter.Completer, store *diary.Store, renderer *speech.Renderer, tok *analysis.Tokenizer) *Manager {
	return &Manager{
		cfg:      cfg,
		tr:       tr,
		model:    model,
		store:    store,
		renderer: renderer,
		tok:      tok,
		now:      time.Now,
		sessions: make(map[int64]*Session),
	}
}

// session returns the user's session, creating it when create is set.
func (m *Manager) session(userID int64, create bool) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok && create {
		s = &Session{State: StateAwaitingEntry}
		m.sessions[userID] = s
	}
	return s
}

func (m *Manager) drop(userID int64) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

// Active reports whether the user has an in-flight conversation.
func (m *Manager) Active(userID int64) bool {
	return m.session(userID, false) != nil
}

func (m *Manager) deny(userID int64) {
	if err := m.tr.SendText(userID, DenialMessage(userID), false); err != nil {
		log.Printf("session: send denial: %v", err)
	}
}

// Start begins a new diary conversation. The greeting variant uses the plain
// prompt, the command variant the decorated one. Unauthorized users get the
// fixed denial and no session.
func (m *Manager) Start(userID int64, greeting bool) {
	if !m.cfg.Authorized(userID) {
		m.deny(userID)
		return
	}

	s := m.session(userID, true)
	s.mu.Lock()
	defer s.mu.Unlock()

	// Restarting resets whatever was buffered.
	s.State = StateAwaitingEntry
	s.Record = analysis.Record{}
	s.AudioDir = ""

	prompt := msgDiaryPrompt
	markdown := true
	if greeting {
		prompt = msgGreetingPrompt
		markdown = false
	}
	if err := m.tr.SendChoices(userID, prompt, markdown, []string{SkipButton}); err != nil {
		log.Printf("session: send entry prompt: %v", err)
	}
}

// HandleMessage routes a plain text message into the user's conversation.
// It returns false when the user has no active session, so the transport
// glue can fall through to other handlers.
func (m *Manager) HandleMessage(userID int64, text string) bool {
	s := m.session(userID, false)
	if s == nil {
		return false
	}

	if !m.cfg.Authorized(userID) {
		m.deny(userID)
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State {
	case StateAwaitingEntry:
		m.handleEntry(userID, s, text)
	case StateAwaitingAudioChoice:
		m.handleAudioChoice(userID, s, text)
	default:
		return false
	}
	return true
}

// Cancel discards the user's buffered session state. Nothing already
// persisted is removed; nothing buffered is written.
func (m *Manager) Cancel(userID int64) {
	if !m.cfg.Authorized(userID) {
		m.deny(userID)
		return
	}
	if s := m.session(userID, false); s != nil {
		s.mu.Lock()
		m.drop(userID)
		s.mu.Unlock()
	}
	if err := m.tr.RemoveKeyboard(userID, msgCancelled); err != nil {
		log.Printf("session: send cancel ack: %v", err)
	}
}

// handleEntry validates the entry text and, when valid, runs the analysis
// pipeline. Invalid input re-prompts without a state change or side effect.
func (m *Manager) handleEntry(userID int64, s *Session, text string) {
	if text == SkipButton {
		if err := m.tr.RemoveKeyboard(userID, msgTypeEntry); err != nil {
			log.Printf("session: send type prompt: %v", err)
		}
		return
	}

	switch n := utf8.RuneCountInString(text); {
	case n < MinEntryLen:
		m.reply(userID, msgTooShort)
		return
	case n > MaxEntryLen:
		m.reply(userID, msgTooLong)
		return
	}

	m.reply(userID, msgProcessing)

	now := m.now()

	// Persist the raw entry. Failure is a soft warning; the in-chat analysis
	// still proceeds.
	if _, err := m.store.WriteEntry(userID, now, text); err != nil {
		log.Printf("session: save entry for user %d: %v", userID, err)
		m.reply(userID, msgSaveEntryFailed)
	}

	bio := m.store.Bio(userID)
	prompt := analysis.PromptWithinBudget(m.tok, bio, text, now, m.cfg.Model.PromptBudget)

	m.reply(userID, msgAnalyzing)
	feedback := m.complete(prompt)

	rec := analysis.Parse(feedback)

	// Keep the raw reply (or the apology that stood in for it) for audit.
	if _, err := m.store.WriteAnalysis(userID, now, feedback); err != nil {
		log.Printf("session: save analysis for user %d: %v", userID, err)
	}

	s.State = StateAwaitingAudioChoice
	s.Record = rec
	s.Date = now
	s.AudioDir = m.store.AudioDir(now)

	if err := m.tr.SendChoices(userID, msgAskAudio, false, []string{ChoiceAudio, ChoiceNoAudio}); err != nil {
		log.Printf("session: send audio prompt: %v", err)
	}
}

// complete calls the language-model collaborator with the configured timeout.
// On failure it returns a fixed apology instead of an error: the apology is
// parsed like any reply, yielding an all-placeholder record, so collaborator
// failure degrades output without aborting the session.
func (m *Manager) complete(prompt string) string {
	timeout := time.Duration(m.cfg.Model.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reply, err := m.model.Complete(ctx, prompt)
	if err != nil {
		log.Printf("session: model call: %v", err)
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return apologyTimeout
		}
		return apologyRequest
	}
	return reply
}

// handleAudioChoice dispatches on the yes/no keyboard reply. Anything else
// re-prompts the choice.
func (m *Manager) handleAudioChoice(userID int64, s *Session, text string) {
	switch {
	case strings.HasPrefix(text, "Yes"):
		m.deliver(userID, s, true)
	case strings.HasPrefix(text, "No"):
		m.deliver(userID, s, false)
	default:
		if err := m.tr.SendChoices(userID, msgAskAudio, false, []string{ChoiceAudio, ChoiceNoAudio}); err != nil {
			log.Printf("session: re-prompt audio choice: %v", err)
		}
	}
}

// reply sends plain text, logging delivery failures.
func (m *Manager) reply(userID int64, text string) {
	if err := m.tr.SendText(userID, text, false); err != nil {
		log.Printf("session: send to user %d: %v", userID, err)
	}
}
