// Package session implements the per-user conversation state machine that
// drives the journaling pipeline: collect an entry, analyze it, deliver the
// sections, persist the diary artifact.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/reflectbot/reflectbot/internal/analysis"
)

// State is the position of one conversation in its lifecycle. Idle sessions
// are not stored; a user absent from the session table is idle.
type State int

const (
	StateIdle State = iota
	StateAwaitingEntry
	StateAwaitingAudioChoice
)

// Entry length bounds, in characters.
const (
	MinEntryLen = 10
	MaxEntryLen = 10000
)

// Keyboard button labels.
const (
	SkipButton    = "Skip - I'll type it"
	ChoiceAudio   = "Yes, send audio"
	ChoiceNoAudio = "No, text only"
)

// Fixed user-visible messages. The apology strings double as degraded model
// output: they are fed through the parser like any reply, producing an
// all-placeholder record so the session never aborts mid-pipeline.
const (
	msgGreetingPrompt = "Hello! How did your day go? Please share your activities, thoughts, and experiences."
	msgDiaryPrompt    = "📝 *New Diary Entry*\n\n" +
		"How did your day go? Please share your activities, thoughts, and experiences.\n\n" +
		"Be as detailed as you like - what you did, how you felt, what you learned, " +
		"and any moments that stood out."
	msgTypeEntry  = "Please type your diary entry for today:"
	msgTooShort   = "Your diary entry seems very short. Please provide a bit more detail for better analysis."
	msgTooLong    = "Your diary entry is too long. Please keep it under 10,000 characters for effective analysis."
	msgProcessing = "📝 Processing your diary entry..."
	msgAnalyzing  = "🔍 Analyzing your day..."
	msgAskAudio   = "Your diary entry has been analyzed! Would you like to receive the analysis as audio as well?"
	msgCancelled  = "Diary entry cancelled. You can start a new one anytime!"

	msgSaveEntryFailed = "There was an issue saving your raw entry, but I'll still analyze it."
	msgAudioFailed     = "Sorry, there was an issue creating the audio files. I'll send text analysis only."
	msgArtifactFailed  = "There was an issue saving your diary entry. Your analysis is still complete though!"

	apologyTimeout = "I'm sorry, the analysis service took too long to respond. Please try again later."
	apologyRequest = "I'm sorry, I couldn't analyze your diary entry due to a connection issue."
)

// DenialMessage is the fixed response for users outside the allow-list.
func DenialMessage(userID int64) string {
	return fmt.Sprintf("🚫 Access Denied. Your user ID (%d) is not authorized to use this bot.", userID)
}

// sectionTitles maps section keys to their decorated display titles.
var sectionTitles = map[string]string{
	analysis.KeyGratitude:        "🙏 Gratitude - Things to be thankful for",
	analysis.KeyTimeWasted:       "⏱️ Time Inefficiency - Where time could be better used",
	analysis.KeyGoodUse:          "✅ Good Use of Time - Valuable periods",
	analysis.KeyMemorableMoments: "🌟 Memorable Moments - Worth remembering",
	analysis.KeySuggestions:      "📈 Gentle Suggestions for Improvement",
	analysis.KeyHabitPatterns:    "🔍 Habit Pattern Insights",
	analysis.KeyDaySummary:       "📝 Day Summary (as a Story)",
}

// Session is one user's in-flight conversation. It lives only between the
// start trigger and the terminal state; a process restart loses it.
type Session struct {
	mu       sync.Mutex
	State    State
	Record   analysis.Record
	Date     time.Time
	AudioDir string
}

// Transport is the chat-transport boundary the state machine talks through.
// Implementations deliver outbound messages; all inbound routing happens in
// the transport glue, which calls into the Manager.
type Transport interface {
	// SendText delivers a text message, optionally Markdown-formatted.
	SendText(userID int64, text string, markdown bool) error

	// SendChoices delivers a text message with a one-time choice keyboard.
	SendChoices(userID int64, text string, markdown bool, choices []string) error

	// RemoveKeyboard delivers a text message and clears any choice keyboard.
	RemoveKeyboard(userID int64, text string) error

	// SendVoice delivers an audio file as a voice message with a caption.
	SendVoice(userID int64, audioPath, caption string) error
}
