package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/reflectbot/reflectbot/internal/analysis"
	"github.com/reflectbot/reflectbot/internal/config"
	"github.com/reflectbot/reflectbot/internal/diary"
	"github.com/reflectbot/reflectbot/internal/speech"
)

const modelReply = `GRATITUDE:
The walk and the call.

TIME INEFFICIENCY:
Too much scrolling.

GOOD USE OF TIME:
Focused report work.

MEMORABLE MOMENTS:
The sunset.

SUGGESTIONS FOR IMPROVEMENT:
Shorter breaks.

HABIT PATTERN ANALYSIS:
Walking is a reliable reset.

DAY SUMMARY (AS A STORY):
A steady, quiet day.

DAY RATING:
7/10
`

// fakeTransport records outbound traffic.
type fakeTransport struct {
	mu     sync.Mutex
	texts  []string
	voices []string // "path|caption"
}

func (f *fakeTransport) SendText(userID int64, text string, markdown bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeTransport) SendChoices(userID int64, text string, markdown bool, choices []string) error {
	return f.SendText(userID, text+" ["+strings.Join(choices, "|")+"]", markdown)
}

func (f *fakeTransport) RemoveKeyboard(userID int64, text string) error {
	return f.SendText(userID, text, false)
}

func (f *fakeTransport) SendVoice(userID int64, audioPath, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voices = append(f.voices, audioPath+"|"+caption)
	return nil
}

func (f *fakeTransport) find(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.texts {
		if strings.Contains(m, substr) {
			return i
		}
	}
	return -1
}

func (f *fakeTransport) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

// fakeModel returns a scripted reply or error.
type fakeModel struct {
	reply string
	err   error
}

func (f *fakeModel) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

// fakeSynth writes small files; it stands in for the TTS collaborator.
type fakeSynth struct{}

func (fakeSynth) Synthesize(text, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".mp3")
	return path, os.WriteFile(path, []byte("mp3"), 0o644)
}

var testDate = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, model *fakeModel) (*Manager, *fakeTransport, *diary.Store) {
	t.Helper()

	store := diary.New(t.TempDir())
	if err := store.Bootstrap(); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.AllowedUsers = []string{"1"}
	cfg.Model.TimeoutSeconds = 1

	tr := &fakeTransport{}
	m := NewManager(cfg, tr, model, store, speech.NewRenderer(fakeSynth{}), nil)
	m.now = func() time.Time { return testDate }
	return m, tr, store
}

func TestStart_Unauthorized(t *testing.T) {
	m, tr, _ := newTestManager(t, &fakeModel{reply: modelReply})

	m.Start(99, false)

	if m.Active(99) {
		t.Error("unauthorized user must not get a session")
	}
	if tr.last() != DenialMessage(99) {
		t.Errorf("got %q, want the fixed denial message", tr.last())
	}
	if len(tr.texts) != 1 {
		t.Errorf("got %d messages, want exactly the denial", len(tr.texts))
	}
}

func TestUnauthorized_NoFilesWritten(t *testing.T) {
	m, _, store := newTestManager(t, &fakeModel{reply: modelReply})

	m.Start(99, true)
	if handled := m.HandleMessage(99, "a long enough diary entry"); handled {
		t.Error("message without a session should not be handled")
	}

	entries, err := os.ReadDir(filepath.Join(store.Root(), "Diary"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Diary dir should be empty, found %d entries", len(entries))
	}
}

func TestEntryLengthBounds(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		accepted bool
	}{
		{"nine rejected", 9, false},
		{"ten accepted", 10, true},
		{"ten thousand accepted", 10000, true},
		{"over ten thousand rejected", 10001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, tr, _ := newTestManager(t, &fakeModel{reply: modelReply})
			m.Start(1, false)
			m.HandleMessage(1, strings.Repeat("a", tt.length))

			reachedChoice := tr.find(msgAskAudio) >= 0
			if reachedChoice != tt.accepted {
				t.Errorf("length %d: accepted=%v, want %v", tt.length, reachedChoice, tt.accepted)
			}
		})
	}
}

func TestSkipButton_Reprompts(t *testing.T) {
	m, tr, _ := newTestManager(t, &fakeModel{reply: modelReply})
	m.Start(1, true)
	m.HandleMessage(1, SkipButton)

	if tr.find(msgTypeEntry) < 0 {
		t.Error("skip button should re-prompt for typed entry")
	}
	if !m.Active(1) {
		t.Error("session should still be active")
	}
}

func TestEndToEnd_TextOnly(t *testing.T) {
	m, tr, store := newTestManager(t, &fakeModel{reply: modelReply})

	m.Start(1, false)
	m.HandleMessage(1, "Worked on the report, took a walk, read.")

	// Raw entry and raw analysis were persisted before the choice prompt.
	for _, name := range []string{"01_1.txt", "01_1_analysis.txt"} {
		if _, err := os.Stat(filepath.Join(store.Root(), "Diary", "May", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if tr.find(msgAskAudio) < 0 {
		t.Fatal("audio choice prompt not sent")
	}

	m.HandleMessage(1, ChoiceNoAudio)

	// All seven sections, in order, before the rating.
	prev := -1
	for _, key := range analysis.SectionKeys {
		idx := tr.find(sectionTitles[key])
		if idx < 0 {
			t.Errorf("section %s not sent", key)
			continue
		}
		if idx < prev {
			t.Errorf("section %s out of order", key)
		}
		prev = idx
	}
	if ratingIdx := tr.find("Day Rating: 7/10"); ratingIdx < prev {
		t.Error("rating should follow the sections")
	}
	if len(tr.voices) != 0 {
		t.Errorf("text-only delivery sent %d voice messages", len(tr.voices))
	}

	// Artifact written and listed newest-first.
	body, err := store.ReadArtifact("2024-05-01")
	if err != nil {
		t.Fatalf("artifact: %v", err)
	}
	if !strings.Contains(body, "Day Rating: 7/10") {
		t.Errorf("artifact body: %q", body)
	}
	artifacts, err := store.ListArtifacts()
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) == 0 || artifacts[0].Date != "2024-05-01" {
		t.Errorf("artifact listing: %+v", artifacts)
	}

	if m.Active(1) {
		t.Error("session should be cleared after delivery")
	}
}

func TestEndToEnd_WithAudio(t *testing.T) {
	m, tr, store := newTestManager(t, &fakeModel{reply: modelReply})

	m.Start(1, false)
	m.HandleMessage(1, "Worked on the report, took a walk, read.")
	m.HandleMessage(1, ChoiceAudio)

	if len(tr.voices) != len(analysis.SectionKeys) {
		t.Errorf("got %d voice messages, want %d", len(tr.voices), len(analysis.SectionKeys))
	}
	// Captions are the emoji-free-ish title head, e.g. "🙏 Gratitude".
	if len(tr.voices) > 0 && !strings.Contains(tr.voices[0], "Gratitude") {
		t.Errorf("first voice: %q", tr.voices[0])
	}

	// Working directory is cleaned up after delivery.
	if _, err := os.Stat(store.AudioDir(testDate)); !os.IsNotExist(err) {
		t.Error("audio dir should be removed after delivery")
	}
}

func TestModelFailure_DegradesToPlaceholders(t *testing.T) {
	wrapped := fmt.Errorf("openrouter complete: %w", context.DeadlineExceeded)
	m, tr, store := newTestManager(t, &fakeModel{err: wrapped})

	m.Start(1, false)
	m.HandleMessage(1, "Worked on the report, took a walk, read.")

	// The pipeline did not abort: the choice prompt still arrives.
	if tr.find(msgAskAudio) < 0 {
		t.Fatal("audio choice prompt not sent after model failure")
	}

	// The apology stood in for the reply and was kept for audit.
	raw, err := os.ReadFile(filepath.Join(store.Root(), "Diary", "May", "01_1_analysis.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != apologyTimeout {
		t.Errorf("audit file: got %q", raw)
	}

	m.HandleMessage(1, ChoiceNoAudio)

	body, err := store.ReadArtifact("2024-05-01")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Day Rating: 7/10") {
		t.Errorf("degraded artifact should carry the default rating: %q", body)
	}
	if !strings.Contains(body, analysis.Placeholder) {
		t.Errorf("degraded artifact should carry placeholders: %q", body)
	}
}

func TestModelRequestError_UsesRequestApology(t *testing.T) {
	m, _, store := newTestManager(t, &fakeModel{err: errors.New("connection refused")})

	m.Start(1, false)
	m.HandleMessage(1, "Worked on the report, took a walk, read.")

	raw, err := os.ReadFile(filepath.Join(store.Root(), "Diary", "May", "01_1_analysis.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != apologyRequest {
		t.Errorf("audit file: got %q", raw)
	}
}

func TestCancel(t *testing.T) {
	m, tr, store := newTestManager(t, &fakeModel{reply: modelReply})

	m.Start(1, false)
	m.Cancel(1)

	if m.Active(1) {
		t.Error("cancel should drop the session")
	}
	if tr.find(msgCancelled) < 0 {
		t.Error("cancel acknowledgement not sent")
	}
	if _, err := store.ReadArtifact("2024-05-01"); !errors.Is(err, diary.ErrNotFound) {
		t.Error("cancel must not write an artifact")
	}
}

func TestAudioChoice_Reprompt(t *testing.T) {
	m, tr, _ := newTestManager(t, &fakeModel{reply: modelReply})

	m.Start(1, false)
	m.HandleMessage(1, "Worked on the report, took a walk, read.")

	before := len(tr.texts)
	m.HandleMessage(1, "maybe later")

	if tr.find(msgAskAudio) < 0 || len(tr.texts) <= before {
		t.Error("unrecognized choice should re-prompt")
	}
	if !m.Active(1) {
		t.Error("session should survive an unrecognized choice")
	}
}

func TestFormatSection_EscapesMarkdown(t *testing.T) {
	msg := formatSection("🙏 Gratitude", "a_b *c* `d` [e]", "01-05-2024")

	for _, want := range []string{`a\_b`, `\*c\*`, "\\`d\\`", `\[e]`} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q: %q", want, msg)
		}
	}
	if !strings.Contains(msg, "*Daily Analysis for 01-05-2024*") {
		t.Errorf("header missing: %q", msg)
	}
}

func TestDeliver_TruncatesOversizedSection(t *testing.T) {
	long := "GRATITUDE:\n" + strings.Repeat("x", 5000) + "\nDAY RATING: 8/10"
	m, tr, _ := newTestManager(t, &fakeModel{reply: long})

	m.Start(1, false)
	m.HandleMessage(1, "Worked on the report, took a walk, read.")
	m.HandleMessage(1, ChoiceNoAudio)

	idx := tr.find(sectionTitles[analysis.KeyGratitude])
	if idx < 0 {
		t.Fatal("gratitude section not sent")
	}
	msg := tr.texts[idx]
	if !strings.Contains(msg, "...") {
		t.Error("oversized section should carry the truncation marker")
	}
	if len(msg) > maxSectionLen+200 {
		t.Errorf("section message too long: %d bytes", len(msg))
	}
}
