package speech

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reflectbot/reflectbot/internal/analysis"
)

// fakeSynth records calls and fails for section names in failFor.
type fakeSynth struct {
	calls   []string
	failFor map[string]bool
}

func (f *fakeSynth) Synthesize(text, dir, name string) (string, error) {
	f.calls = append(f.calls, name)
	if f.failFor[name] {
		return "", errors.New("synthesis unavailable")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".mp3")
	if err := os.WriteFile(path, []byte("mp3"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func testRecord() analysis.Record {
	return analysis.Record{
		Gratitude:        "g",
		TimeWasted:       "t",
		GoodUse:          "u",
		MemorableMoments: "m",
		Suggestions:      "s",
		HabitPatterns:    "h",
		DaySummary:       "d",
		DayRating:        8,
	}
}

func TestRenderAll(t *testing.T) {
	synth := &fakeSynth{}
	r := NewRenderer(synth)
	dir := filepath.Join(t.TempDir(), "01-05-2024")

	files := r.RenderAll(testRecord(), dir)

	if len(files) != len(analysis.SectionKeys) {
		t.Fatalf("got %d files, want %d", len(files), len(analysis.SectionKeys))
	}
	for _, key := range analysis.SectionKeys {
		path, ok := files[key]
		if !ok {
			t.Errorf("missing audio for %s", key)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("audio file for %s: %v", key, err)
		}
	}

	// The rating is never spoken.
	for _, call := range synth.calls {
		if call == "day_rating" {
			t.Error("rating section should not be synthesized")
		}
	}
}

func TestRenderAll_SkipsFailedSection(t *testing.T) {
	synth := &fakeSynth{failFor: map[string]bool{"suggestions": true}}
	r := NewRenderer(synth)

	files := r.RenderAll(testRecord(), filepath.Join(t.TempDir(), "a"))

	if _, ok := files["suggestions"]; ok {
		t.Error("failed section should be absent from the result")
	}
	if len(files) != len(analysis.SectionKeys)-1 {
		t.Errorf("got %d files, want %d", len(files), len(analysis.SectionKeys)-1)
	}
	// All sections were still attempted.
	if len(synth.calls) != len(analysis.SectionKeys) {
		t.Errorf("got %d synth calls, want %d", len(synth.calls), len(analysis.SectionKeys))
	}
}

func TestCleanup(t *testing.T) {
	r := NewRenderer(&fakeSynth{})
	dir := filepath.Join(t.TempDir(), "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gratitude.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	r.Cleanup(dir)

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cleanup should remove the working directory")
	}

	// Cleaning a missing directory (or nothing) must not panic.
	r.Cleanup(dir)
	r.Cleanup("")
}
