// Package speech renders analysis sections as synthesized audio files.
package speech

import (
	"fmt"
	"log"
	"os"

	htgotts "github.com/hegedustibor/htgo-tts"

	"github.com/reflectbot/reflectbot/internal/analysis"
)

// Synthesizer is the speech-synthesis collaborator: text in, an audio file
// on disk out. Each call either succeeds fully or fails with an opaque error.
type Synthesizer interface {
	Synthesize(text, dir, name string) (string, error)
}

// GoogleTTS synthesizes speech through the Google Translate TTS endpoint.
type GoogleTTS struct {
	Language string
}

// Synthesize writes dir/name.mp3 and returns its path.
func (g GoogleTTS) Synthesize(text, dir, name string) (string, error) {
	tts := htgotts.Speech{Folder: dir, Language: g.Language}
	path, err := tts.CreateSpeechFile(text, name)
	if err != nil {
		return "", fmt.Errorf("speech: synthesize %s: %w", name, err)
	}
	return path, nil
}

// Renderer orchestrates per-section synthesis and working-directory cleanup.
type Renderer struct {
	synth Synthesizer
}

// NewRenderer creates a Renderer using the given synthesizer.
func NewRenderer(synth Synthesizer) *Renderer {
	return &Renderer{synth: synth}
}

// RenderAll synthesizes each of the seven text sections into dir and returns
// a map from section key to audio path. A failed section is logged and
// skipped; the remaining sections still render.
func (r *Renderer) RenderAll(rec analysis.Record, dir string) map[string]string {
	files := make(map[string]string, len(analysis.SectionKeys))
	for _, key := range analysis.SectionKeys {
		path, err := r.synth.Synthesize(rec.Section(key), dir, key)
		if err != nil {
			log.Printf("speech: render %s: %v", key, err)
			continue
		}
		files[key] = path
	}
	return files
}

// Cleanup removes the audio working directory and everything in it. Failure
// is logged, never escalated.
func (r *Renderer) Cleanup(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("speech: cleanup %s: %v", dir, err)
	}
}
