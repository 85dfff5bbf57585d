package session

import (
	"fmt"
	"log"
	"strings"

	"github.com/reflectbot/reflectbot/internal/analysis"
)

// maxSectionLen bounds one outgoing section message; longer content is
// truncated with an explicit marker rather than failing at the transport.
const maxSectionLen = 3900

// deliver emits the buffered analysis: each section as a formatted message,
// immediately followed by its audio when requested and rendered, then the
// decorated rating, the diary artifact write, and cleanup. It always ends the
// session.
func (m *Manager) deliver(userID int64, s *Session, wantAudio bool) {
	defer m.drop(userID)

	rec := s.Record
	dateStr := s.Date.Format("02-01-2006")

	var audioFiles map[string]string
	if wantAudio {
		audioFiles = m.renderer.RenderAll(rec, s.AudioDir)
		if len(audioFiles) == 0 {
			m.reply(userID, msgAudioFailed)
			wantAudio = false
		}
	}

	for _, key := range analysis.SectionKeys {
		title := sectionTitles[key]
		content := rec.Section(key)
		if len(content) > maxSectionLen {
			content = content[:maxSectionLen] + "..."
		}

		msg := formatSection(title, content, dateStr)
		if err := m.tr.SendText(userID, msg, true); err != nil {
			log.Printf("session: send section %s: %v", key, err)
			// Markdown can fail on model-authored text; retry plain.
			plain := fmt.Sprintf("Daily Analysis for %s\n\n%s\n\n%s", dateStr, title, content)
			if err := m.tr.SendText(userID, plain, false); err != nil {
				log.Printf("session: send section %s plain: %v", key, err)
				continue
			}
		}

		if !wantAudio {
			continue
		}
		path, ok := audioFiles[key]
		if !ok {
			continue
		}
		caption := strings.TrimSpace(strings.SplitN(title, "-", 2)[0])
		if err := m.tr.SendVoice(userID, path, caption); err != nil {
			log.Printf("session: send voice %s: %v", key, err)
		}
	}

	m.sendRating(userID, rec.DayRating)

	if _, err := m.store.WriteArtifact(s.Date, rec); err != nil {
		log.Printf("session: write artifact: %v", err)
		m.reply(userID, msgArtifactFailed)
	} else {
		m.reply(userID, fmt.Sprintf("✍️ Your digital diary entry for %s has been saved.", s.Date.Format("Monday, January 02")))
	}

	if wantAudio {
		m.renderer.Cleanup(s.AudioDir)
	}
}

// sendRating emits the day rating as a star bar.
func (m *Manager) sendRating(userID int64, rating int) {
	if rating < 1 || rating > 10 {
		rating = analysis.DefaultRating
	}
	stars := strings.Repeat("★", rating) + strings.Repeat("☆", 10-rating)
	msg := fmt.Sprintf("📊 *Day Rating: %d/10*\n\n%s", rating, stars)
	if err := m.tr.SendText(userID, msg, true); err != nil {
		log.Printf("session: send rating: %v", err)
	}
}

// formatSection renders one section message, escaping the model-authored
// content so it cannot break Markdown formatting.
func formatSection(title, content, dateStr string) string {
	return fmt.Sprintf("📅 *Daily Analysis for %s*\n\n*%s*\n\n%s", dateStr, title, escapeMarkdown(content))
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// escapeMarkdown neutralizes the Markdown control characters Telegram's
// legacy Markdown mode interprets.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
