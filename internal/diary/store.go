// Package diary persists entries, analyses and distilled diary artifacts as a
// flat, human-inspectable file layout under one data directory.
package diary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/reflectbot/reflectbot/internal/analysis"
)

// ErrNotFound is returned when a requested diary artifact does not exist.
var ErrNotFound = errors.New("diary: artifact not found")

// DefaultBio is used when a user has no bio and no default bio file exists.
const DefaultBio = "No personal information available yet."

var (
	artifactName   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_diary\.txt$`)
	artifactRating = regexp.MustCompile(`Day Rating: (\d+)/10`)
	nonDigits      = regexp.MustCompile(`[^\d]`)
)

// Store is a file-keyed diary store rooted at a single data directory.
// Distinct users and dates map to distinct paths, so concurrent sessions
// need no locking; two sessions for the same user on the same day race and
// the last writer wins.
type Store struct {
	root string
}

// New creates a Store rooted at dir. Call Bootstrap before first use.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the data directory the store writes under.
func (s *Store) Root() string {
	return s.root
}

// Bootstrap creates the directory layout and a default bio file.
func (s *Store) Bootstrap() error {
	for _, dir := range []string{"Diary", "Audio", "Users", "DiaryEntries"} {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
			return fmt.Errorf("diary: bootstrap %s: %w", dir, err)
		}
	}

	bioPath := filepath.Join(s.root, "Bio.txt")
	if _, err := os.Stat(bioPath); os.IsNotExist(err) {
		if err := os.WriteFile(bioPath, []byte(DefaultBio), 0o644); err != nil {
			return fmt.Errorf("diary: write default bio: %w", err)
		}
	}
	return nil
}

// sanitizeID reduces a user identity to its digits. IDs arrive from the
// transport boundary and are attacker-influenced; only the digit class is
// ever interpolated into a path.
func sanitizeID(userID int64) string {
	return nonDigits.ReplaceAllString(strconv.FormatInt(userID, 10), "")
}

// entryDir returns the month bucket for raw entries, e.g. Diary/May.
func (s *Store) entryDir(now time.Time) string {
	return filepath.Join(s.root, "Diary", now.Format("January"))
}

// WriteEntry saves a raw daily narrative, overwriting any earlier entry by
// the same user on the same day.
func (s *Store) WriteEntry(userID int64, now time.Time, text string) (string, error) {
	dir := s.entryDir(now)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("diary: entry dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", now.Format("02"), sanitizeID(userID)))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("diary: write entry: %w", err)
	}
	return path, nil
}

// WriteAnalysis saves the unparsed model reply next to the raw entry, for
// audit. Callers treat a failure here as best-effort.
func (s *Store) WriteAnalysis(userID int64, now time.Time, raw string) (string, error) {
	dir := s.entryDir(now)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("diary: entry dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s_analysis.txt", now.Format("02"), sanitizeID(userID)))
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return "", fmt.Errorf("diary: write analysis: %w", err)
	}
	return path, nil
}

// WriteArtifact writes the distilled diary artifact for a date. The file is
// keyed by date only, not by user: when several users complete a session on
// the same calendar date, the last one overwrites the others.
func (s *Store) WriteArtifact(now time.Time, rec analysis.Record) (string, error) {
	dir := filepath.Join(s.root, "DiaryEntries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("diary: artifact dir: %w", err)
	}

	content := fmt.Sprintf(
		"Diary Entry: %s\n\nDay Rating: %d/10\n\n%s\n\nGratitude:\n%s",
		now.Format("Monday, January 02, 2006"),
		rec.DayRating,
		rec.DaySummary,
		rec.Gratitude,
	)

	path := filepath.Join(dir, now.Format("2006-01-02")+"_diary.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("diary: write artifact: %w", err)
	}
	return path, nil
}

// ArtifactInfo describes one stored diary artifact.
type ArtifactInfo struct {
	Date   string // YYYY-MM-DD
	Path   string
	Rating string // scraped from the artifact body, "?" when absent
}

// ListArtifacts returns all diary artifacts, newest first. A missing
// DiaryEntries directory yields an empty list, not an error.
func (s *Store) ListArtifacts() ([]ArtifactInfo, error) {
	dir := filepath.Join(s.root, "DiaryEntries")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("diary: list artifacts: %w", err)
	}

	var artifacts []ArtifactInfo
	for _, e := range entries {
		m := artifactName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		info := ArtifactInfo{
			Date:   m[1],
			Path:   filepath.Join(dir, e.Name()),
			Rating: "?",
		}
		if body, err := os.ReadFile(info.Path); err == nil {
			if rm := artifactRating.FindSubmatch(body); rm != nil {
				info.Rating = string(rm[1])
			}
		}
		artifacts = append(artifacts, info)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Date > artifacts[j].Date
	})
	return artifacts, nil
}

// ReadArtifact returns the artifact body for a YYYY-MM-DD date.
func (s *Store) ReadArtifact(date string) (string, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", fmt.Errorf("diary: bad date %q: %w", date, err)
	}

	path := filepath.Join(s.root, "DiaryEntries", date+"_diary.txt")
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("diary: read artifact: %w", err)
	}
	return string(body), nil
}

// Bio returns the user's bio, falling back to the process-wide default bio
// file and finally to DefaultBio. It never fails.
func (s *Store) Bio(userID int64) string {
	userPath := filepath.Join(s.root, "Users", sanitizeID(userID)+"_bio.txt")
	if body, err := os.ReadFile(userPath); err == nil {
		return string(body)
	}

	if body, err := os.ReadFile(filepath.Join(s.root, "Bio.txt")); err == nil {
		return string(body)
	}
	return DefaultBio
}

// SetBio creates or overwrites the user's bio.
func (s *Store) SetBio(userID int64, text string) error {
	dir := filepath.Join(s.root, "Users")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("diary: users dir: %w", err)
	}

	path := filepath.Join(dir, sanitizeID(userID)+"_bio.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("diary: write bio: %w", err)
	}
	return nil
}

// AudioDir returns the working directory for audio rendered on a given day.
func (s *Store) AudioDir(now time.Time) string {
	return filepath.Join(s.root, "Audio", now.Format("02-01-2006"))
}

// FormatDisplayDate renders a YYYY-MM-DD date for listings, e.g.
// "Wednesday, May 01, 2024". Unparseable input is returned unchanged.
func FormatDisplayDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 02, 2006")
}

// CompactDate converts YYYY-MM-DD to YYYYMMDD for /read_ shortcut commands.
func CompactDate(date string) string {
	return strings.ReplaceAll(date, "-", "")
}
