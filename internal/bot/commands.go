package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/reflectbot/reflectbot/internal/diary"
)

// maxBioLen bounds a user bio update.
const maxBioLen = 2000

// maxChunkLen bounds one message when replaying a stored diary artifact.
const maxChunkLen = 4000

func (b *Bot) handleStart(userID int64, firstName string) {
	if b.denied(userID) {
		return
	}

	b.reply(userID, fmt.Sprintf(
		"👋 Hi %s! Welcome to your Daily Reflection Bot.\n\n"+
			"I'll help you track your daily activities and provide thoughtful insights.\n\n"+
			"Available commands:\n"+
			"/diary - Start a new diary entry\n"+
			"/setbio - Set your personal info for better analysis\n"+
			"/mydiary - View your recent diary entries\n"+
			"/help - Show all available commands\n\n"+
			"You can also just say 'hi' to start a new diary entry!",
		firstName), false)
}

func (b *Bot) handleHelp(userID int64) {
	if b.denied(userID) {
		return
	}

	b.reply(userID,
		"📔 *Daily Reflection Bot Commands*\n\n"+
			"🚀 *Basic Commands*\n"+
			"/start - Initialize the bot\n"+
			"/help - Display this help message\n\n"+
			"📝 *Diary Commands*\n"+
			"/diary - Begin a new diary entry\n"+
			"/mydiary - List your recent diary entries\n"+
			"/read\\_YYYYMMDD - View a specific diary entry\n\n"+
			"👤 *Personal Settings*\n"+
			"/setbio - Update your personal profile for better analysis\n\n"+
			"💬 *Other Interactions*\n"+
			"Just type 'hi' or 'hello' to start a new diary entry.\n\n"+
			"ℹ️ Your entries will be analyzed to provide insights about your day, "+
			"habit patterns, and suggestions for improvement.", true)
}

func (b *Bot) handleSetBio(userID int64, args string) {
	if b.denied(userID) {
		return
	}

	args = strings.TrimSpace(args)
	if args == "" {
		b.reply(userID, fmt.Sprintf(
			"📋 *Personal Bio Setup*\n\n"+
				"Your bio helps me provide more personalized analysis of your diary entries.\n\n"+
				"*Current bio:*\n%s\n\n"+
				"*To update your bio:*\n"+
				"Type `/setbio` followed by your information. For example:\n"+
				"/setbio I'm a software developer who enjoys running, reading, "+
				"and trying to maintain a healthy work-life balance.",
			b.store.Bio(userID)), true)
		return
	}

	if utf8.RuneCountInString(args) > maxBioLen {
		b.reply(userID, "❌ Bio is too long. Please keep it under 2000 characters.", false)
		return
	}

	if err := b.store.SetBio(userID, args); err != nil {
		b.reply(userID, "There was an issue saving your bio. Please try again later.", false)
		return
	}

	b.reply(userID,
		"✅ *Bio updated successfully!*\n\n"+
			"I'll use this information to provide more personalized insights "+
			"in your diary analysis.", true)
}

func (b *Bot) handleMyDiary(userID int64) {
	if b.denied(userID) {
		return
	}

	artifacts, err := b.store.ListArtifacts()
	if err != nil {
		b.reply(userID, "Error retrieving diary entries. Please try again later.", false)
		return
	}
	if len(artifacts) == 0 {
		b.reply(userID, "No diary entries found yet. Start by creating your first entry!", false)
		return
	}

	if len(artifacts) > 10 {
		artifacts = artifacts[:10]
	}

	var sb strings.Builder
	sb.WriteString("*Your Recent Diary Entries:*\n\n")
	for _, a := range artifacts {
		fmt.Fprintf(&sb, "📆 *%s* (Rating: %s/10)\n", diary.FormatDisplayDate(a.Date), a.Rating)
		fmt.Fprintf(&sb, "  /read\\_%s\n\n", diary.CompactDate(a.Date))
	}
	sb.WriteString("Use the commands above to read a specific entry.")

	b.reply(userID, sb.String(), true)
}

// handleRead replays a stored artifact. compact is the YYYYMMDD command tail.
func (b *Bot) handleRead(userID int64, compact string) {
	if b.denied(userID) {
		return
	}

	date := fmt.Sprintf("%s-%s-%s", compact[:4], compact[4:6], compact[6:])

	content, err := b.store.ReadArtifact(date)
	if err != nil {
		b.reply(userID, fmt.Sprintf("No diary entry found for %s.", date), false)
		return
	}

	if len(content) <= maxChunkLen {
		b.reply(userID, fmt.Sprintf("📖 *Diary Entry: %s*\n\n%s", date, content), true)
		return
	}

	b.reply(userID, fmt.Sprintf("📖 *Diary Entry: %s*\n", date), true)
	for start := 0; start < len(content); start += maxChunkLen {
		end := start + maxChunkLen
		if end > len(content) {
			end = len(content)
		}
		b.reply(userID, content[start:end], false)
	}
}
