package model

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultTitle is the title used when an item has neither a caption nor a
// usable file name.
const DefaultTitle = "audio_file"

// Origin tells where an audio item came from.
type Origin int

const (
	// OriginChat is a file sent to the bot in a private chat.
	OriginChat Origin = iota

	// OriginSourceChannel is a post in the configured source channel.
	OriginSourceChannel

	// OriginLocal is a file on disk, processed from the command line.
	OriginLocal
)

// AudioItem is one inbound audio file to process.
//
// Items reach the pipeline from the chat transport or from the CLI. The
// pipeline downloads the file (unless LocalPath is set), tags it and
// sends it back.
//
// Example:
//
//	item := &AudioItem{
//	    FileID:   "CQACAgQAAxkBAAIB",
//	    FileName: "track 01.mp3",
//	    Caption:  "Morning nasheed",
//	    ChatID:   12345,
//	    SenderID: 12345,
//	}
//	item.TitleInput() // "Morning nasheed"
type AudioItem struct {
	// FileID is the chat platform's handle for the file.
	FileID string

	// URL is a direct download URL. Resolved from FileID when empty.
	URL string

	// LocalPath points at a file already on disk.
	LocalPath string

	// FileName is the name the sender gave the file. May be empty.
	FileName string

	// MimeType as reported by the sender. May be empty.
	MimeType string

	// Caption is the text attached to the file. May be empty.
	Caption string

	// ChatID is where replies go.
	ChatID int64

	// MessageID is the inbound message, used to thread replies.
	MessageID int

	// SenderID identifies who sent the item. Zero for channel posts.
	SenderID int64

	// SenderName is a display name for logs and the edit log.
	SenderName string

	Origin Origin
}

// TitleInput returns the raw title for the item: the caption if present,
// otherwise the file name without its extension, otherwise DefaultTitle.
func (i *AudioItem) TitleInput() string {
	if c := strings.TrimSpace(i.Caption); c != "" {
		return c
	}
	name := strings.TrimSpace(i.FileName)
	if name == "" && i.LocalPath != "" {
		name = filepath.Base(i.LocalPath)
	}
	name = strings.TrimSpace(strings.TrimSuffix(name, filepath.Ext(name)))
	if name == "" {
		return DefaultTitle
	}
	return name
}

// OutputFileName computes the file name used when sending the tagged file
// back. The extension of the original name is kept, defaulting to ".mp3".
func (i *AudioItem) OutputFileName(title string) string {
	ext := strings.ToLower(filepath.Ext(i.FileName))
	if ext == "" {
		ext = ".mp3"
	}
	base := SanitizeFileName(title)
	if base == "" {
		base = DefaultTitle
	}
	// Most filesystems cap a name at 255 bytes.
	if limit := 255 - len(ext); len(base) > limit {
		base = truncateUTF8(base, limit)
	}
	return base + ext
}

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots     = regexp.MustCompile(`\.+$`)
	repeatedSpace    = regexp.MustCompile(`\s+`)
)

// SanitizeFileName makes name safe to use as a file name on any platform.
func SanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
