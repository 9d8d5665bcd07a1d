package importer

import (
	"regexp"
	"strings"

	"github.com/Victor-talka/talka-history/internal/models"
)

// mediaRule assigns a message type when any of its cues appears in the
// lower-cased content. Keyword rules additionally require "http".
type mediaRule struct {
	messageType     models.MessageType
	cues            []string
	requiresLink    bool
	extractFilename bool
}

// mediaRules are evaluated top to bottom; the first match wins. Extension
// rules come first so a file extension beats any keyword.
var mediaRules = []mediaRule{
	{messageType: models.MessageTypeImage, cues: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}, extractFilename: true},
	{messageType: models.MessageTypeVideo, cues: []string{".mp4", ".avi", ".mov", ".webm"}, extractFilename: true},
	{messageType: models.MessageTypeAudio, cues: []string{".mp3", ".wav", ".ogg", ".m4a"}, extractFilename: true},
	{messageType: models.MessageTypeDocument, cues: []string{".pdf", ".doc", ".docx", ".txt"}, extractFilename: true},
	{messageType: models.MessageTypeImage, cues: []string{"imagem", "foto", "image"}, requiresLink: true},
	{messageType: models.MessageTypeVideo, cues: []string{"video", "vídeo"}, requiresLink: true},
	{messageType: models.MessageTypeAudio, cues: []string{"audio", "áudio"}, requiresLink: true},
}

var (
	urlPattern      = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	filenamePattern = regexp.MustCompile(`([^/\\\s]+\.[a-zA-Z0-9]+)(?:\s|$)`)
)

// Media is the result of classifying a message body
type Media struct {
	Type     models.MessageType
	URL      *string
	Filename *string
}

// ClassifyMedia inspects message text for extension or keyword cues.
// URL and filename are nil when their pattern does not match.
func ClassifyMedia(content string) Media {
	lower := strings.ToLower(content)

	for _, rule := range mediaRules {
		if rule.requiresLink && !strings.Contains(lower, "http") {
			continue
		}
		if !containsAny(lower, rule.cues) {
			continue
		}

		media := Media{Type: rule.messageType, URL: extractURL(content)}
		if rule.extractFilename {
			media.Filename = extractFilename(content)
		}
		return media
	}

	return Media{Type: models.MessageTypeText}
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}

func extractURL(content string) *string {
	match := urlPattern.FindString(content)
	if match == "" {
		return nil
	}
	return &match
}

func extractFilename(content string) *string {
	match := filenamePattern.FindStringSubmatch(content)
	if match == nil {
		return nil
	}
	return &match[1]
}
