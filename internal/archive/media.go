package archive

import (
	"path/filepath"
	"strings"
)

// whatsAppInfix marks files named by the exporting app, e.g. IMG-20240301-WA0001.jpg.
const whatsAppInfix = "-WA"

// MediaExtensions are the attachment types collected from an export, regardless of file name.
var MediaExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".opus": "audio/ogg",
	".mp4":  "video/mp4",
	".webp": "image/webp",
}

// IsMedia reports whether a file name looks like an exported attachment.
func IsMedia(name string) bool {
	base := filepath.Base(name)
	if strings.Contains(base, whatsAppInfix) {
		return true
	}
	_, ok := MediaExtensions[strings.ToLower(filepath.Ext(base))]
	return ok
}

// IsTranscript reports whether a file name is a plain-text chat transcript.
func IsTranscript(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txt")
}

func isPreferredTranscript(name string) bool {
	return IsTranscript(name) && strings.Contains(strings.ToLower(filepath.Base(name)), "chat")
}
