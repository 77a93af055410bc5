package transcript

import "strings"

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	`\`, "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeFilename replaces characters that are invalid in file names on
// common filesystems with an underscore. Everything else, including spaces
// and non-ASCII letters, is kept.
func SanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}

// FileName is the transcript file name for conv:
// <contact>_<created timestamp>.txt, both parts sanitized.
func FileName(conv Conversation) string {
	return SanitizeFilename(conv.ContactName) + "_" + SanitizeFilename(conv.CreatedAt) + ".txt"
}
