package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for upload.
var AllowedExtensions = map[string]struct{}{
	"pptx": {},
}

// MaxUploadBytes caps the size of an uploaded presentation (100 MiB).
const MaxUploadBytes = 100 << 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
