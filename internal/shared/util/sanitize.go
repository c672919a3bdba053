package util

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidFileName is returned when a name cannot be used as an object key segment.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName reduces a client-supplied file name to its final path
// segment and rejects names that could escape the owner's namespace.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	// Some browsers send the full client path.
	if idx := strings.LastIndexAny(s, `/\`); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." || strings.HasPrefix(s, ".upload-") {
		return "", ErrInvalidFileName
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", ErrInvalidFileName
		}
	}
	return s, nil
}
