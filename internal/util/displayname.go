package util

import (
	"strings"
	"unicode"

	"sftp-gateway/pkg/apierror"
)

// MaxDisplayNameRunes caps custom names shown in place of remote file names.
const MaxDisplayNameRunes = 255

// CleanDisplayName strips control and invisible characters from a custom
// name, collapses inner whitespace runs and truncates it by runes.
func CleanDisplayName(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))

	lastSpace := false
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}

	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return "", apierror.BadRequest("name is required", "")
	}

	if runes := []rune(cleaned); len(runes) > MaxDisplayNameRunes {
		cleaned = strings.TrimSpace(string(runes[:MaxDisplayNameRunes]))
	}

	return cleaned, nil
}
