package scheduling

import (
	"strings"
	"unicode"
)

// Slugify turns a display name into a URL slug: lowercase, alphanumeric runs
// joined by single hyphens. "Quick Chat (30 min)" -> "quick-chat-30-min".
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

// validSlug reports whether s is usable as a stored slug: non-empty,
// lowercase letters, digits and hyphens, no leading/trailing/double hyphen.
func validSlug(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") || strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}
