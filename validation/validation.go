// Package validation holds the input checks and normalizers shared by the
// storefront services: contact data formats, slugs and free-text sanitizing.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MaxSlugLen  = 200
	MaxEmailLen = 255
	MaxTextLen  = 1000
)

var (
	emailRe         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe         = regexp.MustCompile(`^\+?[78][\s-]?\(?[0-9]{3}\)?[\s-]?[0-9]{3}[\s-]?[0-9]{2}[\s-]?[0-9]{2}$`)
	slugRe          = regexp.MustCompile(`^[a-z0-9-]+$`)
	canonicalSlugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	scriptSchemeRe = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRe = regexp.MustCompile(`(?i)on\w+\s*=`)
	nonSlugRunRe   = regexp.MustCompile(`[^a-z0-9]+`)
)

func IsEmail(s string) bool {
	return len(s) <= MaxEmailLen && emailRe.MatchString(s)
}

// IsPhone accepts Russian numbers: optional "+", leading 7 or 8, then ten
// digits with optional separators, e.g. "+7 (912) 345-67-89".
func IsPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// IsSlug reports whether s is a supplied URL slug usable as is.
func IsSlug(s string) bool {
	return len(s) <= MaxSlugLen && slugRe.MatchString(s)
}

// IsCanonicalSlug is the stricter form required for category slugs: no
// leading, trailing or doubled hyphens.
func IsCanonicalSlug(s string) bool {
	return len(s) <= MaxSlugLen && canonicalSlugRe.MatchString(s)
}

func IsId(id int) bool {
	return id > 0 && id < 2147483647
}

// ParseId parses a positive database id from a path or query value.
func ParseId(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !IsId(id) {
		return 0, false
	}
	return id, true
}

// Sanitize trims s, drops angle brackets, "javascript:" schemes and inline
// event handler attributes, and caps the result at MaxTextLen runes.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	s = scriptSchemeRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	if utf8.RuneCountInString(s) > MaxTextLen {
		s = string([]rune(s)[:MaxTextLen])
	}
	return s
}

var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// DeriveSlug turns free text into a URL slug: lowercase, Cyrillic
// transliterated to Latin, every run of other characters collapsed to one
// hyphen, no hyphens at either end. DeriveSlug(DeriveSlug(x)) == DeriveSlug(x).
func DeriveSlug(text string) string {
	text = strings.TrimSpace(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if lat, ok := translit[r]; ok {
			b.WriteString(lat)
			continue
		}
		b.WriteRune(r)
	}
	slug := nonSlugRunRe.ReplaceAllString(b.String(), "-")
	return strings.Trim(slug, "-")
}
