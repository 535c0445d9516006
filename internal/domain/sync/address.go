package sync

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// translit maps Cyrillic letters to their Latin spelling for address slugs
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	'і': "i", 'ї': "yi", 'є': "ye", 'ґ': "g",
}

// Slugify turns a title into a URL-safe address segment: transliterates
// Cyrillic, strips diacritics, lowercases, and collapses everything else
// into single hyphens
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if repl, ok := translit[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	cleaned, _, err := transform.String(t, b.String())
	if err != nil {
		cleaned = b.String()
	}

	var out strings.Builder
	lastHyphen := true
	for _, r := range cleaned {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				out.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(out.String(), "-")
}

// ChildAddress builds a hierarchical address from a parent address and a title
func ChildAddress(parentAddress, title string) string {
	slug := Slugify(title)
	if parentAddress == "" {
		return slug
	}
	return parentAddress + "/" + slug
}
