// Package normalize turns free-form spreadsheet headers into column
// identifiers that are safe to use unquoted in SQL.
package normalize

import "strings"

// Fallback is returned when nothing usable is left of the input.
const Fallback = "col"

var accents = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A",
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"É", "E", "È", "E", "Ê", "E",
	"é", "e", "è", "e", "ê", "e",
	"Í", "I", "Ì", "I", "Î", "I",
	"í", "i", "ì", "i", "î", "i",
	"Ó", "O", "Ò", "O", "Ô", "O", "Õ", "O",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o",
	"Ú", "U", "Ù", "U", "Û", "U",
	"ú", "u", "ù", "u", "û", "u",
	"Ç", "C", "ç", "c",
	"Ñ", "N", "ñ", "n",
)

// Name maps raw to a canonical field name matching ^[0-9a-z]+(_[0-9a-z]+)*$,
// or Fallback. Name(Name(s)) == Name(s) for every s.
func Name(raw string) string {
	s := strings.ToLower(accents.Replace(strings.TrimSpace(raw)))

	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}

	if b.Len() == 0 {
		return Fallback
	}
	return b.String()
}

// IsCanonical reports whether name could have been produced by Name.
func IsCanonical(name string) bool {
	return name != "" && Name(name) == name
}
