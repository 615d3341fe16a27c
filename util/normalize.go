package util

import (
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var replacementTable = map[rune][]rune{
	'ß': {'s', 's'},
	'ẞ': {'s', 's'},
}

// NormalizeText lowercases text, transliterates it to ASCII, strips accents and punctuation
// and collapses whitespace so that it can be used for case and accent insensitive matching.
func NormalizeText(text string) string {
	replaced := make([]rune, 0, len(text))
	for _, r := range text {
		if rep, ok := replacementTable[r]; ok {
			replaced = append(replaced, rep...)
		} else {
			replaced = append(replaced, r)
		}
	}
	nfd := norm.NFD.String(unidecode.Unidecode(string(replaced)))
	result := make([]rune, 0, len(nfd))
	for _, r := range nfd {
		// replace all space characters with ' '
		if unicode.IsSpace(r) {
			if len(result) == 0 || result[len(result)-1] != ' ' {
				result = append(result, ' ')
			}
			continue
		}
		// discard non letter/digit characters
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		result = append(result, unicode.ToLower(r))
	}
	return norm.NFC.String(string(result))
}
