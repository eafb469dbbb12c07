package pipeline

import (
	"regexp"
	"strings"
)

// OCR extraction tends to break words with a stray single space, like
// "institu ción" or "ESTUDIANTE S". The repair passes merge a word stem with a
// short orphan tail. Letter classes cover Spanish accented characters.
//
// The merge is intentionally over-eager: a short real word that is not a
// common function word gets swallowed ("cree rme"), and two adjacent all-caps
// acronyms can be joined. Accepted precision/recall tradeoff of the heuristic.
var (
	// lowercase stem + space + short lowercase tail, e.g. "institu ción"
	lowerBreakPattern = regexp.MustCompile(`([a-záéíóúñü]{4,}) ([a-záéíóúñü]{1,4})([^a-záéíóúñüA-ZÁÉÍÓÚÑÜ]|$)`)
	// capitalized stem + space + short lowercase tail, e.g. "Anton io"
	upperLowerBreakPattern = regexp.MustCompile(`([A-ZÁÉÍÓÚÑÜ][a-záéíóúñü]{2,}) ([a-záéíóúñü]{1,4})([^a-záéíóúñüA-ZÁÉÍÓÚÑÜ]|$)`)
	// all-caps pair, only when followed by another uppercase letter,
	// whitespace or end of input, e.g. "ESTUDIANTE S"
	upperBreakPattern = regexp.MustCompile(`([A-ZÁÉÍÓÚÑÜ]) ([A-ZÁÉÍÓÚÑÜ])([A-ZÁÉÍÓÚÑÜ \t]|$|\n)`)

	horizontalSpacePattern = regexp.MustCompile(`[ \t]+`)
	lineEdgeSpacePattern   = regexp.MustCompile(`[ \t]*\n[ \t]*`)
)

// Function words that legitimately follow another word with a single space.
// A tail in this set is never treated as a broken-off word fragment.
var functionWordTails = map[string]struct{}{
	"al": {}, "el": {}, "la": {}, "lo": {}, "le": {}, "en": {}, "es": {},
	"un": {}, "de": {}, "se": {}, "su": {}, "si": {}, "no": {}, "ni": {},
	"ya": {}, "he": {}, "ha": {}, "me": {}, "te": {}, "tu": {}, "mi": {},
	"que": {}, "los": {}, "las": {}, "les": {}, "una": {}, "uno": {},
	"con": {}, "por": {}, "del": {}, "son": {}, "fue": {}, "hay": {},
	"sus": {}, "nos": {}, "más": {}, "muy": {}, "sin": {}, "era": {},
	"para": {}, "como": {}, "pero": {}, "este": {}, "esta": {}, "esto": {},
	"cada": {}, "ante": {}, "así": {}, "sea": {}, "han": {},
}

// RepairFunc repairs OCR artifacts in extracted text
type RepairFunc func(text string) string

// Repair fixes single-space word breaks left by OCR extraction.
// Newlines are preserved so structural line classification still works
// downstream. The merge passes run twice to resolve nested breaks
// (three-way splits like "institu ci ón").
func Repair(text string) string {
	if text == "" {
		return text
	}

	for range 2 {
		text = mergeBrokenPair(lowerBreakPattern, text)
		text = mergeBrokenPair(upperLowerBreakPattern, text)
		text = upperBreakPattern.ReplaceAllString(text, "$1$2$3")
	}

	text = horizontalSpacePattern.ReplaceAllString(text, " ")
	text = lineEdgeSpacePattern.ReplaceAllString(text, "\n")

	return strings.TrimSpace(text)
}

// Letters that can legitimately end a Spanish word. A stem ending in any
// other letter ("derech", "institu" is fine, "derech" is not) is a fragment.
const validWordEndings = "aeiouáéíóúdjlnrszy"

func mergeBrokenPair(pattern *regexp.Regexp, text string) string {
	return pattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := pattern.FindStringSubmatch(match)
		stem, tail, next := groups[1], groups[2], groups[3]
		if _, ok := functionWordTails[tail]; ok {
			return match
		}
		// A lone vowel or conjunction before another word is usually a real
		// word ("derecho a la defensa"), unless the stem is visibly broken.
		if len([]rune(tail)) == 1 && next == " " && strings.ContainsRune("aeouy", []rune(tail)[0]) {
			stemRunes := []rune(stem)
			if strings.ContainsRune(validWordEndings, stemRunes[len(stemRunes)-1]) {
				return match
			}
		}
		return stem + tail + next
	})
}
