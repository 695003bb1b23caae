package compose

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxWrappedLineLength is the exclusive upper bound on the length of a line
// whose trailing break may be a word-wrap artifact.
const maxWrappedLineLength = 100

var (
	lastWord            = regexp.MustCompile(`[\p{L}\p{N}_]+$`)
	lowercaseStart      = regexp.MustCompile(`^[a-zäöü]`)
	adjectiveInflection = regexp.MustCompile(`(en|er|es|em)$`)
)

// connectorWords end a line only when the sentence continues on the next
// one. Single-letter words are left out so list items like "Option A" keep
// their breaks.
var connectorWords = func() map[string]struct{} {
	words := []string{
		// English
		"the", "an", "and", "or", "but", "nor", "of", "to", "in", "on", "at",
		"for", "with", "from", "by", "about", "into", "onto", "over", "under",
		"as", "than", "that", "which", "who", "whose", "whom", "this", "these",
		"those", "is", "are", "was", "were", "be", "been", "has", "have", "had",
		"will", "would", "can", "could", "should", "may", "might", "must", "not",
		"if", "when", "while", "because", "so",
		// German
		"der", "die", "das", "den", "dem", "des", "ein", "eine", "einen", "einem",
		"einer", "eines", "und", "oder", "aber", "sondern", "denn", "mit", "von",
		"zu", "zum", "zur", "für", "auf", "aus", "bei", "nach", "seit", "über",
		"unter", "vor", "hinter", "neben", "zwischen", "durch", "gegen", "ohne",
		"um", "im", "am", "ins", "ans", "vom", "beim", "als", "wie", "dass", "ob",
		"wenn", "weil", "da", "nicht", "ist", "sind", "war", "waren", "wird",
		"werden", "hat", "haben", "kann", "können", "soll", "sollte", "muss",
		"noch", "auch", "sehr",
	}
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}()

// Reflow joins lines that were broken only to fit a fixed display width.
//
// Escaped "\n" sequences and CRLF line endings are normalized to newlines
// first. A break is removed, and the two lines joined with a single space,
// when the line is shorter than 100 characters, ends in a word character
// rather than sentence punctuation, and either the next line starts in
// lowercase, the line ends with a connector word such as "the" or "und", or
// it ends with a German adjective inflection ("-en", "-er", "-es", "-em") on
// a word of five or more letters. Blank lines are never joined.
//
// Reflow is tuned for English and German prose. It is a fixed-rule
// heuristic and will misjudge some breaks.
func Reflow(text string) string {
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	out := make([]string, 0, len(lines))
	out = append(out, lines[0])
	for i := 1; i < len(lines); i++ {
		if isArtificialBreak(lines[i-1], lines[i]) {
			last := len(out) - 1
			out[last] = strings.TrimRight(out[last], " \t") + " " + strings.TrimLeft(lines[i], " \t")
			continue
		}
		out = append(out, lines[i])
	}
	return strings.Join(out, "\n")
}

func isArtificialBreak(line string, next string) bool {
	line = strings.TrimRight(line, " \t")
	next = strings.TrimLeft(next, " \t")
	if line == "" || next == "" {
		return false
	}
	if utf8.RuneCountInString(line) >= maxWrappedLineLength {
		return false
	}
	if strings.ContainsAny(line[len(line)-1:], ".?!:;") {
		return false
	}
	word := lastWord.FindString(line)
	if word == "" {
		return false
	}

	if lowercaseStart.MatchString(next) {
		return true
	}
	lower := strings.ToLower(word)
	if _, ok := connectorWords[lower]; ok {
		return true
	}
	return utf8.RuneCountInString(word) >= 5 && adjectiveInflection.MatchString(lower)
}
