package compose

import "regexp"

const (
	replyTag   = "Re:"
	forwardTag = "Fwd:"
)

var (
	replyPrefix   = regexp.MustCompile(`(?i)^re:\s*`)
	forwardPrefix = regexp.MustCompile(`(?i)^(fwd?|fw):\s*`)
)

// ReplySubject prefixes subject with "Re: " unless it already starts with a
// reply tag in any casing. An empty subject becomes "Re:".
//
// Existing tags are returned untouched, casing and spacing included, so
// ReplySubject is idempotent.
func ReplySubject(subject string) string {
	return tagSubject(subject, replyTag, replyPrefix)
}

// ForwardSubject prefixes subject with "Fwd: " unless it already starts with
// "Fwd:", "Fw:" or "FW:" in any casing. An empty subject becomes "Fwd:".
func ForwardSubject(subject string) string {
	return tagSubject(subject, forwardTag, forwardPrefix)
}

func tagSubject(subject string, tag string, existing *regexp.Regexp) string {
	if subject == "" {
		return tag
	}
	if existing.MatchString(subject) {
		return subject
	}
	return tag + " " + subject
}
