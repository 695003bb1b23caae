package compose

import (
	"fmt"
	"regexp"
	"strings"
)

const forwardSeparator = "---------- Forwarded message ----------"

// bodyTemplate is the container WrapWithTemplate puts around bare content.
// It is itself a styled div, so wrapping twice is a no-op.
const bodyTemplate = `<div style="font-family: Arial, Helvetica, sans-serif; font-size: 14px; line-height: 1.5; color: #222222;">%s</div>`

var blockStructure = regexp.MustCompile(`(?i)<html|<body|<div[^>]*\bstyle\s*=`)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// QuoteInput describes the message being quoted in a reply.
type QuoteInput struct {
	Body      string
	FromName  string
	FromEmail string
	Date      string
	HTML      bool
}

// ForwardInput describes the message being forwarded.
//
// Comment is optional text placed above the forwarded block.
type ForwardInput struct {
	Body      string
	FromName  string
	FromEmail string
	To        string
	Date      string
	Subject   string
	Comment   string
	HTML      bool
}

// EscapeHTML escapes &, < and >.
//
// Quotes are left alone: output is only ever placed in element content.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// FormatQuotedBody renders the quoted original for a reply.
//
// The attribution reads "On {date}, {sender} <{email}> wrote:" where sender is
// the display name, or the email when the name is empty. HTML output escapes
// the body and wraps it in a bordered block; plain output prefixes every line
// with "> ".
func FormatQuotedBody(in QuoteInput) string {
	sender := senderLabel(in.FromName, in.FromEmail)

	if in.HTML {
		quoted := strings.ReplaceAll(EscapeHTML(in.Body), "\n", "<br>")
		return fmt.Sprintf(`<br><br>
<div style="border-left: 2px solid #ccc; padding-left: 10px; margin-left: 5px; color: #555;">
<p style="margin: 0 0 10px 0;">On %s, %s &lt;%s&gt; wrote:</p>
<div>%s</div>
</div>`, EscapeHTML(in.Date), EscapeHTML(sender), EscapeHTML(in.FromEmail), quoted)
	}

	lines := strings.Split(in.Body, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return fmt.Sprintf("\n\nOn %s, %s <%s> wrote:\n%s", in.Date, sender, in.FromEmail, strings.Join(lines, "\n"))
}

// FormatForwardBody renders a forwarded message with its From, Date, Subject
// and To header block.
//
// In HTML mode the comment is reflowed, escaped and converted to line breaks
// before being placed above the block. In plain mode it is placed verbatim,
// followed by a blank line.
func FormatForwardBody(in ForwardInput) string {
	sender := senderLabel(in.FromName, in.FromEmail)

	if in.HTML {
		comment := ""
		if in.Comment != "" {
			comment = ConvertNewlinesToHTML(EscapeHTML(Reflow(in.Comment)))
		}
		forwarded := strings.ReplaceAll(EscapeHTML(in.Body), "\n", "<br>")
		return fmt.Sprintf(`%s<br><br>
%s<br>
<b>From:</b> %s &lt;%s&gt;<br>
<b>Date:</b> %s<br>
<b>Subject:</b> %s<br>
<b>To:</b> %s<br>
<br>
%s`,
			comment,
			forwardSeparator,
			EscapeHTML(sender), EscapeHTML(in.FromEmail),
			EscapeHTML(in.Date),
			EscapeHTML(in.Subject),
			EscapeHTML(in.To),
			forwarded,
		)
	}

	header := fmt.Sprintf("\n%s\nFrom: %s <%s>\nDate: %s\nSubject: %s\nTo: %s\n\n",
		forwardSeparator, sender, in.FromEmail, in.Date, in.Subject, in.To)
	if in.Comment != "" {
		return in.Comment + "\n" + header + in.Body
	}
	return header + in.Body
}

// ConvertNewlinesToHTML replaces newlines with <br> tags.
//
// Escaped sequences (a literal backslash followed by n, as left behind by JSON
// transport) are converted before real newlines; in both passes paragraph
// breaks become "<br><br>".
//
//	ConvertNewlinesToHTML("Hello\n\nWorld") // "Hello<br><br>World"
func ConvertNewlinesToHTML(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, `\n\n`, "<br><br>")
	text = strings.ReplaceAll(text, `\n`, "<br>")
	text = strings.ReplaceAll(text, "\n\n", "<br><br>")
	text = strings.ReplaceAll(text, "\n", "<br>")
	return text
}

// WrapWithTemplate wraps content in a sans-serif container.
//
// Content that already carries block structure (an <html> or <body> element,
// or a styled <div>) is returned unchanged, which makes WrapWithTemplate
// idempotent.
func WrapWithTemplate(content string) string {
	if blockStructure.MatchString(content) {
		return content
	}
	return fmt.Sprintf(bodyTemplate, content)
}

// PrepareEmailBody turns free text into an HTML body: Reflow, then
// ConvertNewlinesToHTML, then WrapWithTemplate. Empty text yields "".
//
// This is the entry point for composing an outgoing body from user text.
func PrepareEmailBody(text string) string {
	if text == "" {
		return ""
	}
	return WrapWithTemplate(ConvertNewlinesToHTML(Reflow(text)))
}

func senderLabel(name string, email string) string {
	if name != "" {
		return name
	}
	return email
}
