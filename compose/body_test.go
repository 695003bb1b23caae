package compose

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestFormatQuotedBodyHTML(t *testing.T) {
	got := FormatQuotedBody(QuoteInput{
		Body:      "Hello World\nSecond line",
		FromName:  "Test Sender",
		FromEmail: "sender@test.example.com",
		Date:      "Mon, 20 Jan 2026 10:00:00 +0000",
		HTML:      true,
	})

	be.True(t, strings.HasPrefix(got, "<br><br>\n"))
	be.True(t, strings.Contains(got, "On Mon, 20 Jan 2026 10:00:00 +0000, Test Sender &lt;sender@test.example.com&gt; wrote:"))
	be.True(t, strings.Contains(got, "<div>Hello World<br>Second line</div>"))
	be.True(t, strings.Contains(got, "border-left"))
}

func TestFormatQuotedBodyEscapesHTML(t *testing.T) {
	got := FormatQuotedBody(QuoteInput{
		Body:      "Test <script>alert('xss')</script> & more",
		FromName:  "Sender <evil>",
		FromEmail: "sender@test.example.com",
		Date:      "Mon, 20 Jan 2026",
		HTML:      true,
	})

	be.True(t, strings.Contains(got, "&lt;script&gt;"))
	be.True(t, strings.Contains(got, "&amp; more"))
	be.True(t, strings.Contains(got, "Sender &lt;evil&gt;"))
	be.True(t, !strings.Contains(got, "<script>"))
	be.True(t, !strings.Contains(got, "<evil>"))
}

func TestFormatQuotedBodyPlain(t *testing.T) {
	got := FormatQuotedBody(QuoteInput{
		Body:      "Hello\nWorld",
		FromName:  "Test Sender",
		FromEmail: "sender@test.example.com",
		Date:      "Mon, 20 Jan 2026",
	})

	be.Equal(t, got, "\n\nOn Mon, 20 Jan 2026, Test Sender <sender@test.example.com> wrote:\n> Hello\n> World")
}

func TestFormatQuotedBodyWithoutDisplayName(t *testing.T) {
	html := FormatQuotedBody(QuoteInput{
		Body:      "Hello",
		FromEmail: "sender@test.example.com",
		Date:      "Mon, 20 Jan 2026",
		HTML:      true,
	})
	be.True(t, strings.Contains(html, "On Mon, 20 Jan 2026, sender@test.example.com &lt;sender@test.example.com&gt; wrote:"))
	be.True(t, !strings.Contains(html, ",  &lt;"))

	plain := FormatQuotedBody(QuoteInput{
		Body:      "Hello",
		FromEmail: "sender@test.example.com",
		Date:      "Mon, 20 Jan 2026",
	})
	be.True(t, strings.Contains(plain, "On Mon, 20 Jan 2026, sender@test.example.com <sender@test.example.com> wrote:"))
	be.True(t, !strings.Contains(plain, ",  <"))
}

func TestFormatForwardBodyHTML(t *testing.T) {
	got := FormatForwardBody(ForwardInput{
		Body:      "Original content",
		FromName:  "Original Sender",
		FromEmail: "original@test.example.com",
		To:        "recipient@test.example.com",
		Date:      "Mon, 20 Jan 2026",
		Subject:   "Original Subject",
		Comment:   "FYI - see below",
		HTML:      true,
	})

	want := "FYI - see below<br><br>\n" +
		"---------- Forwarded message ----------<br>\n" +
		"<b>From:</b> Original Sender &lt;original@test.example.com&gt;<br>\n" +
		"<b>Date:</b> Mon, 20 Jan 2026<br>\n" +
		"<b>Subject:</b> Original Subject<br>\n" +
		"<b>To:</b> recipient@test.example.com<br>\n" +
		"<br>\n" +
		"Original content"
	be.Equal(t, got, want)
}

func TestFormatForwardBodyHTMLComment(t *testing.T) {
	got := FormatForwardBody(ForwardInput{
		Body:      "a < b",
		FromEmail: "sender@test.example.com",
		Comment:   "Please take a closer\nlook at <this>.\nThanks",
		HTML:      true,
	})

	be.True(t, strings.HasPrefix(got, "Please take a closer look at &lt;this&gt;.<br>Thanks<br><br>\n"))
	be.True(t, strings.Contains(got, "<b>From:</b> sender@test.example.com &lt;sender@test.example.com&gt;<br>"))
	be.True(t, strings.HasSuffix(got, "a &lt; b"))
}

func TestFormatForwardBodyHTMLWithoutComment(t *testing.T) {
	got := FormatForwardBody(ForwardInput{
		Body:      "Content",
		FromName:  "Sender",
		FromEmail: "sender@test.example.com",
		HTML:      true,
	})

	be.True(t, strings.HasPrefix(got, "<br><br>\n---------- Forwarded message ----------"))
	be.True(t, strings.HasSuffix(got, "Content"))
}

func TestFormatForwardBodyPlain(t *testing.T) {
	in := ForwardInput{
		Body:      "Content",
		FromName:  "Sender",
		FromEmail: "sender@test.example.com",
		To:        "recipient@test.example.com",
		Date:      "Mon, 20 Jan 2026",
		Subject:   "Subject",
	}
	header := "\n---------- Forwarded message ----------\n" +
		"From: Sender <sender@test.example.com>\n" +
		"Date: Mon, 20 Jan 2026\n" +
		"Subject: Subject\n" +
		"To: recipient@test.example.com\n\n"

	be.Equal(t, FormatForwardBody(in), header+"Content")

	in.Comment = "FYI <b>"
	be.Equal(t, FormatForwardBody(in), "FYI <b>\n"+header+"Content")
}

func TestConvertNewlinesToHTML(t *testing.T) {
	be.Equal(t, ConvertNewlinesToHTML("Hello\n\nWorld"), "Hello<br><br>World")
	be.Equal(t, ConvertNewlinesToHTML("Line 1\nLine 2"), "Line 1<br>Line 2")
	be.Equal(t, ConvertNewlinesToHTML("Para 1\n\nLine 1\nLine 2"), "Para 1<br><br>Line 1<br>Line 2")
	be.Equal(t, ConvertNewlinesToHTML(`Line 1\nLine 2`), "Line 1<br>Line 2")
	be.Equal(t, ConvertNewlinesToHTML(`Para 1\n\nPara 2`), "Para 1<br><br>Para 2")
	be.Equal(t, ConvertNewlinesToHTML("mixed\\n and\nreal"), "mixed<br> and<br>real")
	be.Equal(t, ConvertNewlinesToHTML("No breaks here"), "No breaks here")
	be.Equal(t, ConvertNewlinesToHTML(""), "")
}

func TestWrapWithTemplate(t *testing.T) {
	wrapped := WrapWithTemplate("Hello")
	be.Equal(t, wrapped, fmt.Sprintf(bodyTemplate, "Hello"))
	be.Equal(t, WrapWithTemplate(wrapped), wrapped)

	for _, content := range []string{
		"<html><body>Hi</body></html>",
		"<BODY>Hi</BODY>",
		`<div class="x" style="color: red">Hi</div>`,
		`<DIV STYLE="color: red">Hi</DIV>`,
	} {
		be.Equal(t, WrapWithTemplate(content), content)
	}

	be.Equal(t, WrapWithTemplate("<div>plain</div>"), fmt.Sprintf(bodyTemplate, "<div>plain</div>"))
}

func TestPrepareEmailBody(t *testing.T) {
	got := PrepareEmailBody("Hi team,\n\nPlease take a closer\nlook at the report.\nThanks")
	be.Equal(t, got, fmt.Sprintf(bodyTemplate, "Hi team,<br><br>Please take a closer look at the report.<br>Thanks"))
	be.Equal(t, PrepareEmailBody(got), got)

	be.Equal(t, PrepareEmailBody(`Hello\n\nWorld`), fmt.Sprintf(bodyTemplate, "Hello<br><br>World"))
	be.Equal(t, PrepareEmailBody(""), "")
}
