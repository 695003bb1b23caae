// Package mailmsg converts between raw RFC 5322 messages and compose.Message.
//
// Parse and ReadMbox turn wire bytes into the header list and bodies the
// compose package works on. Render writes an outgoing reply or forward back to
// the wire with threading headers and text/html alternatives; AppendMbox
// stores a rendered message in an mbox file.
package mailmsg

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/spachava753/threadmail/compose"
)

// addressHeaders keep their raw value so display names with encoded words
// are decoded once, by compose.ParseAddress.
var addressHeaders = map[string]struct{}{
	"from":     {},
	"to":       {},
	"cc":       {},
	"bcc":      {},
	"reply-to": {},
	"sender":   {},
}

const headerGmailThreadID = "X-GM-THRID"

// Parse reads one RFC 5322 message.
//
// Headers are returned in textual order with folding removed. Unstructured
// values such as Subject are decoded from RFC 2047 encoded words; address
// headers are returned as written. The first text/plain and the first
// text/html part become TextBody and HTMLBody, decoded to UTF-8 with line
// endings normalised to "\n".
//
// ID is the Message-ID without angle brackets. ThreadID is taken from an
// X-GM-THRID header when the message carries one, as Gmail exports do.
func Parse(r io.Reader) (compose.Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return compose.Message{}, fmt.Errorf("mailmsg: reading message header failed: %w", err)
	}
	defer mr.Close()

	msg := compose.Message{
		Headers:  headerList(mr.Header.Header),
		ThreadID: strings.TrimSpace(mr.Header.Get(headerGmailThreadID)),
	}
	if id, err := mr.Header.MessageID(); err == nil {
		msg.ID = id
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
			return compose.Message{}, fmt.Errorf("mailmsg: reading message part failed: %w", err)
		}
		if part == nil {
			break
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := inline.ContentType()
		if contentType == "" {
			contentType = "text/plain"
		}
		if contentType != "text/plain" && contentType != "text/html" {
			continue
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return compose.Message{}, fmt.Errorf("mailmsg: reading %s body failed: %w", contentType, err)
		}
		switch {
		case contentType == "text/plain" && msg.TextBody == "":
			msg.TextBody = normalizeBody(body)
		case contentType == "text/html" && msg.HTMLBody == "":
			msg.HTMLBody = normalizeBody(body)
		}
	}

	return msg, nil
}

// ParseBytes is Parse over an in-memory message.
func ParseBytes(raw []byte) (compose.Message, error) {
	return Parse(bytes.NewReader(raw))
}

func headerList(h message.Header) []compose.Header {
	headers := make([]compose.Header, 0, h.Len())
	fields := h.Fields()
	for fields.Next() {
		key := fields.Key()
		value := fields.Value()
		if _, ok := addressHeaders[strings.ToLower(key)]; !ok {
			if text, err := fields.Text(); err == nil {
				value = text
			}
		}
		headers = append(headers, compose.Header{Name: key, Value: unfold(value)})
	}
	return headers
}

func unfold(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "")
	value = strings.ReplaceAll(value, "\n", "")
	return strings.TrimSpace(value)
}

func normalizeBody(body []byte) string {
	text := strings.ReplaceAll(string(body), "\r\n", "\n")
	return strings.TrimSpace(text)
}
