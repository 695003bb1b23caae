package compose

import "strings"

// Header is one name/value pair of a message header list.
//
// Names are compared case-insensitively.
type Header struct {
	Name  string
	Value string
}

// Message is the read-only input to every extractor.
//
// Headers keeps textual order. A nil Headers slice is a message whose header
// list is unavailable; extractors treat it as a message with no headers.
type Message struct {
	ID       string
	ThreadID string
	Headers  []Header
	TextBody string
	HTMLBody string
}

// Headers is the validated view of a header list.
//
// Each field holds the value of the first header with that name, or "" when
// the header is absent.
type Headers struct {
	Subject    string
	From       string
	To         string
	Cc         string
	MessageID  string
	References string
	InReplyTo  string
	Date       string
}

// ThreadingInfo is everything needed to thread a reply to a message.
type ThreadingInfo struct {
	ThreadID   string
	MessageID  string
	Subject    string
	FromEmail  string
	FromName   string
	References string
	Date       string
}

// RecipientInfo holds the raw To and Cc header values of a message.
type RecipientInfo struct {
	To string
	Cc string
}

// ParseHeaders scans headers once and returns the named fields.
//
// Header names match case-insensitively and the first occurrence of a name
// wins. Unknown headers are ignored.
func ParseHeaders(headers []Header) Headers {
	var out Headers
	seen := make(map[string]struct{}, 8)
	for _, header := range headers {
		name := strings.ToLower(strings.TrimSpace(header.Name))
		if _, ok := seen[name]; ok {
			continue
		}

		var field *string
		switch name {
		case "subject":
			field = &out.Subject
		case "from":
			field = &out.From
		case "to":
			field = &out.To
		case "cc":
			field = &out.Cc
		case "message-id":
			field = &out.MessageID
		case "references":
			field = &out.References
		case "in-reply-to":
			field = &out.InReplyTo
		case "date":
			field = &out.Date
		default:
			continue
		}
		seen[name] = struct{}{}
		*field = header.Value
	}
	return out
}

// ExtractThreadingInfo returns the threading fields of msg.
//
// The From header is split into display name and address with ParseAddress.
// ThreadID is read from msg even when no headers are present.
func ExtractThreadingInfo(msg Message) ThreadingInfo {
	headers := ParseHeaders(msg.Headers)
	info := ThreadingInfo{
		ThreadID:   msg.ThreadID,
		MessageID:  headers.MessageID,
		Subject:    headers.Subject,
		References: headers.References,
		Date:       headers.Date,
	}
	if headers.From != "" {
		from := ParseAddress(headers.From)
		info.FromName = from.Name
		info.FromEmail = from.Email
	}
	return info
}

// ExtractRecipients returns the raw To and Cc header values of msg.
func ExtractRecipients(msg Message) RecipientInfo {
	headers := ParseHeaders(msg.Headers)
	return RecipientInfo{To: headers.To, Cc: headers.Cc}
}
