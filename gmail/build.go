package gmail

import (
	"errors"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/spachava753/threadmail/compose"
)

// Draft is a composed reply or forward before delivery.
//
// InReplyTo and References are empty for forwards, which start a new thread.
type Draft struct {
	To         []string
	Cc         []string
	Bcc        []string
	Subject    string
	InReplyTo  string
	References string
	ThreadID   string
	TextBody   string
	HTMLBody   string
}

// BuildReply composes a reply to original on behalf of self.
//
// BuildReply performs no I/O; Reply calls it after fetching original.
//
// Recipients:
//   - ReplyAll: the sender plus the original To and Cc lists, with self
//     removed (compose.FilterReplyAll), then in.To and in.Cc appended.
//   - otherwise: in.To when given, else the original sender. Replying to a
//     message self sent goes to that message's To list instead.
//
// The HTML body is the reflowed, template-wrapped in.Body followed by the
// quoted original when in.Quote is set. The text body carries the same
// content in plain form.
func BuildReply(original compose.Message, self string, in ReplyInput) (Draft, error) {
	if strings.TrimSpace(in.Body) == "" {
		return Draft{}, errors.New("gmail: reply body is required")
	}

	info := compose.ExtractThreadingInfo(original)
	headers := compose.ParseHeaders(original.Headers)

	var to, cc []string
	switch {
	case in.ReplyAll:
		filteredTo, filteredCc := compose.FilterReplyAll(headers.From, headers.To, headers.Cc, compose.ExtractEmail(self))
		to = []string{filteredTo}
		cc = []string{filteredCc}
	case len(in.To) == 0 && headers.From != "" && compose.SameEmail(headers.From, self):
		to = []string{headers.To}
	case len(in.To) == 0 && headers.From != "":
		to = []string{headers.From}
	}
	to = uniqueRecipients(to, in.To)
	cc = uniqueRecipients(cc, in.Cc)
	bcc := uniqueRecipients(in.Bcc)

	draft := Draft{
		To:         to,
		Cc:         cc,
		Bcc:        bcc,
		Subject:    compose.ReplySubject(info.Subject),
		InReplyTo:  info.MessageID,
		References: compose.BuildReferences(info.References, info.MessageID),
		ThreadID:   info.ThreadID,
		HTMLBody:   compose.PrepareEmailBody(in.Body),
		TextBody:   compose.Reflow(in.Body),
	}

	if in.Quote && strings.TrimSpace(original.TextBody) != "" {
		quote := compose.QuoteInput{
			Body:      original.TextBody,
			FromName:  info.FromName,
			FromEmail: info.FromEmail,
			Date:      info.Date,
		}
		draft.TextBody += compose.FormatQuotedBody(quote)
		quote.HTML = true
		draft.HTMLBody += compose.FormatQuotedBody(quote)
	}

	if err := validateDraft(draft); err != nil {
		return Draft{}, err
	}
	return draft, nil
}

// BuildForward composes a forward of original.
//
// BuildForward performs no I/O; Forward calls it after fetching original.
// Recipients come from in only. The forwarded header block and body follow
// the optional comment.
func BuildForward(original compose.Message, in ForwardInput) (Draft, error) {
	info := compose.ExtractThreadingInfo(original)
	recipients := compose.ExtractRecipients(original)

	forward := compose.ForwardInput{
		Body:      original.TextBody,
		FromName:  info.FromName,
		FromEmail: info.FromEmail,
		To:        recipients.To,
		Date:      info.Date,
		Subject:   info.Subject,
		Comment:   strings.TrimSpace(in.Comment),
	}

	draft := Draft{
		To:       uniqueRecipients(in.To),
		Cc:       uniqueRecipients(in.Cc),
		Bcc:      uniqueRecipients(in.Bcc),
		Subject:  compose.ForwardSubject(info.Subject),
		TextBody: compose.FormatForwardBody(forward),
	}
	forward.HTML = true
	draft.HTMLBody = compose.WrapWithTemplate(compose.FormatForwardBody(forward))

	if err := validateDraft(draft); err != nil {
		return Draft{}, err
	}
	return draft, nil
}

func validateDraft(draft Draft) error {
	if len(uniqueRecipients(draft.To, draft.Cc, draft.Bcc)) == 0 {
		return errors.New("gmail: at least one recipient is required")
	}
	if strings.TrimSpace(draft.TextBody) == "" && strings.TrimSpace(draft.HTMLBody) == "" {
		return errors.New("gmail: either text body or html body is required")
	}
	return nil
}

// uniqueRecipients flattens address lists, keeping the first entry for each
// email.
func uniqueRecipients(groups ...[]string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 8)
	for _, group := range groups {
		for _, entry := range group {
			for _, recipient := range expandRecipients(entry) {
				key := compose.ExtractEmail(recipient)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, recipient)
			}
		}
	}
	return out
}

// expandRecipients splits one address list entry such as
// "a@example.com, Bob <b@example.com>" into single addresses.
func expandRecipients(entry string) []string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(entry)
	if err != nil {
		return splitList(entry)
	}
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr.Name == "" {
			out = append(out, addr.Address)
			continue
		}
		out = append(out, addr.String())
	}
	return out
}

func splitList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
