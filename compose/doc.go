// Package compose builds reply and forward content from a prior message.
//
// Every function in this package is a pure, total string transform: absent
// headers become empty strings, malformed addresses fall back to a lower-cased
// copy of the input, and nothing performs I/O. The package is safe for
// concurrent use.
//
// The operations fall into four groups:
//
//   - Header extraction: ParseHeaders, ExtractThreadingInfo, ExtractRecipients.
//   - Threading: BuildReferences, ReplySubject, ForwardSubject.
//   - Bodies: Reflow, FormatQuotedBody, FormatForwardBody,
//     ConvertNewlinesToHTML, WrapWithTemplate, PrepareEmailBody.
//   - Recipients: ParseAddress, ExtractEmail, SameEmail, FilterReplyAll.
//
// # Reply flow
//
//	info := compose.ExtractThreadingInfo(original)
//	rcpt := compose.ExtractRecipients(original)
//
//	subject := compose.ReplySubject(info.Subject)
//	references := compose.BuildReferences(info.References, info.MessageID)
//	to, cc := compose.FilterReplyAll(info.FromEmail, rcpt.To, rcpt.Cc, "me@example.com")
//	body := compose.PrepareEmailBody(userText) + compose.FormatQuotedBody(compose.QuoteInput{
//		Body:      original.TextBody,
//		FromName:  info.FromName,
//		FromEmail: info.FromEmail,
//		Date:      info.Date,
//		HTML:      true,
//	})
//
// # Forward flow
//
//	body := compose.FormatForwardBody(compose.ForwardInput{
//		Body:      original.TextBody,
//		FromName:  info.FromName,
//		FromEmail: info.FromEmail,
//		To:        rcpt.To,
//		Date:      info.Date,
//		Subject:   info.Subject,
//		Comment:   "FYI, see below",
//		HTML:      true,
//	})
//
// # HTML safety
//
// HTML output always escapes &, < and > in message content, comments and
// header values before any markup is added. Plain-text output is never
// escaped.
package compose
