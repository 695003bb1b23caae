package mailmsg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Outgoing is a composed reply or forward ready to be written to the wire.
//
// InReplyTo and References hold Message-IDs in angle brackets, References as
// a space separated chain. Bcc is written as a header only when WriteBcc is
// set, which drafts need and sent mail must not have.
type Outgoing struct {
	From       string
	To         []string
	Cc         []string
	Bcc        []string
	Subject    string
	MessageID  string
	InReplyTo  string
	References string
	Date       time.Time
	TextBody   string
	HTMLBody   string
	WriteBcc   bool
}

// Render writes out as an RFC 5322 message.
//
// A message with both bodies is written as multipart/alternative, text part
// first. Bodies are quoted-printable encoded UTF-8.
func Render(w io.Writer, out Outgoing) error {
	header, err := outgoingHeader(out)
	if err != nil {
		return err
	}

	textBody := strings.TrimSpace(out.TextBody)
	htmlBody := strings.TrimSpace(out.HTMLBody)

	switch {
	case textBody != "" && htmlBody != "":
		iw, err := mail.CreateInlineWriter(w, header)
		if err != nil {
			return fmt.Errorf("mailmsg: creating alternative writer failed: %w", err)
		}
		if err := writeInlinePart(iw, "text/plain", textBody); err != nil {
			return err
		}
		if err := writeInlinePart(iw, "text/html", htmlBody); err != nil {
			return err
		}
		if err := iw.Close(); err != nil {
			return fmt.Errorf("mailmsg: finalizing message failed: %w", err)
		}
		return nil
	case htmlBody != "":
		return writeSinglePart(w, header, "text/html", htmlBody)
	case textBody != "":
		return writeSinglePart(w, header, "text/plain", textBody)
	default:
		return errors.New("mailmsg: either text body or html body is required")
	}
}

// RenderBytes is Render into a byte slice.
func RenderBytes(out Outgoing) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewMessageID returns a fresh Message-ID in angle brackets on the domain of
// address, or localhost when address has none.
func NewMessageID(address string) string {
	domain := "localhost"
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		domain = strings.Trim(address[at+1:], "<> ")
	}
	return fmt.Sprintf("<%d.%s>", time.Now().UnixNano(), domain)
}

// NormalizeMessageID wraps value in angle brackets unless it already is.
func NormalizeMessageID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">") {
		return value
	}
	return "<" + strings.Trim(value, "<>") + ">"
}

func outgoingHeader(out Outgoing) (mail.Header, error) {
	var h mail.Header

	date := out.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)

	from, err := parseAddressList("From", []string{out.From})
	if err != nil {
		return h, err
	}
	if len(from) == 0 {
		return h, errors.New("mailmsg: from address is required")
	}
	h.SetAddressList("From", from)

	lists := []struct {
		name  string
		raw   []string
		write bool
	}{
		{"To", out.To, true},
		{"Cc", out.Cc, true},
		{"Bcc", out.Bcc, out.WriteBcc},
	}
	for _, list := range lists {
		addrs, err := parseAddressList(list.name, list.raw)
		if err != nil {
			return h, err
		}
		if len(addrs) > 0 && list.write {
			h.SetAddressList(list.name, addrs)
		}
	}

	subject := sanitizeHeader(out.Subject)
	if subject == "" {
		subject = "(no subject)"
	}
	h.SetSubject(subject)

	if id := msgIDs(out.MessageID); len(id) > 0 {
		h.SetMessageID(id[0])
	}
	if ids := msgIDs(out.InReplyTo); len(ids) > 0 {
		h.SetMsgIDList("In-Reply-To", ids)
	}
	if ids := msgIDs(out.References); len(ids) > 0 {
		h.SetMsgIDList("References", ids)
	}
	h.Set("MIME-Version", "1.0")

	return h, nil
}

func parseAddressList(name string, raw []string) ([]*mail.Address, error) {
	out := make([]*mail.Address, 0, len(raw))
	for _, entry := range raw {
		entry = sanitizeHeader(entry)
		if entry == "" {
			continue
		}
		addrs, err := mail.ParseAddressList(entry)
		if err != nil {
			return nil, fmt.Errorf("mailmsg: parsing %s address %q failed: %w", name, entry, err)
		}
		out = append(out, addrs...)
	}
	return out, nil
}

// msgIDs splits a space separated Message-ID chain into bare ids.
func msgIDs(chain string) []string {
	fields := strings.Fields(sanitizeHeader(chain))
	ids := make([]string, 0, len(fields))
	for _, field := range fields {
		id := strings.Trim(field, "<>")
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func writeInlinePart(iw *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	pw, err := iw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("mailmsg: creating %s part failed: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return fmt.Errorf("mailmsg: writing %s part failed: %w", contentType, err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("mailmsg: finalizing %s part failed: %w", contentType, err)
	}
	return nil
}

func writeSinglePart(w io.Writer, header mail.Header, contentType, body string) error {
	header.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	header.Set("Content-Transfer-Encoding", "quoted-printable")
	pw, err := mail.CreateSingleInlineWriter(w, header)
	if err != nil {
		return fmt.Errorf("mailmsg: creating %s writer failed: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return fmt.Errorf("mailmsg: writing %s body failed: %w", contentType, err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("mailmsg: finalizing message failed: %w", err)
	}
	return nil
}

func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}
