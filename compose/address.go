package compose

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// Address is a display name and email pair.
//
// Email is the identity of an address; Name is informational only.
type Address struct {
	Name  string
	Email string
}

// ParseAddress parses "Name <addr>", "\"Last, First\" <addr>", "<addr>" or a
// bare "addr".
//
// Encoded words in the display name are decoded. Malformed headers such as
// "a@x <a@x>" or a trailing comma are recovered from their last angle-addr,
// then from the first entry of the address list. Input that still does not
// parse yields an empty Name and the trimmed, lower-cased input as Email.
func ParseAddress(raw string) Address {
	if addr, err := mail.ParseAddress(raw); err == nil && strings.TrimSpace(addr.Address) != "" {
		return fromMailAddress(addr)
	}
	if addr, ok := parseAngleAddr(raw); ok {
		return addr
	}
	if list, err := mail.ParseAddressList(strings.Trim(strings.TrimSpace(raw), ",")); err == nil && len(list) > 0 && list[0].Address != "" {
		return fromMailAddress(list[0])
	}
	return Address{Email: strings.ToLower(strings.TrimSpace(raw))}
}

func fromMailAddress(addr *mail.Address) Address {
	return Address{
		Name:  strings.TrimSpace(addr.Name),
		Email: strings.TrimSpace(addr.Address),
	}
}

// parseAngleAddr takes the email from the last <...> in raw and the text
// before it as the display name.
func parseAngleAddr(raw string) (Address, bool) {
	open := strings.LastIndex(raw, "<")
	if open < 0 {
		return Address{}, false
	}
	end := strings.Index(raw[open:], ">")
	if end < 0 {
		return Address{}, false
	}
	addr, err := mail.ParseAddress(raw[open : open+end+1])
	if err != nil || addr.Address == "" {
		return Address{}, false
	}
	name := strings.TrimSpace(raw[:open])
	name = strings.TrimSpace(strings.Trim(name, `"`))
	return Address{Name: name, Email: strings.TrimSpace(addr.Address)}, true
}

// ExtractEmail returns the lower-cased email of raw.
//
// ExtractEmail is idempotent: ExtractEmail(ExtractEmail(x)) == ExtractEmail(x).
func ExtractEmail(raw string) string {
	return strings.ToLower(ParseAddress(raw).Email)
}

// SameEmail reports whether a and b name the same mailbox.
//
// Only the extracted emails are compared, case-insensitively and exactly.
// "mytest@example.com" is not the same mailbox as "test@example.com".
func SameEmail(a, b string) bool {
	return ExtractEmail(a) == ExtractEmail(b)
}
