package compose

import (
	"slices"
	"strings"
)

// FilterReplyAll computes the To and Cc lists of a reply-all.
//
// To starts with from, followed by every address of the original To list;
// Cc holds the original Cc addresses that are not already in To. Addresses
// whose email equals user (exact, case-insensitive) are dropped from both.
// Both lists keep first-seen order and are returned joined with ", ".
//
// Duplicates are detected on the trimmed address text, so "Ann <a@x>" and
// "a@x" are kept as two entries.
func FilterReplyAll(from, to, cc, user string) (string, string) {
	user = strings.ToLower(user)
	isUser := func(addr string) bool {
		return ExtractEmail(addr) == user
	}

	toList := make([]string, 0, 8)
	if from != "" && !isUser(from) {
		toList = append(toList, from)
	}
	for _, addr := range splitAddressList(to) {
		if isUser(addr) || slices.Contains(toList, addr) {
			continue
		}
		toList = append(toList, addr)
	}

	ccList := make([]string, 0, 8)
	for _, addr := range splitAddressList(cc) {
		if isUser(addr) || slices.Contains(toList, addr) || slices.Contains(ccList, addr) {
			continue
		}
		ccList = append(ccList, addr)
	}

	return strings.Join(toList, ", "), strings.Join(ccList, ", ")
}

func splitAddressList(list string) []string {
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
