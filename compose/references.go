package compose

// BuildReferences appends inReplyTo to an existing References chain.
//
// The chain lists ancestor Message-IDs oldest first, so the parent's id is
// always appended at the end. Ids are neither validated nor deduplicated.
//
//	BuildReferences("", "<a@x>")       // "<a@x>"
//	BuildReferences("<a@x>", "<b@x>")  // "<a@x> <b@x>"
//	BuildReferences("<a@x>", "")       // "<a@x>"
func BuildReferences(existing, inReplyTo string) string {
	if inReplyTo == "" {
		return existing
	}
	if existing == "" {
		return inReplyTo
	}
	return existing + " " + inReplyTo
}
