// Package threadmail is a lightweight index for the subpackages in this module.
//
// This root package is documentation-only. Import specific subpackages to use
// concrete helpers.
//
// Available subpackages:
//   - github.com/spachava753/threadmail/compose
//     Pure reply/forward composition: threading headers, subject tags,
//     quoted and forwarded bodies, line reflow, reply-all recipients.
//   - github.com/spachava753/threadmail/mailmsg
//     RFC 5322 and mbox parsing into compose.Message, and MIME rendering of
//     outgoing replies and forwards.
//   - github.com/spachava753/threadmail/ledger
//     SQLite idempotency ledger for draft and send operations.
//   - github.com/spachava753/threadmail/gmail
//     Gmail replies and forwards over IMAP and SMTP.
//
// Discovery workflow for agents:
//   - Run: go doc github.com/spachava753/threadmail
//   - Then drill in with:
//     go doc github.com/spachava753/threadmail/gmail
//     go doc github.com/spachava753/threadmail/compose
//     go doc github.com/spachava753/threadmail/mailmsg
//     go doc github.com/spachava753/threadmail/ledger
package threadmail
