// Package gmail composes threaded replies and forwards for Gmail messages.
//
// The package exposes a small set of operations:
//
//   - Reply: answer a message, threaded with In-Reply-To and References.
//   - Forward: forward a message with a forwarded header block.
//   - Fetch: load a message, parsed for composition.
//   - BuildReply / BuildForward: the pure composition half of Reply and
//     Forward, usable without a network connection.
//
// A Reply or Forward runs as: fetch original -> compose -> render -> deliver.
// Composition itself lives in package compose; this package supplies the
// Gmail transport around it.
//
// # Authentication
//
// Runtime credentials are read from environment variables:
//
//   - GMAIL_ADDRESS
//   - GMAIL_APP_PASSWORD
//
// Spaces in the app password are ignored, so the grouped form Google displays
// can be pasted as is. The package uses Gmail IMAP to fetch originals and
// store drafts, and Gmail SMTP to send.
//
// # Refs
//
// A ref is the Gmail message id (X-GM-MSGID), a decimal number. Fetch returns
// it as Message.ID together with the Gmail thread id as Message.ThreadID.
// A ref that matches no message yields an error wrapping ErrNotFound.
//
// # Delivery
//
// Delivery selects what happens to a composed message:
//
//   - DeliverDraft (default): APPEND to [Gmail]/Drafts with the \Draft flag.
//   - DeliverSend: transmit over SMTP to every To, Cc and Bcc address.
//   - DeliverMbox: append to the local mbox file at MboxPath.
//
// Drafts and mbox copies keep the Bcc header; sent mail does not.
//
// # Safety Model
//
// DryRun composes, renders and validates the message and returns the
// generated Message-ID without delivering anything.
//
// IdempotencyKey makes a delivery replay safe. When it is set, the outcome is
// recorded in the SQLite ledger at GMAIL_LEDGER_PATH; calling again with the
// same key and input returns the stored Output with Replayed set and does not
// deliver twice. The same key with a different input fails with
// ledger.ErrConflict. The key is reserved before delivery, so a concurrent
// call with the same key fails with ledger.ErrInFlight instead of delivering a
// second copy; a failed delivery releases the key for a retry. A key without
// GMAIL_LEDGER_PATH is an error. Dry runs ignore the key.
//
// # Recipients
//
// A plain reply goes to the original sender, or to the original To list when
// the original was sent by the authenticated account. ReplyAll uses
// compose.FilterReplyAll, which removes the authenticated address by exact
// email match. Extra To, Cc and Bcc entries may hold comma separated lists;
// duplicates by email are dropped.
//
// # Logging
//
// The package logs through log/slog. Records are discarded until SetLogger
// installs a logger.
//
// # Composition Examples
//
// The snippets below are built only from this package, compose, mailmsg and
// ledger. They are compile-validated in this repository.
//
// 1) Reply to everyone after a dry run:
//
//	func replyAllWithQuote(ctx context.Context, ref string, body string) (gmail.Output, error) {
//		dry, err := gmail.Reply(ctx, gmail.ReplyInput{
//			Ref:      ref,
//			Body:     body,
//			ReplyAll: true,
//			Quote:    true,
//			DryRun:   true,
//		})
//		if err != nil {
//			return gmail.Output{}, err
//		}
//		if len(dry.To) == 0 {
//			return gmail.Output{}, errors.New("reply has no recipients")
//		}
//
//		return gmail.Reply(ctx, gmail.ReplyInput{
//			Ref:      ref,
//			Body:     body,
//			ReplyAll: true,
//			Quote:    true,
//			Delivery: gmail.DeliverDraft,
//		})
//	}
//
// 2) Forward to a team with a generated note:
//
//	func forwardToTeam(ctx context.Context, ref string, team []string, note string) (gmail.Output, error) {
//		original, err := gmail.Fetch(ctx, ref)
//		if err != nil {
//			return gmail.Output{}, err
//		}
//
//		info := compose.ExtractThreadingInfo(original)
//		comment := note
//		if comment == "" {
//			comment = fmt.Sprintf("Forwarding %q from %s.", info.Subject, info.FromEmail)
//		}
//
//		return gmail.Forward(ctx, gmail.ForwardInput{
//			Ref:      ref,
//			To:       team,
//			Comment:  comment,
//			Delivery: gmail.DeliverSend,
//		})
//	}
//
// 3) Send at most once per request:
//
//	func idempotentSend(ctx context.Context, ref string, body string, requestID string) (gmail.Output, error) {
//		out, err := gmail.Reply(ctx, gmail.ReplyInput{
//			Ref:            ref,
//			Body:           body,
//			Delivery:       gmail.DeliverSend,
//			IdempotencyKey: "reply:" + requestID,
//		})
//		if errors.Is(err, ledger.ErrConflict) {
//			return gmail.Output{}, fmt.Errorf("request %s was already used for a different reply: %w", requestID, err)
//		}
//		if errors.Is(err, gmail.ErrNotFound) {
//			return gmail.Output{}, fmt.Errorf("message %s no longer exists: %w", ref, err)
//		}
//		return out, err
//	}
//
// 4) Draft replies offline from an mbox export:
//
//	func offlineRepliesFromMbox(inboxPath string, outboxPath string, self string, body string) (int, error) {
//		messages, err := mailmsg.ReadMboxFile(inboxPath)
//		if err != nil {
//			return 0, err
//		}
//
//		written := 0
//		for _, original := range messages {
//			info := compose.ExtractThreadingInfo(original)
//			if compose.SameEmail(info.FromEmail, self) {
//				continue
//			}
//
//			draft, err := gmail.BuildReply(original, self, gmail.ReplyInput{Body: body, Quote: true})
//			if err != nil {
//				return written, err
//			}
//
//			raw, err := mailmsg.RenderBytes(mailmsg.Outgoing{
//				From:       self,
//				To:         draft.To,
//				Cc:         draft.Cc,
//				Subject:    draft.Subject,
//				MessageID:  mailmsg.NewMessageID(self),
//				InReplyTo:  draft.InReplyTo,
//				References: draft.References,
//				Date:       time.Now(),
//				TextBody:   draft.TextBody,
//				HTMLBody:   draft.HTMLBody,
//			})
//			if err != nil {
//				return written, err
//			}
//			if err := mailmsg.AppendMboxFile(outboxPath, self, time.Now(), raw); err != nil {
//				return written, err
//			}
//			written++
//		}
//		return written, nil
//	}
package gmail
