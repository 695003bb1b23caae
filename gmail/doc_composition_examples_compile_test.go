package gmail_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spachava753/threadmail/compose"
	"github.com/spachava753/threadmail/gmail"
	"github.com/spachava753/threadmail/ledger"
	"github.com/spachava753/threadmail/mailmsg"
)

func composeReplyAllWithQuote(ctx context.Context, ref string, body string) (gmail.Output, error) {
	dry, err := gmail.Reply(ctx, gmail.ReplyInput{
		Ref:      ref,
		Body:     body,
		ReplyAll: true,
		Quote:    true,
		DryRun:   true,
	})
	if err != nil {
		return gmail.Output{}, err
	}
	if len(dry.To) == 0 {
		return gmail.Output{}, errors.New("reply has no recipients")
	}

	return gmail.Reply(ctx, gmail.ReplyInput{
		Ref:      ref,
		Body:     body,
		ReplyAll: true,
		Quote:    true,
		Delivery: gmail.DeliverDraft,
	})
}

func composeForwardToTeam(ctx context.Context, ref string, team []string, note string) (gmail.Output, error) {
	original, err := gmail.Fetch(ctx, ref)
	if err != nil {
		return gmail.Output{}, err
	}

	info := compose.ExtractThreadingInfo(original)
	comment := note
	if comment == "" {
		comment = fmt.Sprintf("Forwarding %q from %s.", info.Subject, info.FromEmail)
	}

	return gmail.Forward(ctx, gmail.ForwardInput{
		Ref:      ref,
		To:       team,
		Comment:  comment,
		Delivery: gmail.DeliverSend,
	})
}

func composeIdempotentSend(ctx context.Context, ref string, body string, requestID string) (gmail.Output, error) {
	out, err := gmail.Reply(ctx, gmail.ReplyInput{
		Ref:            ref,
		Body:           body,
		Delivery:       gmail.DeliverSend,
		IdempotencyKey: "reply:" + requestID,
	})
	if errors.Is(err, ledger.ErrConflict) {
		return gmail.Output{}, fmt.Errorf("request %s was already used for a different reply: %w", requestID, err)
	}
	if errors.Is(err, gmail.ErrNotFound) {
		return gmail.Output{}, fmt.Errorf("message %s no longer exists: %w", ref, err)
	}
	return out, err
}

func composeOfflineRepliesFromMbox(inboxPath string, outboxPath string, self string, body string) (int, error) {
	messages, err := mailmsg.ReadMboxFile(inboxPath)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, original := range messages {
		info := compose.ExtractThreadingInfo(original)
		if compose.SameEmail(info.FromEmail, self) {
			continue
		}

		draft, err := gmail.BuildReply(original, self, gmail.ReplyInput{Body: body, Quote: true})
		if err != nil {
			return written, err
		}

		raw, err := mailmsg.RenderBytes(mailmsg.Outgoing{
			From:       self,
			To:         draft.To,
			Cc:         draft.Cc,
			Subject:    draft.Subject,
			MessageID:  mailmsg.NewMessageID(self),
			InReplyTo:  draft.InReplyTo,
			References: draft.References,
			Date:       time.Now(),
			TextBody:   draft.TextBody,
			HTMLBody:   draft.HTMLBody,
		})
		if err != nil {
			return written, err
		}
		if err := mailmsg.AppendMboxFile(outboxPath, self, time.Now(), raw); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func composeReplyFromRawFile(path string, to []string, body string) (gmail.Draft, error) {
	file, err := os.Open(path)
	if err != nil {
		return gmail.Draft{}, err
	}
	defer file.Close()

	original, err := mailmsg.Parse(file)
	if err != nil {
		return gmail.Draft{}, err
	}

	recipients := compose.ExtractRecipients(original)
	cc := make([]string, 0, 4)
	for _, addr := range strings.Split(recipients.Cc, ",") {
		if strings.TrimSpace(addr) != "" {
			cc = append(cc, addr)
		}
	}

	return gmail.BuildReply(original, os.Getenv("GMAIL_ADDRESS"), gmail.ReplyInput{
		Body: body,
		To:   to,
		Cc:   cc,
	})
}
