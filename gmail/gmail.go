package gmail

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/responses"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/spachava753/threadmail/compose"
	"github.com/spachava753/threadmail/ledger"
	"github.com/spachava753/threadmail/mailmsg"
)

const (
	gmailIMAPAddress = "imap.gmail.com:993"
	gmailSMTPHost    = "smtp.gmail.com"
	gmailSMTPAddress = "smtp.gmail.com:465"
	gmailAllMail     = "[Gmail]/All Mail"
	gmailDrafts      = "[Gmail]/Drafts"

	envGmailAddress     = "GMAIL_ADDRESS"
	envGmailAppPassword = "GMAIL_APP_PASSWORD"
	envGmailLedgerPath  = "GMAIL_LEDGER_PATH"
)

const (
	fetchGmailThreadID  imap.FetchItem = "X-GM-THRID"
	fetchGmailMessageID imap.FetchItem = "X-GM-MSGID"
)

const (
	operationReply   = "reply"
	operationForward = "forward"
)

// ErrNotFound reports a Ref that matches no message.
var ErrNotFound = errors.New("gmail: message not found")

// Delivery selects what happens to a composed message.
type Delivery string

const (
	// DeliverDraft stores the message in [Gmail]/Drafts. It is the default.
	DeliverDraft Delivery = "draft"
	// DeliverSend transmits the message over SMTP.
	DeliverSend Delivery = "send"
	// DeliverMbox appends the message to the local mbox file at MboxPath.
	DeliverMbox Delivery = "mbox"
)

// ReplyInput is the reply primitive input.
//
// Ref is the Gmail message id (X-GM-MSGID) of the message being answered.
//
// Example:
//
//	out, err := gmail.Reply(ctx, gmail.ReplyInput{
//		Ref:      "1790000000000000001",
//		Body:     "Thanks, see you Monday.",
//		ReplyAll: true,
//		Quote:    true,
//	})
type ReplyInput struct {
	Ref      string
	Body     string
	ReplyAll bool
	Quote    bool

	To  []string
	Cc  []string
	Bcc []string

	Delivery Delivery
	MboxPath string

	DryRun         bool
	IdempotencyKey string
}

// ForwardInput is the forward primitive input.
//
// Example:
//
//	out, err := gmail.Forward(ctx, gmail.ForwardInput{
//		Ref:     "1790000000000000001",
//		To:      []string{"team@example.com"},
//		Comment: "FYI",
//	})
type ForwardInput struct {
	Ref     string
	Comment string

	To  []string
	Cc  []string
	Bcc []string

	Delivery Delivery
	MboxPath string

	DryRun         bool
	IdempotencyKey string
}

// Output describes a composed and delivered message.
//
// Replayed is true when the result was returned from the idempotency ledger
// without delivering again.
type Output struct {
	MessageID string
	ThreadID  string
	Subject   string
	To        []string
	Cc        []string
	Delivery  Delivery
	DryRun    bool
	Replayed  bool
}

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.DiscardHandler))
}

// SetLogger routes the package's log records to l. A nil l discards them.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)
}

func log() *slog.Logger {
	return logger.Load()
}

// fetchOriginal is swapped out by tests.
var fetchOriginal = fetchOriginalIMAP

// Reply composes a threaded reply to the message at in.Ref and delivers it.
//
// The reply carries In-Reply-To and an extended References chain so Gmail
// and other clients thread it with the original. Use DryRun to compose and
// validate without delivering.
//
// Example:
//
//	out, err := gmail.Reply(ctx, gmail.ReplyInput{
//		Ref:      ref,
//		Body:     "Looks good to me.",
//		Delivery: gmail.DeliverSend,
//	})
func Reply(ctx context.Context, in ReplyInput) (Output, error) {
	if err := validateRef(in.Ref); err != nil {
		return Output{}, err
	}
	delivery, err := normalizeDelivery(in.Delivery, in.MboxPath)
	if err != nil {
		return Output{}, err
	}
	in.Delivery = delivery

	self, appPassword, err := loadCredentials()
	if err != nil {
		return Output{}, err
	}

	return withLedger(ctx, idempotencyKey(in.IdempotencyKey, in.DryRun), operationReply, in, func() (Output, error) {
		original, err := fetchOriginal(ctx, self, appPassword, in.Ref)
		if err != nil {
			return Output{}, err
		}
		draft, err := BuildReply(original, self, in)
		if err != nil {
			return Output{}, err
		}
		return deliver(ctx, self, appPassword, draft, delivery, in.MboxPath, in.DryRun)
	})
}

// Forward composes a forward of the message at in.Ref and delivers it.
//
// Example:
//
//	out, err := gmail.Forward(ctx, gmail.ForwardInput{
//		Ref: ref,
//		To:  []string{"colleague@example.com"},
//	})
func Forward(ctx context.Context, in ForwardInput) (Output, error) {
	if err := validateRef(in.Ref); err != nil {
		return Output{}, err
	}
	delivery, err := normalizeDelivery(in.Delivery, in.MboxPath)
	if err != nil {
		return Output{}, err
	}
	in.Delivery = delivery

	self, appPassword, err := loadCredentials()
	if err != nil {
		return Output{}, err
	}

	return withLedger(ctx, idempotencyKey(in.IdempotencyKey, in.DryRun), operationForward, in, func() (Output, error) {
		original, err := fetchOriginal(ctx, self, appPassword, in.Ref)
		if err != nil {
			return Output{}, err
		}
		draft, err := BuildForward(original, in)
		if err != nil {
			return Output{}, err
		}
		return deliver(ctx, self, appPassword, draft, delivery, in.MboxPath, in.DryRun)
	})
}

// Fetch returns the message at ref, parsed for composition.
//
// ID and ThreadID are the Gmail message and thread ids.
func Fetch(ctx context.Context, ref string) (compose.Message, error) {
	if err := validateRef(ref); err != nil {
		return compose.Message{}, err
	}
	address, appPassword, err := loadCredentials()
	if err != nil {
		return compose.Message{}, err
	}
	return fetchOriginal(ctx, address, appPassword, ref)
}

func validateRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return errors.New("gmail: message ref is required")
	}
	if _, err := strconv.ParseUint(ref, 10, 64); err != nil {
		return fmt.Errorf("gmail: message ref %q is not a Gmail message id", ref)
	}
	return nil
}

func normalizeDelivery(delivery Delivery, mboxPath string) (Delivery, error) {
	switch delivery {
	case "":
		return DeliverDraft, nil
	case DeliverDraft, DeliverSend:
		return delivery, nil
	case DeliverMbox:
		if strings.TrimSpace(mboxPath) == "" {
			return "", errors.New("gmail: MboxPath is required for mbox delivery")
		}
		return delivery, nil
	default:
		return "", fmt.Errorf("gmail: unsupported delivery %q", delivery)
	}
}

// idempotencyKey drops the key of a dry run, which has nothing to replay.
func idempotencyKey(key string, dryRun bool) string {
	if dryRun {
		return ""
	}
	return strings.TrimSpace(key)
}

func withLedger(ctx context.Context, key, operation string, input any, run func() (Output, error)) (Output, error) {
	if key == "" {
		return run()
	}

	path := strings.TrimSpace(os.Getenv(envGmailLedgerPath))
	if path == "" {
		return Output{}, fmt.Errorf("gmail: %s is required when IdempotencyKey is set", envGmailLedgerPath)
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return Output{}, fmt.Errorf("gmail: encoding idempotency payload failed: %w", err)
	}

	l, err := ledger.Open(path)
	if err != nil {
		return Output{}, err
	}
	defer l.Close()

	stored, found, err := l.Reserve(ctx, key, operation, payload)
	if err != nil {
		return Output{}, fmt.Errorf("gmail: reserving idempotency key failed: %w", err)
	}
	if found {
		var out Output
		if err := json.Unmarshal(stored, &out); err != nil {
			return Output{}, fmt.Errorf("gmail: decoding stored result failed: %w", err)
		}
		out.Replayed = true
		log().Info("gmail: replayed idempotent operation", "operation", operation, "key", key, "message_id", out.MessageID)
		return out, nil
	}

	out, err := run()
	if err != nil {
		if releaseErr := l.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			log().Warn("gmail: releasing idempotency key failed", "key", key, "error", releaseErr)
		}
		return Output{}, err
	}

	result, err := json.Marshal(out)
	if err != nil {
		return out, fmt.Errorf("gmail: encoding result failed: %w", err)
	}
	if err := l.Store(ctx, key, operation, payload, result); err != nil {
		return out, fmt.Errorf("gmail: recording idempotency key failed: %w", err)
	}
	return out, nil
}

func deliver(ctx context.Context, from, appPassword string, draft Draft, delivery Delivery, mboxPath string, dryRun bool) (Output, error) {
	messageID := mailmsg.NewMessageID(from)
	now := time.Now()
	raw, err := mailmsg.RenderBytes(mailmsg.Outgoing{
		From:       from,
		To:         draft.To,
		Cc:         draft.Cc,
		Bcc:        draft.Bcc,
		Subject:    draft.Subject,
		MessageID:  messageID,
		InReplyTo:  draft.InReplyTo,
		References: draft.References,
		Date:       now,
		TextBody:   draft.TextBody,
		HTMLBody:   draft.HTMLBody,
		WriteBcc:   delivery != DeliverSend,
	})
	if err != nil {
		return Output{}, fmt.Errorf("gmail: rendering message failed: %w", err)
	}

	out := Output{
		MessageID: messageID,
		ThreadID:  draft.ThreadID,
		Subject:   draft.Subject,
		To:        draft.To,
		Cc:        draft.Cc,
		Delivery:  delivery,
		DryRun:    dryRun,
	}
	if dryRun {
		log().Debug("gmail: dry run", "message_id", messageID, "bytes", len(raw))
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	switch delivery {
	case DeliverDraft:
		err = appendDraft(from, appPassword, raw, now)
	case DeliverSend:
		err = sendMessage(from, appPassword, uniqueRecipients(draft.To, draft.Cc, draft.Bcc), raw)
	case DeliverMbox:
		err = mailmsg.AppendMboxFile(mboxPath, from, now, raw)
	}
	if err != nil {
		return Output{}, err
	}

	log().Info("gmail: delivered message", "delivery", string(delivery), "message_id", messageID, "thread_id", draft.ThreadID)
	return out, nil
}

func fetchOriginalIMAP(ctx context.Context, address, appPassword, ref string) (compose.Message, error) {
	imapClient, err := connectIMAP(address, appPassword)
	if err != nil {
		return compose.Message{}, err
	}
	defer imapClient.Logout()

	if _, err := imapClient.Select(gmailAllMail, true); err != nil {
		return compose.Message{}, fmt.Errorf("gmail: selecting mailbox %q failed: %w", gmailAllMail, err)
	}
	if err := ctx.Err(); err != nil {
		return compose.Message{}, err
	}

	uids, err := searchUIDByXGM(imapClient, "X-GM-MSGID", ref)
	if err != nil {
		return compose.Message{}, err
	}
	if len(uids) == 0 {
		return compose.Message{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err := ctx.Err(); err != nil {
		return compose.Message{}, err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids[0])
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, fetchGmailMessageID, fetchGmailThreadID, section.FetchItem()}

	messages := make(chan *imap.Message, 4)
	done := make(chan error, 1)
	go func() {
		done <- imapClient.UidFetch(seqSet, items, messages)
	}()

	var (
		fetched compose.Message
		found   bool
		readErr error
	)
	for msg := range messages {
		if found || readErr != nil {
			continue
		}
		literal := msg.GetBody(section)
		if literal == nil {
			continue
		}
		raw, err := io.ReadAll(literal)
		if err != nil {
			readErr = fmt.Errorf("gmail: reading fetched body failed: %w", err)
			continue
		}
		parsed, err := mailmsg.ParseBytes(raw)
		if err != nil {
			readErr = fmt.Errorf("gmail: parsing fetched body failed: %w", err)
			continue
		}
		parsed.ID = parseIDValue(msg.Items[fetchGmailMessageID])
		if parsed.ID == "" {
			parsed.ID = ref
		}
		parsed.ThreadID = parseIDValue(msg.Items[fetchGmailThreadID])
		fetched, found = parsed, true
	}
	if err := <-done; err != nil {
		return compose.Message{}, fmt.Errorf("gmail: fetching message failed: %w", err)
	}
	if readErr != nil {
		return compose.Message{}, readErr
	}
	if !found {
		return compose.Message{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	log().Debug("gmail: fetched original", "ref", ref, "thread_id", fetched.ThreadID)
	return fetched, nil
}

func appendDraft(address, appPassword string, raw []byte, date time.Time) error {
	imapClient, err := connectIMAP(address, appPassword)
	if err != nil {
		return err
	}
	defer imapClient.Logout()

	flags := []string{imap.DraftFlag, imap.SeenFlag}
	if err := imapClient.Append(gmailDrafts, flags, date, bytes.NewBuffer(raw)); err != nil {
		return fmt.Errorf("gmail: appending draft failed: %w", err)
	}
	return nil
}

func sendMessage(from, appPassword string, recipients []string, raw []byte) error {
	smtpClient, err := connectSMTP(from, appPassword)
	if err != nil {
		return err
	}
	defer smtpClient.Close()

	if err := smtpClient.Mail(compose.ExtractEmail(from), nil); err != nil {
		return fmt.Errorf("gmail: MAIL FROM failed: %w", err)
	}
	for _, rcpt := range recipients {
		if err := smtpClient.Rcpt(compose.ExtractEmail(rcpt), nil); err != nil {
			return fmt.Errorf("gmail: RCPT TO %q failed: %w", rcpt, err)
		}
	}

	writer, err := smtpClient.Data()
	if err != nil {
		return fmt.Errorf("gmail: DATA failed: %w", err)
	}
	if _, err := writer.Write(raw); err != nil {
		return fmt.Errorf("gmail: writing message failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("gmail: finalizing message failed: %w", err)
	}
	if err := smtpClient.Quit(); err != nil {
		return fmt.Errorf("gmail: QUIT failed: %w", err)
	}
	return nil
}

func searchUIDByXGM(imapClient *client.Client, atom string, value string) ([]uint32, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("gmail: search value is required")
	}

	searchCmd := &gmailSearch{Atom: atom, Value: value}
	searchResp := &responses.Search{}
	if _, err := imapClient.Execute(searchCmd, searchResp); err != nil {
		return nil, fmt.Errorf("gmail: searching %s failed: %w", atom, err)
	}
	return searchResp.Ids, nil
}

func parseIDValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case uint64:
		return strconv.FormatUint(value, 10)
	case uint32:
		return strconv.FormatUint(uint64(value), 10)
	case int64:
		return strconv.FormatInt(value, 10)
	case int:
		return strconv.Itoa(value)
	case string:
		return value
	default:
		return fmt.Sprintf("%v", value)
	}
}

func loadCredentials() (address string, appPassword string, err error) {
	address = strings.TrimSpace(os.Getenv(envGmailAddress))
	if address == "" {
		return "", "", fmt.Errorf("gmail: %s is required", envGmailAddress)
	}

	appPassword = strings.ReplaceAll(os.Getenv(envGmailAppPassword), " ", "")
	if appPassword == "" {
		return "", "", fmt.Errorf("gmail: %s is required", envGmailAppPassword)
	}

	return address, appPassword, nil
}

func connectIMAP(address string, appPassword string) (*client.Client, error) {
	imapClient, err := client.DialTLS(gmailIMAPAddress, &tls.Config{ServerName: "imap.gmail.com"})
	if err != nil {
		return nil, fmt.Errorf("gmail: IMAP dial failed: %w", err)
	}

	if err := imapClient.Login(address, appPassword); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("gmail: IMAP login failed: %w", err)
	}

	log().Debug("gmail: IMAP session opened", "address", address)
	return imapClient, nil
}

func connectSMTP(address string, appPassword string) (*smtp.Client, error) {
	conn, err := tls.Dial("tcp", gmailSMTPAddress, &tls.Config{ServerName: gmailSMTPHost})
	if err != nil {
		return nil, fmt.Errorf("gmail: SMTP TLS dial failed: %w", err)
	}

	smtpClient := smtp.NewClient(conn)
	auth := sasl.NewPlainClient("", address, appPassword)
	if err := smtpClient.Auth(auth); err != nil {
		smtpClient.Close()
		return nil, fmt.Errorf("gmail: SMTP auth failed: %w", err)
	}

	log().Debug("gmail: SMTP session opened", "address", address)
	return smtpClient, nil
}

type gmailSearch struct {
	Atom  string
	Value string
}

func (s *gmailSearch) Command() *imap.Command {
	return &imap.Command{
		Name:      "UID SEARCH",
		Arguments: []any{imap.RawString(s.Atom + " " + s.Value)},
	}
}
