package gmail

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/nalgeon/be"
	"github.com/spachava753/threadmail/compose"
)

const (
	liveTestFlagEnv = "GMAIL_LIVE_TEST"
	liveTestRefEnv  = "GMAIL_TEST_REF"
	pollInterval    = 5 * time.Second
	draftWaitWindow = 2 * time.Minute
)

func TestLiveReplyDraftLifecycle(t *testing.T) {
	if os.Getenv(liveTestFlagEnv) != "1" {
		t.Skipf("set %s=1 to run live Gmail integration tests", liveTestFlagEnv)
	}

	address := strings.TrimSpace(os.Getenv(envGmailAddress))
	appPassword := strings.TrimSpace(os.Getenv(envGmailAppPassword))
	if address == "" || appPassword == "" {
		t.Skipf("set %s and %s to run live Gmail integration tests", envGmailAddress, envGmailAppPassword)
	}
	ref := strings.TrimSpace(os.Getenv(liveTestRefEnv))
	if ref == "" {
		t.Skipf("set %s to the X-GM-MSGID of a message to reply to", liveTestRefEnv)
	}

	ctx := context.Background()
	original, err := Fetch(ctx, ref)
	be.Err(t, err, nil)
	be.Equal(t, original.ID, ref)
	be.True(t, original.ThreadID != "")

	info := compose.ExtractThreadingInfo(original)
	be.True(t, info.MessageID != "")

	in := ReplyInput{
		Ref:  ref,
		Body: fmt.Sprintf("threadmail live test %d", time.Now().UnixNano()),
	}

	in.DryRun = true
	dry, err := Reply(ctx, in)
	be.Err(t, err, nil)
	be.True(t, dry.DryRun)
	be.Equal(t, dry.ThreadID, original.ThreadID)

	in.DryRun = false
	out, err := Reply(ctx, in)
	be.Err(t, err, nil)
	be.Equal(t, out.Delivery, DeliverDraft)

	uid, err := waitForDraft(out.MessageID, draftWaitWindow)
	be.Err(t, err, nil)
	be.Err(t, deleteDraft(uid), nil)
}

func waitForDraft(messageID string, timeout time.Duration) (uint32, error) {
	deadline := time.Now().Add(timeout)
	for {
		uids, err := searchDrafts(messageID)
		if err != nil {
			return 0, err
		}
		if len(uids) > 0 {
			return uids[0], nil
		}

		if time.Now().After(deadline) {
			return 0, fmt.Errorf("draft %s not found within %s", messageID, timeout)
		}
		time.Sleep(pollInterval)
	}
}

func searchDrafts(messageID string) ([]uint32, error) {
	address, appPassword, err := loadCredentials()
	if err != nil {
		return nil, err
	}
	imapClient, err := connectIMAP(address, appPassword)
	if err != nil {
		return nil, err
	}
	defer imapClient.Logout()

	if _, err := imapClient.Select(gmailDrafts, true); err != nil {
		return nil, err
	}
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("Message-ID", messageID)
	return imapClient.UidSearch(criteria)
}

func deleteDraft(uid uint32) error {
	address, appPassword, err := loadCredentials()
	if err != nil {
		return err
	}
	imapClient, err := connectIMAP(address, appPassword)
	if err != nil {
		return err
	}
	defer imapClient.Logout()

	if _, err := imapClient.Select(gmailDrafts, false); err != nil {
		return err
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := imapClient.UidStore(seqSet, item, []any{imap.DeletedFlag}, nil); err != nil {
		return err
	}
	return imapClient.Expunge(nil)
}
