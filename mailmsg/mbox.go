package mailmsg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/spachava753/threadmail/compose"
)

// ReadMbox parses every message of an mbox stream, in file order.
func ReadMbox(r io.Reader) ([]compose.Message, error) {
	reader := mbox.NewReader(r)
	messages := make([]compose.Message, 0, 16)
	for {
		raw, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mailmsg: reading mbox message %d failed: %w", len(messages)+1, err)
		}
		msg, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("mailmsg: parsing mbox message %d failed: %w", len(messages)+1, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// AppendMbox writes raw as one mbox message with a "From " separator line
// naming from and date.
func AppendMbox(w io.Writer, from string, date time.Time, raw []byte) error {
	from = strings.Trim(strings.TrimSpace(from), "<>")
	if from == "" {
		from = "MAILER-DAEMON"
	}
	if date.IsZero() {
		date = time.Now()
	}

	mw := mbox.NewWriter(w)
	dst, err := mw.CreateMessage(from, date)
	if err != nil {
		return fmt.Errorf("mailmsg: creating mbox message failed: %w", err)
	}
	if _, err := dst.Write(raw); err != nil {
		return fmt.Errorf("mailmsg: writing mbox message failed: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("mailmsg: finalizing mbox message failed: %w", err)
	}
	return nil
}

// AppendMboxFile appends raw to the mbox file at path, creating it if needed.
func AppendMboxFile(path string, from string, date time.Time, raw []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("mailmsg: opening mbox %s failed: %w", path, err)
	}
	if err := AppendMbox(file, from, date, raw); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("mailmsg: closing mbox %s failed: %w", path, err)
	}
	return nil
}

// ReadMboxFile is ReadMbox over the file at path.
func ReadMboxFile(path string) ([]compose.Message, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mailmsg: opening mbox %s failed: %w", path, err)
	}
	defer file.Close()
	return ReadMbox(file)
}
