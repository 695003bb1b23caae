package compose

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func splitJoined(list string) []string {
	if list == "" {
		return nil
	}
	return strings.Split(list, ", ")
}

func TestFilterReplyAllExcludesUser(t *testing.T) {
	to, cc := FilterReplyAll(
		"sender@test.example.com",
		"me@test.example.com, other@test.example.com",
		"",
		"me@test.example.com",
	)

	be.Equal(t, to, "sender@test.example.com, other@test.example.com")
	be.Equal(t, cc, "")
}

func TestFilterReplyAllExcludesUserWithAddressAsName(t *testing.T) {
	to, cc := FilterReplyAll(
		"a@x.com",
		"me@x.com <me@x.com>, b@x.com",
		"Me <me@x.com>,",
		"me@x.com",
	)

	be.Equal(t, to, "a@x.com, b@x.com")
	be.Equal(t, cc, "")
}

func TestFilterReplyAllCombinesToAndCc(t *testing.T) {
	to, cc := FilterReplyAll(
		"sender@test.example.com",
		"to1@test.example.com",
		"cc1@test.example.com, cc2@test.example.com",
		"me@test.example.com",
	)

	be.Equal(t, to, "sender@test.example.com, to1@test.example.com")
	be.Equal(t, cc, "cc1@test.example.com, cc2@test.example.com")
}

func TestFilterReplyAllCaseInsensitive(t *testing.T) {
	to, _ := FilterReplyAll(
		"sender@test.example.com",
		"ME@TEST.EXAMPLE.COM, other@test.example.com",
		"",
		"Me@Test.Example.com",
	)

	be.Equal(t, to, "sender@test.example.com, other@test.example.com")
}

func TestFilterReplyAllDeduplicates(t *testing.T) {
	to, cc := FilterReplyAll(
		"sender@test.example.com",
		"sender@test.example.com, other@test.example.com, other@test.example.com",
		"sender@test.example.com, cc@test.example.com, cc@test.example.com",
		"me@test.example.com",
	)

	be.Equal(t, splitJoined(to), []string{"sender@test.example.com", "other@test.example.com"})
	be.Equal(t, splitJoined(cc), []string{"cc@test.example.com"})
}

func TestFilterReplyAllExactMatchOnly(t *testing.T) {
	to, _ := FilterReplyAll(
		"sender@test.example.com",
		"mytest@test.example.com, test@test.example.com",
		"",
		"test@test.example.com",
	)

	be.Equal(t, splitJoined(to), []string{"sender@test.example.com", "mytest@test.example.com"})
}

func TestFilterReplyAllDisplayNames(t *testing.T) {
	to, cc := FilterReplyAll(
		"Sender <sender@test.example.com>",
		"Test User <test@test.example.com>, Other <other@test.example.com>",
		"Test User <TEST@test.example.com>",
		"test@test.example.com",
	)

	be.Equal(t, to, "Sender <sender@test.example.com>, Other <other@test.example.com>")
	be.Equal(t, cc, "")
}

func TestFilterReplyAllSenderIsUser(t *testing.T) {
	to, cc := FilterReplyAll(
		"Me <me@test.example.com>",
		"a@test.example.com",
		"b@test.example.com",
		"me@test.example.com",
	)

	be.Equal(t, to, "a@test.example.com")
	be.Equal(t, cc, "b@test.example.com")
}

func TestFilterReplyAllKeepsTextualDuplicates(t *testing.T) {
	to, _ := FilterReplyAll(
		"",
		"Ann <ann@test.example.com>, ann@test.example.com",
		"",
		"me@test.example.com",
	)

	be.Equal(t, splitJoined(to), []string{"Ann <ann@test.example.com>", "ann@test.example.com"})
}

func TestFilterReplyAllEmpty(t *testing.T) {
	to, cc := FilterReplyAll("", "", "", "me@test.example.com")
	be.Equal(t, to, "")
	be.Equal(t, cc, "")

	to, cc = FilterReplyAll("", " , ,", "", "me@test.example.com")
	be.Equal(t, to, "")
	be.Equal(t, cc, "")
}
