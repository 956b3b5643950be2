package client

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailcove/mailcore/internal/testutil"
)

func TestGetEmails(t *testing.T) {
	imapServer := testutil.NewIMAPServer(t)
	defer imapServer.Close()

	imapServer.CreateFolder(t, "Bulk")
	for i := 1; i <= 5; i++ {
		imapServer.AddMessage(t, "Bulk",
			fmt.Sprintf("<bulk-%d@test>", i),
			fmt.Sprintf("Bulk message %d", i),
			"sender@test", "recipient@test",
			fmt.Sprintf("body number %d", i), nil)
	}
	imapServer.AddMessage(t, "Bulk", "<bulk-zebra@test>",
		"Zebra sighting", "sender@test", "recipient@test",
		"striped body", nil)

	c := newTestClient(t, imapServer, nil)

	t.Run("full listing is newest-first", func(t *testing.T) {
		emails, total, err := c.GetEmails("Bulk", 10, 0, "")
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		require.Len(t, emails, 6)
		assert.Equal(t, "Zebra sighting", emails[0].Subject)
		assert.Equal(t, "Bulk message 1", emails[5].Subject)
	})

	t.Run("pagination slices the match set", func(t *testing.T) {
		emails, total, err := c.GetEmails("Bulk", 2, 0, "")
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		require.Len(t, emails, 2)
		assert.Equal(t, "Bulk message 2", emails[0].Subject)
		assert.Equal(t, "Bulk message 1", emails[1].Subject)

		emails, _, err = c.GetEmails("Bulk", 2, 2, "")
		require.NoError(t, err)
		require.Len(t, emails, 2)
		assert.Equal(t, "Bulk message 4", emails[0].Subject)
		assert.Equal(t, "Bulk message 3", emails[1].Subject)
	})

	t.Run("offset beyond matches yields empty page", func(t *testing.T) {
		emails, total, err := c.GetEmails("Bulk", 10, 100, "")
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		assert.Empty(t, emails)
	})

	t.Run("negative offset is clamped", func(t *testing.T) {
		emails, _, err := c.GetEmails("Bulk", 1, -5, "")
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "Bulk message 1", emails[0].Subject)
	})

	t.Run("search by subject", func(t *testing.T) {
		emails, total, err := c.GetEmails("Bulk", 10, 0, "Zebra")
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, emails, 1)
		assert.Equal(t, "Zebra sighting", emails[0].Subject)
	})

	t.Run("search by body", func(t *testing.T) {
		_, total, err := c.GetEmails("Bulk", 10, 0, "striped")
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("search by sender", func(t *testing.T) {
		_, total, err := c.GetEmails("Bulk", 10, 0, "sender@test")
		require.NoError(t, err)
		assert.Equal(t, 6, total)
	})

	t.Run("search with no matches", func(t *testing.T) {
		emails, total, err := c.GetEmails("Bulk", 10, 0, "no-such-token")
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, emails)
	})

	t.Run("missing folder returns protocol error", func(t *testing.T) {
		_, _, err := c.GetEmails("NoSuchFolder", 10, 0, "")
		require.Error(t, err)

		var perr *ProtocolError
		assert.ErrorAs(t, err, &perr)
	})
}

func TestGetEmail(t *testing.T) {
	imapServer := testutil.NewIMAPServer(t)
	defer imapServer.Close()

	imapServer.CreateFolder(t, "ReadTest")
	uid := imapServer.AddMessage(t, "ReadTest", "<read-test@test>",
		"Please read", "alice@test", "bob@test", "the content", nil)

	c := newTestClient(t, imapServer, nil)
	id := formatID(uid)

	t.Run("fetch marks unread message read", func(t *testing.T) {
		email, err := c.GetEmail(id, "ReadTest")
		require.NoError(t, err)

		assert.Equal(t, id, email.ID)
		assert.Equal(t, "Please read", email.Subject)
		assert.Equal(t, "alice@test", email.From.Email)
		assert.Contains(t, email.Body.Plain, "the content")
		assert.True(t, email.Read)

		assert.Zero(t, c.GetUnreadCount("ReadTest"))
	})

	t.Run("second fetch is unchanged", func(t *testing.T) {
		email, err := c.GetEmail(id, "ReadTest")
		require.NoError(t, err)
		assert.True(t, email.Read)
	})

	t.Run("unknown uid returns error", func(t *testing.T) {
		_, err := c.GetEmail("99999", "ReadTest")
		require.Error(t, err)
	})

	t.Run("malformed id returns error", func(t *testing.T) {
		_, err := c.GetEmail("abc", "ReadTest")
		require.Error(t, err)
	})
}
