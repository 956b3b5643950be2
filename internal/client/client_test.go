package client

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailcove/mailcore/internal/connection"
	"github.com/mailcove/mailcore/internal/models"
	"github.com/mailcove/mailcore/internal/testutil"
)

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	return port
}

// newTestClient wires a client's ladders to in-memory IMAP and SMTP servers.
// The direct-TLS rungs point at closed ports so the ladder falls through to
// the plaintext rung.
func newTestClient(t *testing.T, imapServer *testutil.IMAPServer, smtpServer *testutil.SMTPServer) *Client {
	t.Helper()

	opts := connection.DefaultOptions()
	opts.Timeout = 5 * time.Second
	opts.AllowInsecure = true
	opts.IMAPStartTLSPort = imapServer.Port()
	opts.SMTPTLSPort = closedPort(t)
	if smtpServer != nil {
		opts.SMTPPlainPort = smtpServer.Port()
	} else {
		opts.SMTPPlainPort = closedPort(t)
	}

	settings := models.AccountSettings{
		IMAPServer: imapServer.Host(),
		IMAPPort:   closedPort(t),
		Username:   imapServer.Username(),
		Password:   imapServer.Password(),
	}
	if smtpServer != nil {
		settings.SMTPServer = smtpServer.Host()
		settings.SMTPPort = closedPort(t)
	} else {
		settings.SMTPServer = "127.0.0.1"
		settings.SMTPPort = closedPort(t)
	}

	c := NewWithOptions(settings, opts)
	t.Cleanup(c.Disconnect)
	return c
}

func TestClientTestConnection(t *testing.T) {
	imapServer := testutil.NewIMAPServer(t)
	defer imapServer.Close()
	smtpServer := testutil.NewSMTPServer(t)
	defer smtpServer.Close()

	t.Run("both endpoints reachable", func(t *testing.T) {
		c := newTestClient(t, imapServer, smtpServer)
		result := c.TestConnection()
		assert.True(t, result.IMAPOK)
		assert.True(t, result.SMTPOK)
	})

	t.Run("smtp unreachable", func(t *testing.T) {
		c := newTestClient(t, imapServer, nil)
		result := c.TestConnection()
		assert.True(t, result.IMAPOK)
		assert.False(t, result.SMTPOK)
	})
}

func TestClientSessionReuse(t *testing.T) {
	imapServer := testutil.NewIMAPServer(t)
	defer imapServer.Close()

	c := newTestClient(t, imapServer, nil)

	first, err := c.connectIMAP()
	require.NoError(t, err)
	assert.Equal(t, stateConnected, c.state)

	// A healthy session must be reused, not replaced.
	second, err := c.connectIMAP()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestClientStaleSessionRecovery(t *testing.T) {
	imapServer := testutil.NewIMAPServer(t)
	defer imapServer.Close()

	c := newTestClient(t, imapServer, nil)

	first, err := c.connectIMAP()
	require.NoError(t, err)

	// Kill the session behind the client's back; the NOOP probe must
	// detect it and a fresh session must replace it.
	_ = first.Logout()

	second, err := c.connectIMAP()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, stateConnected, c.state)

	_, err = second.Select("INBOX", true)
	assert.NoError(t, err)
}

func TestClientDisconnect(t *testing.T) {
	imapServer := testutil.NewIMAPServer(t)
	defer imapServer.Close()

	c := newTestClient(t, imapServer, nil)

	_, err := c.connectIMAP()
	require.NoError(t, err)

	c.Disconnect()
	assert.Nil(t, c.imap)
	assert.Equal(t, stateDisconnected, c.state)

	// Disconnecting an already-disconnected client is a no-op.
	c.Disconnect()
}

func TestParseID(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		uid, err := parseID(formatID(42))
		require.NoError(t, err)
		assert.Equal(t, uint32(42), uid)
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		_, err := parseID("not-a-uid")
		require.Error(t, err)
	})

	t.Run("rejects negative", func(t *testing.T) {
		_, err := parseID("-1")
		require.Error(t, err)
	})
}
