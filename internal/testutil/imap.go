package testutil

import (
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend/memory"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
)

// IMAPServer is an in-memory IMAP server for tests. The memory backend
// creates a default user with username "username" and password "password",
// and pre-seeds INBOX with one sample message flagged \Seen.
type IMAPServer struct {
	Server  *server.Server
	Address string
	Backend *memory.Backend
	cleanup func()
}

// NewIMAPServer starts an in-memory IMAP server on a random local port.
func NewIMAPServer(t *testing.T) *IMAPServer {
	t.Helper()

	be := memory.New()

	s := server.New(be)
	s.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	go func() {
		if err := s.Serve(listener); err != nil {
			t.Logf("IMAP server error: %v", err)
		}
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	return &IMAPServer{
		Server:  s,
		Address: listener.Addr().String(),
		Backend: be,
		cleanup: func() { _ = s.Close() },
	}
}

// Close shuts down the test IMAP server.
func (s *IMAPServer) Close() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// Host returns the host part of the server address.
func (s *IMAPServer) Host() string {
	host, _, _ := net.SplitHostPort(s.Address)
	return host
}

// Port returns the port the server listens on.
func (s *IMAPServer) Port() int {
	_, portStr, _ := net.SplitHostPort(s.Address)
	port, _ := strconv.Atoi(portStr)
	return port
}

// Username returns the default test username.
func (s *IMAPServer) Username() string {
	return "username"
}

// Password returns the default test password.
func (s *IMAPServer) Password() string {
	return "password"
}

// Connect creates a logged-in IMAP client connection to the test server.
func (s *IMAPServer) Connect(t *testing.T) (*imapclient.Client, func()) {
	t.Helper()

	c, err := imapclient.Dial(s.Address)
	if err != nil {
		t.Fatalf("Failed to connect to test server: %v", err)
	}

	if err := c.Login(s.Username(), s.Password()); err != nil {
		_ = c.Logout()
		t.Fatalf("Failed to login: %v", err)
	}

	return c, func() { _ = c.Logout() }
}

// CreateFolder creates a folder on the test server.
func (s *IMAPServer) CreateFolder(t *testing.T, name string) {
	t.Helper()

	c, cleanup := s.Connect(t)
	defer cleanup()

	if err := c.Create(name); err != nil {
		t.Fatalf("Failed to create folder %s: %v", name, err)
	}
}

// ClearFolder expunges every message in a folder so tests can start
// from a known state.
func (s *IMAPServer) ClearFolder(t *testing.T, name string) {
	t.Helper()

	c, cleanup := s.Connect(t)
	defer cleanup()

	mbox, err := c.Select(name, false)
	if err != nil {
		t.Fatalf("Failed to select folder %s: %v", name, err)
	}
	if mbox.Messages == 0 {
		return
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(1, mbox.Messages)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.Store(seqSet, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		t.Fatalf("Failed to mark messages deleted: %v", err)
	}
	if err := c.Expunge(nil); err != nil {
		t.Fatalf("Failed to expunge folder %s: %v", name, err)
	}
}

// AppendMessage appends a raw message with the given flags and returns
// its UID, located via the Message-ID header.
func (s *IMAPServer) AppendMessage(t *testing.T, folderName, messageID, raw string, flags []string) uint32 {
	t.Helper()

	c, cleanup := s.Connect(t)
	defer cleanup()

	if err := c.Append(folderName, flags, time.Now(), strings.NewReader(raw)); err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}

	if _, err := c.Select(folderName, true); err != nil {
		t.Fatalf("Failed to select folder %s: %v", folderName, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("Message-ID", messageID)
	uids, err := c.UidSearch(criteria)
	if err != nil {
		t.Fatalf("Failed to search for message: %v", err)
	}
	if len(uids) == 0 {
		t.Fatalf("Message not found after append")
	}

	return uids[len(uids)-1]
}

// AddMessage appends a simple plain-text message and returns its UID.
func (s *IMAPServer) AddMessage(t *testing.T, folderName, messageID, subject, from, to, body string, flags []string) uint32 {
	t.Helper()

	raw := SimpleMessage(messageID, from, to, subject, body, time.Now())
	return s.AppendMessage(t, folderName, messageID, raw, flags)
}

// SimpleMessage builds a minimal RFC 822 message for test fixtures.
func SimpleMessage(messageID, from, to, subject, body string, sentAt time.Time) string {
	var b strings.Builder
	b.WriteString("Message-ID: " + messageID + "\r\n")
	b.WriteString("Date: " + sentAt.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}
