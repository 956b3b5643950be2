// Package client implements the mail-access façade. Each Client owns at most
// one IMAP and one SMTP session and provides retrieval, search, send, and
// mutation operations over them. A Client is not safe for concurrent use;
// run independent operations on separate Client instances.
package client

import (
	"fmt"
	"strconv"
	"time"

	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-smtp"
	"github.com/rs/zerolog/log"

	"github.com/mailcove/mailcore/internal/connection"
	"github.com/mailcove/mailcore/internal/models"
)

// sessionState tracks the lifecycle of the owned IMAP session.
type sessionState int

const (
	stateDisconnected sessionState = iota
	stateConnected
	stateStale
)

// ProtocolError reports a single protocol command that returned a
// non-success status.
type ProtocolError struct {
	Command string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Client is a full-featured email client bound to one account.
type Client struct {
	settings models.AccountSettings
	manager  *connection.Manager

	imap  *imapclient.Client
	state sessionState
	smtp  *smtp.Client
}

// defaultOptions is the interoperability posture the original deployment
// used for problem mail servers: extended timeout, relaxed certificate
// validation, plaintext login as last resort.
func defaultOptions() connection.Options {
	opts := connection.DefaultOptions()
	opts.Timeout = 60 * time.Second
	opts.MaxRetries = 1
	opts.InsecureSkipVerify = true
	opts.AllowInsecure = true
	return opts
}

// New creates a client with the default interoperability posture.
func New(settings models.AccountSettings) *Client {
	return NewWithOptions(settings, defaultOptions())
}

// NewWithOptions creates a client with an explicit connection posture.
func NewWithOptions(settings models.AccountSettings, opts connection.Options) *Client {
	return &Client{
		settings: settings,
		manager:  connection.NewManager(opts),
	}
}

func (c *Client) imapConfig() connection.Config {
	return connection.Config{
		Server:   c.settings.IMAPServer,
		Port:     c.settings.IMAPPort,
		Username: c.settings.Username,
		Password: c.settings.Password,
	}
}

func (c *Client) smtpConfig() connection.Config {
	return connection.Config{
		Server:   c.settings.SMTPServer,
		Port:     c.settings.SMTPPort,
		Username: c.settings.Username,
		Password: c.settings.Password,
	}
}

// connectIMAP returns the owned IMAP session, probing an existing one with
// NOOP and replacing it when the probe fails.
func (c *Client) connectIMAP() (*imapclient.Client, error) {
	if c.imap != nil && c.state == stateConnected {
		if err := c.imap.Noop(); err == nil {
			return c.imap, nil
		} else {
			c.state = stateStale
			log.Warn().Err(err).Str("server", c.settings.IMAPServer).Msg("stale IMAP session detected")
		}
	}

	if c.imap != nil {
		_ = c.imap.Logout()
		c.imap = nil
		c.state = stateDisconnected
	}

	sess, err := c.manager.CreateIMAPSession(c.imapConfig())
	if err != nil {
		return nil, err
	}

	c.imap = sess
	c.state = stateConnected
	return sess, nil
}

// connectSMTP always discards any existing session and creates a fresh one.
// SMTP channels are not kept warm: idle timeouts and half-open transactions
// outweigh any reuse benefit.
func (c *Client) connectSMTP() (*smtp.Client, error) {
	if c.smtp != nil {
		_ = c.smtp.Quit()
		c.smtp = nil
	}

	sess, err := c.manager.CreateSMTPSession(c.smtpConfig())
	if err != nil {
		return nil, err
	}

	c.smtp = sess
	return sess, nil
}

// Disconnect releases both sessions, tolerating logout errors.
func (c *Client) Disconnect() {
	if c.imap != nil {
		_ = c.imap.Logout()
		c.imap = nil
		c.state = stateDisconnected
	}
	if c.smtp != nil {
		_ = c.smtp.Quit()
		c.smtp = nil
	}
}

// TestConnection probes both endpoints with the client's stored credentials.
func (c *Client) TestConnection() models.TestResult {
	return c.manager.TestConnection(c.imapConfig(), c.smtpConfig())
}

func parseID(id string) (uint32, error) {
	v, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid message id %q: %w", id, err)
	}
	return uint32(v), nil
}

func formatID(uid uint32) string {
	return strconv.FormatUint(uint64(uid), 10)
}
