package connection

import (
	"crypto/tls"
	"net"
	"strconv"
	"time"

	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/rs/zerolog/log"

	"github.com/mailcove/mailcore/internal/models"
)

// Config identifies one protocol endpoint for a single connection attempt.
type Config struct {
	Server   string
	Port     int
	Username string
	Password string
}

func (c Config) addr(port int) string {
	return net.JoinHostPort(c.Server, strconv.Itoa(port))
}

// Manager negotiates authenticated IMAP and SMTP sessions using an ordered
// ladder of security strategies. The first strategy that yields a logged-in
// session wins; each failure is swallowed until the ladder is exhausted.
type Manager struct {
	opts Options
}

// NewManager creates a connection manager with the given options.
func NewManager(opts Options) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.IMAPStartTLSPort == 0 {
		opts.IMAPStartTLSPort = 143
	}
	if opts.SMTPTLSPort == 0 {
		opts.SMTPTLSPort = 465
	}
	if opts.SMTPPlainPort == 0 {
		opts.SMTPPlainPort = 25
	}
	return &Manager{opts: opts}
}

// Options returns a copy of the manager's options.
func (m *Manager) Options() Options {
	return m.opts
}

func (m *Manager) tlsConfig(server string) *tls.Config {
	return &tls.Config{
		ServerName:         server,
		InsecureSkipVerify: m.opts.InsecureSkipVerify,
	}
}

func (m *Manager) dialer() *net.Dialer {
	return &net.Dialer{Timeout: m.opts.Timeout}
}

// imapStrategy is one rung of the IMAP ladder: a name for logging and a dial
// function that either returns a logged-in session or an error.
type imapStrategy struct {
	name string
	dial func() (*imapclient.Client, error)
}

func (m *Manager) imapStrategies(cfg Config) []imapStrategy {
	tlsCfg := m.tlsConfig(cfg.Server)
	dialer := m.dialer()

	login := func(c *imapclient.Client) (*imapclient.Client, error) {
		c.Timeout = m.opts.Timeout
		if err := c.Login(cfg.Username, cfg.Password); err != nil {
			_ = c.Logout()
			return nil, err
		}
		return c, nil
	}

	strategies := []imapStrategy{
		{
			name: "TLS",
			dial: func() (*imapclient.Client, error) {
				c, err := imapclient.DialWithDialerTLS(dialer, cfg.addr(cfg.Port), tlsCfg)
				if err != nil {
					return nil, err
				}
				return login(c)
			},
		},
		{
			name: "STARTTLS",
			dial: func() (*imapclient.Client, error) {
				c, err := imapclient.DialWithDialer(dialer, cfg.addr(m.opts.IMAPStartTLSPort))
				if err != nil {
					return nil, err
				}
				if err := c.StartTLS(tlsCfg); err != nil {
					_ = c.Logout()
					return nil, err
				}
				return login(c)
			},
		},
	}

	if m.opts.AllowInsecure {
		strategies = append(strategies, imapStrategy{
			name: "plaintext",
			dial: func() (*imapclient.Client, error) {
				c, err := imapclient.DialWithDialer(dialer, cfg.addr(m.opts.IMAPStartTLSPort))
				if err != nil {
					return nil, err
				}
				return login(c)
			},
		})
	}

	return strategies
}

// CreateIMAPSession runs the IMAP ladder, re-running the whole ladder up to
// MaxRetries times. On exhaustion it returns a single *Error carrying the
// last underlying failure.
func (m *Manager) CreateIMAPSession(cfg Config) (*imapclient.Client, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		for _, s := range m.imapStrategies(cfg) {
			c, err := s.dial()
			if err == nil {
				log.Info().Str("server", cfg.Server).Str("strategy", s.name).Msg("IMAP connected")
				return c, nil
			}
			lastErr = err
			if m.opts.Verbose {
				log.Warn().Err(err).Str("server", cfg.Server).Str("strategy", s.name).Msg("IMAP strategy failed")
			}
		}
		if attempt >= m.opts.MaxRetries {
			break
		}
		time.Sleep(m.opts.RetryDelay)
	}

	err := &Error{Protocol: "IMAP", Server: cfg.Server, Err: lastErr}
	log.Error().Err(lastErr).Str("server", cfg.Server).Msg("all IMAP connection methods failed")
	return nil, err
}

type smtpStrategy struct {
	name string
	dial func() (*smtp.Client, error)
}

func (m *Manager) dialSMTP(addr string) (*smtp.Client, error) {
	conn, err := m.dialer().Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return m.prepareSMTP(smtp.NewClient(conn))
}

func (m *Manager) dialSMTPTLS(addr string, tlsCfg *tls.Config) (*smtp.Client, error) {
	conn, err := tls.DialWithDialer(m.dialer(), "tcp", addr, tlsCfg)
	if err != nil {
		return nil, err
	}
	return m.prepareSMTP(smtp.NewClient(conn))
}

func (m *Manager) prepareSMTP(c *smtp.Client) (*smtp.Client, error) {
	c.CommandTimeout = m.opts.Timeout
	c.SubmissionTimeout = m.opts.Timeout
	if err := c.Hello("localhost"); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// authSMTP authenticates with SASL PLAIN when the server advertises AUTH.
func (m *Manager) authSMTP(c *smtp.Client, cfg Config) (*smtp.Client, error) {
	if ok, _ := c.Extension("AUTH"); ok {
		if err := c.Auth(sasl.NewPlainClient("", cfg.Username, cfg.Password)); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (m *Manager) smtpStrategies(cfg Config) []smtpStrategy {
	tlsCfg := m.tlsConfig(cfg.Server)

	strategies := []smtpStrategy{
		{
			name: "TLS",
			dial: func() (*smtp.Client, error) {
				c, err := m.dialSMTPTLS(cfg.addr(m.opts.SMTPTLSPort), tlsCfg)
				if err != nil {
					return nil, err
				}
				return m.authSMTP(c, cfg)
			},
		},
		{
			name: "STARTTLS",
			dial: func() (*smtp.Client, error) {
				conn, err := m.dialer().Dial("tcp", cfg.addr(cfg.Port))
				if err != nil {
					return nil, err
				}
				// NewClientStartTLS refuses to proceed when the server
				// does not advertise STARTTLS, so this rung never
				// degrades to plaintext on its own.
				c, err := smtp.NewClientStartTLS(conn, tlsCfg)
				if err != nil {
					return nil, err
				}
				c.CommandTimeout = m.opts.Timeout
				c.SubmissionTimeout = m.opts.Timeout
				return m.authSMTP(c, cfg)
			},
		},
	}

	if m.opts.AllowInsecure {
		strategies = append(strategies, smtpStrategy{
			name: "plaintext",
			dial: func() (*smtp.Client, error) {
				c, err := m.dialSMTP(cfg.addr(m.opts.SMTPPlainPort))
				if err != nil {
					return nil, err
				}
				return m.authSMTP(c, cfg)
			},
		})
	}

	return strategies
}

// CreateSMTPSession runs the SMTP ladder with the same retry and error
// semantics as CreateIMAPSession.
func (m *Manager) CreateSMTPSession(cfg Config) (*smtp.Client, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		for _, s := range m.smtpStrategies(cfg) {
			c, err := s.dial()
			if err == nil {
				log.Info().Str("server", cfg.Server).Str("strategy", s.name).Msg("SMTP connected")
				return c, nil
			}
			lastErr = err
			if m.opts.Verbose {
				log.Warn().Err(err).Str("server", cfg.Server).Str("strategy", s.name).Msg("SMTP strategy failed")
			}
		}
		if attempt >= m.opts.MaxRetries {
			break
		}
		time.Sleep(m.opts.RetryDelay)
	}

	err := &Error{Protocol: "SMTP", Server: cfg.Server, Err: lastErr}
	log.Error().Err(lastErr).Str("server", cfg.Server).Msg("all SMTP connection methods failed")
	return nil, err
}

// TestConnection probes both endpoints with throwaway sessions and reports
// per-protocol success. Failures are logged, never returned.
func (m *Manager) TestConnection(imapCfg, smtpCfg Config) models.TestResult {
	var result models.TestResult

	if c, err := m.CreateIMAPSession(imapCfg); err == nil {
		_ = c.Logout()
		result.IMAPOK = true
	} else {
		log.Error().Err(err).Str("server", imapCfg.Server).Msg("IMAP test connection failed")
	}

	if c, err := m.CreateSMTPSession(smtpCfg); err == nil {
		_ = c.Quit()
		result.SMTPOK = true
	} else {
		log.Error().Err(err).Str("server", smtpCfg.Server).Msg("SMTP test connection failed")
	}

	return result
}
