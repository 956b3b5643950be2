package connection

import "time"

// Options controls how the strategy ladder runs. Ladder ports and the
// certificate-validation posture are configuration rather than constants so
// callers can tighten or relax them per account.
type Options struct {
	// Timeout bounds each dial and every protocol command on the resulting
	// session. It is threaded through explicit dialer and client settings,
	// never installed as process-wide state.
	Timeout time.Duration

	// MaxRetries is the number of times the whole ladder is re-run after an
	// exhausted pass. RetryDelay separates the passes.
	MaxRetries int
	RetryDelay time.Duration

	// InsecureSkipVerify disables certificate validation on every TLS step.
	// Many legacy mail servers carry self-signed or expired certificates;
	// relaxing validation is an explicit opt-in posture, not a default.
	InsecureSkipVerify bool

	// AllowInsecure enables the final plaintext-login rung of each ladder.
	AllowInsecure bool

	// Verbose logs every failed strategy instead of only ladder exhaustion.
	Verbose bool

	// IMAPStartTLSPort is the plaintext port used by the IMAP STARTTLS rung.
	IMAPStartTLSPort int
	// SMTPTLSPort is the port used by the direct-TLS SMTP rung.
	SMTPTLSPort int
	// SMTPPlainPort is the port used by the plaintext SMTP rung.
	SMTPPlainPort int
}

// DefaultOptions returns the standard posture: 30-second timeout, a single
// ladder pass, strict certificate validation, no plaintext fallback.
func DefaultOptions() Options {
	return Options{
		Timeout:          30 * time.Second,
		MaxRetries:       0,
		RetryDelay:       time.Second,
		IMAPStartTLSPort: 143,
		SMTPTLSPort:      465,
		SMTPPlainPort:    25,
	}
}
