package client

import (
	"bytes"
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/rs/zerolog/log"

	"github.com/mailcove/mailcore/internal/models"
)

// SendEmail builds a multipart message with a mandatory plain part and an
// optional HTML alternative, attaches binary parts, and submits it over a
// fresh SMTP session. The envelope recipient set is the union of to, cc, and
// bcc; bcc never appears in a header. A copy is appended to the detected
// Sent folder on a best-effort basis.
func (c *Client) SendEmail(to []string, subject, bodyText, bodyHTML string, cc, bcc []string, attachments []models.OutgoingAttachment) bool {
	builder := enmime.Builder().
		From("", c.senderAddress()).
		Subject(subject).
		Date(time.Now()).
		Text([]byte(bodyText)).
		ToAddrs(toMailAddresses(to))

	if bodyHTML != "" {
		builder = builder.HTML([]byte(bodyHTML))
	}
	if len(cc) > 0 {
		builder = builder.CCAddrs(toMailAddresses(cc))
	}

	for _, att := range attachments {
		if att.Filename == "" || att.Content == "" {
			continue
		}
		content, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			// Not valid base64, treat as raw bytes.
			content = []byte(att.Content)
		}
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		builder = builder.AddAttachment(content, contentType, att.Filename)
	}

	root, err := builder.Build()
	if err != nil {
		log.Error().Err(err).Msg("failed to build outgoing message")
		return false
	}

	var raw bytes.Buffer
	if err := root.Encode(&raw); err != nil {
		log.Error().Err(err).Msg("failed to encode outgoing message")
		return false
	}

	recipients := unionRecipients(to, cc, bcc)
	if len(recipients) == 0 {
		log.Error().Msg("no recipients for outgoing message")
		return false
	}

	if err := c.submit(recipients, raw.Bytes()); err != nil {
		log.Error().Err(err).Msg("failed to send email")
		return false
	}

	c.appendToSent(raw.Bytes())
	return true
}

// submit performs one SMTP transaction over a fresh session. The session is
// never reused for a second send.
func (c *Client) submit(recipients []string, raw []byte) error {
	sess, err := c.connectSMTP()
	if err != nil {
		return err
	}
	defer func() {
		_ = sess.Quit()
		c.smtp = nil
	}()

	if err := sess.Mail(c.senderAddress(), nil); err != nil {
		return err
	}

	accepted := 0
	for _, rcpt := range recipients {
		if err := sess.Rcpt(rcpt, nil); err != nil {
			log.Warn().Err(err).Str("recipient", rcpt).Msg("recipient rejected")
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return &ProtocolError{Command: "rcpt", Err: errAllRecipientsRejected}
	}

	wc, err := sess.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(raw); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

// appendToSent copies a sent message into the detected Sent folder. Failure
// is logged only; it never changes the send's success result.
func (c *Client) appendToSent(raw []byte) {
	sess, err := c.connectIMAP()
	if err != nil {
		log.Warn().Err(err).Msg("failed to save message to sent folder")
		return
	}

	sent, ok := c.findFolderByType(sess, models.FolderSent)
	if !ok {
		log.Warn().Msg("no sent folder detected, skipping copy")
		return
	}

	if err := sess.Append(sent, []string{imap.SeenFlag}, time.Now(), bytes.NewReader(raw)); err != nil {
		log.Warn().Err(err).Str("folder", sent).Msg("failed to save message to sent folder")
	}
}

// senderAddress returns the message sender for both the From header and the
// MAIL FROM envelope. Accounts whose username is a bare local part (no "@")
// get a host qualifier so the envelope stays syntactically valid.
func (c *Client) senderAddress() string {
	if strings.Contains(c.settings.Username, "@") {
		return c.settings.Username
	}
	return c.settings.Username + "@localhost"
}

// unionRecipients merges recipient groups into one duplicate-free envelope
// set, preserving first-seen order.
func unionRecipients(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var all []string
	for _, group := range groups {
		for _, addr := range group {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			all = append(all, addr)
		}
	}
	return all
}

func toMailAddresses(addrs []string) []mail.Address {
	result := make([]mail.Address, 0, len(addrs))
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		result = append(result, mail.Address{Address: addr})
	}
	return result
}
