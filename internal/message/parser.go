package message

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/rs/zerolog/log"

	"github.com/mailcove/mailcore/internal/models"
)

var fromPattern = regexp.MustCompile(`([^<]*)<([^>]+)>`)

// Parse converts a raw wire message plus its flag set into a structured
// email entity. Individual parts that cannot be decoded are skipped with a
// logged warning; only a message that cannot be parsed at all returns an
// error.
func Parse(r io.Reader, id string, flags []string) (*models.EmailMessage, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message %s: %w", id, err)
	}

	for _, perr := range env.Errors {
		log.Warn().Str("id", id).Str("name", perr.Name).Str("detail", perr.Detail).Msg("degraded message part")
	}

	subject := DecodeHeader(env.Root.Header.Get("Subject"))
	if subject == "" {
		subject = "(No Subject)"
	}

	from := splitFromHeader(DecodeHeader(env.Root.Header.Get("From")))
	date := parseDate(env.Root.Header.Get("Date"))
	attachments := extractAttachments(env, id)
	body := bodyParts(env.Root)

	return &models.EmailMessage{
		ID:             id,
		Subject:        subject,
		From:           from,
		Date:           date,
		Timestamp:      date.Unix(),
		Read:           hasFlag(flags, imap.SeenFlag),
		Flagged:        hasFlag(flags, imap.FlaggedFlag),
		HasAttachments: len(attachments) > 0,
		Attachments:    attachments,
		Body:           body,
	}, nil
}

// bodyParts walks the part tree in document order and keeps the first
// text/plain and first text/html parts. Later duplicates of the same type
// are ignored, and parts carrying an attachment disposition or a filename
// never contribute to the body.
func bodyParts(root *enmime.Part) models.Body {
	var body models.Body

	var walk func(p *enmime.Part)
	walk = func(p *enmime.Part) {
		if p == nil {
			return
		}
		if p.Disposition != "attachment" && p.FileName == "" {
			switch p.ContentType {
			case "text/plain":
				if body.Plain == "" {
					body.Plain = string(p.Content)
				}
			case "text/html":
				if body.HTML == "" {
					body.HTML = string(p.Content)
				}
			}
		}
		walk(p.FirstChild)
		walk(p.NextSibling)
	}
	walk(root)

	return body
}

// splitFromHeader decomposes a "display name <address>" header. Without the
// angle-bracket form the whole header is the address and the name is empty.
func splitFromHeader(header string) models.Address {
	if match := fromPattern.FindStringSubmatch(header); match != nil {
		return models.Address{
			Name:  strings.TrimSpace(match[1]),
			Email: strings.TrimSpace(match[2]),
		}
	}
	return models.Address{Email: strings.TrimSpace(header)}
}

// parseDate parses the Date header per the standard mail grammar,
// substituting the current time when the header is missing or malformed.
func parseDate(value string) time.Time {
	parsed, err := mail.ParseDate(value)
	if err != nil {
		return time.Now()
	}
	return parsed
}

// extractAttachments collects every part carrying a disposition filename,
// re-encoding its payload for transport. Parts with an undecodable payload
// are skipped.
func extractAttachments(env *enmime.Envelope, id string) []models.Attachment {
	parts := make([]*enmime.Part, 0, len(env.Attachments)+len(env.Inlines))
	parts = append(parts, env.Attachments...)
	parts = append(parts, env.Inlines...)

	attachments := make([]models.Attachment, 0, len(parts))
	for _, part := range parts {
		if part.FileName == "" {
			continue
		}
		if len(part.Content) == 0 {
			log.Warn().Str("id", id).Str("filename", part.FileName).Msg("skipping attachment with empty payload")
			continue
		}
		attachments = append(attachments, models.Attachment{
			Filename:      part.FileName,
			ContentType:   part.ContentType,
			SizeBytes:     len(part.Content),
			ContentBase64: base64.StdEncoding.EncodeToString(part.Content),
		})
	}
	return attachments
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
