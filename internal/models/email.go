package models

import "time"

// Address is a decomposed mail address with an optional display name.
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Body holds the plain-text and HTML renditions of a message body.
type Body struct {
	Plain string `json:"plain"`
	HTML  string `json:"html"`
}

// Attachment is a decoded message part carrying a filename and a
// base64-encoded payload suitable for transport to a presentation layer.
type Attachment struct {
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	SizeBytes     int    `json:"size"`
	ContentBase64 string `json:"content"`
}

// EmailMessage is the structured result of fetching and parsing one message.
// Read reflects the state after any read-marking side effect of the fetch
// that produced it.
type EmailMessage struct {
	ID             string       `json:"id"`
	Subject        string       `json:"subject"`
	From           Address      `json:"from"`
	Date           time.Time    `json:"date"`
	Timestamp      int64        `json:"timestamp"`
	Read           bool         `json:"read"`
	Flagged        bool         `json:"flagged"`
	HasAttachments bool         `json:"has_attachments"`
	Attachments    []Attachment `json:"attachments"`
	Body           Body         `json:"body"`
}

// OutgoingAttachment is an attachment supplied to SendEmail. Content is
// treated as base64 when it decodes cleanly, otherwise as raw bytes.
type OutgoingAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// FolderStats summarizes one folder's message counts.
type FolderStats struct {
	Name    string `json:"name"`
	Total   int    `json:"total"`
	Unread  int    `json:"unread"`
	Flagged int    `json:"flagged"`
}

// TestResult reports the outcome of probing both protocol endpoints.
type TestResult struct {
	IMAPOK bool `json:"imap_success"`
	SMTPOK bool `json:"smtp_success"`
}
