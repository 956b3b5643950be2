package models

// AccountSettings is the settings record handed in by the caller. Password
// arrives already decrypted; this layer performs no credential handling.
type AccountSettings struct {
	IMAPServer string `json:"imap_server"`
	IMAPPort   int    `json:"imap_port"`
	SMTPServer string `json:"smtp_server"`
	SMTPPort   int    `json:"smtp_port"`
	Username   string `json:"username"`
	Password   string `json:"-"`
}
