// Command mailprobe connects to a mail account, walks the ladder for both
// protocols, and prints the folder hierarchy with per-folder counts. It is
// the quickest way to check an account's connectivity and posture.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mailcove/mailcore/internal/client"
	"github.com/mailcove/mailcore/internal/config"
	"github.com/mailcove/mailcore/internal/models"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c := client.NewWithOptions(cfg.AccountSettings(), cfg.ConnectionOptions())
	defer c.Disconnect()

	result := c.TestConnection()
	fmt.Printf("IMAP %s:%d  %s\n", cfg.IMAPServer, cfg.IMAPPort, okLabel(result.IMAPOK))
	fmt.Printf("SMTP %s:%d  %s\n", cfg.SMTPServer, cfg.SMTPPort, okLabel(result.SMTPOK))
	if !result.IMAPOK {
		os.Exit(1)
	}

	folders, err := c.GetFolders(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list folders: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	for _, folder := range folders {
		printFolder(folder, 0)
	}

	stats := c.GetFolderStats("INBOX")
	fmt.Printf("\nINBOX: %d messages, %d unread, %d flagged\n",
		stats.Total, stats.Unread, stats.Flagged)
}

func printFolder(folder *models.Folder, depth int) {
	indent := strings.Repeat("  ", depth)
	label := folder.Name
	if folder.Unread > 0 {
		label = fmt.Sprintf("%s (%d)", label, folder.Unread)
	}
	fmt.Printf("%s%s [%s]\n", indent, label, folder.Type)
	for _, child := range folder.Children {
		printFolder(child, depth+1)
	}
}

func okLabel(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAILED"
}
