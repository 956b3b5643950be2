package client

import (
	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/rs/zerolog/log"

	"github.com/mailcove/mailcore/internal/folder"
	"github.com/mailcove/mailcore/internal/models"
)

// GetFolders lists all mailbox folders as a classified, nested tree. With
// withUnread set, every folder is annotated with its unread count; a count
// failure yields zero for that folder only.
func (c *Client) GetFolders(withUnread bool) ([]*models.Folder, error) {
	sess, err := c.connectIMAP()
	if err != nil {
		return nil, err
	}

	infos, err := listMailboxes(sess)
	if err != nil {
		return nil, err
	}

	tree := folder.BuildTree(folder.FromMailboxInfos(infos))

	if withUnread {
		var annotate func([]*models.Folder)
		annotate = func(folders []*models.Folder) {
			for _, f := range folders {
				f.Unread = c.unreadCount(sess, f.Path)
				annotate(f.Children)
			}
		}
		annotate(tree)
	}

	return tree, nil
}

// listMailboxes runs LIST and collects the raw mailbox entries.
func listMailboxes(sess *imapclient.Client) ([]*imap.MailboxInfo, error) {
	ch := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)

	go func() {
		done <- sess.List("", "*", ch)
	}()

	var infos []*imap.MailboxInfo
	for m := range ch {
		infos = append(infos, m)
	}

	if err := <-done; err != nil {
		return nil, &ProtocolError{Command: "list", Err: err}
	}

	return infos, nil
}

// unreadCount returns the UNSEEN count for one folder via a read-only
// select, defaulting to zero on any failure.
func (c *Client) unreadCount(sess *imapclient.Client, folderName string) int {
	if _, err := sess.Select(folderName, true); err != nil {
		log.Warn().Err(err).Str("folder", folderName).Msg("failed to get unread count")
		return 0
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	ids, err := sess.UidSearch(criteria)
	if err != nil {
		log.Warn().Err(err).Str("folder", folderName).Msg("failed to get unread count")
		return 0
	}

	return len(ids)
}

// GetUnreadCount returns the unread count for one folder, defaulting to zero
// on any failure.
func (c *Client) GetUnreadCount(folderName string) int {
	sess, err := c.connectIMAP()
	if err != nil {
		log.Warn().Err(err).Str("folder", folderName).Msg("failed to get unread count")
		return 0
	}
	return c.unreadCount(sess, folderName)
}

// GetUnreadCounts returns a folder-name to unread-count mapping over all
// folders, skipping any folder whose lookup errors.
func (c *Client) GetUnreadCounts() map[string]int {
	counts := make(map[string]int)

	sess, err := c.connectIMAP()
	if err != nil {
		log.Error().Err(err).Msg("failed to get unread counts")
		return counts
	}

	infos, err := listMailboxes(sess)
	if err != nil {
		log.Error().Err(err).Msg("failed to get unread counts")
		return counts
	}

	for _, info := range infos {
		if _, err := sess.Select(info.Name, true); err != nil {
			log.Warn().Err(err).Str("folder", info.Name).Msg("skipping folder in unread counts")
			continue
		}

		criteria := imap.NewSearchCriteria()
		criteria.WithoutFlags = []string{imap.SeenFlag}

		ids, err := sess.UidSearch(criteria)
		if err != nil {
			log.Warn().Err(err).Str("folder", info.Name).Msg("skipping folder in unread counts")
			continue
		}

		counts[info.Name] = len(ids)
	}

	return counts
}

// GetFolderStats returns message counts for one folder, degrading to zeros
// on failure.
func (c *Client) GetFolderStats(folderName string) models.FolderStats {
	stats := models.FolderStats{Name: folderName}

	sess, err := c.connectIMAP()
	if err != nil {
		log.Error().Err(err).Str("folder", folderName).Msg("failed to get folder stats")
		return stats
	}

	mbox, err := sess.Select(folderName, true)
	if err != nil {
		log.Error().Err(err).Str("folder", folderName).Msg("failed to get folder stats")
		return stats
	}
	stats.Total = int(mbox.Messages)

	unseen := imap.NewSearchCriteria()
	unseen.WithoutFlags = []string{imap.SeenFlag}
	if ids, err := sess.UidSearch(unseen); err == nil {
		stats.Unread = len(ids)
	}

	flagged := imap.NewSearchCriteria()
	flagged.WithFlags = []string{imap.FlaggedFlag}
	if ids, err := sess.UidSearch(flagged); err == nil {
		stats.Flagged = len(ids)
	}

	return stats
}

// findFolderByType returns the path of the first listed folder classifying
// as the given type.
func (c *Client) findFolderByType(sess *imapclient.Client, kind models.FolderType) (string, bool) {
	infos, err := listMailboxes(sess)
	if err != nil {
		log.Warn().Err(err).Str("type", string(kind)).Msg("failed to discover special folder")
		return "", false
	}

	for _, info := range infos {
		if folder.Classify(info.Name, info.Attributes) == kind {
			return info.Name, true
		}
	}
	return "", false
}
