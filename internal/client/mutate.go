package client

import (
	"errors"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/rs/zerolog/log"

	"github.com/mailcove/mailcore/internal/models"
)

var errAllRecipientsRejected = errors.New("all recipients rejected")

// MarkRead marks a message as read.
func (c *Client) MarkRead(folderName, id string) bool {
	return c.setFlag(folderName, id, imap.SeenFlag, true)
}

// MarkUnread marks a message as unread.
func (c *Client) MarkUnread(folderName, id string) bool {
	return c.setFlag(folderName, id, imap.SeenFlag, false)
}

// Flag marks a message as flagged.
func (c *Client) Flag(folderName, id string) bool {
	return c.setFlag(folderName, id, imap.FlaggedFlag, true)
}

// Unflag clears a message's flagged marker.
func (c *Client) Unflag(folderName, id string) bool {
	return c.setFlag(folderName, id, imap.FlaggedFlag, false)
}

// setFlag adds or removes one flag on one message. Failures are converted to
// a false return, never an error.
func (c *Client) setFlag(folderName, id, flag string, add bool) bool {
	uid, err := parseID(id)
	if err != nil {
		log.Warn().Err(err).Str("flag", flag).Msg("failed to change flag")
		return false
	}

	sess, err := c.connectIMAP()
	if err != nil {
		log.Warn().Err(err).Str("flag", flag).Str("id", id).Msg("failed to change flag")
		return false
	}

	if _, err := sess.Select(folderName, false); err != nil {
		log.Warn().Err(err).Str("folder", folderName).Str("id", id).Msg("failed to change flag")
		return false
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	var op imap.FlagsOp = imap.AddFlags
	if !add {
		op = imap.RemoveFlags
	}

	if err := sess.UidStore(seqSet, imap.FormatFlagsOp(op, true), []interface{}{flag}, nil); err != nil {
		log.Warn().Err(err).Str("flag", flag).Str("id", id).Msg("failed to change flag")
		return false
	}
	return true
}

// DeleteEmail deletes a message. When a trash folder is discoverable and
// differs from the source folder, the message is copied there first; either
// way it is marked deleted and expunged in the source.
func (c *Client) DeleteEmail(folderName, id string) bool {
	uid, err := parseID(id)
	if err != nil {
		log.Warn().Err(err).Msg("failed to delete email")
		return false
	}

	sess, err := c.connectIMAP()
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("failed to delete email")
		return false
	}

	trash, hasTrash := c.findFolderByType(sess, models.FolderTrash)

	if _, err := sess.Select(folderName, false); err != nil {
		log.Warn().Err(err).Str("folder", folderName).Str("id", id).Msg("failed to delete email")
		return false
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	if hasTrash && trash != folderName {
		if err := sess.UidCopy(seqSet, trash); err != nil {
			log.Warn().Err(err).Str("folder", trash).Str("id", id).Msg("failed to copy email to trash")
			return false
		}
	}

	return expungeMarked(sess, seqSet, folderName, id)
}

// MoveEmail copies a message to the target folder and removes it from the
// source. If the copy does not succeed, the source is left untouched.
func (c *Client) MoveEmail(sourceFolder, targetFolder, id string) bool {
	uid, err := parseID(id)
	if err != nil {
		log.Warn().Err(err).Msg("failed to move email")
		return false
	}

	sess, err := c.connectIMAP()
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("failed to move email")
		return false
	}

	if _, err := sess.Select(sourceFolder, false); err != nil {
		log.Warn().Err(err).Str("folder", sourceFolder).Str("id", id).Msg("failed to move email")
		return false
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	if err := sess.UidCopy(seqSet, targetFolder); err != nil {
		log.Warn().Err(err).Str("folder", targetFolder).Str("id", id).Msg("failed to copy email to target")
		return false
	}

	return expungeMarked(sess, seqSet, sourceFolder, id)
}

// expungeMarked marks the given messages deleted in the selected folder and
// expunges them.
func expungeMarked(sess *imapclient.Client, seqSet *imap.SeqSet, folderName, id string) bool {
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := sess.UidStore(seqSet, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		log.Warn().Err(err).Str("folder", folderName).Str("id", id).Msg("failed to mark email deleted")
		return false
	}
	if err := sess.Expunge(nil); err != nil {
		log.Warn().Err(err).Str("folder", folderName).Str("id", id).Msg("failed to expunge")
		return false
	}
	return true
}

// CreateFolder creates a new folder, returning success.
func (c *Client) CreateFolder(name string) bool {
	sess, err := c.connectIMAP()
	if err != nil {
		log.Error().Err(err).Str("folder", name).Msg("failed to create folder")
		return false
	}
	if err := sess.Create(name); err != nil {
		log.Error().Err(err).Str("folder", name).Msg("failed to create folder")
		return false
	}
	return true
}

// DeleteFolder deletes a folder, returning success.
func (c *Client) DeleteFolder(name string) bool {
	sess, err := c.connectIMAP()
	if err != nil {
		log.Error().Err(err).Str("folder", name).Msg("failed to delete folder")
		return false
	}
	if err := sess.Delete(name); err != nil {
		log.Error().Err(err).Str("folder", name).Msg("failed to delete folder")
		return false
	}
	return true
}

// RenameFolder renames a folder, returning success.
func (c *Client) RenameFolder(oldName, newName string) bool {
	sess, err := c.connectIMAP()
	if err != nil {
		log.Error().Err(err).Str("folder", oldName).Msg("failed to rename folder")
		return false
	}
	if err := sess.Rename(oldName, newName); err != nil {
		log.Error().Err(err).Str("folder", oldName).Str("target", newName).Msg("failed to rename folder")
		return false
	}
	return true
}
