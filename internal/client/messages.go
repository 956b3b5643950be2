package client

import (
	"fmt"
	"net/textproto"
	"sort"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/rs/zerolog/log"

	"github.com/mailcove/mailcore/internal/message"
	"github.com/mailcove/mailcore/internal/models"
)

// searchCriteria translates free-text search into an OR-combined substring
// match over subject, from, to, and body. An empty query matches every
// message.
func searchCriteria(query string) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()

	if query == "" {
		all := new(imap.SeqSet)
		all.AddRange(1, 0)
		criteria.SeqNum = all
		return criteria
	}

	header := func(field string) *imap.SearchCriteria {
		return &imap.SearchCriteria{Header: textproto.MIMEHeader{field: {query}}}
	}
	body := &imap.SearchCriteria{Body: []string{query}}

	criteria.Or = [][2]*imap.SearchCriteria{{
		{Or: [][2]*imap.SearchCriteria{{header("Subject"), header("From")}}},
		{Or: [][2]*imap.SearchCriteria{{header("To"), body}}},
	}}
	return criteria
}

// GetEmails returns one page of messages from a folder plus the total match
// count. The page is sliced from the ascending-UID match set and reversed so
// the most recently numbered message appears first. Per-message fetch or
// parse failures are logged and skipped, never failing the batch.
func (c *Client) GetEmails(folderName string, limit, offset int, query string) ([]*models.EmailMessage, int, error) {
	sess, err := c.connectIMAP()
	if err != nil {
		return nil, 0, err
	}

	if _, err := sess.Select(folderName, true); err != nil {
		return nil, 0, &ProtocolError{Command: "select " + folderName, Err: err}
	}

	uids, err := sess.UidSearch(searchCriteria(query))
	if err != nil {
		return nil, 0, &ProtocolError{Command: "search", Err: err}
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	total := len(uids)
	if offset < 0 {
		offset = 0
	}
	if offset >= total || limit <= 0 {
		return []*models.EmailMessage{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := append([]uint32(nil), uids[offset:end]...)
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	emails := make([]*models.EmailMessage, 0, len(page))
	for _, uid := range page {
		email, err := c.fetchAndParse(sess, uid)
		if err != nil {
			log.Warn().Err(err).Uint32("uid", uid).Str("folder", folderName).Msg("skipping message")
			continue
		}
		emails = append(emails, email)
	}

	return emails, total, nil
}

// GetEmail fetches and parses one message. A message that parses as unread
// is marked read as a side effect and returned with read=true.
func (c *Client) GetEmail(id, folderName string) (*models.EmailMessage, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	sess, err := c.connectIMAP()
	if err != nil {
		return nil, err
	}

	if _, err := sess.Select(folderName, true); err != nil {
		return nil, &ProtocolError{Command: "select " + folderName, Err: err}
	}

	email, err := c.fetchAndParse(sess, uid)
	if err != nil {
		return nil, &ProtocolError{Command: "fetch " + id, Err: err}
	}

	if !email.Read {
		c.MarkRead(folderName, id)
		email.Read = true
	}

	return email, nil
}

// fetchAndParse fetches the full content and flags of one message and parses
// it into a structured entity.
func (c *Client) fetchAndParse(sess *imapclient.Client, uid uint32) (*models.EmailMessage, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchFlags, imap.FetchUid}

	ch := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- sess.UidFetch(seqSet, items, ch)
	}()

	msg := <-ch
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %d: %w", uid, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("server did not return message %d", uid)
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("message %d has no body", uid)
	}

	return message.Parse(body, formatID(uid), msg.Flags)
}
