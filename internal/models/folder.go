package models

// FolderType classifies a mailbox folder by its conventional role.
type FolderType string

const (
	FolderInbox   FolderType = "inbox"
	FolderSent    FolderType = "sent"
	FolderDrafts  FolderType = "drafts"
	FolderTrash   FolderType = "trash"
	FolderSpam    FolderType = "spam"
	FolderArchive FolderType = "archive"
	FolderGeneric FolderType = "folder"
)

// Folder is one node of a classified mailbox hierarchy. Path is the raw
// server-side name; Segments are Path split on the listing's adopted
// delimiter, so joining Segments with that delimiter reproduces Path.
type Folder struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Segments   []string   `json:"segments"`
	Type       FolderType `json:"type"`
	Attributes []string   `json:"attributes,omitempty"`
	Unread     int        `json:"unread"`
	Children   []*Folder  `json:"children,omitempty"`
}
