// Package folder converts flat mailbox listings into a classified, nested
// folder tree. One hierarchy delimiter is adopted per listing and applied
// uniformly; parentage is determined solely by path prefix under it.
package folder

import (
	"regexp"
	"sort"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/rs/zerolog/log"

	"github.com/mailcove/mailcore/internal/models"
)

// Entry is one raw listing row after name and delimiter extraction.
type Entry struct {
	Name       string
	Attributes []string
	Delimiter  string
}

var (
	trailingNamePattern = regexp.MustCompile(`"([^"]+)"$`)
	quotedPattern       = regexp.MustCompile(`"([^"]*)"`)
	attributesPattern   = regexp.MustCompile(`\(([^)]*)\)`)
)

// delimiterTokens are the hierarchy separators servers commonly quote in
// LIST responses, in discovery priority order.
var delimiterTokens = []string{".", "/", "%"}

// DetectDelimiter scans raw listing lines for a quoted delimiter token and
// adopts the first one found for the whole listing, defaulting to ".".
func DetectDelimiter(lines []string) string {
	for _, line := range lines {
		for _, d := range delimiterTokens {
			if strings.Contains(line, `"`+d+`"`) {
				return d
			}
		}
	}
	return "."
}

// ParseListLines parses raw LIST response lines, tolerating server-specific
// listing formats. Lines that yield no folder name are skipped with a logged
// warning.
func ParseListLines(lines []string) []Entry {
	delimiter := DetectDelimiter(lines)

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		name, ok := extractName(line, delimiter)
		if !ok {
			log.Warn().Str("line", line).Msg("failed to parse folder listing line")
			continue
		}
		entries = append(entries, Entry{
			Name:       name,
			Attributes: extractAttributes(line),
			Delimiter:  delimiter,
		})
	}
	return entries
}

// extractName prefers a trailing quoted string, falls back to the last
// quoted segment that is not the delimiter token, and finally to the last
// whitespace-separated field.
func extractName(line, delimiter string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}

	if match := trailingNamePattern.FindStringSubmatch(line); match != nil {
		return match[1], true
	}

	quoted := quotedPattern.FindAllStringSubmatch(line, -1)
	for i := len(quoted) - 1; i >= 0; i-- {
		candidate := quoted[i][1]
		if candidate == "" || candidate == delimiter {
			continue
		}
		return candidate, true
	}

	fields := strings.Fields(line)
	for i := len(fields) - 1; i >= 0; i-- {
		candidate := strings.Trim(fields[i], `"`)
		if candidate == "" || candidate == delimiter || candidate == "NIL" || strings.HasPrefix(candidate, "(") {
			continue
		}
		return candidate, true
	}

	return "", false
}

func extractAttributes(line string) []string {
	match := attributesPattern.FindStringSubmatch(line)
	if match == nil {
		return nil
	}
	return strings.Fields(match[1])
}

// FromMailboxInfos converts structured LIST results into entries, adopting
// the first non-empty delimiter seen as the listing's single delimiter.
func FromMailboxInfos(infos []*imap.MailboxInfo) []Entry {
	delimiter := "."
	for _, info := range infos {
		if info.Delimiter != "" {
			delimiter = info.Delimiter
			break
		}
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name:       info.Name,
			Attributes: info.Attributes,
			Delimiter:  delimiter,
		})
	}
	return entries
}

// synonyms maps folder types to localized name fragments, matched
// case-insensitively as substrings.
var synonyms = []struct {
	kind  models.FolderType
	attr  []string
	names []string
}{
	{models.FolderSent, []string{"\\Sent"}, []string{"sent", "gesendet", "envoy", "enviado", "inviat", "verzonden"}},
	{models.FolderDrafts, []string{"\\Drafts"}, []string{"draft", "entwurf", "brouillon", "borrador", "bozze", "concept"}},
	{models.FolderTrash, []string{"\\Trash"}, []string{"trash", "deleted", "papierkorb", "corbeille", "papelera", "cestino"}},
	{models.FolderSpam, []string{"\\Junk", "\\Spam"}, []string{"spam", "junk", "bulk"}},
	{models.FolderArchive, []string{"\\Archive"}, []string{"archive", "archiv"}},
}

// Classify determines a folder's type from its name and attributes. A folder
// literally named INBOX (any case) is the inbox; special-use attributes win
// over name synonyms; anything unmatched is a generic folder.
func Classify(name string, attributes []string) models.FolderType {
	if strings.EqualFold(name, "INBOX") {
		return models.FolderInbox
	}

	lower := strings.ToLower(name)
	for _, s := range synonyms {
		for _, attr := range s.attr {
			for _, have := range attributes {
				if strings.EqualFold(have, attr) {
					return s.kind
				}
			}
		}
		for _, fragment := range s.names {
			if strings.Contains(lower, fragment) {
				return s.kind
			}
		}
	}

	return models.FolderGeneric
}

// BuildTree classifies and nests entries. A folder's parent is the
// previously-seen folder whose path equals this folder's path with its last
// segment removed; absent such a parent the folder is top-level. An empty
// listing synthesizes a single INBOX so consumers never see an empty tree.
func BuildTree(entries []Entry) []*models.Folder {
	if len(entries) == 0 {
		return []*models.Folder{{
			Name:     "INBOX",
			Path:     "INBOX",
			Segments: []string{"INBOX"},
			Type:     models.FolderInbox,
		}}
	}

	byPath := make(map[string]*models.Folder, len(entries))
	var roots []*models.Folder

	for _, entry := range entries {
		delimiter := entry.Delimiter
		if delimiter == "" {
			delimiter = "."
		}
		segments := strings.Split(entry.Name, delimiter)

		f := &models.Folder{
			Name:       segments[len(segments)-1],
			Path:       entry.Name,
			Segments:   segments,
			Type:       Classify(entry.Name, entry.Attributes),
			Attributes: entry.Attributes,
		}
		byPath[f.Path] = f

		parentPath := strings.Join(segments[:len(segments)-1], delimiter)
		if parent, ok := byPath[parentPath]; ok && parentPath != "" {
			parent.Children = append(parent.Children, f)
		} else {
			roots = append(roots, f)
		}
	}

	sortTopLevel(roots)
	return roots
}

// sortTopLevel orders the inbox first, then other classified standard
// folders alphabetically, then generic folders alphabetically.
func sortTopLevel(roots []*models.Folder) {
	rank := func(f *models.Folder) int {
		switch f.Type {
		case models.FolderInbox:
			return 0
		case models.FolderGeneric:
			return 2
		default:
			return 1
		}
	}

	sort.SliceStable(roots, func(i, j int) bool {
		ri, rj := rank(roots[i]), rank(roots[j])
		if ri != rj {
			return ri < rj
		}
		return roots[i].Path < roots[j].Path
	})
}
