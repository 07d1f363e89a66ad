// Package document holds the in-memory model the assembly engine edits:
// an ordered list of groups, each holding an ordered list of pages.
// Group order is output order.
package document

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// GroupType distinguishes content sections from pure divider groups.
type GroupType string

const (
	TypeSection   GroupType = "section"
	TypeSeparator GroupType = "separator"
)

// Source is an immutable source document a page was extracted from.
type Source struct {
	ID     string
	Name   string
	Digest string // hex SHA-256 of Data
	Data   []byte
}

// NewSource wraps raw document bytes.
func NewSource(name string, data []byte) *Source {
	sum := sha256.Sum256(data)
	return &Source{
		ID:     uuid.New().String(),
		Name:   name,
		Digest: hex.EncodeToString(sum[:]),
		Data:   data,
	}
}

// Page is one extracted page. Pages are never mutated after they are
// committed to a Model.
type Page struct {
	ID            string
	Source        *Source
	Number        int // 1-indexed within Source
	Thumbnail     []byte
	ThumbnailType string
	SourceName    string
	GroupID       string
}

// NewPage creates a page record for page number n of src.
func NewPage(src *Source, n int) *Page {
	return &Page{
		ID:         uuid.New().String(),
		Source:     src,
		Number:     n,
		SourceName: src.Name,
	}
}

// Group is an ordered unit of output.
type Group struct {
	ID                   string
	Title                string
	Pages                []*Page
	Type                 GroupType
	IncludeSeparatorPage bool // sections only
	IsStatic             bool
	Expanded             bool
}

// IsSection reports whether the group is a content section.
func (g Group) IsSection() bool {
	return g.Type == TypeSection
}

// clone returns a copy with its own page slice. Page pointers are shared
// since pages are immutable.
func (g *Group) clone() Group {
	c := *g
	c.Pages = make([]*Page, len(g.Pages))
	copy(c.Pages, g.Pages)
	return c
}

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeGroupAdded      ChangeKind = "group_added"
	ChangeGroupDeleted    ChangeKind = "group_deleted"
	ChangeGroupsReordered ChangeKind = "groups_reordered"
	ChangeGroupUpdated    ChangeKind = "group_updated"
	ChangePagesAdded      ChangeKind = "pages_added"
	ChangePageDeleted     ChangeKind = "page_deleted"
	ChangePagesReordered  ChangeKind = "pages_reordered"
)

// Change describes a committed mutation.
type Change struct {
	Kind    ChangeKind
	GroupID string
}
