package document

import "fmt"

// Tx is exclusive access to a Model for the duration of an Update call.
// It must not be retained after the callback returns.
type Tx struct {
	m       *Model
	changes []Change
}

// GroupIndex returns the index of a group, or -1.
func (tx *Tx) GroupIndex(groupID string) int {
	for i, g := range tx.m.groups {
		if g.ID == groupID {
			return i
		}
	}
	return -1
}

// PageIndex returns the index of a page within its group, or -1.
func (tx *Tx) PageIndex(groupID, pageID string) int {
	i := tx.GroupIndex(groupID)
	if i < 0 {
		return -1
	}
	for j, p := range tx.m.groups[i].Pages {
		if p.ID == pageID {
			return j
		}
	}
	return -1
}

// MoveGroup removes the group at from and reinserts it at to.
func (tx *Tx) MoveGroup(from, to int) error {
	n := len(tx.m.groups)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d -> %d with %d groups", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}
	Move(tx.m.groups, from, to)
	tx.record(ChangeGroupsReordered, "")
	return nil
}

// MovePage removes the page at from and reinserts it at to within one group.
func (tx *Tx) MovePage(groupID string, from, to int) error {
	g, err := tx.group(groupID)
	if err != nil {
		return err
	}
	n := len(g.Pages)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d -> %d with %d pages", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}
	Move(g.Pages, from, to)
	tx.record(ChangePagesReordered, groupID)
	return nil
}

func (tx *Tx) group(groupID string) (*Group, error) {
	i := tx.GroupIndex(groupID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return tx.m.groups[i], nil
}

func (tx *Tx) section(groupID string) (*Group, error) {
	g, err := tx.group(groupID)
	if err != nil {
		return nil, err
	}
	if g.Type != TypeSection {
		return nil, fmt.Errorf("%w: %q", ErrNotSection, g.Title)
	}
	return g, nil
}

func (tx *Tx) checkNewPages(pages []*Page) error {
	seen := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		if _, ok := tx.m.pageIDs[p.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePage, p.ID)
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePage, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func (tx *Tx) adopt(g *Group, pages []*Page) {
	for _, p := range pages {
		p.GroupID = g.ID
		tx.m.pageIDs[p.ID] = struct{}{}
		g.Pages = append(g.Pages, p)
	}
}

func (tx *Tx) record(kind ChangeKind, groupID string) {
	tx.changes = append(tx.changes, Change{Kind: kind, GroupID: groupID})
}

// Move relocates s[from] to index to, shifting the elements in between.
// It is equivalent to removing the element and inserting it at to.
func Move[T any](s []T, from, to int) {
	item := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = item
}
