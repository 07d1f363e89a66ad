package document

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrPageNotFound    = errors.New("page not found")
	ErrStaticGroup     = errors.New("static sections cannot be deleted")
	ErrNotSection      = errors.New("group is not a section")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrDuplicatePage   = errors.New("duplicate page id")
)

// Model is the ordered collection of groups.
// Mutations are serialized; readers run concurrently with each other but
// never observe a mutation in progress.
type Model struct {
	mu        sync.RWMutex
	groups    []*Group
	pageIDs   map[string]struct{}
	listeners []func(Change)
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		pageIDs: make(map[string]struct{}),
	}
}

// OnChange registers a listener called after every committed mutation.
// Listeners run outside the model lock and may read the model.
func (m *Model) OnChange(fn func(Change)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Update runs fn with exclusive access to the model. If fn returns nil and
// mutated anything, listeners are notified once per recorded change.
func (m *Model) Update(fn func(tx *Tx) error) error {
	m.mu.Lock()
	tx := &Tx{m: m}
	err := fn(tx)
	listeners := m.listeners
	m.mu.Unlock()

	if err != nil {
		return err
	}
	for _, c := range tx.changes {
		for _, l := range listeners {
			l(c)
		}
	}
	return nil
}

// AddSection appends an empty, deletable section.
func (m *Model) AddSection(title string, includeSeparatorPage bool) Group {
	return m.addGroup(&Group{
		Title:                title,
		Type:                 TypeSection,
		IncludeSeparatorPage: includeSeparatorPage,
		Expanded:             true,
	})
}

// AddStaticSection appends an empty section that can never be deleted.
func (m *Model) AddStaticSection(title string, includeSeparatorPage bool) Group {
	return m.addGroup(&Group{
		Title:                title,
		Type:                 TypeSection,
		IncludeSeparatorPage: includeSeparatorPage,
		IsStatic:             true,
		Expanded:             true,
	})
}

// AddSeparator appends a divider group. Separators never hold pages.
func (m *Model) AddSeparator(title string) Group {
	return m.addGroup(&Group{
		Title: title,
		Type:  TypeSeparator,
	})
}

// AddSectionWithPages appends a new section already holding pages.
// Either the section and all pages are committed or nothing is.
func (m *Model) AddSectionWithPages(title string, pages []*Page) (Group, error) {
	var out Group
	err := m.Update(func(tx *Tx) error {
		if err := tx.checkNewPages(pages); err != nil {
			return err
		}
		g := &Group{
			ID:       uuid.New().String(),
			Title:    title,
			Type:     TypeSection,
			Expanded: true,
		}
		tx.adopt(g, pages)
		m.groups = append(m.groups, g)
		tx.record(ChangeGroupAdded, g.ID)
		out = g.clone()
		return nil
	})
	return out, err
}

// AppendPages appends pages to the end of a section.
func (m *Model) AppendPages(groupID string, pages []*Page) error {
	return m.Update(func(tx *Tx) error {
		g, err := tx.section(groupID)
		if err != nil {
			return err
		}
		if err := tx.checkNewPages(pages); err != nil {
			return err
		}
		tx.adopt(g, pages)
		tx.record(ChangePagesAdded, groupID)
		return nil
	})
}

// DeleteGroup removes a group and its pages.
// Static groups are refused with ErrStaticGroup and the model is unchanged.
func (m *Model) DeleteGroup(groupID string) error {
	return m.Update(func(tx *Tx) error {
		i := tx.GroupIndex(groupID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
		}
		g := m.groups[i]
		if g.IsStatic {
			return fmt.Errorf("%w: %q", ErrStaticGroup, g.Title)
		}
		for _, p := range g.Pages {
			delete(m.pageIDs, p.ID)
		}
		m.groups = append(m.groups[:i], m.groups[i+1:]...)
		tx.record(ChangeGroupDeleted, groupID)
		return nil
	})
}

// DeletePage removes one page from a group.
func (m *Model) DeletePage(groupID, pageID string) error {
	return m.Update(func(tx *Tx) error {
		g, err := tx.group(groupID)
		if err != nil {
			return err
		}
		i := tx.PageIndex(groupID, pageID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
		}
		delete(m.pageIDs, pageID)
		g.Pages = append(g.Pages[:i], g.Pages[i+1:]...)
		tx.record(ChangePageDeleted, groupID)
		return nil
	})
}

// ToggleSeparatorPage flips whether a section is preceded by a divider page
// and returns the new value.
func (m *Model) ToggleSeparatorPage(groupID string) (bool, error) {
	var value bool
	err := m.Update(func(tx *Tx) error {
		g, err := tx.section(groupID)
		if err != nil {
			return err
		}
		g.IncludeSeparatorPage = !g.IncludeSeparatorPage
		value = g.IncludeSeparatorPage
		tx.record(ChangeGroupUpdated, groupID)
		return nil
	})
	return value, err
}

// SetExpanded sets the cosmetic expand/collapse flag of a group.
func (m *Model) SetExpanded(groupID string, expanded bool) error {
	return m.Update(func(tx *Tx) error {
		g, err := tx.group(groupID)
		if err != nil {
			return err
		}
		g.Expanded = expanded
		tx.record(ChangeGroupUpdated, groupID)
		return nil
	})
}

// MoveGroup moves the group at index from to index to.
func (m *Model) MoveGroup(from, to int) error {
	return m.Update(func(tx *Tx) error {
		return tx.MoveGroup(from, to)
	})
}

// MovePage moves the page at index from to index to within one group.
func (m *Model) MovePage(groupID string, from, to int) error {
	return m.Update(func(tx *Tx) error {
		return tx.MovePage(groupID, from, to)
	})
}

// Groups returns a copy of every group in order.
func (m *Model) Groups() []Group {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Group, len(m.groups))
	for i, g := range m.groups {
		out[i] = g.clone()
	}
	return out
}

// Group returns a copy of one group.
func (m *Model) Group(groupID string) (Group, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.groups {
		if g.ID == groupID {
			return g.clone(), true
		}
	}
	return Group{}, false
}

// Page returns one page of a group.
func (m *Model) Page(groupID, pageID string) (*Page, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.groups {
		if g.ID != groupID {
			continue
		}
		for _, p := range g.Pages {
			if p.ID == pageID {
				return p, true
			}
		}
	}
	return nil, false
}

// Len returns the number of groups.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.groups)
}

// PageCount returns the number of pages in a group, or 0 if it does not exist.
func (m *Model) PageCount(groupID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.groups {
		if g.ID == groupID {
			return len(g.Pages)
		}
	}
	return 0
}

// TotalPages returns the number of source pages across all groups.
// Generated cover and divider pages are not counted.
func (m *Model) TotalPages() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pageIDs)
}

// Snapshot captures the current group order and page order.
func (m *Model) Snapshot() Snapshot {
	return Snapshot{Groups: m.Groups()}
}

func (m *Model) addGroup(g *Group) Group {
	var out Group
	_ = m.Update(func(tx *Tx) error {
		g.ID = uuid.New().String()
		m.groups = append(m.groups, g)
		tx.record(ChangeGroupAdded, g.ID)
		out = g.clone()
		return nil
	})
	return out
}
