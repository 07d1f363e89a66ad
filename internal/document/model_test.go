package document

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func newPages(src *Source, n int) []*Page {
	pages := make([]*Page, n)
	for i := range pages {
		pages[i] = NewPage(src, i+1)
	}
	return pages
}

func groupTitles(m *Model) []string {
	var titles []string
	for _, g := range m.Groups() {
		titles = append(titles, g.Title)
	}
	return titles
}

func pageNumbers(g Group) []int {
	var nums []int
	for _, p := range g.Pages {
		nums = append(nums, p.Number)
	}
	return nums
}

func TestMove(t *testing.T) {
	tests := []struct {
		from, to int
		want     []string
	}{
		{0, 3, []string{"b", "c", "d", "a", "e"}},
		{3, 0, []string{"d", "a", "b", "c", "e"}},
		{1, 2, []string{"a", "c", "b", "d", "e"}},
		{4, 1, []string{"a", "e", "b", "c", "d"}},
		{2, 2, []string{"a", "b", "c", "d", "e"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d->%d", tt.from, tt.to), func(t *testing.T) {
			s := []string{"a", "b", "c", "d", "e"}
			Move(s, tt.from, tt.to)
			if !reflect.DeepEqual(s, tt.want) {
				t.Errorf("got %v, want %v", s, tt.want)
			}
		})
	}
}

// Moving i -> j must equal removing element i and inserting it at j.
func TestMove_MatchesRemoveInsert(t *testing.T) {
	const n = 6
	for from := 0; from < n; from++ {
		for to := 0; to < n; to++ {
			s := []int{0, 1, 2, 3, 4, 5}
			Move(s, from, to)

			ref := []int{0, 1, 2, 3, 4, 5}
			item := ref[from]
			ref = append(ref[:from], ref[from+1:]...)
			ref = append(ref[:to], append([]int{item}, ref[to:]...)...)

			if !reflect.DeepEqual(s, ref) {
				t.Errorf("Move(%d, %d) = %v, want %v", from, to, s, ref)
			}
		}
	}
}

func TestModel_AddGroups(t *testing.T) {
	m := NewModel()
	a := m.AddSection("A", true)
	sep := m.AddSeparator("Divider")
	s := m.AddStaticSection("Static", false)

	if got := groupTitles(m); !reflect.DeepEqual(got, []string{"A", "Divider", "Static"}) {
		t.Errorf("unexpected group order %v", got)
	}
	if a.ID == "" || sep.ID == "" || s.ID == "" {
		t.Error("expected non-empty group ids")
	}
	if !a.IncludeSeparatorPage || a.IsStatic || a.Type != TypeSection {
		t.Errorf("unexpected section flags: %+v", a)
	}
	if sep.Type != TypeSeparator {
		t.Errorf("expected separator type, got %s", sep.Type)
	}
	if !s.IsStatic {
		t.Error("expected static section")
	}
}

func TestModel_AppendPages(t *testing.T) {
	m := NewModel()
	g := m.AddSection("A", false)
	src := NewSource("a.pdf", []byte("%PDF"))

	if err := m.AppendPages(g.ID, newPages(src, 3)); err != nil {
		t.Fatalf("AppendPages() error = %v", err)
	}

	got, _ := m.Group(g.ID)
	if !reflect.DeepEqual(pageNumbers(got), []int{1, 2, 3}) {
		t.Errorf("unexpected page order %v", pageNumbers(got))
	}
	for _, p := range got.Pages {
		if p.GroupID != g.ID {
			t.Errorf("page %s has group %s, want %s", p.ID, p.GroupID, g.ID)
		}
	}

	t.Run("separator refuses pages", func(t *testing.T) {
		sep := m.AddSeparator("S")
		err := m.AppendPages(sep.ID, newPages(src, 1))
		if !errors.Is(err, ErrNotSection) {
			t.Errorf("expected ErrNotSection, got %v", err)
		}
		if m.PageCount(sep.ID) != 0 {
			t.Error("separator must not hold pages")
		}
	})

	t.Run("duplicate page ids rejected atomically", func(t *testing.T) {
		dup := []*Page{NewPage(src, 1), got.Pages[0]}
		err := m.AppendPages(g.ID, dup)
		if !errors.Is(err, ErrDuplicatePage) {
			t.Errorf("expected ErrDuplicatePage, got %v", err)
		}
		if m.PageCount(g.ID) != 3 {
			t.Errorf("expected 3 pages after rejected append, got %d", m.PageCount(g.ID))
		}
	})

	t.Run("unknown group", func(t *testing.T) {
		err := m.AppendPages("missing", newPages(src, 1))
		if !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("expected ErrGroupNotFound, got %v", err)
		}
	})
}

func TestModel_DeleteGroup(t *testing.T) {
	m := NewModel()
	a := m.AddSection("A", false)
	s := m.AddStaticSection("Static", false)
	src := NewSource("a.pdf", []byte("%PDF"))
	_ = m.AppendPages(a.ID, newPages(src, 2))

	t.Run("static group refused", func(t *testing.T) {
		before := m.Len()
		err := m.DeleteGroup(s.ID)
		if !errors.Is(err, ErrStaticGroup) {
			t.Errorf("expected ErrStaticGroup, got %v", err)
		}
		if m.Len() != before {
			t.Errorf("group count changed from %d to %d", before, m.Len())
		}
	})

	t.Run("regular group deleted with pages", func(t *testing.T) {
		if err := m.DeleteGroup(a.ID); err != nil {
			t.Fatalf("DeleteGroup() error = %v", err)
		}
		if m.Len() != 1 {
			t.Errorf("expected 1 group, got %d", m.Len())
		}
		if m.TotalPages() != 0 {
			t.Errorf("expected 0 total pages, got %d", m.TotalPages())
		}
	})

	t.Run("missing group", func(t *testing.T) {
		if err := m.DeleteGroup("missing"); !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("expected ErrGroupNotFound, got %v", err)
		}
	})
}

func TestModel_DeletePage(t *testing.T) {
	m := NewModel()
	g := m.AddSection("A", false)
	src := NewSource("a.pdf", []byte("%PDF"))
	pages := newPages(src, 3)
	_ = m.AppendPages(g.ID, pages)

	if err := m.DeletePage(g.ID, pages[1].ID); err != nil {
		t.Fatalf("DeletePage() error = %v", err)
	}
	got, _ := m.Group(g.ID)
	if !reflect.DeepEqual(pageNumbers(got), []int{1, 3}) {
		t.Errorf("unexpected pages after delete %v", pageNumbers(got))
	}
	if err := m.DeletePage(g.ID, pages[1].ID); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("expected ErrPageNotFound, got %v", err)
	}

	// The deleted id is free again once removed from the model.
	if err := m.AppendPages(g.ID, []*Page{pages[1]}); err != nil {
		t.Errorf("re-adding deleted page: %v", err)
	}
}

func TestModel_ToggleSeparatorPage(t *testing.T) {
	m := NewModel()
	g := m.AddSection("A", false)
	sep := m.AddSeparator("S")

	v, err := m.ToggleSeparatorPage(g.ID)
	if err != nil || !v {
		t.Errorf("first toggle = %v, %v; want true, nil", v, err)
	}
	v, err = m.ToggleSeparatorPage(g.ID)
	if err != nil || v {
		t.Errorf("second toggle = %v, %v; want false, nil", v, err)
	}
	if _, err := m.ToggleSeparatorPage(sep.ID); !errors.Is(err, ErrNotSection) {
		t.Errorf("expected ErrNotSection for separator, got %v", err)
	}
}

func TestModel_MoveGroup(t *testing.T) {
	m := NewModel()
	for _, title := range []string{"A", "B", "C", "D"} {
		m.AddSection(title, false)
	}

	if err := m.MoveGroup(0, 2); err != nil {
		t.Fatalf("MoveGroup() error = %v", err)
	}
	if got := groupTitles(m); !reflect.DeepEqual(got, []string{"B", "C", "A", "D"}) {
		t.Errorf("unexpected order %v", got)
	}

	if err := m.MoveGroup(0, 4); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if m.Len() != 4 {
		t.Errorf("length changed to %d", m.Len())
	}
}

func TestModel_MovePage(t *testing.T) {
	m := NewModel()
	g := m.AddSection("A", false)
	src := NewSource("a.pdf", []byte("%PDF"))
	_ = m.AppendPages(g.ID, newPages(src, 4))

	if err := m.MovePage(g.ID, 3, 0); err != nil {
		t.Fatalf("MovePage() error = %v", err)
	}
	got, _ := m.Group(g.ID)
	if !reflect.DeepEqual(pageNumbers(got), []int{4, 1, 2, 3}) {
		t.Errorf("unexpected order %v", pageNumbers(got))
	}

	if err := m.MovePage(g.ID, -1, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestModel_OnChange(t *testing.T) {
	m := NewModel()
	var kinds []ChangeKind
	m.OnChange(func(c Change) {
		// Listeners run outside the lock and may read the model.
		_ = m.Len()
		kinds = append(kinds, c.Kind)
	})

	g := m.AddSection("A", false)
	_ = m.AppendPages(g.ID, newPages(NewSource("a.pdf", nil), 1))
	_ = m.DeleteGroup("missing")

	want := []ChangeKind{ChangeGroupAdded, ChangePagesAdded}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("got changes %v, want %v", kinds, want)
	}
}

func TestModel_SnapshotIsolation(t *testing.T) {
	m := NewModel()
	g := m.AddSection("A", true)
	_ = m.AppendPages(g.ID, newPages(NewSource("a.pdf", nil), 2))
	m.AddSeparator("S")

	snap := m.Snapshot()
	_ = m.MovePage(g.ID, 0, 1)
	_ = m.MoveGroup(0, 1)

	if snap.Groups[0].Title != "A" {
		t.Errorf("snapshot group order changed: %s", snap.Groups[0].Title)
	}
	if !reflect.DeepEqual(pageNumbers(snap.Groups[0]), []int{1, 2}) {
		t.Errorf("snapshot page order changed: %v", pageNumbers(snap.Groups[0]))
	}
	if got := snap.OutputPages(true); got != 5 {
		t.Errorf("OutputPages(true) = %d, want 5", got)
	}
	if got := snap.OutputPages(false); got != 4 {
		t.Errorf("OutputPages(false) = %d, want 4", got)
	}
}

func TestModel_ConcurrentAccess(t *testing.T) {
	m := NewModel()
	g := m.AddSection("A", false)
	src := NewSource("a.pdf", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.AppendPages(g.ID, newPages(src, 1))
		}()
		go func() {
			defer wg.Done()
			_ = m.TotalPages()
			_ = m.Groups()
		}()
	}
	wg.Wait()

	if m.TotalPages() != 20 {
		t.Errorf("expected 20 pages, got %d", m.TotalPages())
	}
}
