package document

// Snapshot is a point-in-time copy of a Model's group and page order.
// Exports and uploads work from a snapshot so concurrent edits cannot
// change their output mid-flight.
type Snapshot struct {
	Groups []Group
}

// Sections returns only the section groups, in order.
func (s Snapshot) Sections() []Group {
	var out []Group
	for _, g := range s.Groups {
		if g.IsSection() {
			out = append(out, g)
		}
	}
	return out
}

// OutputPages returns the number of pages a full export of the snapshot
// produces, including the optional cover and every divider page.
func (s Snapshot) OutputPages(cover bool) int {
	n := 0
	if cover {
		n++
	}
	for _, g := range s.Groups {
		switch g.Type {
		case TypeSeparator:
			n++
		case TypeSection:
			if g.IncludeSeparatorPage {
				n++
			}
			n += len(g.Pages)
		}
	}
	return n
}
