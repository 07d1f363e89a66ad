package reorder

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/jackzampolin/dossier/internal/document"
)

// DefaultActivationDistance is how far the pointer must travel, in pixels,
// before a press on a draggable item becomes a drag. Shorter movements are
// clicks on controls inside the item.
const DefaultActivationDistance = 8.0

var (
	ErrDragInProgress = errors.New("another drag is already active")
	ErrNoDrag         = errors.New("no active drag")
	ErrUnknownKind    = errors.New("unknown item kind")
)

// Kind is the kind of item being dragged.
type Kind string

const (
	KindGroup Kind = "group"
	KindPage  Kind = "page"
)

// Item identifies a draggable item.
type Item struct {
	Kind    Kind   `json:"kind"`
	GroupID string `json:"group_id"`          // owning group for pages; the group itself for groups
	PageID  string `json:"page_id,omitempty"` // pages only
}

func (i Item) id() string {
	if i.Kind == KindPage {
		return i.PageID
	}
	return i.GroupID
}

// Point is a pointer position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type drag struct {
	item      Item
	origin    Point
	activated bool
}

// Tracker follows at most one drag gesture at a time.
type Tracker struct {
	mu        sync.Mutex
	model     *document.Model
	threshold float64
	active    *drag
}

// NewTracker creates a tracker for m. A threshold <= 0 uses
// DefaultActivationDistance.
func NewTracker(m *document.Model, threshold float64) *Tracker {
	if threshold <= 0 {
		threshold = DefaultActivationDistance
	}
	return &Tracker{model: m, threshold: threshold}
}

// Begin records a press on item at p. The item must exist in the model.
func (t *Tracker) Begin(item Item, p Point) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		return ErrDragInProgress
	}
	switch item.Kind {
	case KindGroup:
		if _, ok := t.model.Group(item.GroupID); !ok {
			return fmt.Errorf("%w: %s", document.ErrGroupNotFound, item.GroupID)
		}
	case KindPage:
		if _, ok := t.model.Page(item.GroupID, item.PageID); !ok {
			return fmt.Errorf("%w: %s", document.ErrPageNotFound, item.PageID)
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownKind, item.Kind)
	}
	t.active = &drag{item: item, origin: p}
	return nil
}

// Move updates the pointer position and reports whether the gesture is
// now a recognized drag.
func (t *Tracker) Move(p Point) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return false, ErrNoDrag
	}
	if !t.active.activated {
		dist := math.Hypot(p.X-t.active.origin.X, p.Y-t.active.origin.Y)
		t.active.activated = dist >= t.threshold
	}
	return t.active.activated, nil
}

// Drop ends the gesture over the item with targetID (empty when released
// outside any valid target) and applies the drop rule. It reports whether
// the model changed. A gesture that never passed the activation threshold
// is a click and changes nothing.
func (t *Tracker) Drop(targetID string) (bool, error) {
	t.mu.Lock()
	d := t.active
	t.active = nil
	t.mu.Unlock()

	if d == nil {
		return false, ErrNoDrag
	}
	if !d.activated || targetID == "" {
		return false, nil
	}

	switch d.item.Kind {
	case KindGroup:
		return DropGroup(t.model, d.item.id(), targetID), nil
	case KindPage:
		return DropPage(t.model, d.item.GroupID, d.item.id(), targetID), nil
	default:
		return false, nil
	}
}

// Cancel abandons the active gesture, if any.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	t.active = nil
	t.mu.Unlock()
}

// Active returns the item being dragged, if any.
func (t *Tracker) Active() (Item, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return Item{}, false
	}
	return t.active.item, true
}
