// Package reorder applies drag-and-drop gestures to a document model.
//
// Group order and the page order inside a group follow the same rule: on
// drop, when the target differs from the dragged item and both live in the
// same ordered list, the dragged item is removed from its index and inserted
// at the target's index. Anything else is a no-op. Pages never move between
// groups.
package reorder

import (
	"github.com/jackzampolin/dossier/internal/document"
)

// DropGroup moves the dragged group to the target group's position.
// It reports whether the model changed.
func DropGroup(m *document.Model, draggedID, targetID string) bool {
	if draggedID == "" || targetID == "" || draggedID == targetID {
		return false
	}

	moved := false
	_ = m.Update(func(tx *document.Tx) error {
		from := tx.GroupIndex(draggedID)
		to := tx.GroupIndex(targetID)
		if from < 0 || to < 0 {
			return nil
		}
		if err := tx.MoveGroup(from, to); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved
}

// DropPage moves the dragged page to the target page's position within
// groupID. A target outside the group is a no-op.
func DropPage(m *document.Model, groupID, draggedID, targetID string) bool {
	if draggedID == "" || targetID == "" || draggedID == targetID {
		return false
	}

	moved := false
	_ = m.Update(func(tx *document.Tx) error {
		from := tx.PageIndex(groupID, draggedID)
		to := tx.PageIndex(groupID, targetID)
		if from < 0 || to < 0 {
			return nil
		}
		if err := tx.MovePage(groupID, from, to); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved
}
