package notify

import (
	"evcal/internal/model"
	"evcal/internal/store"
)

// ChangeNotice builds the notice shown after an edit, move or delete. Adds
// and whole-document replaces are silent.
func ChangeNotice(c store.Change) (model.Notification, bool) {
	switch c.Kind {
	case store.ChangeUpdate, store.ChangeMove:
		return model.Notification{
			Title:   "Event Updated",
			Message: c.Event.Title + " has been updated",
			Type:    model.NotifyUpdate,
		}, true
	case store.ChangeDelete:
		return model.Notification{
			Title:   "Event Deleted",
			Message: c.Event.Title + " has been deleted",
			Type:    model.NotifyDelete,
		}, true
	}
	return model.Notification{}, false
}

// OnChange is a store change hook that pushes ChangeNotice results.
func (q *Queue) OnChange(c store.Change) {
	if n, ok := ChangeNotice(c); ok {
		q.Push(n)
	}
}
