package web

import (
	"net/http"

	"evcal/internal/model"
)

type notificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
	Total         int                  `json:"total"`
}

// handleNotifications returns the most recent notifications, oldest first.
//
// GET /api/notifications?recent=N (default: the configured display limit)
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	n := parseIntDefault(r.URL.Query().Get("recent"), 0)
	writeJSON(w, http.StatusOK, notificationsResponse{
		Notifications: s.d.Queue.Recent(n),
		Unread:        s.d.Queue.Unread(),
		Total:         s.d.Queue.Len(),
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if !s.d.Queue.MarkRead(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	s.syncUnread()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if !s.d.Queue.Dismiss(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	s.syncUnread()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) syncUnread() {
	if s.d.Metrics != nil {
		s.d.Metrics.Unread(s.d.Queue.Unread())
	}
}
