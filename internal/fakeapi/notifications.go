// ABOUTME: Notification handlers of the fake backend
// ABOUTME: Lists return a bare array, as the platform does for this resource

package fakeapi

import (
	"net/http"
	"strings"

	"github.com/markalston/placement-cli/internal/model"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	filter := r.URL.Query().Get("is_read")

	items := []model.Notification{}
	s.mu.Lock()
	for _, n := range s.notifications {
		if n.UserID != me.ID {
			continue
		}
		if filter != "" && n.IsRead != strings.EqualFold(filter, "true") {
			continue
		}
		items = append(items, n.Notification)
	}
	s.mu.Unlock()

	newestFirst(items, func(n model.Notification) string { return n.CreatedAt }, func(n model.Notification) int { return n.ID })
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	count := 0
	s.mu.Lock()
	for _, n := range s.notifications {
		if n.UserID == me.ID && !n.IsRead {
			count++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// ownNotification must be called with mu held.
func (s *Server) ownNotification(r *http.Request) (*notificationRow, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		return nil, false
	}
	n, ok := s.notifications[id]
	if !ok || n.UserID != caller(r).ID {
		return nil, false
	}
	return n, true
}

func (s *Server) handleGetNotification(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ownNotification(r)
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, n.Notification)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ownNotification(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Notification non trouvée")
		return
	}
	n.IsRead = true
	writeJSON(w, http.StatusOK, n.Notification)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	s.mu.Lock()
	for _, n := range s.notifications {
		if n.UserID == me.ID {
			n.IsRead = true
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Toutes les notifications ont été marquées comme lues"})
}
