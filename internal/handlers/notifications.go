package handlers

import (
	"log"
	"net/http"
	"strings"

	"estate-notify-go/internal/models"
	"estate-notify-go/internal/reconcile"
)

// NotificationsHandler returns the feed newest first plus the unread
// summary. A fetch failure degrades to an empty, retryable feed rather
// than an error page.
func (h *Handler) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := h.Center.Notifications(r.Context())
	if err != nil {
		log.Printf("Failed to fetch notifications: %v", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"notifications": []models.Notification{},
			"unreadCount":   0,
			"badge":         reconcile.Badge(0),
			"stale":         true,
		})
		return
	}

	p := reconcile.Split(records)
	count := len(p.Unread)
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": p.All,
		"unreadCount":   count,
		"badge":         reconcile.Badge(count),
	})
}

// MarkAllReadHandler acknowledges every notification in one backend call.
func (h *Handler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.Center.MarkAllRead(r.Context()); err != nil {
		log.Printf("Failed to mark all read: %v", err)
		http.Error(w, "Failed to mark all read", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// MarkReadHandler acknowledges one notification. Route shape:
// POST /api/notifications/{id}/read
func (h *Handler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/notifications/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "read" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if err := h.Center.MarkRead(r.Context(), parts[0]); err != nil {
		log.Printf("Failed to mark %s read: %v", parts[0], err)
		http.Error(w, "Failed to mark read", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
