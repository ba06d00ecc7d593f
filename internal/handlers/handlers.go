package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"estate-notify-go/internal/platform"
	"estate-notify-go/internal/pushclient"
	"estate-notify-go/internal/reconcile"
)

// Handler bundles the push flow, the notification center, and the platform
// surfaces behind the local console endpoints.
type Handler struct {
	Flow     *pushclient.Flow
	Center   *reconcile.Center
	Platform platform.Platform
}

func NewHandler(flow *pushclient.Flow, center *reconcile.Center, p platform.Platform) *Handler {
	return &Handler{
		Flow:     flow,
		Center:   center,
		Platform: p,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Failed to encode response:", err)
	}
}
