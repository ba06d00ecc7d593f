package handlers

import (
	"errors"
	"log"
	"net/http"

	"estate-notify-go/internal/metrics"
	"estate-notify-go/internal/platform"
	"estate-notify-go/internal/pushclient"
)

// ActivatePushHandler runs the subscription activation flow. Unavailability
// (no capability, no key, denied permission) is a 200 with a reason, not an
// error: push is a best-effort enhancement and must never block the rest of
// the console.
func (h *Handler) ActivatePushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	out := h.Flow.Activate(r.Context())
	metrics.Activations.WithLabelValues(out.Status.String()).Inc()

	switch out.Status {
	case pushclient.StatusRegistered:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       out.Status.String(),
			"subscription": out.Payload,
		})
	case pushclient.StatusUnavailable:
		writeJSON(w, http.StatusOK, map[string]any{
			"status": out.Status.String(),
			"reason": out.Reason,
			"hint":   unavailableHint(out.Reason),
		})
	default:
		log.Printf("Push activation failed: %v", out.Err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": out.Status.String(),
			"error":  out.Err.Error(),
		})
	}
}

func unavailableHint(reason string) string {
	if reason == pushclient.ReasonPermissionDenied {
		return "notifications were denied for this profile; reset the permission to subscribe"
	}
	return ""
}

// PushStatusHandler reports the current permission state and subscription,
// without triggering any prompt or subscribe.
func (h *Handler) PushStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	perms := h.Platform.Permissions()
	sw := h.Platform.ServiceWorker()
	if perms == nil || sw == nil {
		writeJSON(w, http.StatusOK, map[string]any{"supported": false})
		return
	}

	state, err := perms.State(ctx)
	if err != nil {
		log.Printf("Failed to read permission state: %v", err)
		http.Error(w, "Failed to read push status", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"supported":  true,
		"permission": state,
		"subscribed": false,
	}

	reg, err := sw.Ready(ctx)
	if err == nil {
		resp["workerScript"] = reg.ScriptPath()
		resp["workerScope"] = reg.Scope()
		sub, err := reg.Push().Subscription(ctx)
		switch {
		case err == nil:
			resp["subscribed"] = true
			resp["endpoint"] = sub.Endpoint
		case !errors.Is(err, platform.ErrNoSubscription):
			log.Printf("Failed to read subscription: %v", err)
		}
	} else if !errors.Is(err, platform.ErrNoRegistration) {
		log.Printf("Failed to read registration: %v", err)
	}

	writeJSON(w, http.StatusOK, resp)
}
