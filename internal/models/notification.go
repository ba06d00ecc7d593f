package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// NotificationData is the optional deep-link payload the backend attaches
// to a notification.
type NotificationData struct {
	Type       string `json:"type,omitempty"`
	URL        string `json:"url,omitempty"`
	PropertyID string `json:"propertyId,omitempty"`
}

// Notification is the normalized record the rest of the client works with.
// The backend serves several envelope and field spellings; all of that
// tolerance lives in ParseNotificationList, nowhere else.
type Notification struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"createdAt"`
	Data      *NotificationData `json:"data,omitempty"`
}

// wireNotification accepts the field variants seen across backend
// deployments. A missing or null read flag means unread.
type wireNotification struct {
	ID           string            `json:"id"`
	MongoID      string            `json:"_id"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	Body         string            `json:"body"`
	Read         *bool             `json:"read"`
	CreatedAt    json.RawMessage   `json:"createdAt"`
	CreatedAtAlt json.RawMessage   `json:"created_at"`
	Data         *NotificationData `json:"data"`
}

// ParseNotificationList decodes a notification collection from any of the
// envelope shapes the backend is known to return:
//
//	{"data":{"notifications":[...]}}
//	{"data":[...]}
//	{"notifications":[...]}
//	[...]
func ParseNotificationList(raw []byte) ([]Notification, error) {
	items, err := unwrapEnvelope(raw)
	if err != nil {
		return nil, err
	}

	records := make([]Notification, 0, len(items))
	for _, item := range items {
		var w wireNotification
		if err := json.Unmarshal(item, &w); err != nil {
			return nil, errors.New("models: notification list contains a non-object entry")
		}
		records = append(records, w.normalize())
	}
	return records, nil
}

func (w wireNotification) normalize() Notification {
	n := Notification{
		ID:      w.ID,
		Title:   w.Title,
		Message: w.Message,
		Data:    w.Data,
	}
	if n.ID == "" {
		n.ID = w.MongoID
	}
	if n.Message == "" {
		n.Message = w.Body
	}
	if w.Read != nil {
		n.Read = *w.Read
	}
	if t, ok := parseWireTime(w.CreatedAt); ok {
		n.CreatedAt = t
	} else if t, ok := parseWireTime(w.CreatedAtAlt); ok {
		n.CreatedAt = t
	}
	return n
}

func unwrapEnvelope(raw []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	// Bare array.
	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.New("models: malformed notification array")
		}
		return items, nil
	}

	var env struct {
		Data          json.RawMessage `json:"data"`
		Notifications []json.RawMessage `json:"notifications"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.New("models: malformed notification envelope")
	}
	if env.Notifications != nil {
		return env.Notifications, nil
	}
	if len(env.Data) == 0 {
		return nil, nil
	}

	inner := strings.TrimSpace(string(env.Data))
	if strings.HasPrefix(inner, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, errors.New("models: malformed notification data array")
		}
		return items, nil
	}

	var nested struct {
		Notifications []json.RawMessage `json:"notifications"`
	}
	if err := json.Unmarshal(env.Data, &nested); err != nil {
		return nil, errors.New("models: malformed nested notification envelope")
	}
	return nested.Notifications, nil
}

// parseWireTime accepts RFC3339 strings (with or without sub-second
// precision) and unix epochs in seconds or milliseconds.
func parseWireTime(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil && num > 0 {
		// Anything past the year 33658 in seconds is an epoch in millis.
		if num > 1e12 {
			return time.UnixMilli(int64(num)).UTC(), true
		}
		return time.Unix(int64(num), 0).UTC(), true
	}
	return time.Time{}, false
}
