package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotificationListEnvelopes(t *testing.T) {
	records := `[
		{"id":"n1","title":"Dividend paid","message":"Your payout is in","read":true,"createdAt":"2026-08-01T10:00:00Z"},
		{"id":"n2","title":"New property","message":"A listing went live","read":false,"createdAt":"2026-08-02T10:00:00Z"}
	]`

	tests := []struct {
		name string
		body string
	}{
		{"data.notifications", `{"data":{"notifications":` + records + `}}`},
		{"data array", `{"data":` + records + `}`},
		{"notifications", `{"notifications":` + records + `}`},
		{"bare array", records},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNotificationList([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "n1", got[0].ID)
			assert.True(t, got[0].Read)
			assert.Equal(t, "n2", got[1].ID)
			assert.False(t, got[1].Read)
			assert.Equal(t, time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC), got[1].CreatedAt)
		})
	}
}

func TestParseNotificationListReadFlagTolerance(t *testing.T) {
	body := `[
		{"id":"a","read":true},
		{"id":"b","read":false},
		{"id":"c","read":null},
		{"id":"d"}
	]`
	got, err := ParseNotificationList([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.True(t, got[0].Read)
	for _, n := range got[1:] {
		assert.False(t, n.Read, "record %s should count as unread", n.ID)
	}
}

func TestParseNotificationListFieldFallbacks(t *testing.T) {
	body := `[{"_id":"abc123","title":"KYC update","body":"Your documents were approved","read":false}]`
	got, err := ParseNotificationList([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "abc123", got[0].ID)
	assert.Equal(t, "Your documents were approved", got[0].Message)
}

func TestParseNotificationListTimestamps(t *testing.T) {
	want := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		body string
	}{
		{"rfc3339", `[{"id":"a","createdAt":"2026-08-01T10:30:00Z"}]`},
		{"rfc3339 nano", `[{"id":"a","createdAt":"2026-08-01T10:30:00.000000000Z"}]`},
		{"epoch millis", `[{"id":"a","createdAt":1785580200000}]`},
		{"epoch seconds", `[{"id":"a","createdAt":1785580200}]`},
		{"snake case", `[{"id":"a","created_at":"2026-08-01T10:30:00Z"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNotificationList([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.True(t, got[0].CreatedAt.Equal(want), "got %s", got[0].CreatedAt)
		})
	}
}

func TestParseNotificationListData(t *testing.T) {
	body := `[{"id":"a","data":{"type":"investment","url":"/properties/p9","propertyId":"p9"}}]`
	got, err := ParseNotificationList([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, got[0].Data)
	assert.Equal(t, "investment", got[0].Data.Type)
	assert.Equal(t, "p9", got[0].Data.PropertyID)
}

func TestParseNotificationListEdgeCases(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		got, err := ParseNotificationList(nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("null body", func(t *testing.T) {
		got, err := ParseNotificationList([]byte("null"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty envelope", func(t *testing.T) {
		got, err := ParseNotificationList([]byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseNotificationList([]byte(`{"data":`))
		assert.Error(t, err)
	})

	t.Run("non-object entry", func(t *testing.T) {
		_, err := ParseNotificationList([]byte(`[42]`))
		assert.Error(t, err)
	})
}
