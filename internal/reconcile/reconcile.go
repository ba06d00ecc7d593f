// Package reconcile derives display state from the polled notification
// feed and keeps it in step with the backend through the query cache.
package reconcile

import (
	"sort"
	"strconv"

	"estate-notify-go/internal/models"
)

// Partition is a fetched list split for display: All is every record
// ordered newest first, Unread is the subset still awaiting a read.
type Partition struct {
	All    []models.Notification
	Unread []models.Notification
}

// Split partitions records by read state. Ordering is resolved here, at
// selection time rather than fetch time, so freshly polled data re-sorts
// deterministically. The read flag is the sole authority: anything the
// backend didn't mark read counts as unread.
func Split(records []models.Notification) Partition {
	all := make([]models.Notification, len(records))
	copy(all, records)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	var unread []models.Notification
	for _, n := range all {
		if !n.Read {
			unread = append(unread, n)
		}
	}
	return Partition{All: all, Unread: unread}
}

// UnreadCount counts records whose read flag is not set.
func UnreadCount(records []models.Notification) int {
	count := 0
	for _, n := range records {
		if !n.Read {
			count++
		}
	}
	return count
}

const badgeCap = 99

// Badge renders an unread count for compact display: exact up to 99, then
// "99+". The underlying count stays exact.
func Badge(count int) string {
	if count > badgeCap {
		return "99+"
	}
	return strconv.Itoa(count)
}
