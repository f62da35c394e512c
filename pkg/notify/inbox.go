package notify

import (
	"sync"

	"github.com/otherjamesbrown/minuteme-cli/client"
)

// Inbox holds the most recently fetched notifications.
type Inbox struct {
	mu    sync.RWMutex
	items []client.Notification
}

// Set replaces the list.
func (i *Inbox) Set(items []client.Notification) {
	cp := append([]client.Notification(nil), items...)
	i.mu.Lock()
	i.items = cp
	i.mu.Unlock()
}

// Items returns a copy of the list.
func (i *Inbox) Items() []client.Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]client.Notification(nil), i.items...)
}

// UnreadCount counts unread notifications. It is never negative.
func (i *Inbox) UnreadCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n := 0
	for _, it := range i.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// MarkRead flags one notification as read. It reports whether id was found unread.
func (i *Inbox) MarkRead(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for idx := range i.items {
		if i.items[idx].ID == id {
			wasUnread := !i.items[idx].Read
			i.items[idx].Read = true
			return wasUnread
		}
	}
	return false
}

// MarkAllRead flags every notification as read.
func (i *Inbox) MarkAllRead() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for idx := range i.items {
		i.items[idx].Read = true
	}
}
