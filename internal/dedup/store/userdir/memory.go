package userdir

import (
	"context"
	"sync"

	id "caseguard/pkg/domain"
)

type InMemory struct {
	mu    sync.RWMutex
	names map[id.UserID]string
}

func NewInMemory() *InMemory {
	return &InMemory{names: make(map[id.UserID]string)}
}

func (d *InMemory) Put(userID id.UserID, displayName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[userID] = displayName
}

func (d *InMemory) DisplayNames(_ context.Context, userIDs []id.UserID) (map[id.UserID]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[id.UserID]string, len(userIDs))
	for _, u := range userIDs {
		if name, ok := d.names[u]; ok {
			out[u] = name
		}
	}
	return out, nil
}
