// Package appstate is the explicit client-side state store: session tokens, the
// signed-in user, cached projects and other small values the dashboard keeps
// between requests. Writes are visible to all readers immediately.
package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

const (
	KeyToken          = "token"
	KeyRefreshToken   = "refreshToken"
	KeyUser           = "user"
	KeyCachedProjects = "cached_projects"
	KeySidebarIsOpen  = "sidebarIsOpen"
	KeySentEmails     = "sentEmails"

	teamMembersPrefix = "team_members:"
)

// TeamMembersKey is the key holding manually added members of one project.
func TeamMembersKey(projectID string) string {
	return teamMembersPrefix + projectID
}

// ChangeFunc observes a write. deleted is true when the key was removed.
type ChangeFunc func(key, value string, deleted bool)

// UpdateFunc computes the next value of a key from its current one. Returning
// ErrSkipUpdate leaves the key untouched.
type UpdateFunc func(current string, ok bool) (string, error)

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Update is an atomic read-modify-write of one key. fn may run more than once.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Subscribe(key string, fn ChangeFunc) (unsubscribe func())
}

// GetJSON decodes the value under key into T. A missing key yields the zero value and false.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, false, fmt.Errorf("appstate: decode %s: %w", key, err)
	}
	return out, true, nil
}

func SetJSON[T any](ctx context.Context, s Store, key string, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("appstate: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}

// UpdateJSON is Update over a JSON encoded value.
func UpdateJSON[T any](ctx context.Context, s Store, key string, fn func(current T, ok bool) (T, error)) error {
	return s.Update(ctx, key, func(raw string, ok bool) (string, error) {
		var current T
		if ok {
			if err := json.Unmarshal([]byte(raw), &current); err != nil {
				return "", fmt.Errorf("appstate: decode %s: %w", key, err)
			}
		}
		next, err := fn(current, ok)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(next)
		if err != nil {
			return "", fmt.Errorf("appstate: encode %s: %w", key, err)
		}
		return string(b), nil
	})
}

var (
	ErrEmptyKey   = errors.New("appstate: empty key")
	ErrSkipUpdate = errors.New("appstate: skip update")
)

type watcher struct {
	id uint64
	fn ChangeFunc
}

// watchers fans a write out to key subscribers synchronously, after the write.
type watchers struct {
	mu     sync.RWMutex
	nextID uint64
	byKey  map[string][]watcher
}

func (w *watchers) subscribe(key string, fn ChangeFunc) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.byKey == nil {
		w.byKey = make(map[string][]watcher)
	}
	w.nextID++
	id := w.nextID
	w.byKey[key] = append(w.byKey[key], watcher{id: id, fn: fn})
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		list := w.byKey[key]
		for i, item := range list {
			if item.id == id {
				w.byKey[key] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (w *watchers) notify(key, value string, deleted bool) {
	w.mu.RLock()
	list := append([]watcher(nil), w.byKey[key]...)
	w.mu.RUnlock()
	for _, item := range list {
		item.fn(key, value, deleted)
	}
}
