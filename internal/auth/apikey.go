// Package auth guards the websocket endpoint with static API keys.
package auth

import (
	"strings"
	"sync"
)

// APIKeyAuth provides a simple API key authentication
type APIKeyAuth struct {
	mu        sync.RWMutex
	validKeys map[string]struct{}
}

// NewAPIKeyAuth creates the key set. Keys are trimmed and blanks dropped.
func NewAPIKeyAuth(keys []string) *APIKeyAuth {
	a := &APIKeyAuth{validKeys: make(map[string]struct{}, len(keys))}
	for _, key := range keys {
		a.AddKey(key)
	}
	return a
}

// AddKey adds a new valid API key
func (a *APIKeyAuth) AddKey(key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}

	a.mu.Lock()
	a.validKeys[key] = struct{}{}
	a.mu.Unlock()
}

// RemoveKey removes a valid API key
func (a *APIKeyAuth) RemoveKey(key string) {
	a.mu.Lock()
	delete(a.validKeys, strings.TrimSpace(key))
	a.mu.Unlock()
}

// IsValidKey checks if a key is valid
func (a *APIKeyAuth) IsValidKey(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, valid := a.validKeys[key]
	return valid
}

// Empty reports whether no keys are configured.
func (a *APIKeyAuth) Empty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.validKeys) == 0
}
