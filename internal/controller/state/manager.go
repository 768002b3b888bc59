package state

import (
	"sync"
	"time"
)

// DefaultTTL is how long an untouched dialog survives.
const DefaultTTL = 30 * time.Minute

// Manager keeps per-user dialog state in memory, keyed by Telegram ID.
// Dialogs idle for longer than the TTL are treated as abandoned.
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		states: make(map[int64]*UserData),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.live(telegramID); ok {
		return userData.State
	}
	return StateNone
}

// SetState moves the user to state. StateNone ends the dialog.
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	userData, ok := sm.live(telegramID)
	if !ok {
		userData = &UserData{Data: make(map[string]interface{})}
		sm.states[telegramID] = userData
	}
	userData.State = state
	userData.UpdatedAt = sm.now()
}

func (sm *Manager) GetData(telegramID int64, key string) (interface{}, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.live(telegramID); ok {
		value, found := userData.Data[key]
		return value, found
	}
	return nil, false
}

// GetString returns a string value, or "" if it is missing or not a string.
func (sm *Manager) GetString(telegramID int64, key string) string {
	v, _ := sm.GetData(telegramID, key)
	s, _ := v.(string)
	return s
}

func (sm *Manager) SetData(telegramID int64, key string, value interface{}) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	userData, ok := sm.live(telegramID)
	if !ok {
		userData = &UserData{State: StateNone, Data: make(map[string]interface{})}
		sm.states[telegramID] = userData
	}
	userData.Data[key] = value
	userData.UpdatedAt = sm.now()
}

func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}

// Sweep drops expired dialogs and returns how many were removed.
func (sm *Manager) Sweep() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for id := range sm.states {
		if _, ok := sm.live(id); !ok {
			delete(sm.states, id)
			removed++
		}
	}
	return removed
}

// live must be called with mu held.
func (sm *Manager) live(telegramID int64) (*UserData, bool) {
	userData, ok := sm.states[telegramID]
	if !ok {
		return nil, false
	}
	if sm.now().Sub(userData.UpdatedAt) > sm.ttl {
		return nil, false
	}
	return userData, true
}
