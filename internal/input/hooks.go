package input

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/engine"
)

// HookPriority defines the execution order for hooks.
// Lower values execute first.
type HookPriority int

const (
	// HookPriorityHighest runs before all other hooks.
	HookPriorityHighest HookPriority = -1000
	// HookPriorityHigh runs early in the hook chain.
	HookPriorityHigh HookPriority = -100
	// HookPriorityNormal is the default priority.
	HookPriorityNormal HookPriority = 0
	// HookPriorityLow runs late in the hook chain.
	HookPriorityLow HookPriority = 100
	// HookPriorityLowest runs after all other hooks.
	HookPriorityLowest HookPriority = 1000
)

// InsertEvent is an insert on its way into the document. PreInsert hooks
// may rewrite Text.
type InsertEvent struct {
	Text  string
	State *engine.State
}

// Hook observes or intercepts inserts.
type Hook interface {
	// PreInsert runs before the insert is handled. Returning true
	// consumes the insert.
	PreInsert(ev *InsertEvent) bool
	// PostInsert runs after the insert produced a transaction.
	PostInsert(ev *InsertEvent, tr *engine.Transaction)
}

// HookID uniquely identifies a registered hook.
type HookID uint64

// HookRegistration holds metadata about a registered hook.
type HookRegistration struct {
	ID       HookID
	Name     string
	Priority HookPriority
	Hook     Hook
}

// HookManager runs hooks in priority order. Hooks with equal priority run
// in registration order.
type HookManager struct {
	mu      sync.RWMutex
	hooks   []HookRegistration
	nextID  HookID
	sorted  bool
	enabled bool
}

// NewHookManager creates a new hook manager.
func NewHookManager() *HookManager {
	return &HookManager{enabled: true, sorted: true}
}

// Register adds a hook with default priority.
func (m *HookManager) Register(hook Hook) HookID {
	return m.RegisterWithOptions(hook, "", HookPriorityNormal)
}

// RegisterWithOptions adds a named hook with the given priority. A name
// already in use is replaced.
func (m *HookManager) RegisterWithOptions(hook Hook, name string, priority HookPriority) HookID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name != "" {
		m.removeLocked(func(r HookRegistration) bool { return r.Name == name })
	}

	m.nextID++
	m.hooks = append(m.hooks, HookRegistration{
		ID:       m.nextID,
		Name:     name,
		Priority: priority,
		Hook:     hook,
	})
	m.sorted = false
	return m.nextID
}

// Unregister removes a hook by ID.
func (m *HookManager) Unregister(id HookID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(func(r HookRegistration) bool { return r.ID == id })
}

// UnregisterByName removes a hook by name.
func (m *HookManager) UnregisterByName(name string) bool {
	if name == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(func(r HookRegistration) bool { return r.Name == name })
}

func (m *HookManager) removeLocked(match func(HookRegistration) bool) bool {
	for i := range m.hooks {
		if match(m.hooks[i]) {
			m.hooks = append(m.hooks[:i], m.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled enables or disables all hooks.
func (m *HookManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Count returns the number of registered hooks.
func (m *HookManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks)
}

// List returns all hook registrations in execution order.
func (m *HookManager) List() []HookRegistration {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureSorted()
	result := make([]HookRegistration, len(m.hooks))
	copy(result, m.hooks)
	return result
}

func (m *HookManager) ensureSorted() {
	if m.sorted {
		return
	}
	sort.SliceStable(m.hooks, func(i, j int) bool {
		return m.hooks[i].Priority < m.hooks[j].Priority
	})
	m.sorted = true
}

// snapshot returns the hooks to run, copied so hooks may register or
// unregister others while running.
func (m *HookManager) snapshot() []Hook {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled || len(m.hooks) == 0 {
		return nil
	}
	m.ensureSorted()
	hooks := make([]Hook, len(m.hooks))
	for i := range m.hooks {
		hooks[i] = m.hooks[i].Hook
	}
	return hooks
}

// RunPreInsert runs PreInsert hooks in priority order and reports whether
// one consumed the insert.
func (m *HookManager) RunPreInsert(ev *InsertEvent) bool {
	for _, hook := range m.snapshot() {
		if hook.PreInsert(ev) {
			return true
		}
	}
	return false
}

// RunPostInsert runs PostInsert hooks in priority order.
func (m *HookManager) RunPostInsert(ev *InsertEvent, tr *engine.Transaction) {
	for _, hook := range m.snapshot() {
		hook.PostInsert(ev, tr)
	}
}

// BaseHook provides a default implementation of the Hook interface.
// Embed this in custom hooks to only implement the methods you need.
type BaseHook struct{}

// PreInsert is a no-op that does not consume the insert.
func (BaseHook) PreInsert(*InsertEvent) bool { return false }

// PostInsert is a no-op.
func (BaseHook) PostInsert(*InsertEvent, *engine.Transaction) {}

// FuncHook wraps functions into a Hook.
type FuncHook struct {
	PreInsertFunc  func(*InsertEvent) bool
	PostInsertFunc func(*InsertEvent, *engine.Transaction)
}

// PreInsert calls PreInsertFunc if set.
func (h FuncHook) PreInsert(ev *InsertEvent) bool {
	if h.PreInsertFunc != nil {
		return h.PreInsertFunc(ev)
	}
	return false
}

// PostInsert calls PostInsertFunc if set.
func (h FuncHook) PostInsert(ev *InsertEvent, tr *engine.Transaction) {
	if h.PostInsertFunc != nil {
		h.PostInsertFunc(ev, tr)
	}
}

// LoggingHook logs every insert at debug level.
type LoggingHook struct {
	BaseHook
	Logger *zap.Logger
}

// PreInsert logs the insert.
func (h LoggingHook) PreInsert(ev *InsertEvent) bool {
	if h.Logger != nil {
		h.Logger.Debug("insert", zap.String("text", ev.Text))
	}
	return false
}

// PostInsert logs the resulting transaction.
func (h LoggingHook) PostInsert(ev *InsertEvent, tr *engine.Transaction) {
	if h.Logger != nil && tr != nil {
		h.Logger.Debug("inserted",
			zap.String("text", ev.Text),
			zap.String("userEvent", tr.UserEvent),
			zap.Bool("docChanged", tr.DocChanged()),
		)
	}
}
