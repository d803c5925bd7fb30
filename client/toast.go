package client

import (
	"sync"
	"time"
)

const DefaultToastTTL = 3 * time.Second

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

type Toast struct {
	ID      int64
	Kind    ToastKind
	Message string
	Created time.Time
}

// ToastTray holds transient notifications. Each one removes itself after the tray's TTL.
type ToastTray struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextID int64
	active []Toast
	timers map[int64]*time.Timer

	// OnChange, when set, receives the active toasts after every show or dismiss.
	OnChange func([]Toast)
}

func NewToastTray(ttl time.Duration) *ToastTray {
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	return &ToastTray{ttl: ttl, timers: make(map[int64]*time.Timer)}
}

func (t *ToastTray) Show(kind ToastKind, message string) Toast {
	t.mu.Lock()
	t.nextID++
	toast := Toast{ID: t.nextID, Kind: kind, Message: message, Created: time.Now()}
	t.active = append(t.active, toast)
	id := toast.ID
	t.timers[id] = time.AfterFunc(t.ttl, func() { t.Dismiss(id) })
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snapshot)
	return toast
}

func (t *ToastTray) Success(message string) Toast { return t.Show(ToastSuccess, message) }
func (t *ToastTray) Error(message string) Toast   { return t.Show(ToastError, message) }
func (t *ToastTray) Info(message string) Toast    { return t.Show(ToastInfo, message) }

// Dismiss removes a toast early. Unknown ids are ignored.
func (t *ToastTray) Dismiss(id int64) {
	t.mu.Lock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	removed := false
	for i, toast := range t.active {
		if toast.ID == id {
			t.active = append(t.active[:i], t.active[i+1:]...)
			removed = true
			break
		}
	}
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	if removed {
		t.notify(snapshot)
	}
}

// Active returns the toasts currently on screen, oldest first.
func (t *ToastTray) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Last returns the newest active toast.
func (t *ToastTray) Last() (Toast, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.active) == 0 {
		return Toast{}, false
	}
	return t.active[len(t.active)-1], true
}

func (t *ToastTray) snapshotLocked() []Toast {
	out := make([]Toast, len(t.active))
	copy(out, t.active)
	return out
}

func (t *ToastTray) notify(snapshot []Toast) {
	if t.OnChange != nil {
		t.OnChange(snapshot)
	}
}
