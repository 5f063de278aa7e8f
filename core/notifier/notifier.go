// Package notifier holds the transient messages (toasts) shown to the user.
package notifier

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severities
const (
	Success = "success"
	Error   = "error"
	Info    = "info"
)

// Removal modes
const (
	// ByIdentity removes the very message whose timer fired.
	ByIdentity Removal = iota
	// ByPosition removes whatever message sits first when a timer fires.
	ByPosition
)

const DefaultDelay = 5 * time.Second

// mockable
var afterFunc = func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) }

type (
	Removal int

	stopper interface {
		Stop() bool
	}

	Message struct {
		ID       string
		Text     string
		Severity string
		Seq      int
	}

	Options struct {
		Delay   time.Duration
		Removal Removal
		// OnAdd is called (outside the lock) with every new message.
		OnAdd func(Message)
	}

	Notifier struct {
		mu     sync.Mutex
		opts   Options
		seq    int
		msgs   []Message
		timers map[string]stopper
		closed bool
	}
)

func ParseRemoval(s string) Removal {
	if s == "position" {
		return ByPosition
	}
	return ByIdentity
}

func New(opts Options) *Notifier {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	return &Notifier{
		opts:   opts,
		timers: make(map[string]stopper),
	}
}

// Add appends a message and schedules its removal.
func (n *Notifier) Add(text, severity string) Message {
	n.mu.Lock()
	n.seq++
	msg := Message{
		ID:       uuid.NewString(),
		Text:     text,
		Severity: severity,
		Seq:      n.seq,
	}
	n.msgs = append(n.msgs, msg)
	if !n.closed {
		id := msg.ID
		n.timers[id] = afterFunc(n.opts.Delay, func() { n.expire(id) })
	}
	onAdd := n.opts.OnAdd
	n.mu.Unlock()

	if onAdd != nil {
		onAdd(msg)
	}
	return msg
}

func (n *Notifier) expire(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.timers, id)
	if n.closed {
		return
	}
	switch n.opts.Removal {
	case ByPosition:
		n.removeAt(0)
	default:
		n.remove(id)
	}
}

// Remove drops the message `id`; it reports whether it was queued.
func (n *Notifier) Remove(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	return n.remove(id)
}

// RemoveAt drops the message at index `i`.
func (n *Notifier) RemoveAt(i int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.removeAt(i)
}

func (n *Notifier) remove(id string) bool {
	for i, m := range n.msgs {
		if m.ID == id {
			return n.removeAt(i)
		}
	}
	return false
}

func (n *Notifier) removeAt(i int) bool {
	if i < 0 || i >= len(n.msgs) {
		return false
	}
	n.msgs = append(n.msgs[:i], n.msgs[i+1:]...)
	return true
}

// Messages returns a copy of the queue, oldest first.
func (n *Notifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Message, len(n.msgs))
	copy(out, n.msgs)
	return out
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

// Close stops every pending timer; queued messages stay until removed.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.closed = true
}
