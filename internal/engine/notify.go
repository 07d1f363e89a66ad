package engine

import (
	"log/slog"
	"sync"
)

// Level is the severity of a Notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is a user-visible signal naming the attempted action.
type Notice struct {
	Level   Level  `json:"level"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

// Notifier receives every notice an engine raises.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch n.Level {
	case LevelError:
		logger.Error(n.Message, "action", n.Action)
	case LevelWarn:
		logger.Warn(n.Message, "action", n.Action)
	default:
		logger.Info(n.Message, "action", n.Action)
	}
}

// Inbox keeps the most recent notices so they can be polled.
type Inbox struct {
	mu      sync.Mutex
	max     int
	notices []Notice
}

// NewInbox creates an Inbox holding at most max notices.
func NewInbox(max int) *Inbox {
	if max <= 0 {
		max = 100
	}
	return &Inbox{max: max}
}

func (b *Inbox) Notify(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.notices = append(b.notices, n)
	if over := len(b.notices) - b.max; over > 0 {
		b.notices = append([]Notice(nil), b.notices[over:]...)
	}
}

// Drain returns and clears the pending notices.
func (b *Inbox) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.notices
	b.notices = nil
	return out
}

// multiNotifier fans a notice out to several notifiers.
type multiNotifier []Notifier

func (m multiNotifier) Notify(n Notice) {
	for _, x := range m {
		x.Notify(n)
	}
}
