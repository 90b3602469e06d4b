// Package notify is the port for user-facing notifications ("toasts").
package notify

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelSuccess     Level = "success"
	LevelDestructive Level = "destructive"
)

type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// LogNotifier writes notifications to the log. It is the default for CLI use.
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithField("component", "notify")}
}

func (n *LogNotifier) Success(title, message string) {
	n.log.WithField("title", title).Info(message)
}

func (n *LogNotifier) Error(title, message string) {
	n.log.WithField("title", title).Error(message)
}

// Recorder keeps notifications in memory, in order.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(title, message string) {
	r.add(Notification{Level: LevelSuccess, Title: title, Message: message})
}

func (r *Recorder) Error(title, message string) {
	r.add(Notification{Level: LevelDestructive, Title: title, Message: message})
}

func (r *Recorder) add(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// Drain returns and clears everything recorded so far.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}
