// Package notify queues one-shot messages for the next page a browser session
// renders.
package notify

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	flashPrefix = "flash:"

	// DefaultTTL bounds how long an unread message is kept.
	DefaultTTL = 5 * time.Minute
)

// Level of a message.
type Level string

// Message levels.
const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

// Message is a single queued notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Sink receives notifications for a browser session.
type Sink interface {
	NotifyError(sid, text string) error
}

// Flash is a Sink that keeps the last message per browser session until it
// is read.
type Flash struct {
	storage fiber.Storage
	ttl     time.Duration
}

// NewFlash creates a Flash on top of storage.
func NewFlash(storage fiber.Storage, ttl time.Duration) *Flash {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Flash{storage: storage, ttl: ttl}
}

// NotifyError queues an error message for sid.
func (f *Flash) NotifyError(sid, text string) error {
	return f.put(sid, Message{Level: LevelError, Text: text})
}

// NotifyInfo queues an informational message for sid.
func (f *Flash) NotifyInfo(sid, text string) error {
	return f.put(sid, Message{Level: LevelInfo, Text: text})
}

func (f *Flash) put(sid string, m Message) error {
	out, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return f.storage.Set(flashPrefix+sid, out, f.ttl)
}

// Pop returns and removes the queued message of sid.
func (f *Flash) Pop(sid string) (*Message, error) {
	raw, err := f.storage.Get(flashPrefix + sid)
	if err != nil || len(raw) == 0 {
		return nil, err
	}

	if err = f.storage.Delete(flashPrefix + sid); err != nil {
		return nil, err
	}

	m := new(Message)
	if err = json.Unmarshal(raw, m); err != nil {
		return nil, err
	}

	return m, nil
}
