// Package notify holds transient, auto-dismissing user notifications.
package notify

import (
	"sort"
	"time"

	"assistant-client/pkg/logger"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

const DefaultTTL = 5 * time.Second

const (
	MsgUnexpected  = "An unexpected error occurred. Please try again."
	MsgUnreachable = "Unable to connect to the insurance assistant API. Please check if the server is running."
)

type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Center struct {
	items *cache.Cache
}

func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{items: cache.New(ttl, ttl)}
}

func (c *Center) Push(level Level, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
	c.items.SetDefault(n.ID, n)
	logger.Debugf("notification %s [%s]: %s", n.ID, level, message)
	return n
}

func (c *Center) Dismiss(id string) {
	c.items.Delete(id)
}

// Active lists unexpired notifications, oldest first.
func (c *Center) Active() []Notification {
	items := c.items.Items()
	out := make([]Notification, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(Notification))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
