package store

import (
	"sync"
	"time"
)

// DirectMessage is one received DM.
type DirectMessage struct {
	From       string
	Content    string
	ReceivedAt time.Time
}

// Inbox collects direct messages addressed to this node.
type Inbox struct {
	mu       sync.Mutex
	messages []DirectMessage
	now      func() time.Time
}

func NewInbox() *Inbox {
	return &Inbox{now: time.Now}
}

// Add appends one message, stamping the arrival time.
func (i *Inbox) Add(from, content string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, DirectMessage{
		From:       from,
		Content:    content,
		ReceivedAt: i.now(),
	})
}

// Messages returns a copy of the inbox in arrival order.
func (i *Inbox) Messages() []DirectMessage {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]DirectMessage, len(i.messages))
	copy(out, i.messages)
	return out
}

func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.messages)
}
