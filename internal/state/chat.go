package state

import "github.com/wordchain/client/internal/protocol"

// ChatCapacity is the fixed size of the chat log; the oldest entries are
// evicted once it is exceeded.
const ChatCapacity = 30

// ChatLog is an append-only bounded FIFO. Duplicate deliveries append as
// distinct entries; arrival order is authoritative.
type ChatLog struct {
	msgs []protocol.ChatMessage
	max  int
}

func NewChatLog(capacity int) *ChatLog {
	return &ChatLog{max: capacity}
}

func (l *ChatLog) Append(m protocol.ChatMessage) {
	l.msgs = append(l.msgs, m)
	if over := len(l.msgs) - l.max; over > 0 {
		// Shift in place so the backing array stays bounded.
		n := copy(l.msgs, l.msgs[over:])
		l.msgs = l.msgs[:n]
	}
}

func (l *ChatLog) Len() int { return len(l.msgs) }

// Messages returns a copy; callers may hold it across later appends.
func (l *ChatLog) Messages() []protocol.ChatMessage {
	out := make([]protocol.ChatMessage, len(l.msgs))
	copy(out, l.msgs)
	return out
}

func (l *ChatLog) Clear() { l.msgs = l.msgs[:0] }

// Restore replaces the log contents, used to roll back an optimistic clear
// when a leave-room call fails.
func (l *ChatLog) Restore(msgs []protocol.ChatMessage) {
	l.msgs = l.msgs[:0]
	for _, m := range msgs {
		l.Append(m)
	}
}
