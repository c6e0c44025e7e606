package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Message is a single LSNP wire message: UTF-8 "KEY:VALUE" lines joined
// by newlines, terminated by a blank line. Field order is preserved so
// an encode/decode cycle reproduces the message byte for byte.
type Message struct {
	keys   []string
	values map[string]string
}

// NewMessage creates a message with its TYPE field already set.
func NewMessage(msgType string) *Message {
	m := &Message{values: make(map[string]string)}
	m.Set(FieldType, msgType)
	return m
}

// Set adds or replaces a field. Values may contain colons but must not
// contain newlines; the wire format has no escaping, so an embedded
// newline would corrupt framing. That contract is on the producer.
func (m *Message) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetInt adds or replaces a field with a decimal integer value.
func (m *Message) SetInt(key string, value int64) {
	m.Set(key, strconv.FormatInt(value, 10))
}

// Get returns the field value, or "" if absent.
func (m *Message) Get(key string) string {
	return m.values[key]
}

// Has reports whether the field is present.
func (m *Message) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Len returns the number of fields.
func (m *Message) Len() int {
	return len(m.keys)
}

// Keys returns the field names in insertion order.
func (m *Message) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Type returns the TYPE field, or "" if the message has none.
func (m *Message) Type() string {
	return m.values[FieldType]
}

// ID returns the MESSAGE_ID field, or "" if the message has none.
func (m *Message) ID() string {
	return m.values[FieldMessageID]
}

// Timestamp returns the TIMESTAMP field as unix seconds, or 0 if the
// field is absent or not a number.
func (m *Message) Timestamp() int64 {
	return m.intField(FieldTimestamp)
}

// TTL returns the TTL field in seconds, or 0 if absent or not a number.
func (m *Message) TTL() int64 {
	return m.intField(FieldTTL)
}

// Int returns a field parsed as a decimal integer, or 0 on any failure.
func (m *Message) Int(key string) int64 {
	return m.intField(key)
}

func (m *Message) intField(key string) int64 {
	v, err := strconv.ParseInt(m.values[key], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Encode serializes the message to wire form: one "KEY:VALUE" line per
// field in insertion order, then the blank-line terminator. Framing is
// one datagram per message; the terminator is kept so peers that scan
// for it still find a message boundary.
func (m *Message) Encode() []byte {
	var b strings.Builder
	for _, key := range m.keys {
		b.WriteString(key)
		b.WriteByte(':')
		b.WriteString(m.values[key])
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// Decode parses wire bytes into a message. Lines without a colon are
// ignored rather than rejected, and each line splits on the first colon
// only, so values keep any colons of their own. A duplicate key keeps
// its first position but takes the last value. Decode never fails; at
// worst it returns an empty message.
func Decode(data []byte) *Message {
	m := &Message{values: make(map[string]string)}
	for _, line := range strings.Split(string(data), "\n") {
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		m.Set(line[:idx], line[idx+1:])
	}
	return m
}

// String returns a short summary for logs, never the full payload.
func (m *Message) String() string {
	return fmt.Sprintf("%s(id=%s fields=%d)", m.Type(), m.ID(), m.Len())
}
