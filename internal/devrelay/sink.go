package devrelay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Message is one captured message.
type Message struct {
	User       string
	From       string
	Recipients []string
	Subject    string
	Raw        []byte
	ReceivedAt time.Time
}

// Sink stores captured messages.
type Sink interface {
	Accept(ctx context.Context, msg Message) error
}

// DirSink writes each message as an .eml file into a directory.
type DirSink struct {
	dir string
	seq atomic.Int64
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create capture directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Accept writes msg atomically through a temp file and rename.
func (d *DirSink) Accept(_ context.Context, msg Message) error {
	name := fmt.Sprintf("%s-%04d.eml", msg.ReceivedAt.Format("20060102T150405.000000000"), d.seq.Add(1))
	finalPath := filepath.Join(d.dir, name)

	tmp, err := os.CreateTemp(d.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(msg.Raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// MemorySink keeps captured messages in memory.
type MemorySink struct {
	mu       sync.Mutex
	messages []Message
}

// Accept implements Sink.
func (m *MemorySink) Accept(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of everything captured so far.
func (m *MemorySink) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// Discard drops every message. The session log still records each capture.
type Discard struct{}

// Accept implements Sink.
func (Discard) Accept(context.Context, Message) error { return nil }
