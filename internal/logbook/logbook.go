// Package logbook is the append-only render log shared by every run of the
// wrapper. Wrapper events get a timestamp prefix; captured renderer output is
// passed through untouched so the two interleave in the order produced.
package logbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const stampLayout = "2006-01-02 15:04:05"

type Book struct {
	mu sync.Mutex
	f  *os.File
}

// Open opens (or creates) the log file in append mode. Append mode keeps
// concurrent writers from clobbering each other, though the lock means at
// most one run writes at a time.
func Open(path string) (*Book, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Book{f: f}, nil
}

func (b *Book) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.Close()
}

// Line appends one timestamped event line: "[YYYY-MM-DD HH:MM:SS] <message>".
func (b *Book) Line(msg string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := fmt.Fprintf(b.f, "[%s] %s\n", time.Now().Format(stampLayout), msg)
	return err
}

// Append writes one raw line, used for renderer stdout/stderr pass-through.
func (b *Book) Append(line string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := fmt.Fprintln(b.f, line)
	return err
}
