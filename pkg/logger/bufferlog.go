// Package logger buffers detail lines per upload.
//
// Every line of an upload is held in memory while the upload runs.
//   - On failure the buffer is replayed, followed by the error.
//   - On success the buffer is dropped and one summary line is written.
//
// A dedicated goroutine owns the buffers and receives commands over a
// channel, so there are no mutexes.
package logger

import (
	"fmt"
	"log"
	"strings"
)

type action int

const (
	actBegin action = iota
	actAppend
	actSuccess
	actFlushErr
	actSync
)

type cmd struct {
	act      action
	uploadID string
	message  string        // Append, Success
	err      error         // FlushError
	done     chan struct{} // Sync
}

// Buffer is one logger goroutine writing to out.
type Buffer struct {
	ch  chan cmd
	out *log.Logger
}

// New starts a buffer writing to out.
func New(out *log.Logger) *Buffer {
	b := &Buffer{ch: make(chan cmd, 128), out: out}
	go b.runloop()
	return b
}

var std = New(log.Default())

// Default returns the process-wide buffer writing to the standard logger.
func Default() *Buffer { return std }

// Begin starts buffering for uploadID.
func (b *Buffer) Begin(uploadID string) { b.ch <- cmd{act: actBegin, uploadID: uploadID} }

// Append adds a detail line. Without a prior Begin it is written at once.
func (b *Buffer) Append(uploadID, msg string) {
	b.ch <- cmd{act: actAppend, uploadID: uploadID, message: msg}
}

// Logf formats "[uploadID][component] message" and appends it.
func (b *Buffer) Logf(uploadID, component, format string, args ...any) {
	b.Append(uploadID, fmt.Sprintf("[%-8.8s][%s] %s", uploadID, component, fmt.Sprintf(format, args...)))
}

// Success drops the buffer and writes one summary line.
func (b *Buffer) Success(uploadID, summary string) {
	b.ch <- cmd{act: actSuccess, uploadID: uploadID, message: summary}
}

// FlushError replays the buffer and then writes err.
func (b *Buffer) FlushError(uploadID string, err error) {
	b.ch <- cmd{act: actFlushErr, uploadID: uploadID, err: err}
}

// Sync returns once every command sent before it has been handled.
func (b *Buffer) Sync() {
	done := make(chan struct{})
	b.ch <- cmd{act: actSync, done: done}
	<-done
}

func (b *Buffer) runloop() {
	buffers := make(map[string]*strings.Builder)

	for c := range b.ch {
		switch c.act {
		case actBegin:
			buffers[c.uploadID] = &strings.Builder{}

		case actAppend:
			if sb := buffers[c.uploadID]; sb != nil {
				sb.WriteString(c.message)
				sb.WriteByte('\n')
			} else {
				b.out.Print(c.message)
			}

		case actSuccess:
			b.out.Printf("[%-8.8s][Upload] ✔ %s", c.uploadID, c.message)
			delete(buffers, c.uploadID)

		case actFlushErr:
			if sb := buffers[c.uploadID]; sb != nil {
				for _, ln := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
					if ln != "" {
						b.out.Print(ln)
					}
				}
				delete(buffers, c.uploadID)
			}
			b.out.Printf("[%-8.8s][ERROR] %v", c.uploadID, c.err)

		case actSync:
			close(c.done)
		}
	}
}
