// Package console prints notifications instead of publishing them.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Publisher writes each notification as an indented block.
type Publisher struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewPublisher creates a console publisher writing to out.
func NewPublisher(out io.Writer) *Publisher {
	return &Publisher{out: out, now: time.Now}
}

// Publish writes text.
func (p *Publisher) Publish(_ context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] NOTIFY\n", p.now().Format("15:04:05"))
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}
