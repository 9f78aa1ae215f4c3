package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar shows how many of a known number of operations are done.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
	mu      sync.Mutex
}

// NewProgressBar creates a progress bar for total operations.
func NewProgressBar(w io.Writer, title string, total int64) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 40,
	}
}

// Set sets the number of completed operations and redraws.
func (p *ProgressBar) Set(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.render()
}

// Finish draws the bar full and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d", p.title, p.current)
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}
	filled := int(float64(p.width) * percent)

	fmt.Fprintf(p.w, "\r%s [%s%s] %3.0f%% (%d/%d)",
		p.title,
		strings.Repeat("#", filled),
		strings.Repeat(".", p.width-filled),
		percent*100,
		p.current,
		p.total,
	)
}
