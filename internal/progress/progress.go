package progress

import (
	"fmt"
	"sync"
	"time"
)

// Tracker renders a spinner with a running count for a long phase.
type Tracker struct {
	total     int
	current   int
	message   string
	mu        sync.Mutex
	startTime time.Time
	done      chan bool
}

func NewTracker(total int, message string) *Tracker {
	p := &Tracker{
		total:     total,
		message:   message,
		startTime: time.Now(),
		done:      make(chan bool),
	}
	go p.render()
	return p
}

func (p *Tracker) render() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := 0

	for {
		select {
		case <-p.done:
			p.mu.Lock()
			elapsed := time.Since(p.startTime)
			fmt.Printf("\r✓ %s (%d/%d, %s)          \n",
				p.message, p.current, p.total, elapsed.Round(time.Millisecond))
			p.mu.Unlock()
			return

		case <-ticker.C:
			p.mu.Lock()
			fmt.Printf("\r%s %s [%d/%d]  ",
				spinner[frame%len(spinner)], p.message, p.current, p.total)
			p.mu.Unlock()
			frame++
		}
	}
}

func (p *Tracker) Increment() {
	p.mu.Lock()
	p.current++
	p.mu.Unlock()
}

func (p *Tracker) Finish() {
	close(p.done)
	time.Sleep(1 * time.Millisecond)
}
