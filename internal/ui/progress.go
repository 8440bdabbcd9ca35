package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// TableProgress tracks the migration across its fixed set of tables and the
// running row count within the table being copied.
type TableProgress struct {
	totalTables int
	done        int
	startTime   time.Time
	mu          sync.Mutex

	currentTable string
	currentRows  int64
}

// NewTableProgress creates a progress tracker for a migration run.
func NewTableProgress(totalTables int) *TableProgress {
	return &TableProgress{
		totalTables: totalTables,
		startTime:   time.Now(),
	}
}

// StartTable announces that a table copy has begun.
func (p *TableProgress) StartTable(table string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentTable = table
	p.currentRows = 0
	p.render()
}

// UpdateRows records the rows copied so far for the current table; called as
// each batch commits.
func (p *TableProgress) UpdateRows(table string, rows int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentTable = table
	p.currentRows = rows
	p.render()
}

// FinishTable marks the current table complete and prints its final count.
func (p *TableProgress) FinishTable(table string, rows int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	fmt.Print("\r\033[K")
	fmt.Printf("%s %-18s %s rows\n", ColorSuccess("✓"), table, FormatCount(rows))
}

// Finish completes the run and prints the elapsed time.
func (p *TableProgress) Finish(totalRows int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	fmt.Printf("\n%s Migrated %s rows across %d tables in %s\n",
		ColorSuccess("✓"),
		FormatCount(totalRows),
		p.done,
		FormatDuration(elapsed),
	)
}

func (p *TableProgress) render() {
	// Clear line
	fmt.Print("\r\033[K")

	percentage := float64(p.done) / float64(p.totalTables) * 100

	barWidth := 30
	filled := int(percentage / 100 * float64(barWidth))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Printf("%s %s %.0f%% [%d/%d] %s: %s rows - %s",
		ColorProgress("►"),
		bar,
		percentage,
		p.done,
		p.totalTables,
		p.currentTable,
		FormatCount(p.currentRows),
		FormatDuration(time.Since(p.startTime)),
	)
}

// Spinner represents an animated spinner for long operations
type Spinner struct {
	frames  []string
	current int
	message string
	stop    chan bool
	stopped bool
	mu      sync.Mutex
}

// NewSpinner creates a new spinner
func NewSpinner(message string) *Spinner {
	return &Spinner{
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		current: 0,
		message: message,
		stop:    make(chan bool),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.stopped {
					fmt.Printf("\r%s %s %s",
						ColorProgress(s.frames[s.current]),
						s.message,
						strings.Repeat(" ", 20), // Clear extra characters
					)
					s.current = (s.current + 1) % len(s.frames)
				}
				s.mu.Unlock()
			}
		}
	}()
}

// Stop stops the spinner
func (s *Spinner) Stop(success bool, message string) {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	close(s.stop)

	// Clear line and print final status
	fmt.Print("\r\033[K")

	if success {
		fmt.Printf("%s %s\n", ColorSuccess("✓"), message)
	} else {
		fmt.Printf("%s %s\n", ColorError("✗"), message)
	}
}

// UpdateMessage updates the spinner message
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, minutes)
}

// FormatCount renders a row count with thousands separators.
func FormatCount(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
