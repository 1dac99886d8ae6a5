package infrastructure

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/yourusername/ytb/internal/domain"
)

const (
	barWidth = 40
	barFill  = "■"
)

type consoleChannel struct {
	label   string
	percent float64
	detail  string
	bucket  int // last printed tenth in plain mode
}

// ConsoleProgress renders progress channels as bars. On a terminal the bars
// are redrawn in place; otherwise a plain line is printed every 10%.
type ConsoleProgress struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	channels    []*consoleChannel
	index       map[string]int
	drawn       int
}

// NewConsoleProgress creates a console renderer writing to out
func NewConsoleProgress(out io.Writer) *ConsoleProgress {
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return newConsoleProgress(out, interactive)
}

func newConsoleProgress(out io.Writer, interactive bool) *ConsoleProgress {
	return &ConsoleProgress{
		out:         out,
		interactive: interactive,
		index:       make(map[string]int),
	}
}

// Open registers a channel. Reopening an existing channel is a no-op.
func (c *ConsoleProgress) Open(channelID, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[channelID]; ok {
		return
	}
	c.index[channelID] = len(c.channels)
	c.channels = append(c.channels, &consoleChannel{label: label, bucket: -1})

	if c.interactive {
		c.redraw()
	}
}

// Report updates a channel and renders it
func (c *ConsoleProgress) Report(report domain.ProgressReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[report.ChannelID]
	if !ok {
		return
	}
	ch := c.channels[i]
	ch.percent = report.Percent
	ch.detail = report.Detail

	if c.interactive {
		c.redraw()
		return
	}

	bucket := int(ch.percent / 10)
	if bucket > ch.bucket {
		ch.bucket = bucket
		fmt.Fprintln(c.out, formatBar(ch))
	}
}

// redraw moves the cursor back over the previous frame and repaints every bar
func (c *ConsoleProgress) redraw() {
	var b strings.Builder
	if c.drawn > 0 {
		fmt.Fprintf(&b, "\x1b[%dA", c.drawn)
	}
	for _, ch := range c.channels {
		b.WriteString("\x1b[2K")
		b.WriteString(formatBar(ch))
		b.WriteByte('\n')
	}
	c.drawn = len(c.channels)
	io.WriteString(c.out, b.String())
}

// formatBar renders "<label> [■■■   ] <percent>% | <detail>"
func formatBar(ch *consoleChannel) string {
	p := ch.percent
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	filled := int(p / 100 * barWidth)
	bar := strings.Repeat(barFill, filled) + strings.Repeat(" ", barWidth-filled)
	return fmt.Sprintf("%-14s [%s] %s%% | %s", ch.label, bar, strconv.FormatFloat(p, 'f', -1, 64), ch.detail)
}
