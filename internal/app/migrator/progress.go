package migrator

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// passProgressBar renders one migration pass on stderr. It stays silent when
// stderr is not a terminal so logs and CI output remain clean.
type passProgressBar struct {
	enabled   bool
	total     int
	current   int
	lastWidth int
	label     string
	bar       progress.Model
}

func newPassProgressBar(total int, label string) *passProgressBar {
	if total <= 0 {
		total = 1
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 36

	if cols, err := strconv.Atoi(strings.TrimSpace(os.Getenv("COLUMNS"))); err == nil && cols > 0 {
		width := cols - 40
		if width < 16 {
			width = 16
		}
		if width > 64 {
			width = 64
		}
		bar.Width = width
	}

	return &passProgressBar{
		enabled: isTerminal(os.Stderr),
		total:   total,
		label:   label,
		bar:     bar,
	}
}

func (p *passProgressBar) Advance() {
	if !p.enabled {
		return
	}
	p.current++
	if p.current > p.total {
		p.current = p.total
	}
	p.render()
}

func (p *passProgressBar) Finish() {
	if !p.enabled {
		return
	}
	p.current = p.total
	p.render()
	fmt.Fprint(os.Stderr, "\n")
	p.lastWidth = 0
}

func (p *passProgressBar) Close() {
	if !p.enabled {
		return
	}
	if p.lastWidth > 0 {
		fmt.Fprint(os.Stderr, "\n")
		p.lastWidth = 0
	}
}

func (p *passProgressBar) render() {
	percent := float64(p.current) / float64(p.total)
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	line := fmt.Sprintf("%s %3.0f%% %d/%d %s", p.bar.ViewAs(percent), percent*100, p.current, p.total, p.label)
	pad := ""
	if p.lastWidth > len(line) {
		pad = strings.Repeat(" ", p.lastWidth-len(line))
	}
	fmt.Fprintf(os.Stderr, "\r%s%s", line, pad)
	p.lastWidth = len(line)
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
