package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"pncpx/internal/extraction"
)

// progressPrinter renders page progress to the terminal. On a TTY it rewrites
// a single status line in place; on pipes it emits one line per page so the
// output stays greppable.
type progressPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	terminal bool
	dirty    bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, terminal: isTerminal(out)}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *progressPrinter) PageProcessed(progress extraction.PageProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := "?"
	if progress.TotalPages > 0 {
		total = fmt.Sprintf("%d", progress.TotalPages)
	}
	line := fmt.Sprintf("page %d/%s  fetched %d  accepted %d  rows %d  eta %s",
		progress.Page, total, progress.Fetched, progress.Accepted, progress.TotalRows,
		extraction.FormatETA(progress.ETA, progress.HasETA))

	if p.terminal {
		fmt.Fprintf(p.out, "\r\x1b[K%s", line)
		p.dirty = true
		return
	}
	fmt.Fprintln(p.out, line)
}

func (p *progressPrinter) CheckpointSaved(throughPage int, rows int64, paths []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.breakLine()
	for _, path := range paths {
		fmt.Fprintf(p.out, "checkpoint through page %d: %d rows -> %s\n", throughPage, rows, path)
	}
}

func (p *progressPrinter) RunFinished(extraction.Result) {}

// finish terminates an in-place status line so the summary starts clean.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakLine()
}

func (p *progressPrinter) breakLine() {
	if p.dirty {
		fmt.Fprintln(p.out)
		p.dirty = false
	}
}
