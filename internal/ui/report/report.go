// Package report renders command results as aligned plain text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/ui/output"
	"go.trai.ch/symdex/internal/ui/style"
)

// Renderer writes reports to an output.
type Renderer struct {
	out *termenv.Output
}

// New creates a Renderer writing to w with the environment's color profile.
func New(w io.Writer) *Renderer {
	return &Renderer{out: output.New(w)}
}

// NewWithProfile creates a Renderer with a fixed color profile.
func NewWithProfile(w io.Writer, profile termenv.Profile) *Renderer {
	return &Renderer{out: output.NewWithProfile(w, func() termenv.Profile { return profile })}
}

func (r *Renderer) paint(s string, c lipgloss.Color) termenv.Style {
	return r.out.String(s).Foreground(r.out.Color(string(c)))
}

func (r *Renderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Run prints the symbols of a run grouped by file, then failures, warnings
// and a summary line.
func (r *Renderer) Run(res *domain.RunResult) {
	typeWidth, nameWidth := 0, 0
	for _, s := range res.Symbols {
		typeWidth = max(typeWidth, len(s.Type))
		nameWidth = max(nameWidth, len(s.Name))
	}

	file := ""
	files := 0
	for _, s := range res.Symbols {
		if s.File != file {
			file = s.File
			files++
			r.printf("%s\n", r.paint(file, style.Iris).Bold())
		}
		r.printf("  %s  %-*s  %s\n",
			r.paint(fmt.Sprintf("%-*s", typeWidth, s.Type), style.Slate),
			nameWidth, s.Name,
			lineSpan(s.LineStart, s.LineEnd),
		)
	}

	if len(res.Failures) > 0 {
		r.printf("\n")
		for _, f := range res.Failures {
			r.printf("%s %s: %v\n", r.paint(style.Cross, style.Red), f.Path, f.Err)
		}
	}

	if len(res.Warnings) > 0 {
		r.printf("\n")
		for _, w := range res.Warnings {
			r.printf("%s %v\n", r.paint(style.Warning, style.Yellow), w)
		}
	}

	r.printf("\n%s %s\n", r.summaryIcon(res), summary(res, files))
}

func (r *Renderer) summaryIcon(res *domain.RunResult) termenv.Style {
	if len(res.Failures) > 0 {
		return r.paint(style.Cross, style.Red)
	}
	return r.paint(style.Check, style.Green)
}

func summary(res *domain.RunResult, files int) string {
	parts := []string{
		plural(len(res.Symbols), "symbol", "symbols"),
		plural(files, "file", "files"),
		fmt.Sprintf("%d extracted", res.Misses),
		fmt.Sprintf("%d cached", res.Hits),
	}
	if len(res.Failures) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", len(res.Failures)))
	}
	if res.GitDirty {
		parts = append(parts, "dirty worktree")
	}
	return strings.Join(parts, ", ")
}

func lineSpan(start, end int) string {
	if start == end {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// Stats prints the incremental statistics as a key/value list.
func (r *Renderer) Stats(s domain.IncrementalStats) {
	rows := [][2]string{
		{"cache hit rate", fmt.Sprintf("%.1f%%", s.CacheHitRate*100)},
		{"files analyzed", fmt.Sprintf("%d", s.FilesAnalyzed)},
		{"cache hits", fmt.Sprintf("%d", s.CacheHits)},
		{"cache misses", fmt.Sprintf("%d", s.CacheMisses)},
		{"avg analysis time", fmt.Sprintf("%.3fs", s.AvgAnalysisTime)},
		{"cache size", fmt.Sprintf("%.2f MB", s.CacheSizeMB)},
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	for _, row := range rows {
		r.printf("%s  %s\n", r.paint(fmt.Sprintf("%-*s", width, row[0]), style.Slate), row[1])
	}
}

// Cleanup prints the number of pruned entries.
func (r *Renderer) Cleanup(removed int) {
	r.printf("%s removed %s\n", r.paint(style.Check, style.Green), plural(removed, "stale entry", "stale entries"))
}

// Cleared prints the confirmation of a cache clear.
func (r *Renderer) Cleared() {
	r.printf("%s cache cleared\n", r.paint(style.Check, style.Green))
}
