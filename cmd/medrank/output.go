package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/poiesic/medrank/core"
)

// printer writes coloured command output.
type printer struct {
	w     io.Writer
	title *color.Color
	item  *color.Color
	score *color.Color
	dim   *color.Color
	ok    *color.Color
}

func newPrinter(w io.Writer) *printer {
	if w == nil {
		w = os.Stdout
	}
	return &printer{
		w:     w,
		title: color.New(color.FgCyan, color.Bold),
		item:  color.New(color.FgGreen),
		score: color.New(color.FgYellow),
		dim:   color.New(color.FgHiBlack),
		ok:    color.New(color.FgGreen, color.Bold),
	}
}

func (p *printer) heading(text string) {
	p.title.Fprintln(p.w, text)
}

func (p *printer) note(text string) {
	p.dim.Fprintln(p.w, text)
}

func (p *printer) success(text string) {
	p.ok.Fprintf(p.w, "✓ %s\n", text)
}

func (p *printer) matches(matches []core.Match) {
	if len(matches) == 0 {
		p.note("  no matches")
		return
	}
	width := 0
	for _, m := range matches {
		width = max(width, len(m.ItemID))
	}
	for i, m := range matches {
		fmt.Fprintf(p.w, "  %2d. ", i+1)
		p.item.Fprintf(p.w, "%-*s", width, m.ItemID)
		fmt.Fprint(p.w, "  ")
		p.score.Fprintf(p.w, "%.4f\n", m.Score)
	}
}

func (p *printer) history(user string, entries []*core.HistoryEntry) {
	if len(entries) == 0 {
		p.note(fmt.Sprintf("No history for %s", user))
		return
	}
	p.heading(fmt.Sprintf("History for %s (newest first)", user))
	for _, e := range entries {
		p.dim.Fprintf(p.w, "%s  ", e.Timestamp.Local().Format(time.DateTime))
		fmt.Fprintln(p.w, strings.Join(e.Tags, ", "))
		for _, k := range slices.Sorted(maps.Keys(e.Metadata)) {
			p.dim.Fprintf(p.w, "    %s: %s\n", k, e.Metadata[k])
		}
		p.matches(e.Matches)
	}
}

func (p *printer) snapshots(snapshots []*core.Snapshot, current string) {
	if len(snapshots) == 0 {
		p.note("No stored indexes")
		return
	}
	for _, s := range snapshots {
		marker := " "
		if s.Name == current {
			marker = "*"
		}
		fmt.Fprintf(p.w, "%s ", marker)
		p.item.Fprintf(p.w, "%s", s.Name)
		fmt.Fprintf(p.w, "  %d medications, %d symptoms, built %s, fingerprint %016x\n",
			s.Items, s.VocabularySize, s.BuiltAt.Local().Format(time.DateTime), uint64(s.Fingerprint))
	}
}
