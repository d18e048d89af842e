package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mmcdole/wizju/internal/domain"
)

// printer handles table or JSON output.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(cmd *cobra.Command) *printer {
	format, _ := cmd.Flags().GetString("output")
	return &printer{format: format, w: cmd.OutOrStdout()}
}

func (p *printer) isJSON() bool { return p.format == "json" }

// json marshals v as indented JSON.
func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// table writes rows using tabwriter. header is the first row.
func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, h)
	}
	_, _ = fmt.Fprintln(tw)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, col)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

// kv prints a key-value detail view.
func (p *printer) kv(pairs [][2]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, pair := range pairs {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", pair[0], pair[1])
	}
	_ = tw.Flush()
}

func (p *printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// sources prints a source listing with its stored item counts.
func (p *printer) sources(srcs []domain.Source, counts func(id string) int) error {
	if p.isJSON() {
		return p.json(srcs)
	}
	rows := make([][]string, 0, len(srcs))
	for _, s := range srcs {
		rows = append(rows, []string{
			s.ID, s.Name, string(s.Type),
			strconv.FormatBool(s.IsActive),
			strconv.Itoa(counts(s.ID)),
			strconv.Itoa(len(s.Categories)),
			humanize.Time(s.DateAdded),
		})
	}
	p.table([]string{"ID", "NAME", "TYPE", "ACTIVE", "ITEMS", "CATEGORIES", "ADDED"}, rows)
	return nil
}

// media prints media records; extra adds a trailing column per record.
func (p *printer) media(items []domain.MediaRecord, extraHeader string, extra func(domain.MediaRecord) string) error {
	if p.isJSON() {
		return p.json(items)
	}
	header := []string{"ID", "TITLE", "KIND", "CATEGORY", "SOURCE"}
	if extra != nil {
		header = append(header, extraHeader)
	}
	rows := make([][]string, 0, len(items))
	for _, m := range items {
		row := []string{m.ID, m.Title, string(m.Type), m.Category, m.SourceID}
		if extra != nil {
			row = append(row, extra(m))
		}
		rows = append(rows, row)
	}
	p.table(header, rows)
	return nil
}
