package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
	"github.com/d1j/facebook-stats/internal/store"
	"github.com/d1j/facebook-stats/internal/util"
)

const (
	// maxHeaderWidth bounds breakdown column headers so long names do not
	// eat the terminal.
	maxHeaderWidth = 12
	maxNameWidth   = 24
)

type TableFormatter struct {
	width int
}

// NewTableFormatter sizes tables to the terminal.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{width: util.TerminalWidth()}
}

// WithWidth overrides the available width.
func (f *TableFormatter) WithWidth(width int) *TableFormatter {
	f.width = width
	return f
}

// table is a grid of cells. The first leftCols columns are left-aligned, the
// rest right-aligned. When total is set the last row is separated by a rule.
type table struct {
	headers  []string
	rows     [][]string
	leftCols int
	total    bool
}

// FormatMatrix prints one row per giver with a column per receiver. Receiver
// columns that do not fit the width are dropped and a note says so.
func (f *TableFormatter) FormatMatrix(w io.Writer, snapshot aggregator.Snapshot) error {
	fixed := []string{"Name", "Sent", "Received", "Given"}
	t := &table{headers: fixed, leftCols: 1, total: true}

	totals := make([]int, 3)
	for _, p := range snapshot.Participants {
		t.rows = append(t.rows, []string{
			util.Truncate(p.Name, maxNameWidth),
			util.FormatNumber(p.MessagesSent),
			util.FormatNumber(p.TotalReceived),
			util.FormatNumber(p.TotalGiven),
		})
		totals[0] += p.MessagesSent
		totals[1] += p.TotalReceived
		totals[2] += p.TotalGiven
	}
	t.rows = append(t.rows, []string{"Total",
		util.FormatNumber(totals[0]), util.FormatNumber(totals[1]), util.FormatNumber(totals[2])})

	shown := f.fitColumns(t, len(snapshot.Names), func(col int) []string {
		cells := []string{"→ " + util.Truncate(snapshot.Names[col], maxHeaderWidth)}
		for _, p := range snapshot.Participants {
			cells = append(cells, util.FormatNumber(p.GivenTo[col]))
		}
		// Everything given to a receiver is what it received.
		return append(cells, util.FormatNumber(snapshot.Participants[col].TotalReceived))
	})

	fmt.Fprintf(w, "Reaction: %s (rows give to columns)\n", reactionLabel(snapshot.Reaction))
	if err := t.render(w); err != nil {
		return err
	}
	if hidden := len(snapshot.Names) - shown; hidden > 0 {
		_, err := fmt.Fprintf(w, "%d of %d breakdown columns hidden; use --output csv for the full matrix\n",
			hidden, len(snapshot.Names))
		return err
	}
	return nil
}

// FormatSeries pivots the series into one row per bucket and one column per
// participant.
func (f *TableFormatter) FormatSeries(w io.Writer, series *aggregator.BucketSeries) error {
	t := &table{headers: []string{"Date"}, leftCols: 1}

	column := make(map[string]int, len(series.Participants))
	for i, name := range series.Participants {
		column[name] = i
	}
	var dates []string
	counts := make(map[string][]int)
	for _, p := range series.Points {
		row, ok := counts[p.Date]
		if !ok {
			row = make([]int, len(series.Participants))
			counts[p.Date] = row
			dates = append(dates, p.Date)
		}
		if i, ok := column[p.Participant]; ok {
			row[i] = p.Count
		}
	}
	for _, date := range dates {
		t.rows = append(t.rows, []string{date})
	}

	shown := f.fitColumns(t, len(series.Participants), func(col int) []string {
		cells := []string{util.Truncate(series.Participants[col], maxHeaderWidth)}
		for _, date := range dates {
			cells = append(cells, util.FormatNumber(counts[date][col]))
		}
		return cells
	})

	fmt.Fprintf(w, "Granularity: %s, %s to %s\n", series.Granularity, series.From, series.To)
	if len(series.Participants) == 0 {
		_, err := fmt.Fprintln(w, "No activity in range")
		return err
	}
	if err := t.render(w); err != nil {
		return err
	}
	if hidden := len(series.Participants) - shown; hidden > 0 {
		_, err := fmt.Fprintf(w, "%d of %d participants hidden; use --output csv for the full series\n",
			hidden, len(series.Participants))
		return err
	}
	return nil
}

func (f *TableFormatter) FormatRuns(w io.Writer, runs []store.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No stored runs")
		return err
	}

	tp := util.GetTimeProvider()
	t := &table{
		headers:  []string{"ID", "Created", "Command", "Reaction", "Participants", "Events", "Points"},
		leftCols: 4,
	}
	for _, run := range runs {
		reaction := "-"
		if run.Participants > 0 {
			reaction = reactionLabel(run.Reaction)
		}
		t.rows = append(t.rows, []string{
			run.ID,
			tp.Format(run.CreatedAt, "2006-01-02 15:04"),
			run.Command,
			reaction,
			strconv.Itoa(run.Participants),
			util.FormatNumber(run.Events),
			util.FormatNumber(run.SeriesPoints),
		})
	}
	return t.render(w)
}

// fitColumns appends as many of n extra columns as fit the width and returns
// how many were added. column(i) yields the header followed by one cell per
// row.
func (f *TableFormatter) fitColumns(t *table, n int, column func(int) []string) int {
	used := t.width()
	for col := 0; col < n; col++ {
		cells := column(col)
		width := 0
		for _, cell := range cells {
			width = max(width, util.GetDisplayWidth(cell))
		}
		if f.width > 0 && used+width+3 > f.width {
			return col
		}
		used += width + 3

		t.headers = append(t.headers, cells[0])
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], cells[i+1])
		}
	}
	return n
}

func (t *table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = util.GetDisplayWidth(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], util.GetDisplayWidth(cell))
		}
	}
	return widths
}

// width is the rendered line width in display columns.
func (t *table) width() int {
	total := 1
	for _, w := range t.columnWidths() {
		total += w + 3
	}
	return total
}

func (t *table) render(w io.Writer) error {
	widths := t.columnWidths()
	var b strings.Builder

	t.border(&b, widths, "┌", "┬", "┐")
	t.row(&b, t.headers, widths, true)
	t.border(&b, widths, "├", "┼", "┤")
	for i, row := range t.rows {
		if t.total && i == len(t.rows)-1 {
			t.border(&b, widths, "├", "┼", "┤")
		}
		t.row(&b, row, widths, false)
	}
	t.border(&b, widths, "└", "┴", "┘")

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *table) border(b *strings.Builder, widths []int, left, middle, right string) {
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(util.Separator(width + 2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	b.WriteByte('\n')
}

func (t *table) row(b *strings.Builder, cells []string, widths []int, header bool) {
	b.WriteString("│")
	for i, cell := range cells {
		b.WriteByte(' ')
		if header || i < t.leftCols {
			b.WriteString(util.PadRight(cell, widths[i]))
		} else {
			b.WriteString(util.PadLeft(cell, widths[i]))
		}
		b.WriteString(" │")
	}
	b.WriteByte('\n')
}

func reactionLabel(reaction string) string {
	if reaction == "" {
		return "any"
	}
	return reaction
}
