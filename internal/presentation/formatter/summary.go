package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
	"github.com/d1j/facebook-stats/internal/util"
)

var (
	heading   = color.New(color.Bold)
	highlight = color.New(color.FgCyan)
	muted     = color.New(color.Faint)
)

// SummaryFormatter prints the activity summary as a short report.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// FormatActivity writes totals followed by one block per sender. Colour
// follows color.NoColor.
func (f *SummaryFormatter) FormatActivity(w io.Writer, summary aggregator.ActivitySummary) error {
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w, rule)
	heading.Fprintln(w, "Chat Activity Summary")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	if len(summary.Participants) == 0 {
		fmt.Fprintln(w, "No messages to summarize")
		fmt.Fprintln(w)
		_, err := fmt.Fprintln(w, rule)
		return err
	}

	if summary.First == summary.Last {
		fmt.Fprintf(w, "Date Range: %s\n", summary.First)
	} else {
		fmt.Fprintf(w, "Date Range: %s to %s\n", summary.First, summary.Last)
	}
	fmt.Fprintln(w)

	total := summary.Total
	heading.Fprintln(w, "Totals:")
	fmt.Fprintf(w, "  Messages: %s\n", highlight.Sprint(util.FormatNumber(total.Messages)))
	fmt.Fprintf(w, "  Photos: %s\n", util.FormatNumber(total.Photos))
	fmt.Fprintf(w, "  Videos: %s\n", util.FormatNumber(total.Videos))
	fmt.Fprintf(w, "  Calls: %s\n", util.FormatNumber(total.Calls))
	fmt.Fprintf(w, "  Call Duration: %s\n", util.FormatDuration(time.Duration(total.CallDuration)*time.Second))
	fmt.Fprintln(w)

	heading.Fprintln(w, "By Participant:")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, p := range summary.Participants {
		fmt.Fprintf(w, "\n%s:\n", highlight.Sprint(p.Name))
		fmt.Fprintf(w, "  Messages:  %s %s\n", util.FormatNumber(p.Messages),
			muted.Sprintf("(%s)", util.FormatPercentage(p.Messages, total.Messages)))
		fmt.Fprintf(w, "  Photos:    %s\n", util.FormatNumber(p.Photos))
		fmt.Fprintf(w, "  Videos:    %s\n", util.FormatNumber(p.Videos))
		fmt.Fprintf(w, "  Calls:     %s\n", util.FormatNumber(p.Calls))
	}

	fmt.Fprintln(w)
	_, err := fmt.Fprintln(w, rule)
	return err
}
