package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/zulandar/bugboard/internal/models"
	"golang.org/x/term"
)

// defaultWidth is used when output is not a terminal.
const defaultWidth = 120

// terminalWidth returns the column count of w when it is a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// titleWidth is the room left for the title column after the fixed columns.
func titleWidth(total int) int {
	const fixed = 11 + 10 + 13 + 16 + 12 // id, priority, status, assignee, updated
	if w := total - fixed; w > 20 {
		return w
	}
	return 20
}

// printBugTable writes bugs as an aligned table.
func printBugTable(out io.Writer, bugs []models.Bug, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	width := titleWidth(terminalWidth(out))
	fmt.Fprintln(tw, "ID\tPRIORITY\tSTATUS\tTITLE\tASSIGNEE\tUPDATED")
	for _, b := range bugs {
		assignee := b.Assignee
		if b.Unassigned() {
			assignee = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Priority, b.Status, truncate(b.Title, width), assignee, ago(now, b.UpdatedAt))
	}
	tw.Flush()
}

// ago renders the time since t relative to now.
func ago(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// printBug writes the full detail view of a bug.
func printBug(out io.Writer, b *models.Bug) {
	fmt.Fprintf(out, "%s  %s\n", b.ID, b.Title)
	fmt.Fprintf(out, "Status:    %s\n", b.Status)
	fmt.Fprintf(out, "Priority:  %s\n", b.Priority)
	fmt.Fprintf(out, "Category:  %s\n", b.Category)
	if b.Assignee != "" {
		fmt.Fprintf(out, "Assignee:  %s\n", b.Assignee)
	}
	if b.Reporter != "" {
		fmt.Fprintf(out, "Reporter:  %s\n", b.Reporter)
	}
	if b.Environment != "" {
		fmt.Fprintf(out, "Env:       %s\n", b.Environment)
	}
	if b.Version != "" {
		fmt.Fprintf(out, "Version:   %s\n", b.Version)
	}
	if b.DueDate != nil {
		fmt.Fprintf(out, "Due:       %s\n", b.DueDate.Format(time.DateOnly))
	}
	if len(b.Tags) > 0 {
		fmt.Fprintf(out, "Tags:      %s\n", strings.Join(b.Tags, ", "))
	}
	fmt.Fprintf(out, "Created:   %s\n", b.CreatedAt.Format(time.DateTime))
	fmt.Fprintf(out, "Updated:   %s\n", b.UpdatedAt.Format(time.DateTime))

	if b.Description != "" {
		fmt.Fprintf(out, "\n%s\n", b.Description)
	}
	if len(b.ReproductionSteps) > 0 {
		fmt.Fprintln(out, "\nSteps to reproduce:")
		for i, s := range b.ReproductionSteps {
			fmt.Fprintf(out, "  %d. %s\n", i+1, s)
		}
	}
	if len(b.Attachments) > 0 {
		fmt.Fprintf(out, "\nAttachments: %s\n", strings.Join(b.Attachments, ", "))
	}

	fmt.Fprintf(out, "\nComments (%d):\n", len(b.Comments))
	for _, c := range b.Comments {
		author := c.Author
		if author == "" {
			author = "anonymous"
		}
		fmt.Fprintf(out, "  [%s] %s: %s\n", c.CreatedAt.Format(time.DateTime), author, c.Content)
	}
}
